package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/teambalancer/teambalancer-api/internal/metrics"
)

// EventPublisher pushes live updates to connected clients.
type EventPublisher interface {
	BroadcastAssignmentsGenerated(runID string, cycleDate time.Time, count int)
	BroadcastWorkPortionCreated(id int64, name string, weight int, createdBy int64)
}

type nopPublisher struct{}

func (nopPublisher) BroadcastAssignmentsGenerated(string, time.Time, int)   {}
func (nopPublisher) BroadcastWorkPortionCreated(int64, string, int, int64) {}

// logNotifyFailure records a webhook delivery error. Notifications never fail
// the operation that triggered them.
func logNotifyFailure(logger *slog.Logger, event string, err error) {
	if err == nil {
		return
	}
	metrics.NotificationFailures.WithLabelValues(event).Inc()
	logger.Warn("notification failed", "event", event, "error", err)
}

// outbox delivers notifications on background goroutines.
type outbox struct {
	pending sync.WaitGroup
}

func (o *outbox) send(ctx context.Context, logger *slog.Logger, event string, deliver func(context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	o.pending.Add(1)
	go func() {
		defer o.pending.Done()
		logNotifyFailure(logger, event, deliver(ctx))
	}()
}

// Wait blocks until every notification sent so far has been delivered or has failed.
func (o *outbox) Wait() {
	o.pending.Wait()
}
