// Package scheduler generates each cycle's assignments once, on the first
// tick that finds the cycle not yet generated.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/teambalancer/teambalancer-api/internal/cycle"
	"github.com/teambalancer/teambalancer-api/internal/services"
)

type Generator interface {
	WasGenerated(ctx context.Context, cycleDate time.Time) (bool, error)
	GenerateAndSave(ctx context.Context, cycleDate time.Time) (*services.GenerationResult, error)
}

type Scheduler struct {
	generator Generator
	cycles    *cycle.Calculator
	interval  time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func New(generator Generator, cycles *cycle.Calculator, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		generator: generator,
		cycles:    cycles,
		interval:  interval,
		logger:    logger.With("component", "scheduler"),
		now:       time.Now,
	}
}

// Run ticks immediately and then every interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	s.Tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick generates the current cycle unless a generation for it has already
// committed. It reports whether a generation ran and succeeded.
func (s *Scheduler) Tick(ctx context.Context) bool {
	current := s.cycles.Current(s.now())
	logger := s.logger.With("cycle", current.Format("2006-01-02"))

	generated, err := s.generator.WasGenerated(ctx, current)
	if err != nil {
		logger.Error("failed to check cycle runs", "error", err)
		return false
	}
	if generated {
		return false
	}

	logger.Info("cycle not generated yet, generating")
	result, err := s.generator.GenerateAndSave(ctx, current)
	if err != nil {
		// the orchestrator already logged and notified
		return false
	}
	logger.Info("scheduled generation finished", "run_id", result.RunID, "assignments", len(result.Assignments))
	return true
}
