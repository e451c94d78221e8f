package handlers

import (
	"context"
	"time"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db       Pinger
	gatherer prometheus.Gatherer
}

func NewHealthHandler(db Pinger, gatherer prometheus.Gatherer) *HealthHandler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &HealthHandler{db: db, gatherer: gatherer}
}

func (h *HealthHandler) Health(c *drift.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		_ = c.JSON(503, map[string]string{"status": "unavailable", "database": "unreachable"})
		c.Abort()
		return
	}
	_ = c.JSON(200, map[string]string{"status": "ok"})
}

func (h *HealthHandler) Metrics(c *drift.Context) {
	promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}).ServeHTTP(c.Response, c.Request)
	c.Abort()
}
