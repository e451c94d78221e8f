package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	GenerationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "teambalancer", Name: "generations_total", Help: "Assignment generations by outcome."},
		[]string{"outcome"},
	)
	GenerationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Namespace: "teambalancer", Name: "generation_duration_seconds", Help: "Time spent generating and saving one cycle.", Buckets: prometheus.ExponentialBuckets(0.25, 2, 10)},
	)
	AssignmentsSaved = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "teambalancer", Name: "assignments_saved_total", Help: "Work assignment rows written by generations."},
	)
	OracleFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "teambalancer", Name: "oracle_failures_total", Help: "Distribution oracle failures by kind."},
		[]string{"kind"},
	)
	NotificationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "teambalancer", Name: "notification_failures_total", Help: "Webhook notifications that could not be delivered, by event."},
		[]string{"event"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "teambalancer", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "teambalancer", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	SSEClients = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "teambalancer", Name: "sse_clients", Help: "Connected event stream clients."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(
		GenerationsTotal,
		GenerationDuration,
		AssignmentsSaved,
		OracleFailures,
		NotificationFailures,
		RateLimitAllowed,
		RateLimitRejected,
		SSEClients,
	)
}
