package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "review", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "review", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	// StatusTransitions counts committed document status changes.
	StatusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "review", Name: "document_transitions_total", Help: "Committed document status transitions."},
		[]string{"from", "to"},
	)
	// Decisions counts recorded approval decisions by action.
	Decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "review", Name: "decisions_total", Help: "Recorded approval decisions by action."},
		[]string{"action"},
	)
	// OperationFailures counts workflow operations refused or failed, by error code.
	OperationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "review", Name: "operation_failures_total", Help: "Failed workflow operations by operation and error code."},
		[]string{"operation", "code"},
	)
	// StatsCacheLookups counts approval stats cache hits and misses.
	StatsCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "review", Name: "stats_cache_lookups_total", Help: "Approval stats cache lookups by result."},
		[]string{"result"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(StatusTransitions)
	reg.MustRegister(Decisions)
	reg.MustRegister(OperationFailures)
	reg.MustRegister(StatsCacheLookups)
}
