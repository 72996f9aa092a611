// Package metrics provides Prometheus metrics for AgroPower.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts API requests by endpoint and outcome.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agropower",
			Name:      "requests_total",
			Help:      "Total API requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	// ComputationDuration tracks how long each computation kind takes.
	ComputationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "agropower",
			Name:      "computation_duration_seconds",
			Help:      "Duration of physics and recommendation computations",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// CandidatesFiltered counts tractors eliminated per filter rule.
	CandidatesFiltered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agropower",
			Name:      "candidates_filtered_total",
			Help:      "Tractors eliminated by each filter rule",
		},
		[]string{"rule"},
	)

	// CompatibilityScore observes the distribution of ranked scores.
	CompatibilityScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "agropower",
			Name:      "compatibility_score",
			Help:      "Compatibility scores of ranked candidates",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		},
		[]string{"work_type"},
	)

	// QueriesPersisted counts committed query transactions by type.
	QueriesPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agropower",
			Name:      "queries_persisted_total",
			Help:      "Committed query transactions by query type",
		},
		[]string{"type"},
	)
)
