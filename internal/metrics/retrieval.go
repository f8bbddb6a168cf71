package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval Prometheus metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tributa",
			Name:      "searches_total",
			Help:      "Total number of retrieval requests",
		},
		[]string{"outcome"}, // "hit" / "empty"
	)

	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tributa",
			Name:      "search_duration_seconds",
			Help:      "End-to-end retrieval duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	CascadeStageTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tributa",
			Name:      "cascade_stage_total",
			Help:      "Cascade stage attempts by outcome",
		},
		[]string{"stage", "outcome"}, // outcome: "hit" / "miss"
	)

	FallbackDepth = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tributa",
			Name:      "fallback_depth",
			Help:      "Number of cascade stages visited before a hit",
			Buckets:   []float64{1, 2, 3, 4},
		},
	)

	BackendFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tributa",
			Name:      "backend_failures_total",
			Help:      "Search backend failures swallowed by the cascade",
		},
		[]string{"stage", "backend"},
	)
)

var retrievalMetricsRegistered bool

// RegisterRetrievalMetrics registers Prometheus retrieval metrics. Must be called once from main.
func RegisterRetrievalMetrics() {
	if retrievalMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(CascadeStageTotal)
	prometheus.MustRegister(FallbackDepth)
	prometheus.MustRegister(BackendFailuresTotal)
	retrievalMetricsRegistered = true
}
