package metrics

import "github.com/prometheus/client_golang/prometheus"

// Filter evaluation Prometheus metrics.
var (
	FilterEvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scimd",
			Name:      "filter_evaluations_total",
			Help:      "Total number of filter evaluations against resources",
		},
		[]string{"resource_type", "outcome"}, // outcome: "match" / "no_match" / "error"
	)

	FilterParseErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "scimd",
			Name:      "filter_parse_errors_total",
			Help:      "Total number of rejected filter expressions",
		},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scimd",
			Name:      "search_duration_seconds",
			Help:      "Search request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"resource_type"},
	)
)

var filterMetricsRegistered bool

// RegisterFilterMetrics registers Prometheus filter metrics. Must be called once from main.
func RegisterFilterMetrics() {
	if filterMetricsRegistered {
		return
	}
	prometheus.MustRegister(FilterEvaluationsTotal)
	prometheus.MustRegister(FilterParseErrorsTotal)
	prometheus.MustRegister(SearchDuration)
	filterMetricsRegistered = true
}
