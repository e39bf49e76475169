package request

import "github.com/prometheus/client_golang/prometheus"

var requestOutcomes = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "que_request_outcomes_total",
		Help: "Vendor API responses by outcome class",
	},
	[]string{"outcome"},
)

// MetricsCollectors returns the collectors owned by this package.
func MetricsCollectors() []prometheus.Collector {
	return []prometheus.Collector{requestOutcomes}
}
