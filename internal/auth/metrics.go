package auth

import "github.com/prometheus/client_golang/prometheus"

var (
	tokenRefreshSuccess = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "que_token_refresh_success_total",
			Help: "Successful token acquisitions by token kind",
		},
		[]string{"token"},
	)
	tokenRefreshFailure = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "que_token_refresh_failure_total",
			Help: "Failed token acquisitions by token kind",
		},
		[]string{"token"},
	)
	tokenValid = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "que_token_valid",
			Help: "Bearer token validity (1=valid, 0=invalid)",
		},
	)
)

// MetricsCollectors returns collectors for the token manager.
func MetricsCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		tokenRefreshSuccess,
		tokenRefreshFailure,
		tokenValid,
	}
}
