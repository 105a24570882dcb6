package satoru

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

var (
	upstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "satoru_upstream_requests_total",
			Help: "Total requests sent to the core API by operation and status code",
		},
		[]string{"op", "status"},
	)

	upstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "satoru_upstream_request_duration_seconds",
			Help:    "Core API request latency by operation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	tokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "satoru_token_refreshes_total",
			Help: "Access token refresh attempts by outcome",
		},
		[]string{"outcome"},
	)

	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "satoru_circuit_breaker_state",
			Help: "Core API circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
