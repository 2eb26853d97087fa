package breaker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// breakerState exports the current state per circuit:
	// 0 closed, 1 open, 2 half-open.
	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "price_breaker_state",
			Help: "Current circuit breaker state (0 closed, 1 open, 2 half-open)",
		},
		[]string{"name"},
	)

	// breakerRejections counts calls rejected without touching upstream.
	breakerRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_breaker_rejections_total",
			Help: "Total calls rejected by an open circuit breaker",
		},
		[]string{"name"},
	)

	// breakerTransitions counts state transitions by target state.
	breakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_breaker_transitions_total",
			Help: "Total circuit breaker state transitions by target state",
		},
		[]string{"name", "to"},
	)
)
