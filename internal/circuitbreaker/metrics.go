package circuitbreaker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ragchat_circuit_breaker_state",
			Help: "Breaker position (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name", "service"},
	)

	breakerAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragchat_circuit_breaker_attempts_total",
			Help: "Attempts through the breaker by outcome",
		},
		[]string{"name", "service", "state", "result"},
	)

	breakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragchat_circuit_breaker_transitions_total",
			Help: "Breaker state transitions",
		},
		[]string{"name", "service", "from_state", "to_state"},
	)

	breakerOpenSince = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ragchat_circuit_breaker_open_since_seconds",
			Help: "When the breaker last opened (0 while not open)",
		},
		[]string{"name", "service"},
	)
)
