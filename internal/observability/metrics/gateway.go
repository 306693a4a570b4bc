package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// GatewayMetrics counts retries and tracks breaker state for outbound calls
// (LLM, vector store, queue, web). It implements resilience.Observer.
type GatewayMetrics struct {
	service      string
	retries      *prometheus.CounterVec
	breakerState *prometheus.GaugeVec
}

var breakerStates = []string{"closed", "half-open", "open"}

func NewGatewayMetrics(service string, reg prometheus.Registerer) *GatewayMetrics {
	retries := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "retries_total",
			Help:      "Retried gateway attempts by operation.",
		},
		[]string{"service", "operation"},
	)
	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "breaker_state",
			Help:      "1 for the current circuit breaker state of each operation.",
		},
		[]string{"service", "operation", "state"},
	)
	reg.MustRegister(retries, breakerState)
	return &GatewayMetrics{service: service, retries: retries, breakerState: breakerState}
}

func (m *GatewayMetrics) ObserveRetry(operation string) {
	m.retries.WithLabelValues(m.service, operation).Inc()
}

func (m *GatewayMetrics) ObserveBreakerState(operation, state string) {
	for _, s := range breakerStates {
		v := 0.0
		if s == state {
			v = 1
		}
		m.breakerState.WithLabelValues(m.service, operation, s).Set(v)
	}
}
