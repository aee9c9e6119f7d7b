// Package metrics exposes the simulator's Prometheus instrumentation: per-
// instrument message counters, registry size gauges, and phase-transition
// counters, mounted on /metrics via promhttp (SPEC_FULL.md §4.12), in the
// labeled-metric style the pack's bbgo xmaker strategy uses.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	messagesGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ordersim",
		Name:      "messages_generated_total",
		Help:      "Generated order-flow messages, by instrument and message type.",
	}, []string{"symbol", "message_type"})

	registrySize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ordersim",
		Name:      "registry_size",
		Help:      "Current count of resting orders tracked per instrument's Order Registry.",
	}, []string{"symbol"})

	phaseTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ordersim",
		Name:      "phase_transitions_total",
		Help:      "Trading-phase transitions, by instrument and destination phase.",
	}, []string{"symbol", "phase"})

	executorPanics = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ordersim",
		Name:      "executor_panics_total",
		Help:      "Panics recovered from an Executor's execute(), by executor name.",
	}, []string{"executor"})
)

// RecordMessage increments the generated-message counter for symbol/messageType.
func RecordMessage(symbol, messageType string) {
	messagesGenerated.WithLabelValues(symbol, messageType).Inc()
}

// SetRegistrySize sets the current registry size gauge for symbol.
func SetRegistrySize(symbol string, size int) {
	registrySize.WithLabelValues(symbol).Set(float64(size))
}

// RecordPhaseTransition increments the phase-transition counter for symbol/phase.
func RecordPhaseTransition(symbol, phase string) {
	phaseTransitions.WithLabelValues(symbol, phase).Inc()
}

// RecordExecutorPanic increments the executor-panic counter for name.
func RecordExecutorPanic(name string) {
	executorPanics.WithLabelValues(name).Inc()
}

// Register mounts the /metrics endpoint on mux.
func Register(mux *http.ServeMux) {
	mux.Handle("GET /metrics", promhttp.Handler())
}
