// Package metrics provides the prometheus collectors exposed at /metrics:
// tool-call counts and latency, and LSP subprocess up/down gauges. It owns
// its own registry rather than using the global default, so a test process
// can construct more than one Metrics without a duplicate-registration
// panic.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "serena_mcp"

// Metrics holds every collector this server reports.
type Metrics struct {
	registry *prometheus.Registry

	toolCalls        *prometheus.CounterVec
	toolCallDuration *prometheus.HistogramVec
	lspServerUp      *prometheus.GaugeVec
}

// New constructs a Metrics with a fresh registry and every collector
// registered against it.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.toolCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tool",
			Name:      "calls_total",
			Help:      "Total number of tools/call invocations by tool name and outcome",
		},
		[]string{"tool", "outcome"},
	)
	m.toolCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tool",
			Name:      "call_duration_seconds",
			Help:      "tools/call invocation duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		},
		[]string{"tool"},
	)
	m.lspServerUp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "lsp",
			Name:      "server_up",
			Help:      "1 if the language server for this language is running, 0 otherwise",
		},
		[]string{"language"},
	)

	m.registry.MustRegister(m.toolCalls, m.toolCallDuration, m.lspServerUp)
	return m
}

// ObserveToolCall records one tools/call invocation's outcome and duration.
func (m *Metrics) ObserveToolCall(tool, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
	m.toolCallDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// SetLSPServerUp records whether language's server is currently running.
func (m *Metrics) SetLSPServerUp(language string, up bool) {
	if m == nil {
		return
	}
	value := 0.0
	if up {
		value = 1.0
	}
	m.lspServerUp.WithLabelValues(language).Set(value)
}

// Handler returns the HTTP handler to mount at /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
