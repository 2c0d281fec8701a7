package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the editor service.
type Metrics struct {
	Registry *prometheus.Registry

	ExecutionsTotal   *prometheus.CounterVec
	ExecutionDuration *prometheus.HistogramVec
	ActiveRuns        prometheus.Gauge
	HistoryWrites     *prometheus.CounterVec
	ActiveSessions    prometheus.Gauge
	RequestsInFlight  prometheus.Gauge
	CodeSizeBytes     prometheus.Histogram
	OutputSizeBytes   prometheus.Histogram
}

// NewMetrics creates and registers all Prometheus metrics using a dedicated registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,

		ExecutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "codepad",
				Name:      "executions_total",
				Help:      "Total number of code executions by language and outcome.",
			},
			[]string{"language", "outcome"},
		),

		ExecutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "codepad",
				Name:      "execution_duration_seconds",
				Help:      "Duration of sandbox round trips in seconds.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"language"},
		),

		ActiveRuns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "codepad",
				Name:      "active_runs",
				Help:      "Number of currently in-flight sandbox executions.",
			},
		),

		HistoryWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "codepad",
				Name:      "history_writes_total",
				Help:      "Execution history save attempts by outcome (saved, denied, skipped, error).",
			},
			[]string{"outcome"},
		),

		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "codepad",
				Name:      "active_sessions",
				Help:      "Number of live editor sessions.",
			},
		),

		RequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "codepad",
				Subsystem: "api",
				Name:      "requests_in_flight",
				Help:      "Number of HTTP requests currently being processed.",
			},
		),

		CodeSizeBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "codepad",
				Name:      "code_size_bytes",
				Help:      "Size of submitted source text in bytes.",
				Buckets:   prometheus.ExponentialBuckets(100, 4, 8),
			},
		),

		OutputSizeBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "codepad",
				Name:      "output_size_bytes",
				Help:      "Size of execution output in bytes.",
				Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
			},
		),
	}

	// Register all collectors
	reg.MustRegister(
		m.ExecutionsTotal,
		m.ExecutionDuration,
		m.ActiveRuns,
		m.HistoryWrites,
		m.ActiveSessions,
		m.RequestsInFlight,
		m.CodeSizeBytes,
		m.OutputSizeBytes,
	)

	return m
}

// RecordExecution records metrics for a completed execution attempt.
func (m *Metrics) RecordExecution(language, outcome string, durationSec float64) {
	m.ExecutionsTotal.WithLabelValues(language, outcome).Inc()
	m.ExecutionDuration.WithLabelValues(language).Observe(durationSec)
}

// RecordHistoryWrite records the outcome of a history save attempt.
func (m *Metrics) RecordHistoryWrite(outcome string) {
	m.HistoryWrites.WithLabelValues(outcome).Inc()
}
