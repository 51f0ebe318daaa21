// Package metrics provides Prometheus metrics for the grading engine's batch operations.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run outcomes.
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeError   = "error"
)

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets custom histogram buckets for run durations.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithRegistry sets the Prometheus registry metrics are registered on.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// Manager owns the engine's Prometheus collectors. A nil *Manager records nothing.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	runs        *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	rowsWritten *prometheus.CounterVec
	rowFailures *prometheus.CounterVec
	httpStatus  *prometheus.CounterVec
}

// NewManager creates a metrics manager on its own registry unless WithRegistry is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "recruit",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.runs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "batch",
		Name:      "runs_total",
		Help:      "Batch operation runs by operation and outcome",
	}, []string{"operation", "outcome"})

	m.runDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "batch",
		Name:      "run_duration_seconds",
		Help:      "Batch operation wall time",
		Buckets:   m.histogramBuckets,
	}, []string{"operation"})

	m.rowsWritten = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "batch",
		Name:      "rows_written_total",
		Help:      "Entities successfully written by batch operations",
	}, []string{"operation"})

	m.rowFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "batch",
		Name:      "row_failures_total",
		Help:      "Entities whose write failed during a batch operation",
	}, []string{"operation"})

	m.httpStatus = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "responses_total",
		Help:      "Admin API responses by route and status code",
	}, []string{"route", "code"})
}

// ObserveRun records one finished batch run.
func (m *Manager) ObserveRun(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(operation, outcome).Inc()
	m.runDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// AddRows records succeeded and failed entity writes of a batch run.
func (m *Manager) AddRows(operation string, succeeded, failed int) {
	if m == nil {
		return
	}
	if succeeded > 0 {
		m.rowsWritten.WithLabelValues(operation).Add(float64(succeeded))
	}
	if failed > 0 {
		m.rowFailures.WithLabelValues(operation).Add(float64(failed))
	}
}

// ObserveResponse records one admin API response.
func (m *Manager) ObserveResponse(route string, code int) {
	if m == nil {
		return
	}
	m.httpStatus.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Registry returns the registry the collectors are registered on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
