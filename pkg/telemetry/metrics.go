package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for the segtrain engine.
type Metrics struct {
	config MetricsConfig

	// Document metrics
	documentsResolved  *prometheus.CounterVec
	resolveDuration    *prometheus.HistogramVec
	referencesResolved prometheus.Counter

	// Instantiation metrics
	targetsBuilt  *prometheus.CounterVec
	buildDuration *prometheus.HistogramVec

	// Run metrics
	runsStarted   *prometheus.CounterVec
	runsCompleted *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	epochsTotal   prometheus.Counter

	// Error metrics
	resolutionErrors    *prometheus.CounterVec
	instantiationErrors *prometheus.CounterVec

	// System metrics
	activeRuns prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	// Create a new registry
	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		// Document metrics
		documentsResolved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_resolved_total",
				Help:      "Total number of configuration documents resolved",
			},
			[]string{"status"},
		),
		resolveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolve_duration_seconds",
				Help:      "Duration of document resolution in seconds",
				Buckets:   buckets,
			},
			[]string{"status"},
		),
		referencesResolved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "references_resolved_total",
				Help:      "Total number of interpolation references resolved",
			},
		),

		// Instantiation metrics
		targetsBuilt: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "targets_built_total",
				Help:      "Total number of targets instantiated",
			},
			[]string{"target", "status"},
		),
		buildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "build_duration_seconds",
				Help:      "Duration of experiment assembly in seconds",
				Buckets:   buckets,
			},
			[]string{"status"},
		),

		// Run metrics
		runsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_started_total",
				Help:      "Total number of training runs started",
			},
			[]string{"backend"},
		),
		runsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_completed_total",
				Help:      "Total number of training runs completed",
			},
			[]string{"backend", "status"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of training runs in seconds",
				Buckets:   buckets,
			},
			[]string{"backend", "status"},
		),
		epochsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "epochs_completed_total",
				Help:      "Total number of training epochs completed",
			},
		),

		// Error metrics
		resolutionErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolution_errors_total",
				Help:      "Total number of resolution errors",
			},
			[]string{"kind"},
		),
		instantiationErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "instantiation_errors_total",
				Help:      "Total number of instantiation errors",
			},
			[]string{"target"},
		),

		// System metrics
		activeRuns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_runs",
				Help:      "Current number of active training runs",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.documentsResolved,
		m.resolveDuration,
		m.referencesResolved,
		m.targetsBuilt,
		m.buildDuration,
		m.runsStarted,
		m.runsCompleted,
		m.runDuration,
		m.epochsTotal,
		m.resolutionErrors,
		m.instantiationErrors,
		m.activeRuns,
	)

	return m, nil
}

// Document Metrics

// RecordDocumentResolved records a document resolution with its outcome.
func (m *Metrics) RecordDocumentResolved(status string, duration time.Duration) {
	if m.documentsResolved == nil {
		return
	}
	m.documentsResolved.WithLabelValues(status).Inc()
	m.resolveDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordReferencesResolved adds to the interpolation reference counter.
func (m *Metrics) RecordReferencesResolved(count int) {
	if m.referencesResolved == nil {
		return
	}
	m.referencesResolved.Add(float64(count))
}

// Instantiation Metrics

// RecordTargetBuilt records an instantiated target.
func (m *Metrics) RecordTargetBuilt(target, status string) {
	if m.targetsBuilt == nil {
		return
	}
	m.targetsBuilt.WithLabelValues(target, status).Inc()
}

// RecordBuildDuration records the duration of an experiment assembly.
func (m *Metrics) RecordBuildDuration(status string, duration time.Duration) {
	if m.buildDuration == nil {
		return
	}
	m.buildDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// Run Metrics

// RecordRunStarted increments the counter for started runs.
func (m *Metrics) RecordRunStarted(backend string) {
	if m.runsStarted == nil {
		return
	}
	m.runsStarted.WithLabelValues(backend).Inc()
	m.activeRuns.Inc()
}

// RecordRunCompleted records a completed run with its status and duration.
func (m *Metrics) RecordRunCompleted(backend, status string, duration time.Duration, epochs int) {
	if m.runsCompleted == nil {
		return
	}
	m.runsCompleted.WithLabelValues(backend, status).Inc()
	m.runDuration.WithLabelValues(backend, status).Observe(duration.Seconds())
	m.epochsTotal.Add(float64(epochs))
	m.activeRuns.Dec()
}

// Error Metrics

// RecordResolutionError records a resolution error by kind (unknown_path,
// cyclic_reference, parse).
func (m *Metrics) RecordResolutionError(kind string) {
	if m.resolutionErrors == nil {
		return
	}
	m.resolutionErrors.WithLabelValues(kind).Inc()
}

// RecordInstantiationError records an instantiation error for a target.
func (m *Metrics) RecordInstantiationError(target string) {
	if m.instantiationErrors == nil {
		return
	}
	m.instantiationErrors.WithLabelValues(target).Inc()
}

// System Metrics

// SetActiveRuns sets the current number of active runs.
func (m *Metrics) SetActiveRuns(count float64) {
	if m.activeRuns == nil {
		return
	}
	m.activeRuns.Set(count)
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration is a helper to time an operation and record it.
func (t *Timer) ObserveDuration(observer prometheus.Observer) {
	observer.Observe(t.Duration().Seconds())
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server to expose metrics.
func (m *Metrics) StartMetricsServer() error {
	if !m.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			// Log error but don't fail the application
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()

	return nil
}
