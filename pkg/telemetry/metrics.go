// Package telemetry exposes Prometheus metrics for reconciliation runs.
// All record methods are safe on a disabled (nil-registry) instance, so
// callers never need to guard metric calls.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsConfig controls whether metrics are collected and where they are
// served from.
type MetricsConfig struct {
	Enabled       bool
	Namespace     string
	ListenAddress string
	Path          string
}

// DefaultMetricsConfig returns a disabled configuration with the standard
// namespace and path filled in.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "gwsynth",
		Path:      "/metrics",
	}
}

// Metrics collects counters for reconciliation runs against the tenant.
type Metrics struct {
	config MetricsConfig

	// Run metrics
	runsStarted   *prometheus.CounterVec
	runsCompleted *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec

	// Ensure metrics: one observation per desired resource, labelled by
	// resource kind (user, group, drive, folder, doc, ...) and outcome
	// (create, update, skip, conflict).
	ensureOutcomes *prometheus.CounterVec

	// Remote API metrics
	remoteCalls    *prometheus.CounterVec
	remoteDuration *prometheus.HistogramVec
	remoteErrors   *prometheus.CounterVec

	// Content generation metrics
	cacheLookups *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a metrics collector. When cfg.Enabled is false every
// record method is a no-op and Handler serves 404.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		runsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_started_total",
				Help:      "Total number of reconciliation runs started",
			},
			[]string{"verb"},
		),
		runsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_completed_total",
				Help:      "Total number of reconciliation runs completed",
			},
			[]string{"verb", "status"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of reconciliation runs in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"verb", "status"},
		),

		ensureOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ensure_outcomes_total",
				Help:      "Per-resource reconciliation outcomes",
			},
			[]string{"kind", "outcome"},
		),

		remoteCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remote_calls_total",
				Help:      "Total number of Workspace API calls",
			},
			[]string{"service", "operation"},
		),
		remoteDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "remote_call_duration_seconds",
				Help:      "Duration of Workspace API calls in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service", "operation"},
		),
		remoteErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remote_errors_total",
				Help:      "Total number of failed Workspace API calls",
			},
			[]string{"service", "operation"},
		),

		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "content_cache_lookups_total",
				Help:      "Content cache lookups by result (hit, miss, bypass)",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		m.runsStarted,
		m.runsCompleted,
		m.runDuration,
		m.ensureOutcomes,
		m.remoteCalls,
		m.remoteDuration,
		m.remoteErrors,
		m.cacheLookups,
	)

	return m, nil
}

// RecordRunStarted increments the counter for started runs.
func (m *Metrics) RecordRunStarted(verb string) {
	if m == nil || m.runsStarted == nil {
		return
	}
	m.runsStarted.WithLabelValues(verb).Inc()
}

// RecordRunCompleted records a completed run with its status and duration.
func (m *Metrics) RecordRunCompleted(verb, status string, duration time.Duration) {
	if m == nil || m.runsCompleted == nil {
		return
	}
	m.runsCompleted.WithLabelValues(verb, status).Inc()
	m.runDuration.WithLabelValues(verb, status).Observe(duration.Seconds())
}

// RecordEnsureOutcome records the reconciliation outcome for one resource.
func (m *Metrics) RecordEnsureOutcome(kind, outcome string) {
	if m == nil || m.ensureOutcomes == nil {
		return
	}
	m.ensureOutcomes.WithLabelValues(kind, outcome).Inc()
}

// RecordRemoteCall records a Workspace API call with its duration.
func (m *Metrics) RecordRemoteCall(service, operation string, duration time.Duration) {
	if m == nil || m.remoteCalls == nil {
		return
	}
	m.remoteCalls.WithLabelValues(service, operation).Inc()
	m.remoteDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordRemoteError records a failed Workspace API call.
func (m *Metrics) RecordRemoteError(service, operation string) {
	if m == nil || m.remoteErrors == nil {
		return
	}
	m.remoteErrors.WithLabelValues(service, operation).Inc()
}

// RecordCacheLookup records a content cache lookup result.
func (m *Metrics) RecordCacheLookup(result string) {
	if m == nil || m.cacheLookups == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Serve starts an HTTP server exposing the metrics endpoint. It returns
// immediately; errors from the listener are delivered to errc.
func (m *Metrics) Serve(errc chan<- error) {
	if m == nil || !m.config.Enabled {
		return
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
			if errc != nil {
				errc <- err
			}
		}
	}()
}
