package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/attrs/pkg/attrs"
)

// MetricsConfig configures the Prometheus instrumentation.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "attrs").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for recompute duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus instrumentation.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "attrs",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics exports model activity as Prometheus metrics. It implements
// attrs.Instrumentation and is wired into a model via
// attrs.WithInstrumentation.
type Metrics struct {
	recomputesTotal   *prometheus.CounterVec
	recomputeDuration *prometheus.HistogramVec
	changesTotal      *prometheus.CounterVec
	observables       prometheus.Gauge
}

// NewMetrics creates the Prometheus instrumentation, registering its
// collectors with the configured registry.
func NewMetrics(opts ...MetricsOption) *Metrics {
	cfg := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	factory := promauto.With(cfg.Registry)

	return &Metrics{
		recomputesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "recomputes_total",
			Help:        "Total number of computed property evaluations.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"property"}),
		recomputeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "recompute_duration_seconds",
			Help:        "Duration of computed property evaluations.",
			ConstLabels: cfg.ConstLabels,
			Buckets:     cfg.Buckets,
		}, []string{"property"}),
		changesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "changes_total",
			Help:        "Total number of effective property changes.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"property"}),
		observables: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "observables",
			Help:        "Number of registered observable properties.",
			ConstLabels: cfg.ConstLabels,
		}),
	}
}

// Recompute implements attrs.Instrumentation.
func (m *Metrics) Recompute(property string, d time.Duration) {
	m.recomputesTotal.WithLabelValues(property).Inc()
	m.recomputeDuration.WithLabelValues(property).Observe(d.Seconds())
}

// Change implements attrs.Instrumentation.
func (m *Metrics) Change(property string) {
	m.changesTotal.WithLabelValues(property).Inc()
}

// ObservableCount implements attrs.Instrumentation.
func (m *Metrics) ObservableCount(n int) {
	m.observables.Set(float64(n))
}

var _ attrs.Instrumentation = (*Metrics)(nil)
