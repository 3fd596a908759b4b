package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/attrs/pkg/attrs"
)

// Default tracer name for attrs instrumentation.
const defaultTracerName = "attrs"

// TracingConfig configures the OpenTelemetry instrumentation.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "attrs").
	TracerName string

	// Filter determines which properties to trace.
	// Return true to trace the recompute, false to skip.
	// If nil, all recomputes are traced.
	Filter func(property string) bool

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// TracingOption configures the OpenTelemetry instrumentation.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithPropertyFilter sets a filter function for traced properties.
func WithPropertyFilter(filter func(property string) bool) TracingOption {
	return func(c *TracingConfig) {
		c.Filter = filter
	}
}

// Tracing records computed-property evaluations as OpenTelemetry spans.
// It implements attrs.Instrumentation. Change and observable-count
// callbacks are not traced; they are covered by Metrics.
type Tracing struct {
	cfg TracingConfig
}

// NewTracing creates the OpenTelemetry instrumentation.
func NewTracing(opts ...TracingOption) *Tracing {
	cfg := TracingConfig{
		TracerName: defaultTracerName,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.tracer = otel.Tracer(cfg.TracerName)

	return &Tracing{cfg: cfg}
}

// Recompute implements attrs.Instrumentation. The evaluation already
// finished when this is called, so the span is emitted retroactively with
// its start timestamp backdated by the measured duration.
func (t *Tracing) Recompute(property string, d time.Duration) {
	if t.cfg.Filter != nil && !t.cfg.Filter(property) {
		return
	}

	end := time.Now()
	_, span := t.cfg.tracer.Start(context.Background(), "attrs.recompute",
		trace.WithTimestamp(end.Add(-d)),
		trace.WithAttributes(
			attribute.String("attrs.property", property),
			attribute.Float64("attrs.duration_ms", float64(d)/float64(time.Millisecond)),
		),
	)
	span.End(trace.WithTimestamp(end))
}

// Change implements attrs.Instrumentation.
func (t *Tracing) Change(string) {}

// ObservableCount implements attrs.Instrumentation.
func (t *Tracing) ObservableCount(int) {}

var _ attrs.Instrumentation = (*Tracing)(nil)
