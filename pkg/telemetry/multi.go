package telemetry

import (
	"time"

	"github.com/vango-dev/attrs/pkg/attrs"
)

// multi fans instrumentation callbacks out to several implementations.
type multi []attrs.Instrumentation

// Multi combines several Instrumentation implementations into one, e.g.
// Prometheus metrics and OpenTelemetry tracing on the same model.
func Multi(ins ...attrs.Instrumentation) attrs.Instrumentation {
	out := make(multi, 0, len(ins))
	for _, in := range ins {
		if in != nil {
			out = append(out, in)
		}
	}
	return out
}

func (m multi) Recompute(property string, d time.Duration) {
	for _, in := range m {
		in.Recompute(property, d)
	}
}

func (m multi) Change(property string) {
	for _, in := range m {
		in.Change(property)
	}
}

func (m multi) ObservableCount(n int) {
	for _, in := range m {
		in.ObservableCount(n)
	}
}
