package attrs

import "time"

// Instrumentation receives callbacks from a Model's hot paths. Implementations
// must be cheap and must not call back into the model. The default is a no-op;
// wire a real implementation with WithInstrumentation.
type Instrumentation interface {
	// Recompute is called after each getter invocation with its duration.
	Recompute(property string, d time.Duration)

	// Change is called for every effective (non-suppressed) property change.
	Change(property string)

	// ObservableCount is called whenever the number of registered
	// observables changes.
	ObservableCount(n int)
}

// nopInstrumentation discards every callback.
type nopInstrumentation struct{}

func (nopInstrumentation) Recompute(string, time.Duration) {}
func (nopInstrumentation) Change(string)                   {}
func (nopInstrumentation) ObservableCount(int)             {}

// NopInstrumentation returns an Instrumentation that does nothing.
func NopInstrumentation() Instrumentation {
	return nopInstrumentation{}
}
