// Package attrs provides a reactive property layer over a plain key/value
// model: computed properties derived from other properties, with automatic
// dependency discovery.
//
// # Core Types
//
// Model is a named attribute container. Plain attributes behave like an
// ordinary map; observable properties add change notifications and computed
// derivation on top:
//
//	m := attrs.New(
//	    attrs.WithValue("net", 100.0),
//	    attrs.WithValue("rate", 0.2),
//	    attrs.WithComputed("gross", attrs.Computed{
//	        Get: func(m *attrs.Model) any {
//	            return m.Get("net").(float64) * (1 + m.Get("rate").(float64))
//	        },
//	    }),
//	)
//	m.Get("gross") // 120.0, recomputed whenever net or rate changes
//
// A computed property's dependencies do not need to be declared: the first
// evaluation runs inside a dependency trace that records every property read
// performed through any Model's accessor, including reads made transitively
// by other computed getters. Discovery runs once; a getter whose control
// flow reads different properties on later invocations keeps its original
// dependency set (a known limitation, see the package tests).
//
// # Writes
//
// Set and SetAll route assignments through the observable layer. A computed
// property with a setter may fan further assignments out into the same write
// operation by returning a map from its setter. Cycles between setters are
// detected and rejected with a RecursiveSetterError; assigning to a computed
// property without a setter fails with an UnsettableError. Unset bypasses
// the observable layer entirely.
//
// # Change Propagation
//
// Propagation is synchronous and eager. Every effective change fires the
// property-specific "change:<name>" event followed by the generic "change"
// event on the owning model's emitter, before the write call returns.
// Deep-equal values are suppressed and fire nothing, which stops redundant
// propagation through chains of computed properties.
package attrs
