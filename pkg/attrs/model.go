package attrs

import (
	"sync"
	"sync/atomic"

	"github.com/vango-dev/attrs/pkg/emitter"
)

// Destroy is the event fired on a model's emitter after Destroy completes.
const Destroy = "destroy"

// Model is a key/value attribute container augmented with observable and
// computed properties. Plain attributes pass straight through to the
// underlying map; observable-backed properties are transparent to callers
// of Get and Set but add change notification, derived values and write
// fan-out.
type Model struct {
	id     uint64
	events *emitter.Emitter

	// mu guards the attribute and observable maps. It is never held while
	// a getter, setter or event handler runs, so reactive paths may
	// re-enter the model freely.
	mu          sync.RWMutex
	attributes  map[string]any
	observables map[string]*observable

	instrument Instrumentation
	destroyed  atomic.Bool
}

// modelConfig collects construction options before the model exists.
type modelConfig struct {
	attributes map[string]any
	values     []valueDecl
	computed   []computedDecl
	instrument Instrumentation
}

type valueDecl struct {
	name    string
	initial any
}

type computedDecl struct {
	name string
	c    Computed
}

// Option configures a Model at construction.
type Option func(*modelConfig)

// WithAttributes seeds plain (non-observable) attributes.
func WithAttributes(values map[string]any) Option {
	return func(cfg *modelConfig) {
		if cfg.attributes == nil {
			cfg.attributes = make(map[string]any, len(values))
		}
		for k, v := range values {
			cfg.attributes[k] = v
		}
	}
}

// WithValue declares a plain observable property with an initial value.
func WithValue(name string, initial any) Option {
	return func(cfg *modelConfig) {
		cfg.values = append(cfg.values, valueDecl{name: name, initial: initial})
	}
}

// WithComputed declares a computed property.
func WithComputed(name string, c Computed) Option {
	return func(cfg *modelConfig) {
		cfg.computed = append(cfg.computed, computedDecl{name: name, c: c})
	}
}

// WithInstrumentation wires metrics/tracing callbacks into the model.
func WithInstrumentation(in Instrumentation) Option {
	return func(cfg *modelConfig) {
		cfg.instrument = in
	}
}

// New constructs a model. Observables declared via options are all
// constructed before any of them is initialized, so computed getters
// declared here may reference each other regardless of declaration order.
func New(opts ...Option) *Model {
	var cfg modelConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &Model{
		id:          emitter.NextID(),
		events:      emitter.New(),
		attributes:  make(map[string]any, len(cfg.attributes)),
		observables: make(map[string]*observable),
		instrument:  cfg.instrument,
	}
	if m.instrument == nil {
		m.instrument = NopInstrumentation()
	}
	for k, v := range cfg.attributes {
		m.attributes[k] = v
	}

	// Phase one: construct everything.
	batch := make([]*observable, 0, len(cfg.values)+len(cfg.computed))
	for _, d := range cfg.values {
		o := newValueObservable(m, d.name, d.initial)
		m.observables[d.name] = o
		batch = append(batch, o)
	}
	for _, d := range cfg.computed {
		o := newComputedObservable(m, d.name, d.c)
		m.observables[d.name] = o
		batch = append(batch, o)
	}

	// Phase two: first evaluations and subscription wiring.
	for _, o := range batch {
		o.init()
	}

	m.instrument.ObservableCount(len(m.observables))
	return m
}

// ID returns the model's unique identifier.
func (m *Model) ID() uint64 {
	return m.id
}

// Events exposes the model's change-notification bus. External consumers
// subscribe to "change" or "change:<property>" with an ID from
// emitter.NextID.
func (m *Model) Events() *emitter.Emitter {
	return m.events
}

// Get returns the current value of a property. Observable-backed reads are
// served from the cached value; a read never triggers recomputation. Every
// read is visible to an active dependency trace, which is how computed
// properties discover their inputs.
func (m *Model) Get(name string) any {
	recordRead(name, m)

	m.mu.RLock()
	o := m.observables[name]
	m.mu.RUnlock()

	if o != nil {
		return o.get(false)
	}
	return m.baseGet(name)
}

// Has reports whether the property exists, either as an observable or as a
// plain attribute.
func (m *Model) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.observables[name]; ok {
		return true
	}
	_, ok := m.attributes[name]
	return ok
}

// Attributes returns a snapshot of all properties: plain attributes
// overlaid with the current value of every observable.
func (m *Model) Attributes() map[string]any {
	m.mu.RLock()
	out := make(map[string]any, len(m.attributes)+len(m.observables))
	for k, v := range m.attributes {
		out[k] = v
	}
	obs := make(map[string]*observable, len(m.observables))
	for name, o := range m.observables {
		obs[name] = o
	}
	m.mu.RUnlock()

	for name, o := range obs {
		out[name] = o.get(false)
	}
	return out
}

// Set assigns one property, routing through the observable write-merge.
func (m *Model) Set(name string, value any) error {
	return m.SetAll(map[string]any{name: value})
}

// SetAll assigns a batch of properties as one write operation. Observable
// entries route through their setters; setter fan-out merges into this same
// operation; everything without an observable passes through untouched to
// the underlying attribute write. Faults (unsettable property, recursive
// setter) abort the call, but branches already applied are not rolled back.
func (m *Model) SetAll(values map[string]any) error {
	passthrough := make(map[string]any)
	if err := m.merge(values, nil, passthrough); err != nil {
		return err
	}
	if len(passthrough) > 0 {
		m.baseSet(passthrough)
	}
	return nil
}

// merge resolves one batch of assignments. stack holds the property names
// currently being resolved within the outer write; each recursive branch
// extends a fresh copy so independent branches cannot spuriously collide.
func (m *Model) merge(values map[string]any, stack []string, passthrough map[string]any) error {
	for name, value := range values {
		m.mu.RLock()
		o := m.observables[name]
		m.mu.RUnlock()

		if o == nil {
			passthrough[name] = value
			continue
		}

		if !o.computed {
			o.change(value)
			continue
		}

		if o.setter == nil {
			return &UnsettableError{Name: name}
		}
		for _, open := range stack {
			if open == name {
				path := append(append([]string(nil), stack...), name)
				return &RecursiveSetterError{Path: path}
			}
		}

		branch := append(append([]string(nil), stack...), name)
		if out := o.setter(m, value); len(out) > 0 {
			if err := m.merge(out, branch, passthrough); err != nil {
				return err
			}
		}
	}
	return nil
}

// Unset removes a plain attribute, bypassing the write-merge entirely.
// An observable registered under the same name is untouched.
func (m *Model) Unset(name string) {
	m.mu.Lock()
	_, ok := m.attributes[name]
	delete(m.attributes, name)
	m.mu.Unlock()

	if ok {
		m.notifyChange(name, nil)
	}
}

// baseGet is the underlying attribute read.
func (m *Model) baseGet(name string) any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.attributes[name]
}

// baseSet is the underlying attribute write. It applies the same equality
// suppression as the observable layer and fires change notifications for
// every entry that actually changed, after releasing the lock.
func (m *Model) baseSet(values map[string]any) {
	type applied struct {
		name  string
		value any
	}
	var fired []applied

	m.mu.Lock()
	for k, v := range values {
		if deepEqual(m.attributes[k], v) {
			continue
		}
		m.attributes[k] = v
		fired = append(fired, applied{name: k, value: v})
	}
	m.mu.Unlock()

	for _, a := range fired {
		m.notifyChange(a.name, a.value)
	}
}

// notifyChange fires the combined change notification for one property:
// specific event first, then the generic one. Handlers run synchronously,
// so dependent recomputations complete before the triggering write returns.
func (m *Model) notifyChange(name string, value any) {
	m.instrument.Change(name)
	m.events.Trigger(emitter.ChangeEvent(name), m, name, value)
	m.events.Trigger(emitter.Change, m, name, value)
}

// DefineValue registers a plain observable property. Registration after
// construction initializes immediately; re-registering a name disposes the
// prior observable first.
func (m *Model) DefineValue(name string, initial any) {
	m.define(newValueObservable(m, name, initial))
}

// DefineComputed registers a computed property. Omitting Deps triggers
// automatic dependency discovery during the immediate first evaluation.
func (m *Model) DefineComputed(name string, c Computed) {
	m.define(newComputedObservable(m, name, c))
}

func (m *Model) define(o *observable) {
	m.mu.Lock()
	prev := m.observables[o.name]
	m.observables[o.name] = o
	n := len(m.observables)
	m.mu.Unlock()

	if prev != nil {
		prev.dispose()
	}
	o.init()
	m.instrument.ObservableCount(n)
}

// IsObservable reports whether name is backed by an observable.
func (m *Model) IsObservable(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.observables[name]
	return ok
}

// RemoveObservable disposes and removes a single observable registration.
// Any plain attribute under the same name is unaffected.
func (m *Model) RemoveObservable(name string) {
	m.mu.Lock()
	o := m.observables[name]
	delete(m.observables, name)
	n := len(m.observables)
	m.mu.Unlock()

	if o != nil {
		o.dispose()
		m.instrument.ObservableCount(n)
	}
}

// RemoveAllObservables disposes and removes every observable registration.
func (m *Model) RemoveAllObservables() {
	m.mu.Lock()
	obs := m.observables
	m.observables = make(map[string]*observable)
	m.mu.Unlock()

	for _, o := range obs {
		o.dispose()
	}
	if len(obs) > 0 {
		m.instrument.ObservableCount(0)
	}
}

// Destroy disposes every observable, clears the attribute map, fires the
// "destroy" event and drops all remaining subscriptions, so that nothing
// outlives the model. Destroy is idempotent.
func (m *Model) Destroy() {
	if m.destroyed.Swap(true) {
		return
	}

	m.RemoveAllObservables()

	m.mu.Lock()
	m.attributes = make(map[string]any)
	m.mu.Unlock()

	m.events.Trigger(Destroy, m)
	m.events.Clear()
}
