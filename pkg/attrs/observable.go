package attrs

import (
	"time"

	"github.com/vango-dev/attrs/pkg/emitter"
)

// Getter computes a derived value. It runs with the owning model as context
// and reads its inputs through Model.Get, which is how dependency discovery
// observes them.
type Getter func(m *Model) any

// Setter handles an assignment to a computed property. It may return a map
// of further property assignments to merge into the same outer write
// (fan-out), or nil.
type Setter func(m *Model, value any) map[string]any

// Computed configures a derived property. Get is required. Deps may be left
// empty to have the dependency set discovered automatically during the
// first evaluation.
type Computed struct {
	Get  Getter
	Set  Setter
	Deps []Dep
}

// subscription records one (target model, change event) wire so it can be
// torn down on disposal.
type subscription struct {
	target *Model
	event  string
}

// observable is a single property slot owned by a model: either a plain
// cached value, or a computed value with a getter, optional setter and a
// dependency list.
type observable struct {
	id       uint64
	name     string
	model    *Model
	value    any
	computed bool
	getter   Getter
	setter   Setter
	deps     []Dep
	subs     []subscription
}

func newValueObservable(m *Model, name string, initial any) *observable {
	return &observable{
		id:    emitter.NextID(),
		name:  name,
		model: m,
		value: initial,
	}
}

func newComputedObservable(m *Model, name string, c Computed) *observable {
	if c.Get == nil {
		panic("attrs: computed property " + name + " requires a getter")
	}
	return &observable{
		id:       emitter.NextID(),
		name:     name,
		model:    m,
		computed: true,
		getter:   c.Get,
		setter:   c.Set,
		deps:     append([]Dep(nil), c.Deps...),
	}
}

// init performs the first evaluation and subscription wiring. It is a
// separate step from construction so that a model registering several
// observables can construct them all before any getter runs; getters may
// then reference sibling properties freely (two-phase initialization).
//
// The forced evaluation runs inside a dependency trace seeded with any
// explicitly declared deps, so reads the getter actually performs are
// appended to the declared set. Discovery happens exactly once.
func (o *observable) init() {
	if !o.computed {
		return
	}

	finish := beginTrace(o.deps)
	o.get(true)
	o.deps = finish()

	o.wire()
}

// get returns the cached value. When force is set on a computed observable
// the getter runs first and the result goes through change; a plain read
// never recomputes.
func (o *observable) get(force bool) any {
	if force && o.computed && o.model != nil {
		start := time.Now()
		v := o.getter(o.model)
		o.model.instrument.Recompute(o.name, time.Since(start))
		o.change(v)
	}
	return o.value
}

// change replaces the cached value and fires the combined change
// notification on the owning model. Deep-equal values are suppressed,
// which stops redundant propagation storms through computed chains that
// re-evaluate to the same result.
func (o *observable) change(v any) {
	if deepEqual(o.value, v) {
		return
	}
	o.value = v
	if o.model != nil {
		o.model.notifyChange(o.name, v)
	}
}

// wire subscribes this observable to the change event of each distinct
// (target, property) dependency. Multiple reads of the same dependency
// during discovery collapse into a single subscription. The handler is a
// forced re-evaluation.
func (o *observable) wire() {
	seen := make(map[subscription]bool, len(o.deps))
	for _, d := range o.deps {
		sub := subscription{
			target: d.resolve(o.model),
			event:  emitter.ChangeEvent(d.Name),
		}
		if sub.target == nil || seen[sub] {
			continue
		}
		seen[sub] = true

		sub.target.events.On(sub.event, o.id, func(args ...any) {
			o.get(true)
		})
		o.subs = append(o.subs, sub)
	}
}

// dispose releases every subscription this observable established and
// clears its back-references. After dispose the observable is inert: no
// dependency change reaches it and its cached value is gone.
func (o *observable) dispose() {
	for _, sub := range o.subs {
		sub.target.events.Off(sub.event, o.id)
	}
	o.subs = nil
	o.model = nil
	o.value = nil
}
