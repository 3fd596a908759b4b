package emitter

import (
	"strings"
	"sync"
	"sync/atomic"
)

// Change is the generic event fired whenever any property of a model changes.
const Change = "change"

// changePrefix is prepended to a property name to form its specific event.
const changePrefix = Change + ":"

// ChangeEvent returns the property-specific change event name for name.
// A name that already carries the "change:" prefix is returned unchanged,
// so callers may pass either a bare property name or a full event name.
func ChangeEvent(name string) string {
	if strings.HasPrefix(name, changePrefix) {
		return name
	}
	return changePrefix + name
}

// globalIDCounter is the source of unique subscriber IDs.
// Atomic increments keep ID generation lock-free.
var globalIDCounter uint64

// NextID returns the next unique subscriber ID.
// IDs are monotonically increasing and never reused.
func NextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}

// Handler is a callback invoked synchronously when an event is triggered.
// The arguments are whatever the trigger site supplied.
type Handler func(args ...any)

// binding associates a subscriber ID with its handler for one event.
type binding struct {
	id uint64
	fn Handler
}

// Emitter is a synchronous in-process event bus keyed by event name.
// Dispatch is immediate: Trigger runs every handler to completion before
// returning. Handlers may trigger further events re-entrantly; the emitter
// copies the binding list before notifying so mutation during dispatch is
// safe.
type Emitter struct {
	mu       sync.RWMutex
	bindings map[string][]binding
}

// New creates an empty Emitter.
func New() *Emitter {
	return &Emitter{
		bindings: make(map[string][]binding),
	}
}

// On subscribes fn to event under the given subscriber ID.
// Subscribing the same ID to the same event twice is a no-op, so repeated
// wiring of one subscriber produces a single notification per trigger.
func (e *Emitter) On(event string, id uint64, fn Handler) {
	if fn == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, b := range e.bindings[event] {
		if b.id == id {
			return
		}
	}
	e.bindings[event] = append(e.bindings[event], binding{id: id, fn: fn})
}

// Off removes the subscription of id for event, if present.
func (e *Emitter) Off(event string, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	bs := e.bindings[event]
	for i, b := range bs {
		if b.id == id {
			e.bindings[event] = append(bs[:i], bs[i+1:]...)
			if len(e.bindings[event]) == 0 {
				delete(e.bindings, event)
			}
			return
		}
	}
}

// OffAll removes every subscription held by id across all events.
// Used for mass teardown when a subscriber is disposed.
func (e *Emitter) OffAll(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for event, bs := range e.bindings {
		kept := bs[:0]
		for _, b := range bs {
			if b.id != id {
				kept = append(kept, b)
			}
		}
		if len(kept) == 0 {
			delete(e.bindings, event)
		} else {
			e.bindings[event] = kept
		}
	}
}

// Clear removes every subscription on this emitter.
func (e *Emitter) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bindings = make(map[string][]binding)
}

// Trigger synchronously invokes every handler subscribed to event.
// The binding list is copied before notification so handlers may subscribe
// or unsubscribe without corrupting the dispatch in flight.
func (e *Emitter) Trigger(event string, args ...any) {
	e.mu.RLock()
	bs := e.bindings[event]
	handlers := make([]Handler, len(bs))
	for i, b := range bs {
		handlers[i] = b.fn
	}
	e.mu.RUnlock()

	for _, fn := range handlers {
		fn(args...)
	}
}

// HasListeners reports whether any subscription exists for event.
func (e *Emitter) HasListeners(event string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.bindings[event]) > 0
}
