package attrs

import (
	"runtime"
	"sync"
)

// traceFrame accumulates the property reads observed during one forced
// evaluation. A frame is installed for the duration of an observable's
// first evaluation and records every Model.Get on any model, so reads
// performed transitively inside other computed getters are captured too.
type traceFrame struct {
	deps []Dep
}

// traceFrames stores the active capture frame per goroutine. Scoping the
// frame to the goroutine (rather than a single process-wide slot) keeps
// concurrent discovery on independent goroutines from interleaving.
var traceFrames sync.Map

// goroutineID returns a unique identifier for the current goroutine,
// parsed from the runtime stack header "goroutine <id> ".
// This is an implementation detail and must not leak outside the package.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := 10; i < n; i++ { // Skip "goroutine "
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// beginTrace installs a capture frame for the current goroutine, seeded
// with any explicitly declared dependencies. The returned function removes
// the frame, restores whatever frame was active before, and hands back
// everything recorded.
func beginTrace(seed []Dep) func() []Dep {
	gid := goroutineID()
	prev, hadPrev := traceFrames.Load(gid)

	frame := &traceFrame{deps: append([]Dep(nil), seed...)}
	traceFrames.Store(gid, frame)

	return func() []Dep {
		if hadPrev {
			traceFrames.Store(gid, prev)
		} else {
			traceFrames.Delete(gid)
		}
		return frame.deps
	}
}

// recordRead appends a read to the active capture frame, if any.
// Called on every Model.Get; a no-op outside of dependency discovery.
func recordRead(name string, source *Model) {
	v, ok := traceFrames.Load(goroutineID())
	if !ok {
		return
	}
	frame := v.(*traceFrame)
	frame.deps = append(frame.deps, Dep{Name: name, Source: source})
}
