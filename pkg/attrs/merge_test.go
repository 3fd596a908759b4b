package attrs

import (
	"errors"
	"testing"
)

func TestUnsettableFault(t *testing.T) {
	m := New(
		WithValue("n", 1),
		WithComputed("ro", Computed{
			Get: func(m *Model) any { return m.Get("n") },
		}),
	)

	err := m.Set("ro", 5)
	if err == nil {
		t.Fatal("expected unsettable fault")
	}
	if !errors.Is(err, ErrUnsettable) {
		t.Errorf("expected ErrUnsettable, got %v", err)
	}

	var ue *UnsettableError
	if !errors.As(err, &ue) || ue.Name != "ro" {
		t.Errorf("expected UnsettableError for ro, got %v", err)
	}
}

func TestSettableComputed(t *testing.T) {
	m := New(
		WithValue("cents", 150),
		WithComputed("dollars", Computed{
			Get: func(m *Model) any { return float64(m.Get("cents").(int)) / 100 },
			Set: func(m *Model, v any) map[string]any {
				return map[string]any{"cents": int(v.(float64) * 100)}
			},
		}),
	)

	if got := m.Get("dollars"); got != 1.5 {
		t.Fatalf("expected 1.5, got %v", got)
	}

	if err := m.Set("dollars", 2.25); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.Get("cents"); got != 225 {
		t.Errorf("expected cents=225, got %v", got)
	}
	// The computed value follows through its own dependency on cents.
	if got := m.Get("dollars"); got != 2.25 {
		t.Errorf("expected dollars=2.25, got %v", got)
	}
}

func TestWriteFanOut(t *testing.T) {
	var pDeps, qDeps int
	m := New(
		WithValue("p", 0),
		WithValue("q", 0),
		WithComputed("pDouble", Computed{
			Get: func(m *Model) any { pDeps++; return m.Get("p").(int) * 2 },
		}),
		WithComputed("qDouble", Computed{
			Get: func(m *Model) any { qDeps++; return m.Get("q").(int) * 2 },
		}),
		WithComputed("both", Computed{
			Get: func(m *Model) any { return m.Get("p").(int) + m.Get("q").(int) },
			Set: func(m *Model, v any) map[string]any {
				return map[string]any{"p": 1, "q": 2}
			},
		}),
	)

	pDeps, qDeps = 0, 0
	if err := m.Set("both", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Both fan-out targets applied in the same outer write.
	if got := m.Get("p"); got != 1 {
		t.Errorf("expected p=1, got %v", got)
	}
	if got := m.Get("q"); got != 2 {
		t.Errorf("expected q=2, got %v", got)
	}
	// Each target's dependents triggered exactly once.
	if pDeps != 1 {
		t.Errorf("expected pDouble recomputed once, got %d", pDeps)
	}
	if qDeps != 1 {
		t.Errorf("expected qDouble recomputed once, got %d", qDeps)
	}
}

func TestFanOutThroughComputedChain(t *testing.T) {
	// A setter may write into another settable computed; the chain merges
	// into the same outer operation.
	m := New(
		WithValue("raw", 0),
		WithComputed("inner", Computed{
			Get: func(m *Model) any { return m.Get("raw") },
			Set: func(m *Model, v any) map[string]any {
				return map[string]any{"raw": v}
			},
		}),
		WithComputed("outer", Computed{
			Get: func(m *Model) any { return m.Get("raw") },
			Set: func(m *Model, v any) map[string]any {
				return map[string]any{"inner": v}
			},
		}),
	)

	if err := m.Set("outer", 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.Get("raw"); got != 7 {
		t.Errorf("expected raw=7 through two setter hops, got %v", got)
	}
}

func TestRecursiveSetterFault(t *testing.T) {
	m := New(
		WithValue("seed", 0),
		WithComputed("x", Computed{
			Get: func(m *Model) any { return m.Get("seed") },
			Set: func(m *Model, v any) map[string]any {
				return map[string]any{"y": v}
			},
		}),
		WithComputed("y", Computed{
			Get: func(m *Model) any { return m.Get("seed") },
			Set: func(m *Model, v any) map[string]any {
				return map[string]any{"x": v}
			},
		}),
	)

	err := m.Set("x", 1)
	if err == nil {
		t.Fatal("expected recursive setter fault")
	}
	if !errors.Is(err, ErrRecursiveSetter) {
		t.Errorf("expected ErrRecursiveSetter, got %v", err)
	}

	var re *RecursiveSetterError
	if !errors.As(err, &re) {
		t.Fatalf("expected RecursiveSetterError, got %v", err)
	}
	want := []string{"x", "y", "x"}
	if len(re.Path) != len(want) {
		t.Fatalf("expected path %v, got %v", want, re.Path)
	}
	for i := range want {
		if re.Path[i] != want[i] {
			t.Fatalf("expected path %v, got %v", want, re.Path)
		}
	}

	// Either entry point reports the cycle.
	if err := m.Set("y", 1); !errors.Is(err, ErrRecursiveSetter) {
		t.Errorf("expected cycle from y as well, got %v", err)
	}
}

func TestSelfRecursiveSetterFault(t *testing.T) {
	m := New(
		WithComputed("loop", Computed{
			Get: func(m *Model) any { return 0 },
			Set: func(m *Model, v any) map[string]any {
				return map[string]any{"loop": v}
			},
		}),
	)

	if err := m.Set("loop", 1); !errors.Is(err, ErrRecursiveSetter) {
		t.Errorf("expected self-cycle fault, got %v", err)
	}
}

func TestIndependentBranchesNoSpuriousCycle(t *testing.T) {
	// Two sibling branches both ultimately write the same plain property.
	// Each branch runs with its own stack copy, so this is not a cycle.
	m := New(
		WithValue("log", 0),
		WithComputed("left", Computed{
			Get: func(m *Model) any { return m.Get("log") },
			Set: func(m *Model, v any) map[string]any {
				return map[string]any{"log": v}
			},
		}),
		WithComputed("right", Computed{
			Get: func(m *Model) any { return m.Get("log") },
			Set: func(m *Model, v any) map[string]any {
				return map[string]any{"log": v}
			},
		}),
		WithComputed("fan", Computed{
			Get: func(m *Model) any { return m.Get("log") },
			Set: func(m *Model, v any) map[string]any {
				return map[string]any{"left": v, "right": v}
			},
		}),
	)

	if err := m.Set("fan", 9); err != nil {
		t.Fatalf("independent branches reported a cycle: %v", err)
	}
	if got := m.Get("log"); got != 9 {
		t.Errorf("expected log=9, got %v", got)
	}
}

func TestMixedBatchPassthrough(t *testing.T) {
	m := New(
		WithAttributes(map[string]any{"plain": "old"}),
		WithValue("obs", 1),
	)

	err := m.SetAll(map[string]any{
		"plain":   "new",
		"obs":     2,
		"unknown": true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := m.Get("plain"); got != "new" {
		t.Errorf("expected plain=new, got %v", got)
	}
	if got := m.Get("obs"); got != 2 {
		t.Errorf("expected obs=2, got %v", got)
	}
	// Entries without an observable pass through into the base storage.
	if got := m.Get("unknown"); got != true {
		t.Errorf("expected unknown=true, got %v", got)
	}
	if m.IsObservable("unknown") {
		t.Error("passthrough entry must not become observable")
	}
}

func TestFaultLeavesSiblingsApplied(t *testing.T) {
	// No transactional guarantee: a failing branch aborts the call, but a
	// sibling already merged stays applied.
	m := New(
		WithValue("ok", 0),
		WithComputed("bad", Computed{
			Get: func(m *Model) any { return 0 },
		}),
	)

	// Drive the batch one entry at a time to make ordering deterministic.
	if err := m.Set("ok", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Set("bad", 1); !errors.Is(err, ErrUnsettable) {
		t.Fatalf("expected unsettable fault, got %v", err)
	}

	if got := m.Get("ok"); got != 1 {
		t.Errorf("sibling write rolled back unexpectedly: %v", got)
	}
}
