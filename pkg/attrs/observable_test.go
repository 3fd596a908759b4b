package attrs

import (
	"sync"
	"testing"
)

func TestAutoDiscovery(t *testing.T) {
	getterCalls := 0
	m := New(
		WithValue("a", 1),
		WithValue("b", 2),
		WithValue("c", 3),
		WithComputed("sum", Computed{
			Get: func(m *Model) any {
				getterCalls++
				return m.Get("a").(int) + m.Get("b").(int)
			},
		}),
	)

	if getterCalls != 1 {
		t.Fatalf("expected 1 evaluation at init, got %d", getterCalls)
	}
	if got := m.Get("sum"); got != 3 {
		t.Errorf("expected sum=3, got %v", got)
	}

	// Changing a discovered dependency recomputes.
	if err := m.Set("a", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if getterCalls != 2 {
		t.Errorf("expected recompute on dependency change, got %d calls", getterCalls)
	}
	if got := m.Get("sum"); got != 12 {
		t.Errorf("expected sum=12, got %v", got)
	}

	// Changing an unrelated property must not recompute.
	if err := m.Set("c", 30); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if getterCalls != 2 {
		t.Errorf("unrelated change triggered recompute, got %d calls", getterCalls)
	}
}

func TestLazyCaching(t *testing.T) {
	getterCalls := 0
	m := New(
		WithValue("n", 4),
		WithComputed("sq", Computed{
			Get: func(m *Model) any {
				getterCalls++
				n := m.Get("n").(int)
				return n * n
			},
		}),
	)

	// Two reads without any dependency change: served from cache.
	if got := m.Get("sq"); got != 16 {
		t.Errorf("expected 16, got %v", got)
	}
	if got := m.Get("sq"); got != 16 {
		t.Errorf("expected 16, got %v", got)
	}
	if getterCalls != 1 {
		t.Errorf("expected getter to run once, got %d", getterCalls)
	}
}

func TestMultipleReadsOneSubscription(t *testing.T) {
	getterCalls := 0
	m := New(
		WithValue("x", 1),
		WithComputed("twice", Computed{
			Get: func(m *Model) any {
				getterCalls++
				// Reads the same dependency twice; must wire one subscription.
				return m.Get("x").(int) + m.Get("x").(int)
			},
		}),
	)

	if err := m.Set("x", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if getterCalls != 2 {
		t.Errorf("duplicate reads wired duplicate subscriptions: %d calls", getterCalls)
	}
	if got := m.Get("twice"); got != 4 {
		t.Errorf("expected 4, got %v", got)
	}
}

func TestCascadePropagation(t *testing.T) {
	var bCalls, cCalls int
	var cSawB any

	m := New(
		WithValue("a", 1),
		WithComputed("b", Computed{
			Get: func(m *Model) any {
				bCalls++
				return m.Get("a").(int) + 1
			},
		}),
		WithComputed("c", Computed{
			Get: func(m *Model) any {
				cCalls++
				cSawB = m.Get("b")
				return m.Get("b").(int) + 1
			},
		}),
	)

	bCalls, cCalls = 0, 0
	if err := m.Set("a", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Exactly one recomputation each, in dependency order.
	if bCalls != 1 {
		t.Errorf("expected b recomputed once, got %d", bCalls)
	}
	if cCalls != 1 {
		t.Errorf("expected c recomputed once, got %d", cCalls)
	}
	if cSawB != 11 {
		t.Errorf("c observed stale b: %v", cSawB)
	}
	if got := m.Get("c"); got != 12 {
		t.Errorf("expected c=12, got %v", got)
	}
}

func TestCascadeSuppressionStopsChain(t *testing.T) {
	var cCalls int
	m := New(
		WithValue("a", 5),
		WithComputed("sign", Computed{
			Get: func(m *Model) any {
				if m.Get("a").(int) >= 0 {
					return 1
				}
				return -1
			},
		}),
		WithComputed("label", Computed{
			Get: func(m *Model) any {
				cCalls++
				if m.Get("sign").(int) > 0 {
					return "positive"
				}
				return "negative"
			},
		}),
	)

	cCalls = 0
	// sign re-evaluates but does not change; label must not recompute.
	if err := m.Set("a", 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cCalls != 0 {
		t.Errorf("suppressed intermediate change still propagated, got %d calls", cCalls)
	}
}

func TestNestedDiscoveryThroughComputed(t *testing.T) {
	// inner is initialized before outer; outer's discovery reads inner,
	// whose cached value read appears in outer's trace.
	m := New(
		WithValue("base", 2),
		WithComputed("inner", Computed{
			Get: func(m *Model) any { return m.Get("base").(int) * 10 },
		}),
		WithComputed("outer", Computed{
			Get: func(m *Model) any { return m.Get("inner").(int) + 1 },
		}),
	)

	if got := m.Get("outer"); got != 21 {
		t.Fatalf("expected outer=21, got %v", got)
	}

	if err := m.Set("base", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.Get("outer"); got != 31 {
		t.Errorf("expected outer=31 after cascade, got %v", got)
	}
}

func TestExplicitDeps(t *testing.T) {
	// Getter reads nothing through the accessor; the explicit list is the
	// only wiring.
	hidden := 1
	m := New(
		WithValue("tick", 0),
		WithComputed("snapshot", Computed{
			Get:  func(m *Model) any { v := hidden; return v },
			Deps: []Dep{On("tick")},
		}),
	)

	hidden = 2
	if err := m.Set("tick", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.Get("snapshot"); got != 2 {
		t.Errorf("explicit dependency did not trigger recompute, got %v", got)
	}
}

func TestCrossModelDependency(t *testing.T) {
	settings := New(WithValue("factor", 2))

	getterCalls := 0
	m := New(
		WithValue("n", 10),
		WithComputed("scaled", Computed{
			Get: func(m *Model) any {
				getterCalls++
				return m.Get("n").(int) * settings.Get("factor").(int)
			},
		}),
	)

	if got := m.Get("scaled"); got != 20 {
		t.Fatalf("expected 20, got %v", got)
	}

	// A change on the other model propagates across.
	if err := settings.Set("factor", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.Get("scaled"); got != 30 {
		t.Errorf("expected 30 after cross-model change, got %v", got)
	}
	if getterCalls != 2 {
		t.Errorf("expected 2 evaluations, got %d", getterCalls)
	}
}

func TestCrossModelExplicitDep(t *testing.T) {
	other := New(WithValue("v", 1))
	m := New()
	m.DefineComputed("mirror", Computed{
		Get:  func(m *Model) any { return other.Get("v") },
		Deps: []Dep{OnModel("v", other)},
	})

	if err := other.Set("v", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.Get("mirror"); got != 5 {
		t.Errorf("expected mirror=5, got %v", got)
	}
}

func TestAdHocDefineInitializesImmediately(t *testing.T) {
	m := New(WithValue("a", 1))

	getterCalls := 0
	m.DefineComputed("b", Computed{
		Get: func(m *Model) any {
			getterCalls++
			return m.Get("a").(int) * 2
		},
	})

	if getterCalls != 1 {
		t.Errorf("ad hoc computed should evaluate on registration, got %d", getterCalls)
	}
	if got := m.Get("b"); got != 2 {
		t.Errorf("expected b=2, got %v", got)
	}
}

func TestRemoveObservableStopsPropagation(t *testing.T) {
	getterCalls := 0
	m := New(
		WithValue("a", 1),
		WithComputed("b", Computed{
			Get: func(m *Model) any {
				getterCalls++
				return m.Get("a").(int) + 1
			},
		}),
	)

	m.RemoveObservable("b")
	getterCalls = 0

	if err := m.Set("a", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if getterCalls != 0 {
		t.Errorf("removed observable still recomputed %d times", getterCalls)
	}
	if m.IsObservable("b") {
		t.Error("expected b to be unregistered")
	}
}

func TestDestroyReleasesCrossModelSubscriptions(t *testing.T) {
	source := New(WithValue("v", 1))

	getterCalls := 0
	dependent := New(
		WithComputed("echo", Computed{
			Get: func(m *Model) any {
				getterCalls++
				return source.Get("v")
			},
		}),
	)
	dependent.Destroy()
	getterCalls = 0

	if err := source.Set("v", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if getterCalls != 0 {
		t.Errorf("destroyed model's observable still fired %d times", getterCalls)
	}
}

func TestConcurrentDiscoveryIsolated(t *testing.T) {
	// Two goroutines running discovery at the same time must not see each
	// other's reads: the capture frame is goroutine-scoped.
	source := New(WithValue("left", 1), WithValue("right", 2))

	var wg sync.WaitGroup
	models := make([]*Model, 2)
	names := []string{"left", "right"}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := names[i]
			models[i] = New(WithComputed("out", Computed{
				Get: func(m *Model) any { return source.Get(name) },
			}))
		}(i)
	}
	wg.Wait()

	if err := source.Set("left", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := models[0].Get("out"); got != 10 {
		t.Errorf("expected left mirror 10, got %v", got)
	}
	if got := models[1].Get("out"); got != 2 {
		t.Errorf("right mirror picked up a foreign dependency: %v", got)
	}
}
