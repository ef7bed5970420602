package sched

import (
	"testing"
	"time"
)

func newTestRegistry() (*Registry, *FakeClock) {
	clock := NewFakeClock()
	return NewRegistry(clock, Inline{}), clock
}

func TestFireResolvesBeforeTimeout(t *testing.T) {
	r, clock := newTestRegistry()

	var got any
	timedOut := false
	r.Register("k", func(v any) { got = v }, time.Second, func() { timedOut = true })

	if !r.Fire("k", 42) {
		t.Fatal("Fire returned false for an armed waiter")
	}
	if got != 42 {
		t.Fatalf("onEvent got %v, want 42", got)
	}

	clock.Advance(2 * time.Second)
	if timedOut {
		t.Fatal("timeout fired after the waiter was resolved")
	}
	if r.Pending("k") {
		t.Fatal("waiter still pending after Fire")
	}
}

func TestTimeoutFiresWhenNeverResolved(t *testing.T) {
	r, clock := newTestRegistry()

	fired := false
	timedOut := false
	r.Register("k", func(any) { fired = true }, time.Second, func() { timedOut = true })

	clock.Advance(999 * time.Millisecond)
	if timedOut {
		t.Fatal("timeout fired early")
	}
	clock.Advance(time.Millisecond)
	if !timedOut {
		t.Fatal("timeout did not fire at the deadline")
	}
	if fired {
		t.Fatal("onEvent ran without a Fire")
	}
	if r.Fire("k", nil) {
		t.Fatal("Fire succeeded on an expired waiter")
	}
}

func TestReRegisterReplacesWaiter(t *testing.T) {
	r, clock := newTestRegistry()

	firstEvent, firstTimeout := false, false
	r.Register("k", func(any) { firstEvent = true }, time.Second, func() { firstTimeout = true })

	secondTimeout := false
	r.Register("k", nil, 5*time.Second, func() { secondTimeout = true })

	// the first waiter's deadline passes; only the replacement may act
	clock.Advance(2 * time.Second)
	if firstTimeout {
		t.Fatal("replaced waiter's timeout fired")
	}
	if secondTimeout {
		t.Fatal("replacement timed out early")
	}

	clock.Advance(3 * time.Second)
	if !secondTimeout {
		t.Fatal("replacement's timeout did not fire")
	}
	if firstEvent {
		t.Fatal("replaced waiter's onEvent ran")
	}
}

func TestCancelSuppressesBothCallbacks(t *testing.T) {
	r, clock := newTestRegistry()

	ran := false
	r.Register("k", func(any) { ran = true }, time.Second, func() { ran = true })
	r.Cancel("k")
	r.Cancel("k") // idempotent

	clock.Advance(time.Minute)
	if ran {
		t.Fatal("callback ran after Cancel")
	}
	if r.Fire("k", nil) {
		t.Fatal("Fire succeeded after Cancel")
	}
}

func TestClearAllDropsEveryWaiter(t *testing.T) {
	r, clock := newTestRegistry()

	ran := 0
	for _, k := range []string{"a", "b", "c"} {
		r.Register(k, nil, time.Second, func() { ran++ })
	}
	r.ClearAll()
	clock.Advance(time.Minute)
	if ran != 0 {
		t.Fatalf("%d timeouts ran after ClearAll", ran)
	}
}

func TestIndependentKeys(t *testing.T) {
	r, clock := newTestRegistry()

	timeouts := map[string]bool{}
	r.Register("a", nil, time.Second, func() { timeouts["a"] = true })
	r.Register("b", nil, 3*time.Second, func() { timeouts["b"] = true })

	if !r.Fire("a", nil) {
		t.Fatal("Fire(a) failed")
	}
	clock.Advance(5 * time.Second)
	if timeouts["a"] {
		t.Fatal("resolved waiter timed out")
	}
	if !timeouts["b"] {
		t.Fatal("untouched waiter did not time out")
	}
}

func TestLateTimerAfterReRegisterIsNoOp(t *testing.T) {
	// A queued expiry from an old generation must not kill the new waiter.
	clock := NewFakeClock()
	var backlog []func()
	deferred := executorFunc(func(f func()) { backlog = append(backlog, f) })
	r := NewRegistry(clock, deferred)

	oldTimeout, newTimeout := false, false
	r.Register("k", nil, time.Second, func() { oldTimeout = true })
	clock.Advance(time.Second) // expiry queued on the executor, not yet run

	r.Register("k", nil, time.Minute, func() { newTimeout = true })
	for _, f := range backlog {
		f()
	}
	if oldTimeout {
		t.Fatal("stale expiry ran its timeout callback")
	}
	if newTimeout {
		t.Fatal("new waiter expired")
	}
	if !r.Pending("k") {
		t.Fatal("stale expiry removed the new waiter")
	}
}

func TestRepeatTicksUntilCancelled(t *testing.T) {
	r, clock := newTestRegistry()

	ticks := 0
	cancel := r.Repeat(time.Second, func() { ticks++ })

	clock.Advance(3 * time.Second)
	if ticks != 3 {
		t.Fatalf("got %d ticks, want 3", ticks)
	}

	cancel()
	clock.Advance(10 * time.Second)
	if ticks != 3 {
		t.Fatalf("ticks continued after cancel: %d", ticks)
	}
}

func TestRepeatCancelBeatsQueuedTick(t *testing.T) {
	clock := NewFakeClock()
	var backlog []func()
	deferred := executorFunc(func(f func()) { backlog = append(backlog, f) })
	r := NewRegistry(clock, deferred)

	ticks := 0
	cancel := r.Repeat(time.Second, func() { ticks++ })
	clock.Advance(time.Second) // tick queued
	cancel()
	for _, f := range backlog {
		f()
	}
	if ticks != 0 {
		t.Fatalf("queued tick ran after cancel: %d", ticks)
	}
}

func TestFakeClockFiresInDeadlineOrder(t *testing.T) {
	clock := NewFakeClock()

	var order []string
	clock.AfterFunc(3*time.Second, func() { order = append(order, "c") })
	clock.AfterFunc(time.Second, func() { order = append(order, "a") })
	clock.AfterFunc(2*time.Second, func() { order = append(order, "b") })

	clock.Advance(5 * time.Second)
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("fired out of order: %v", order)
	}
	if n := len(clock.pendingTimers()); n != 0 {
		t.Fatalf("%d timers still pending", n)
	}
}

// executorFunc adapts a function to the Executor interface.
type executorFunc func(func())

func (e executorFunc) Post(f func()) { e(f) }
