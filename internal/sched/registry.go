package sched

import (
	"sync"
	"time"
)

// waiter is one armed deferred event.
type waiter struct {
	gen       uint64
	onEvent   func(value any)
	onTimeout func()
	timer     Timer
}

// Registry arms one-shot waiters under string keys: either Fire resolves the
// key before its timeout elapses, or the timeout callback runs. It has no
// knowledge of messages; the messenger keys waiters as "<vehicle>#<msgid>"
// and the fleet keys liveness as "vehicle#<id>".
//
// Re-registering a key replaces the prior waiter (last write wins). All
// timeout callbacks are posted onto the Executor, so they never overlap with
// message processing.
type Registry struct {
	clock Clock
	exec  Executor

	mu      sync.Mutex
	gen     uint64
	waiters map[string]*waiter
}

// NewRegistry creates an empty registry bound to a clock and executor.
func NewRegistry(clock Clock, exec Executor) *Registry {
	return &Registry{clock: clock, exec: exec, waiters: make(map[string]*waiter)}
}

// Register arms a waiter under key. onEvent runs if Fire(key, ...) happens
// within timeout; otherwise onTimeout runs. Either way the waiter is removed.
func (r *Registry) Register(key string, onEvent func(value any), timeout time.Duration, onTimeout func()) {
	r.mu.Lock()
	if old, ok := r.waiters[key]; ok {
		old.timer.Stop()
	}
	r.gen++
	w := &waiter{gen: r.gen, onEvent: onEvent, onTimeout: onTimeout}
	r.waiters[key] = w
	gen := w.gen
	w.timer = r.clock.AfterFunc(timeout, func() {
		r.exec.Post(func() { r.expire(key, gen) })
	})
	r.mu.Unlock()
}

// expire runs the timeout callback if the waiter is still the one that armed
// this timer. A fire or cancel that raced the timer wins: the generation no
// longer matches and the late timer is a silent no-op.
func (r *Registry) expire(key string, gen uint64) {
	r.mu.Lock()
	w, ok := r.waiters[key]
	if !ok || w.gen != gen {
		r.mu.Unlock()
		return
	}
	delete(r.waiters, key)
	r.mu.Unlock()
	if w.onTimeout != nil {
		w.onTimeout()
	}
}

// Fire resolves the waiter under key with value, running its onEvent callback
// synchronously on the caller. Returns false if no waiter was armed.
func (r *Registry) Fire(key string, value any) bool {
	r.mu.Lock()
	w, ok := r.waiters[key]
	if ok {
		delete(r.waiters, key)
		w.timer.Stop()
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	if w.onEvent != nil {
		w.onEvent(value)
	}
	return true
}

// Cancel removes a waiter without invoking either callback. Idempotent.
func (r *Registry) Cancel(key string) {
	r.mu.Lock()
	if w, ok := r.waiters[key]; ok {
		delete(r.waiters, key)
		w.timer.Stop()
	}
	r.mu.Unlock()
}

// ClearAll removes every waiter without invoking callbacks. Shutdown only.
func (r *Registry) ClearAll() {
	r.mu.Lock()
	for k, w := range r.waiters {
		w.timer.Stop()
		delete(r.waiters, k)
	}
	r.mu.Unlock()
}

// Pending reports whether a waiter is armed under key.
func (r *Registry) Pending(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.waiters[key]
	return ok
}

// Repeat invokes f on the executor every interval until the returned cancel
// function is called. Cancellation is atomic with respect to executor work:
// a tick already queued when cancel runs checks the flag again before firing.
func (r *Registry) Repeat(interval time.Duration, f func()) (cancel func()) {
	var mu sync.Mutex
	stopped := false
	var timer Timer
	var arm func()
	arm = func() {
		timer = r.clock.AfterFunc(interval, func() {
			r.exec.Post(func() {
				mu.Lock()
				if stopped {
					mu.Unlock()
					return
				}
				mu.Unlock()
				f()
				mu.Lock()
				if !stopped {
					arm()
				}
				mu.Unlock()
			})
		})
	}
	mu.Lock()
	arm()
	mu.Unlock()
	return func() {
		mu.Lock()
		stopped = true
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}
}
