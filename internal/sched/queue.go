package sched

import "sync"

// Executor runs a function on a serialized context. Every mutation of fleet,
// mission or messenger state goes through one Executor, so those components
// never need their own locks.
type Executor interface {
	Post(f func())
}

// Queue is the single processing queue of the ground station. Inbound frames
// and timer callbacks are posted here and run one at a time, in order, on a
// dedicated goroutine.
type Queue struct {
	ch   chan func()
	stop chan struct{}
	wg   sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

// NewQueue creates a queue with a bounded backlog.
func NewQueue() *Queue {
	return &Queue{ch: make(chan func(), 256), stop: make(chan struct{})}
}

// Start launches the worker goroutine.
func (q *Queue) Start() {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for {
			select {
			case <-q.stop:
				return
			case f := <-q.ch:
				f()
			}
		}
	}()
}

// Post enqueues f for serialized execution. Posts after Stop are dropped.
func (q *Queue) Post(f func()) {
	q.mu.Lock()
	stopped := q.stopped
	q.mu.Unlock()
	if stopped {
		return
	}
	select {
	case q.ch <- f:
	case <-q.stop:
	}
}

// Stop halts the worker. Queued work that has not run yet is discarded.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	q.mu.Unlock()
	close(q.stop)
	q.wg.Wait()
}

// Inline is an Executor that runs work immediately on the calling goroutine.
// Tests use it so state changes happen synchronously.
type Inline struct{}

func (Inline) Post(f func()) { f() }
