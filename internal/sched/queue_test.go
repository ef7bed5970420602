package sched

import (
	"testing"
	"time"
)

func TestQueueRunsPostsInOrder(t *testing.T) {
	q := NewQueue()
	q.Start()
	defer q.Stop()

	done := make(chan struct{})
	var order []int
	for i := 1; i <= 5; i++ {
		i := i
		q.Post(func() { order = append(order, i) })
	}
	q.Post(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("queue did not drain")
	}
	for i, v := range order {
		if v != i+1 {
			t.Fatalf("out of order: %v", order)
		}
	}
}

func TestQueuePostAfterStopIsDropped(t *testing.T) {
	q := NewQueue()
	q.Start()
	q.Stop()

	ran := make(chan struct{}, 1)
	q.Post(func() { ran <- struct{}{} }) // must not block or run

	select {
	case <-ran:
		t.Fatal("work ran after Stop")
	case <-time.After(50 * time.Millisecond):
	}
	q.Stop() // idempotent
}
