// Package mission contains the mission state machine, the task allocator
// and the concrete mission kinds the ground station can run.
package mission

// queueMap is a multimap of per-key FIFO queues. Waiting tasks and waiting
// vehicles are both held in one, keyed by job type.
type queueMap[T comparable] struct {
	items map[string][]T
}

func newQueueMap[T comparable]() *queueMap[T] {
	return &queueMap[T]{items: make(map[string][]T)}
}

// Push appends v to the queue for key.
func (q *queueMap[T]) Push(key string, v T) {
	q.items[key] = append(q.items[key], v)
}

// Pop removes and returns the oldest entry for key.
func (q *queueMap[T]) Pop(key string) (T, bool) {
	var zero T
	list := q.items[key]
	if len(list) == 0 {
		return zero, false
	}
	v := list[0]
	q.items[key] = list[1:]
	return v, true
}

// Remove deletes the first occurrence of v under key.
func (q *queueMap[T]) Remove(key string, v T) bool {
	list := q.items[key]
	for i, item := range list {
		if item == v {
			q.items[key] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// Count returns the number of entries queued for key.
func (q *queueMap[T]) Count(key string) int {
	return len(q.items[key])
}

// Total returns the number of entries across all keys.
func (q *queueMap[T]) Total() int {
	n := 0
	for _, list := range q.items {
		n += len(list)
	}
	return n
}
