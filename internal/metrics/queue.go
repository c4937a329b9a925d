package metrics

import (
	"context"
	"sync"
)

// compactThreshold bounds how many consumed slots the queue keeps before
// shifting the live tail back to the front of the buffer.
const compactThreshold = 4096

// Queue is an unbounded multi-producer, single-consumer FIFO of measurements.
// Push never blocks; Pop blocks until an item arrives or ctx is done.
type Queue struct {
	mu     sync.Mutex
	items  []Measurement
	head   int
	notify chan struct{}
}

func NewQueue() *Queue {
	return &Queue{notify: make(chan struct{}, 1)}
}

// Push appends m. Safe for concurrent use by any number of producers.
func (q *Queue) Push(m Measurement) {
	q.mu.Lock()
	q.items = append(q.items, m)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Pop removes the oldest measurement. Only one goroutine may call Pop.
func (q *Queue) Pop(ctx context.Context) (Measurement, error) {
	for {
		if m, ok := q.tryPop(); ok {
			return m, nil
		}
		select {
		case <-q.notify:
		case <-ctx.Done():
			return Measurement{}, ctx.Err()
		}
	}
}

// Len reports the number of measurements waiting to be consumed.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

func (q *Queue) tryPop() (Measurement, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head >= len(q.items) {
		if q.head > 0 {
			q.items = q.items[:0]
			q.head = 0
		}
		return Measurement{}, false
	}

	m := q.items[q.head]
	q.items[q.head] = Measurement{}
	q.head++

	if q.head >= compactThreshold && q.head*2 >= len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	return m, true
}
