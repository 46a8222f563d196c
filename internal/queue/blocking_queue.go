package queue

import (
	"context"
	"sync/atomic"
)

// Blocking wraps a lock-free queue with a wakeup signal so a single consumer
// can wait for items. Producers never block.
type Blocking[T any] struct {
	q       Queue[T]
	signal  chan struct{}
	closed  chan struct{}
	closing atomic.Bool
}

// NewBlocking creates an empty Blocking queue.
func NewBlocking[T any]() *Blocking[T] {
	return &Blocking[T]{
		q:      NewLockFreeQueue[T](),
		signal: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

// Enqueue adds item to the tail. It returns false if the queue is closed.
func (b *Blocking[T]) Enqueue(item T) bool {
	if b.closing.Load() {
		return false
	}

	b.q.Enqueue(item)

	select {
	case b.signal <- struct{}{}:
	default:
	}

	return true
}

// Dequeue waits for the head item. ok is false when ctx is done or the
// queue is closed.
func (b *Blocking[T]) Dequeue(ctx context.Context) (item T, ok bool) {
	for {
		if item, ok = b.q.Dequeue(); ok {
			return item, true
		}

		select {
		case <-ctx.Done():
			return item, false
		case <-b.closed:
			return item, false
		case <-b.signal:
		}
	}
}

// TryDequeue removes the head item without waiting.
func (b *Blocking[T]) TryDequeue() (T, bool) {
	return b.q.Dequeue()
}

// Length returns the number of queued items.
func (b *Blocking[T]) Length() int {
	return b.q.Length()
}

// Close wakes any waiting consumer and rejects further items. Queued items
// remain available through TryDequeue. Close is idempotent.
func (b *Blocking[T]) Close() {
	if b.closing.CompareAndSwap(false, true) {
		close(b.closed)
	}
}
