package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBlocking_WaitsForItem(t *testing.T) {
	require := require.New(t)

	q := NewBlocking[string]()

	got := make(chan string, 1)
	go func() {
		item, ok := q.Dequeue(context.Background())
		if ok {
			got <- item
		}
	}()

	time.Sleep(20 * time.Millisecond)
	require.True(q.Enqueue("$H"))

	select {
	case item := <-got:
		require.Equal("$H", item)
	case <-time.After(time.Second):
		require.Fail("consumer was not woken up")
	}
}

func TestBlocking_PreservesOrder(t *testing.T) {
	require := require.New(t)

	q := NewBlocking[int]()
	for i := 0; i < 100; i++ {
		q.Enqueue(i)
	}
	require.Equal(100, q.Length())

	for i := 0; i < 100; i++ {
		item, ok := q.Dequeue(context.Background())
		require.True(ok)
		require.Equal(i, item)
	}
}

func TestBlocking_ContextCancel(t *testing.T) {
	require := require.New(t)

	q := NewBlocking[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	begin := time.Now()
	_, ok := q.Dequeue(ctx)
	require.False(ok)
	require.GreaterOrEqual(time.Since(begin), 25*time.Millisecond)
}

func TestBlocking_Close(t *testing.T) {
	require := require.New(t)

	q := NewBlocking[int]()
	q.Enqueue(1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		// first call returns the queued item, second waits until Close
		_, _ = q.Dequeue(context.Background())
		_, ok := q.Dequeue(context.Background())
		require.False(ok)
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()
	q.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail("Close did not wake the consumer")
	}

	require.False(q.Enqueue(2))
}
