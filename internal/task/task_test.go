package task

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arloliu/gstream/logger"
	"github.com/stretchr/testify/require"
)

func TestManager_StartAndStop(t *testing.T) {
	require := require.New(t)

	mgr := NewManager(context.Background(), logger.NewNopMockLogger())

	var iterations atomic.Int32
	require.NoError(mgr.Start("loop", func() bool {
		iterations.Add(1)
		time.Sleep(time.Millisecond)

		return true
	}))

	require.Eventually(func() bool { return iterations.Load() > 3 }, time.Second, 5*time.Millisecond)
	require.Equal(1, mgr.TaskCount())

	mgr.Stop()
	require.True(mgr.WaitTimeout(time.Second))
	require.Equal(0, mgr.TaskCount())
}

func TestManager_TaskReturnsFalse(t *testing.T) {
	require := require.New(t)

	mgr := NewManager(context.Background(), logger.NewNopMockLogger())

	var calls atomic.Int32
	require.NoError(mgr.Start("once", func() bool {
		calls.Add(1)
		return false
	}))

	require.Eventually(func() bool { return mgr.TaskCount() == 0 }, time.Second, 5*time.Millisecond)
	require.Equal(int32(1), calls.Load())
}

func TestManager_StartAfterStop(t *testing.T) {
	require := require.New(t)

	mgr := NewManager(context.Background(), logger.NewNopMockLogger())
	mgr.Stop()

	require.ErrorIs(mgr.Start("late", func() bool { return true }), ErrStopped)

	// Wait re-arms the manager
	mgr.Wait()
	require.NoError(mgr.Start("again", func() bool { return false }))
	mgr.Stop()
	mgr.Wait()
}

func TestManager_StartInterval(t *testing.T) {
	require := require.New(t)

	mgr := NewManager(context.Background(), logger.NewNopMockLogger())

	var ticks atomic.Int32
	ticker, err := mgr.StartInterval("tick", func() bool {
		ticks.Add(1)
		return true
	}, 2*time.Millisecond, true)
	require.NoError(err)
	require.NotNil(ticker)
	require.GreaterOrEqual(ticks.Load(), int32(1)) // runNow

	require.Eventually(func() bool { return ticks.Load() >= 5 }, time.Second, 2*time.Millisecond)

	_, err = mgr.StartInterval("tick", func() bool { return true }, time.Millisecond, false)
	require.Error(err)

	_, err = mgr.StartInterval("bad", func() bool { return true }, 0, false)
	require.Error(err)

	mgr.Stop()
	require.True(mgr.WaitTimeout(time.Second))
}

func TestManager_PanicRecovery(t *testing.T) {
	require := require.New(t)

	mgr := NewManager(context.Background(), logger.NewNopMockLogger())

	var ticks atomic.Int32
	_, err := mgr.StartInterval("panicky", func() bool {
		if ticks.Add(1) == 1 {
			panic("boom")
		}
		return true
	}, 2*time.Millisecond, false)
	require.NoError(err)

	// a panicking iteration does not end the interval task
	require.Eventually(func() bool { return ticks.Load() >= 3 }, time.Second, 2*time.Millisecond)

	mgr.Stop()
	mgr.Wait()
}
