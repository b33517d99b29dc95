package executor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitStatus(t *testing.T, e *Executor, id string, want Status) any {
	t.Helper()
	var data any
	require.Eventually(t, func() bool {
		d, s, ok := e.Poll(id)
		data = d
		return ok && s == want
	}, 2*time.Second, 5*time.Millisecond)
	return data
}

func TestSubmitAndPoll(t *testing.T) {
	e := New(2)
	defer e.Close()

	_, _, ok := e.Poll("pods")
	assert.False(t, ok)

	accepted, err := e.Submit("pods", func(context.Context) (any, error) { return []string{"web-0"}, nil })
	require.NoError(t, err)
	require.True(t, accepted)

	data := waitStatus(t, e, "pods", StatusDone)
	assert.Equal(t, []string{"web-0"}, data)
	assert.NoError(t, e.Err("pods"))
	assert.False(t, e.Finished("pods").IsZero())
}

func TestResubmitCancelsInFlight(t *testing.T) {
	e := New(2)
	defer e.Close()

	started := make(chan struct{})
	var cancelled atomic.Bool
	_, err := e.Submit("k", func(ctx context.Context) (any, error) {
		close(started)
		<-ctx.Done()
		cancelled.Store(true)
		return "stale", nil
	})
	require.NoError(t, err)
	<-started

	_, err = e.Submit("k", func(context.Context) (any, error) { return "fresh", nil })
	require.NoError(t, err)

	data := waitStatus(t, e, "k", StatusDone)
	assert.Equal(t, "fresh", data)
	assert.Eventually(t, cancelled.Load, time.Second, 5*time.Millisecond)
	// the superseded run never overwrites the result
	time.Sleep(20 * time.Millisecond)
	data, _, _ = e.Poll("k")
	assert.Equal(t, "fresh", data)
}

func TestMinInterval(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	e := New(1, WithMinInterval(time.Second), withClock(clock))
	defer e.Close()

	fn := func(context.Context) (any, error) { return 1, nil }
	ok, _ := e.Submit("x", fn)
	assert.True(t, ok)
	ok, _ = e.Submit("x", fn)
	assert.False(t, ok)
	// other identities are not throttled
	ok, _ = e.Submit("y", fn)
	assert.True(t, ok)

	mu.Lock()
	now = now.Add(2 * time.Second)
	mu.Unlock()
	ok, _ = e.Submit("x", fn)
	assert.True(t, ok)
}

func TestFailureKeepsPreviousData(t *testing.T) {
	e := New(1)
	defer e.Close()

	_, _ = e.Submit("k", func(context.Context) (any, error) { return "v1", nil })
	waitStatus(t, e, "k", StatusDone)

	boom := errors.New("boom")
	_, _ = e.Submit("k", func(context.Context) (any, error) { return nil, boom })
	data := waitStatus(t, e, "k", StatusFailed)
	assert.Equal(t, "v1", data)
	assert.ErrorIs(t, e.Err("k"), boom)
}

func TestWorkerLimit(t *testing.T) {
	e := New(2)
	defer e.Close()

	var running, peak atomic.Int32
	release := make(chan struct{})
	for _, id := range []string{"a", "b", "c", "d"} {
		_, err := e.Submit(id, func(ctx context.Context) (any, error) {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			<-release
			running.Add(-1)
			return id, nil
		})
		require.NoError(t, err)
	}
	require.Eventually(t, func() bool { return running.Load() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(2), peak.Load())
	close(release)

	for _, id := range []string{"a", "b", "c", "d"} {
		assert.Equal(t, id, waitStatus(t, e, id, StatusDone))
	}
}

func TestCancelAndForget(t *testing.T) {
	e := New(1)
	defer e.Close()

	started := make(chan struct{})
	_, _ = e.Submit("k", func(ctx context.Context) (any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	<-started
	e.Cancel("k")
	waitStatus(t, e, "k", StatusCancelled)

	e.Forget("k")
	_, _, ok := e.Poll("k")
	assert.False(t, ok)
}

func TestTimeout(t *testing.T) {
	e := New(1, WithTimeout(10*time.Millisecond))
	defer e.Close()

	_, _ = e.Submit("slow", func(ctx context.Context) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	waitStatus(t, e, "slow", StatusFailed)
	assert.ErrorIs(t, e.Err("slow"), context.DeadlineExceeded)
}

func TestSubmitAfterClose(t *testing.T) {
	e := New(1)
	e.Close()
	_, err := e.Submit("k", func(context.Context) (any, error) { return nil, nil })
	assert.ErrorIs(t, err, ErrClosed)
}
