package packet

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxintake/intakeengine/internal/logging"
	"go.uber.org/goleak"
)

type ctxKey struct{}

func TestPoolDispatcher_RunsJobsDetachedFromCaller(t *testing.T) {
	defer goleak.VerifyNone(t)

	var mu sync.Mutex
	seen := map[string]bool{}
	var wg sync.WaitGroup
	wg.Add(3)

	pool := NewPoolDispatcher(2, 8, func(ctx context.Context, id string) {
		defer wg.Done()
		mu.Lock()
		defer mu.Unlock()
		seen[id] = ctx.Err() == nil && ctx.Value(ctxKey{}) == "trace"
	}, logging.Nop())
	pool.Start()
	pool.Start()

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), ctxKey{}, "trace"))
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, pool.Dispatch(ctx, id))
	}
	cancel()
	wg.Wait()

	require.NoError(t, pool.Stop(context.Background()))
	assert.Equal(t, map[string]bool{"a": true, "b": true, "c": true}, seen)
}

func TestPoolDispatcher_QueueFull(t *testing.T) {
	defer goleak.VerifyNone(t)

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	pool := NewPoolDispatcher(1, 1, func(context.Context, string) {
		started <- struct{}{}
		<-release
	}, logging.Nop())
	pool.Start()

	require.NoError(t, pool.Dispatch(context.Background(), "running"))
	<-started
	require.NoError(t, pool.Dispatch(context.Background(), "queued"))
	assert.ErrorIs(t, pool.Dispatch(context.Background(), "overflow"), ErrQueueFull)

	close(release)
	require.NoError(t, pool.Stop(context.Background()))
}

func TestPoolDispatcher_StopDrainsAndRefuses(t *testing.T) {
	defer goleak.VerifyNone(t)

	var mu sync.Mutex
	var ran []string
	pool := NewPoolDispatcher(1, 4, func(_ context.Context, id string) {
		mu.Lock()
		ran = append(ran, id)
		mu.Unlock()
	}, logging.Nop())

	require.NoError(t, pool.Dispatch(context.Background(), "x"))
	require.NoError(t, pool.Dispatch(context.Background(), "y"))
	pool.Start()
	require.NoError(t, pool.Stop(context.Background()))
	require.NoError(t, pool.Stop(context.Background()))

	assert.Equal(t, []string{"x", "y"}, ran)
	assert.ErrorIs(t, pool.Dispatch(context.Background(), "z"), ErrDispatcherClosed)
}

func TestPoolDispatcher_SurvivesPanickingHandler(t *testing.T) {
	defer goleak.VerifyNone(t)

	done := make(chan string, 2)
	pool := NewPoolDispatcher(1, 2, func(_ context.Context, id string) {
		if id == "bad" {
			panic("boom")
		}
		done <- id
	}, logging.Nop())
	pool.Start()

	require.NoError(t, pool.Dispatch(context.Background(), "bad"))
	require.NoError(t, pool.Dispatch(context.Background(), "good"))

	select {
	case id := <-done:
		assert.Equal(t, "good", id)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not survive panic")
	}
	require.NoError(t, pool.Stop(context.Background()))
}

func TestPoolDispatcher_StopHonoursContext(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	pool := NewPoolDispatcher(1, 1, func(context.Context, string) {
		close(started)
		<-release
	}, logging.Nop())
	pool.Start()

	require.NoError(t, pool.Dispatch(context.Background(), "slow"))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, pool.Stop(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, pool.Stop(context.Background()))
}
