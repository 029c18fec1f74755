package resilience

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_BlocksUntilNextWindow(t *testing.T) {
	rl := NewRateLimiter()
	ctx := context.Background()
	window := 200 * time.Millisecond

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, rl.Wait(ctx, "svc", 3, window))
	}
	assert.Less(t, time.Since(start), window, "first maxRequests calls pass immediately")

	require.NoError(t, rl.Wait(ctx, "svc", 3, window))
	assert.GreaterOrEqual(t, time.Since(start), window, "extra call waits for the window boundary")
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter()
	ctx := context.Background()

	require.NoError(t, rl.Wait(ctx, "a", 1, time.Hour))

	done := make(chan struct{})
	go func() {
		_ = rl.Wait(ctx, "b", 1, time.Hour)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("key b was throttled by key a")
	}
}

func TestRateLimiter_ContextCancel(t *testing.T) {
	rl := NewRateLimiter()
	require.NoError(t, rl.Wait(context.Background(), "svc", 1, time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := rl.Wait(ctx, "svc", 1, time.Hour)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimiter_ConcurrentReservations(t *testing.T) {
	clock := newFakeClock()
	rl := NewRateLimiter()
	rl.now = clock.Now

	var wg sync.WaitGroup
	granted := make(chan bool, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := rl.reserve("svc", 10, time.Minute)
			granted <- ok
		}()
	}
	wg.Wait()
	close(granted)

	count := 0
	for ok := range granted {
		if ok {
			count++
		}
	}
	assert.Equal(t, 10, count)

	delay, ok := rl.reserve("svc", 10, time.Minute)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, delay)

	clock.Advance(time.Minute)
	_, ok = rl.reserve("svc", 10, time.Minute)
	assert.True(t, ok, "window resets at its boundary")
}

func TestRateLimiter_NoLimit(t *testing.T) {
	rl := NewRateLimiter()
	for i := 0; i < 100; i++ {
		require.NoError(t, rl.Wait(context.Background(), "svc", 0, time.Minute))
	}
}
