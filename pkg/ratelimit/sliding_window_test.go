package ratelimit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformkit/notifyhub/pkg/ratelimit"
)

// fakeClock is a manually advanced time source for deterministic window
// tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestNewSlidingWindow(t *testing.T) {
	t.Parallel()

	t.Run("nil store", func(t *testing.T) {
		t.Parallel()

		_, err := ratelimit.NewSlidingWindow(nil, time.Minute)
		require.ErrorIs(t, err, ratelimit.ErrStoreRequired)
	})

	t.Run("non-positive window", func(t *testing.T) {
		t.Parallel()

		store := ratelimit.NewMemoryStore()
		defer store.Close()

		_, err := ratelimit.NewSlidingWindow(store, 0)
		require.ErrorIs(t, err, ratelimit.ErrInvalidInterval)
	})
}

func TestSlidingWindow_Allow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("admits up to limit then denies then recovers", func(t *testing.T) {
		t.Parallel()

		start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		clock := newFakeClock(start)

		store := ratelimit.NewMemoryStore()
		defer store.Close()

		limiter, err := ratelimit.NewSlidingWindow(store, 60*time.Second, ratelimit.WithClock(clock.Now))
		require.NoError(t, err)

		// Five attempts inside ten seconds all succeed.
		for i := 0; i < 5; i++ {
			res, err := limiter.Allow(ctx, "actor-1", 5)
			require.NoError(t, err)
			assert.True(t, res.Allowed, "attempt %d should be admitted", i+1)
			clock.Advance(2 * time.Second)
		}

		// The sixth inside the same window is denied and reports when a
		// slot frees up.
		res, err := limiter.Allow(ctx, "actor-1", 5)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Equal(t, 0, res.Remaining)
		assert.Equal(t, start.Add(60*time.Second), res.ResetAt)
		assert.Equal(t, 50*time.Second, res.RetryAfterAt(clock.Now()))

		// 61 seconds after the first attempt the window has slid past it
		// and a new attempt succeeds without any manual reset.
		clock.Advance(51 * time.Second)
		res, err = limiter.Allow(ctx, "actor-1", 5)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("distinct keys have independent quotas", func(t *testing.T) {
		t.Parallel()

		store := ratelimit.NewMemoryStore()
		defer store.Close()

		limiter, err := ratelimit.NewSlidingWindow(store, time.Minute)
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			res, err := limiter.Allow(ctx, "actor-a", 3)
			require.NoError(t, err)
			require.True(t, res.Allowed)
		}

		res, err := limiter.Allow(ctx, "actor-a", 3)
		require.NoError(t, err)
		assert.False(t, res.Allowed)

		res, err = limiter.Allow(ctx, "actor-b", 3)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "another actor must be unaffected")
	})

	t.Run("per-call limit tiers over one window", func(t *testing.T) {
		t.Parallel()

		store := ratelimit.NewMemoryStore()
		defer store.Close()

		limiter, err := ratelimit.NewSlidingWindow(store, time.Minute)
		require.NoError(t, err)

		// Two admitted events exhaust a low-tier limit...
		for i := 0; i < 2; i++ {
			res, err := limiter.Allow(ctx, "shared", 2)
			require.NoError(t, err)
			require.True(t, res.Allowed)
		}
		res, err := limiter.Allow(ctx, "shared", 2)
		require.NoError(t, err)
		assert.False(t, res.Allowed)

		// ...but the same key still has room under a higher-tier limit.
		res, err = limiter.Allow(ctx, "shared", 5)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("input validation", func(t *testing.T) {
		t.Parallel()

		store := ratelimit.NewMemoryStore()
		defer store.Close()

		limiter, err := ratelimit.NewSlidingWindow(store, time.Minute)
		require.NoError(t, err)

		_, err = limiter.Allow(ctx, "", 5)
		assert.ErrorIs(t, err, ratelimit.ErrKeyRequired)

		_, err = limiter.Allow(ctx, "key", 0)
		assert.ErrorIs(t, err, ratelimit.ErrInvalidLimit)
	})

	t.Run("concurrent attempts never exceed limit", func(t *testing.T) {
		t.Parallel()

		store := ratelimit.NewMemoryStore()
		defer store.Close()

		limiter, err := ratelimit.NewSlidingWindow(store, time.Minute)
		require.NoError(t, err)

		const attempts = 50
		const limit = 10

		var wg sync.WaitGroup
		var mu sync.Mutex
		admitted := 0

		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := limiter.Allow(ctx, "hot", limit)
				if err == nil && res.Allowed {
					mu.Lock()
					admitted++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, limit, admitted)
	})
}

func TestSlidingWindow_Status(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	store := ratelimit.NewMemoryStore()
	defer store.Close()

	limiter, err := ratelimit.NewSlidingWindow(store, time.Minute)
	require.NoError(t, err)

	res, err := limiter.Status(ctx, "observer", 5)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 5, res.Remaining)

	_, err = limiter.Allow(ctx, "observer", 5)
	require.NoError(t, err)

	// Status must not record an event.
	for i := 0; i < 3; i++ {
		res, err = limiter.Status(ctx, "observer", 5)
		require.NoError(t, err)
		assert.Equal(t, 4, res.Remaining)
	}
}

func TestSlidingWindow_Reset(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	store := ratelimit.NewMemoryStore()
	defer store.Close()

	limiter, err := ratelimit.NewSlidingWindow(store, time.Minute)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := limiter.Allow(ctx, "actor", 2)
		require.NoError(t, err)
	}

	res, err := limiter.Allow(ctx, "actor", 2)
	require.NoError(t, err)
	require.False(t, res.Allowed)

	require.NoError(t, limiter.Reset(ctx, "actor"))

	res, err = limiter.Allow(ctx, "actor", 2)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
