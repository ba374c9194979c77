package offline_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformkit/notifyhub/pkg/notification"
	"github.com/platformkit/notifyhub/pkg/offline"
)

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

func testMessage(userID, body string) *notification.Message {
	return &notification.Message{
		ID:        uuid.NewString(),
		Type:      notification.TypeInfo,
		Category:  notification.CategoryUser,
		Priority:  notification.PriorityNormal,
		Title:     "title",
		Body:      body,
		Scope:     notification.UserScope(userID),
		CreatedAt: time.Now().UTC(),
	}
}

func TestEntry_Expired(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	entry := offline.NewEntry("u1", testMessage("u1", "b"), now, 72*time.Hour)

	assert.Equal(t, now, entry.EnqueuedAt)
	assert.False(t, entry.Expired(now))
	assert.False(t, entry.Expired(now.Add(72*time.Hour-time.Second)))
	assert.True(t, entry.Expired(now.Add(72*time.Hour)))
}

func TestMemoryStorage_EnqueueDrain(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	store := offline.NewMemoryStorage()
	defer store.Close()

	// Backlog preserves enqueue order.
	for i := 0; i < 3; i++ {
		entry := offline.NewEntry("u1", testMessage("u1", fmt.Sprintf("msg %d", i)), now.Add(time.Duration(i)*time.Second), time.Hour)
		require.NoError(t, store.Enqueue(ctx, entry))
	}

	n, err := store.Len(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	drained, err := store.Drain(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, drained, 3)
	for i, entry := range drained {
		assert.Equal(t, fmt.Sprintf("msg %d", i), entry.Message.Body)
	}

	// Drain removes: a second drain replays nothing.
	drained, err = store.Drain(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, drained)

	n, err = store.Len(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryStorage_DrainSkipsExpired(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	store := offline.NewMemoryStorage(offline.WithMemoryClock(clock.Now))
	defer store.Close()

	require.NoError(t, store.Enqueue(ctx, offline.NewEntry("u1", testMessage("u1", "short"), clock.Now(), time.Minute)))
	require.NoError(t, store.Enqueue(ctx, offline.NewEntry("u1", testMessage("u1", "long"), clock.Now(), time.Hour)))

	clock.Advance(10 * time.Minute)

	drained, err := store.Drain(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, drained, 1)
	assert.Equal(t, "long", drained[0].Message.Body)
}

func TestMemoryStorage_UsersAreIsolated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	store := offline.NewMemoryStorage()
	defer store.Close()

	require.NoError(t, store.Enqueue(ctx, offline.NewEntry("u1", testMessage("u1", "for u1"), now, time.Hour)))
	require.NoError(t, store.Enqueue(ctx, offline.NewEntry("u2", testMessage("u2", "for u2"), now, time.Hour)))

	drained, err := store.Drain(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, drained, 1)
	assert.Equal(t, "for u1", drained[0].Message.Body)

	n, err := store.Len(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemoryStorage_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	store := offline.NewMemoryStorage()
	defer store.Close()

	err := store.Enqueue(ctx, offline.Entry{Message: testMessage("u1", "b")})
	assert.ErrorIs(t, err, offline.ErrUserIDRequired)

	err = store.Enqueue(ctx, offline.Entry{UserID: "u1"})
	assert.ErrorIs(t, err, offline.ErrMessageRequired)

	_, err = store.Drain(ctx, "")
	assert.ErrorIs(t, err, offline.ErrUserIDRequired)
}

func TestMemoryStorage_ConcurrentEnqueueDrain(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	store := offline.NewMemoryStorage()
	defer store.Close()

	const writers = 8
	const perWriter = 25

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				entry := offline.NewEntry("u1", testMessage("u1", fmt.Sprintf("%d-%d", w, i)), now, time.Hour)
				_ = store.Enqueue(ctx, entry)
			}
		}(w)
	}
	wg.Wait()

	drained, err := store.Drain(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, drained, writers*perWriter)
}
