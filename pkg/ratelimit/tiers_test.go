package ratelimit_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformkit/notifyhub/pkg/notification"
	"github.com/platformkit/notifyhub/pkg/ratelimit"
)

func TestTiers_LimitFor(t *testing.T) {
	t.Parallel()

	tiers := ratelimit.DefaultTiers()

	t.Run("role base limits", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, 10, tiers.LimitFor("user", notification.PriorityNormal))
		assert.Equal(t, 30, tiers.LimitFor("moderator", notification.PriorityNormal))
		assert.Equal(t, 100, tiers.LimitFor("admin", notification.PriorityNormal))
	})

	t.Run("priority multipliers scale the base", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, 5, tiers.LimitFor("user", notification.PriorityLow))
		assert.Equal(t, 15, tiers.LimitFor("user", notification.PriorityHigh))
	})

	t.Run("critical is relaxed, not unbounded", func(t *testing.T) {
		t.Parallel()

		critical := tiers.LimitFor("user", notification.PriorityCritical)
		assert.Greater(t, critical, tiers.LimitFor("user", notification.PriorityNormal))
		assert.Less(t, critical, 1<<20, "critical must stay a finite ceiling")
	})

	t.Run("unknown role falls back", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, 10, tiers.LimitFor("intruder", notification.PriorityNormal))
	})
}

func TestLoadTiers(t *testing.T) {
	t.Parallel()

	t.Run("overrides merge over defaults", func(t *testing.T) {
		t.Parallel()

		doc := `
roles:
  user: {limit: 3, window: 30s}
ip: {limit: 20, window: 30s}
`
		tiers, err := ratelimit.LoadTiers(strings.NewReader(doc))
		require.NoError(t, err)

		assert.Equal(t, 3, tiers.LimitFor("user", notification.PriorityNormal))
		assert.Equal(t, 30*time.Second, tiers.WindowFor("user"))
		assert.Equal(t, 20, tiers.IP.Limit)

		// Untouched sections keep their defaults.
		assert.Equal(t, 100, tiers.LimitFor("admin", notification.PriorityNormal))
	})

	t.Run("empty document yields defaults", func(t *testing.T) {
		t.Parallel()

		tiers, err := ratelimit.LoadTiers(strings.NewReader(""))
		require.NoError(t, err)
		assert.Equal(t, ratelimit.DefaultTiers().Fallback, tiers.Fallback)
	})

	t.Run("rejects non-positive limits", func(t *testing.T) {
		t.Parallel()

		_, err := ratelimit.LoadTiers(strings.NewReader("roles:\n  user: {limit: 0, window: 60s}\n"))
		require.ErrorIs(t, err, ratelimit.ErrInvalidTiers)
	})

	t.Run("rejects malformed yaml", func(t *testing.T) {
		t.Parallel()

		_, err := ratelimit.LoadTiers(strings.NewReader("roles: ["))
		require.ErrorIs(t, err, ratelimit.ErrInvalidTiers)
	})
}

func TestTierKeys(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "user:u-1|prio:high", ratelimit.UserKey("u-1", notification.PriorityHigh))
	assert.Equal(t, "ip:203.0.113.7", ratelimit.IPKey("203.0.113.7"))

	// Priority is part of the user key so tiers meter independently.
	assert.NotEqual(t,
		ratelimit.UserKey("u-1", notification.PriorityLow),
		ratelimit.UserKey("u-1", notification.PriorityCritical),
	)
}
