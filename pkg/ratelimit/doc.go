// Package ratelimit bounds the rate of accepted notifications per actor.
//
// The core is a sliding-window limiter that tracks individual event
// timestamps, so quota restores continuously as old events age out rather
// than in fixed-window steps. Limits are tiered by producer role and message
// priority through a Tiers table, and an independent per-IP ceiling guards
// against multi-account abuse from a single source.
//
// Two storage backends implement the Store interface: MemoryStore for
// single-process deployments and RedisStore for shared state across engine
// instances.
//
// BurstDetector is a side channel, not an admission gate: it flags actors
// sending faster than a short-window threshold and hands that signal to the
// abuse scoring layer.
//
// Basic usage:
//
//	store := ratelimit.NewMemoryStore()
//	defer store.Close()
//
//	limiter, err := ratelimit.NewSlidingWindow(store, time.Minute)
//	if err != nil {
//		return err
//	}
//
//	tiers := ratelimit.DefaultTiers()
//	limit := tiers.LimitFor("user", notification.PriorityNormal)
//
//	res, err := limiter.Allow(ctx, ratelimit.UserKey(userID, notification.PriorityNormal), limit)
//	if err != nil {
//		return err
//	}
//	if !res.Allowed {
//		return fmt.Errorf("%w: retry after %s", ratelimit.ErrRateLimitExceeded, res.RetryAfter())
//	}
package ratelimit
