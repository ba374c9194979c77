package ratelimit

import (
	"context"
	"time"
)

// Result contains the outcome of a rate limit check.
type Result struct {
	// Allowed indicates whether the attempt was admitted.
	Allowed bool

	// Limit is the ceiling applied to this attempt.
	Limit int

	// Remaining is the quota left in the current window.
	Remaining int

	// ResetAt is when the oldest counted event leaves the window, restoring
	// one slot of quota.
	ResetAt time.Time
}

// RetryAfter returns how long to wait before the next attempt is admitted.
// Returns 0 if the current attempt was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return time.Until(r.ResetAt)
}

// RetryAfterAt is RetryAfter measured from an explicit instant, for callers
// running on an injected clock.
func (r *Result) RetryAfterAt(now time.Time) time.Duration {
	if r.Allowed {
		return 0
	}
	d := r.ResetAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Store is the storage backend for sliding-window counters. A store must
// serialize mutations per key; distinct keys may be mutated fully in
// parallel.
type Store interface {
	// RecordIfAllowed atomically counts events newer than now-window for
	// the key and, if the count is below limit, records an event at now.
	// It returns whether the event was recorded, the event count after the
	// operation, and the oldest timestamp still inside the window (zero
	// time when the window is empty).
	RecordIfAllowed(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (allowed bool, count int64, oldest time.Time, err error)

	// CountInWindow returns the number of events inside the window without
	// recording anything.
	CountInWindow(ctx context.Context, key string, now time.Time, window time.Duration) (int64, error)

	// Delete removes all state for the key.
	Delete(ctx context.Context, key string) error
}
