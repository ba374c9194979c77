package ratelimit

import (
	"context"
	"time"
)

// SlidingWindow implements a sliding window rate limiter that tracks
// individual event timestamps within a moving time window. The per-attempt
// limit is supplied by the caller, so one limiter instance serves every
// role/priority tier over the same window.
type SlidingWindow struct {
	store  Store
	window time.Duration
	now    func() time.Time
}

// SlidingWindowOption configures a SlidingWindow.
type SlidingWindowOption func(*SlidingWindow)

// WithClock overrides the limiter's time source. Intended for tests.
func WithClock(now func() time.Time) SlidingWindowOption {
	return func(sw *SlidingWindow) {
		if now != nil {
			sw.now = now
		}
	}
}

// NewSlidingWindow creates a new sliding window rate limiter.
func NewSlidingWindow(store Store, window time.Duration, opts ...SlidingWindowOption) (*SlidingWindow, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if window <= 0 {
		return nil, ErrInvalidInterval
	}

	sw := &SlidingWindow{
		store:  store,
		window: window,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(sw)
	}
	return sw, nil
}

// Allow checks whether one event is admitted for the key under the given
// limit, recording it if so. When denied, the Result's ResetAt reports when
// the oldest counted event ages out and a slot frees up; quota restores
// automatically as the window slides, no manual reset involved.
func (sw *SlidingWindow) Allow(ctx context.Context, key string, limit int) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	now := sw.now()

	allowed, count, oldest, err := sw.store.RecordIfAllowed(ctx, key, now, sw.window, limit)
	if err != nil {
		return nil, err
	}

	resetAt := now.Add(sw.window)
	if !oldest.IsZero() {
		resetAt = oldest.Add(sw.window)
	}

	return &Result{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: max(0, limit-int(count)),
		ResetAt:   resetAt,
	}, nil
}

// Status returns the current state for the key without recording an event.
func (sw *SlidingWindow) Status(ctx context.Context, key string, limit int) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}

	now := sw.now()
	count, err := sw.store.CountInWindow(ctx, key, now, sw.window)
	if err != nil {
		return nil, err
	}

	return &Result{
		Allowed:   int(count) < limit,
		Limit:     limit,
		Remaining: max(0, limit-int(count)),
		ResetAt:   now.Add(sw.window),
	}, nil
}

// Reset clears all recorded events for the key.
func (sw *SlidingWindow) Reset(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	return sw.store.Delete(ctx, key)
}

// Window returns the configured window size.
func (sw *SlidingWindow) Window() time.Duration {
	return sw.window
}
