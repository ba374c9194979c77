package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// BurstDetector flags actors emitting messages faster than a short-window
// threshold. It never blocks: a flagged attempt still proceeds, and the
// signal feeds the abuse detector, which weighs it alongside other evidence.
type BurstDetector struct {
	mu       sync.Mutex
	actors   map[string]*burstState
	rate     rate.Limit
	burst    int
	maxIdle  time.Duration
	lastSwep time.Time
	now      func() time.Time
}

type burstState struct {
	limiter *rate.Limiter
	touched time.Time
}

// BurstDetectorOption configures a BurstDetector.
type BurstDetectorOption func(*BurstDetector)

// WithBurstClock overrides the detector's time source. Intended for tests.
func WithBurstClock(now func() time.Time) BurstDetectorOption {
	return func(d *BurstDetector) {
		if now != nil {
			d.now = now
		}
	}
}

// NewBurstDetector creates a detector that flags an actor once it exceeds
// eventsPerSecond sustained, with a short allowance of burst events.
func NewBurstDetector(eventsPerSecond float64, burst int, opts ...BurstDetectorOption) *BurstDetector {
	if eventsPerSecond <= 0 {
		eventsPerSecond = 2
	}
	if burst <= 0 {
		burst = 5
	}
	d := &BurstDetector{
		actors:  make(map[string]*burstState),
		rate:    rate.Limit(eventsPerSecond),
		burst:   burst,
		maxIdle: 10 * time.Minute,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Observe records one event for the actor and reports whether the actor is
// currently bursting. The token is consumed either way; the detector only
// observes, admission stays with the sliding-window limiter.
func (d *BurstDetector) Observe(actorID string) bool {
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	st, ok := d.actors[actorID]
	if !ok {
		st = &burstState{limiter: rate.NewLimiter(d.rate, d.burst)}
		d.actors[actorID] = st
	}
	st.touched = now

	if now.Sub(d.lastSwep) > d.maxIdle {
		d.sweepLocked(now)
	}

	return !st.limiter.AllowN(now, 1)
}

func (d *BurstDetector) sweepLocked(now time.Time) {
	cutoff := now.Add(-d.maxIdle)
	for id, st := range d.actors {
		if st.touched.Before(cutoff) {
			delete(d.actors, id)
		}
	}
	d.lastSwep = now
}
