package notifyhub

import (
	"log/slog"
	"time"

	"github.com/platformkit/notifyhub/pkg/offline"
	"github.com/platformkit/notifyhub/pkg/ratelimit"
)

type options struct {
	tiers   ratelimit.Tiers
	store   ratelimit.Store
	offline offline.Storage

	bufferSize int
	offlineTTL time.Duration

	burstRate      float64
	burstAllowance int

	abuseHalfLife        time.Duration
	suppressionThreshold float64
	suppressionTTL       time.Duration

	log *slog.Logger
	now func() time.Time
}

func defaultOptions() options {
	return options{
		tiers:                ratelimit.DefaultTiers(),
		bufferSize:           64,
		offlineTTL:           72 * time.Hour,
		burstRate:            2,
		burstAllowance:       5,
		abuseHalfLife:        10 * time.Minute,
		suppressionThreshold: 100,
		suppressionTTL:       15 * time.Minute,
		log:                  slog.New(slog.DiscardHandler),
		now:                  time.Now,
	}
}

// Option configures an Engine.
type Option func(*options)

// WithTiers replaces the default rate-limit tier table.
func WithTiers(tiers ratelimit.Tiers) Option {
	return func(o *options) {
		o.tiers = tiers
	}
}

// WithRateLimitStore sets the sliding-window store. Defaults to an
// in-memory sharded store; use the Redis store when several engine
// instances share limits.
func WithRateLimitStore(store ratelimit.Store) Option {
	return func(o *options) {
		if store != nil {
			o.store = store
		}
	}
}

// WithOfflineStorage sets the offline backlog storage. Defaults to
// in-memory.
func WithOfflineStorage(storage offline.Storage) Option {
	return func(o *options) {
		if storage != nil {
			o.offline = storage
		}
	}
}

// WithConnectionBuffer sets the per-connection outbound buffer size.
func WithConnectionBuffer(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.bufferSize = n
		}
	}
}

// WithOfflineTTL sets how long queued entries survive unreplayed.
func WithOfflineTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.offlineTTL = d
		}
	}
}

// WithBurstThreshold tunes the burst probe: sustained events per second
// and the short allowance absorbed before flagging.
func WithBurstThreshold(eventsPerSecond float64, allowance int) Option {
	return func(o *options) {
		if eventsPerSecond > 0 {
			o.burstRate = eventsPerSecond
		}
		if allowance > 0 {
			o.burstAllowance = allowance
		}
	}
}

// WithAbuseHalfLife sets the risk score decay half-life.
func WithAbuseHalfLife(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.abuseHalfLife = d
		}
	}
}

// WithSuppressionThreshold sets the risk score at which an actor is
// suppressed.
func WithSuppressionThreshold(score float64) Option {
	return func(o *options) {
		if score > 0 {
			o.suppressionThreshold = score
		}
	}
}

// WithSuppressionTTL sets how long a suppression lasts.
func WithSuppressionTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.suppressionTTL = d
		}
	}
}

// WithLogger sets the engine's logger, shared with the hub and detector.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithClock overrides the engine's time source, shared with every
// component it constructs. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
