package abuse

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"
)

const profileShardCount = 32

// Alert describes a suppression decision, handed to the alert callback so
// the engine can notify operators through the admin channel.
type Alert struct {
	ActorID string
	Score   float64
	Signals []Signal
	At      time.Time
}

// AlertFunc receives suppression alerts. It must not block; hand off to a
// goroutine or channel if delivery is slow.
type AlertFunc func(ctx context.Context, alert Alert)

// RevokeFunc is invoked when a hijack or escalation signal contributed to a
// suppression, to invalidate the actor's live connections.
type RevokeFunc func(ctx context.Context, actorID string, reason string)

// Detector combines per-actor heuristics into a decaying risk score and
// suppresses actors that cross the threshold. Profiles shard across locks
// so distinct actors are scored fully in parallel.
type Detector struct {
	shards [profileShardCount]*profileShard

	suppressionMu sync.RWMutex
	suppressions  map[string]time.Time

	activityMu sync.Mutex
	activity   map[string][]categoryActivity

	scorers     []Scorer
	halfLife    time.Duration
	threshold   float64
	suppressTTL time.Duration
	profileTTL  time.Duration

	onAlert  AlertFunc
	onRevoke RevokeFunc

	log *slog.Logger
	now func() time.Time

	stopJanitor chan struct{}
	closeOnce   sync.Once
}

type profileShard struct {
	mu       sync.Mutex
	profiles map[string]*Profile
}

type categoryActivity struct {
	actorID string
	at      time.Time
}

// Option configures a Detector.
type Option func(*Detector)

// WithHalfLife sets the risk score decay half-life.
func WithHalfLife(d time.Duration) Option {
	return func(det *Detector) {
		if d > 0 {
			det.halfLife = d
		}
	}
}

// WithSuppressionThreshold sets the risk score at which an actor is
// suppressed.
func WithSuppressionThreshold(score float64) Option {
	return func(det *Detector) {
		if score > 0 {
			det.threshold = score
		}
	}
}

// WithSuppressionTTL sets how long a suppression lasts before it expires on
// its own.
func WithSuppressionTTL(d time.Duration) Option {
	return func(det *Detector) {
		if d > 0 {
			det.suppressTTL = d
		}
	}
}

// WithProfileTTL sets how long an inactive profile survives before the
// janitor removes it.
func WithProfileTTL(d time.Duration) Option {
	return func(det *Detector) {
		if d > 0 {
			det.profileTTL = d
		}
	}
}

// WithScorers replaces the default heuristic set.
func WithScorers(scorers ...Scorer) Option {
	return func(det *Detector) {
		if len(scorers) > 0 {
			det.scorers = scorers
		}
	}
}

// WithAlertFunc sets the suppression alert callback.
func WithAlertFunc(fn AlertFunc) Option {
	return func(det *Detector) {
		det.onAlert = fn
	}
}

// WithRevokeFunc sets the connection revocation callback.
func WithRevokeFunc(fn RevokeFunc) Option {
	return func(det *Detector) {
		det.onRevoke = fn
	}
}

// WithLogger sets the detector's logger.
func WithLogger(log *slog.Logger) Option {
	return func(det *Detector) {
		if log != nil {
			det.log = log
		}
	}
}

// WithDetectorClock overrides the detector's time source. Intended for
// tests.
func WithDetectorClock(now func() time.Time) Option {
	return func(det *Detector) {
		if now != nil {
			det.now = now
		}
	}
}

// New creates a Detector with the default scorer set. Call Close to stop
// the profile janitor.
func New(opts ...Option) *Detector {
	det := &Detector{
		suppressions: make(map[string]time.Time),
		activity:     make(map[string][]categoryActivity),
		scorers:      DefaultScorers(),
		halfLife:     10 * time.Minute,
		threshold:    100,
		suppressTTL:  15 * time.Minute,
		profileTTL:   time.Hour,
		log:          slog.New(slog.DiscardHandler),
		now:          time.Now,
		stopJanitor:  make(chan struct{}),
	}
	for i := range det.shards {
		det.shards[i] = &profileShard{profiles: make(map[string]*Profile)}
	}
	for _, opt := range opts {
		opt(det)
	}

	go det.janitor()

	return det
}

func (det *Detector) shardFor(actorID string) *profileShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(actorID))
	return det.shards[h.Sum32()%profileShardCount]
}

// Observe scores one event, folds the contributions into the actor's
// decayed risk score, records the event into the profile, and applies the
// automated response if the suppression threshold is crossed. It returns
// the resulting assessment; callers drop the message when
// Assessment.Suppressed is set.
func (det *Detector) Observe(ctx context.Context, ev Event) (Assessment, error) {
	if ev.ActorID == "" {
		return Assessment{}, ErrActorIDRequired
	}

	now := ev.At
	if now.IsZero() {
		now = det.now()
		ev.At = now
	}

	env := det.recordActivity(ev.ActorID, ev.Category, now)

	shard := det.shardFor(ev.ActorID)
	shard.mu.Lock()

	p, ok := shard.profiles[ev.ActorID]
	if !ok {
		p = newProfile(ev.ActorID, now)
		shard.profiles[ev.ActorID] = p
	}

	p.trim(now)
	p.decayScore(now, det.halfLife)

	var signals []Signal
	revoke := false
	for _, score := range det.scorers {
		sig := score(p, ev, env)
		if sig.Score <= 0 {
			continue
		}
		signals = append(signals, sig)
		p.score += sig.Score
		if revokesAuthorization(sig.Name) {
			revoke = true
		}
	}

	p.record(ev, now)
	score := p.score

	shard.mu.Unlock()

	crossed := score >= det.threshold && det.beginSuppression(ev.ActorID, now)
	if crossed {
		det.log.WarnContext(ctx, "actor suppressed",
			slog.String("actor_id", ev.ActorID),
			slog.Float64("risk_score", score),
			slog.Int("signals", len(signals)),
		)
		if det.onAlert != nil {
			det.onAlert(ctx, Alert{ActorID: ev.ActorID, Score: score, Signals: signals, At: now})
		}
		if revoke && det.onRevoke != nil {
			det.onRevoke(ctx, ev.ActorID, revokeReason(signals))
		}
	}

	return Assessment{
		Score:      score,
		Signals:    signals,
		Suppressed: det.Suppressed(ev.ActorID),
	}, nil
}

// Suppressed reports whether the actor is currently suppressed. Expired
// suppressions lift lazily here.
func (det *Detector) Suppressed(actorID string) bool {
	det.suppressionMu.RLock()
	until, ok := det.suppressions[actorID]
	det.suppressionMu.RUnlock()
	if !ok {
		return false
	}

	if det.now().Before(until) {
		return true
	}

	det.suppressionMu.Lock()
	if until, ok := det.suppressions[actorID]; ok && !det.now().Before(until) {
		delete(det.suppressions, actorID)
	}
	det.suppressionMu.Unlock()
	return false
}

// ClearSuppression lifts an actor's suppression immediately and zeroes the
// risk score, for the operator path.
func (det *Detector) ClearSuppression(actorID string) {
	det.suppressionMu.Lock()
	delete(det.suppressions, actorID)
	det.suppressionMu.Unlock()

	shard := det.shardFor(actorID)
	shard.mu.Lock()
	if p, ok := shard.profiles[actorID]; ok {
		p.score = 0
		p.scoreAt = det.now()
	}
	shard.mu.Unlock()

	det.log.Info("suppression cleared", slog.String("actor_id", actorID))
}

// RiskScore returns the actor's current decayed risk score; zero for
// unknown actors.
func (det *Detector) RiskScore(actorID string) float64 {
	shard := det.shardFor(actorID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	p, ok := shard.profiles[actorID]
	if !ok {
		return 0
	}
	p.decayScore(det.now(), det.halfLife)
	return p.score
}

// Close stops the profile janitor. Safe to call multiple times.
func (det *Detector) Close() {
	det.closeOnce.Do(func() {
		close(det.stopJanitor)
	})
}

// beginSuppression records a suppression unless one is already active.
// Returns true when this call started it, so the automated response fires
// once per suppression.
func (det *Detector) beginSuppression(actorID string, now time.Time) bool {
	det.suppressionMu.Lock()
	defer det.suppressionMu.Unlock()

	if until, ok := det.suppressions[actorID]; ok && now.Before(until) {
		return false
	}
	det.suppressions[actorID] = now.Add(det.suppressTTL)
	return true
}

// coordinationWindow bounds how far back cross-actor category activity is
// consulted.
const coordinationWindow = 30 * time.Second

// recordActivity tracks cross-actor per-category activity and returns the
// Env snapshot for this event.
func (det *Detector) recordActivity(actorID, category string, now time.Time) Env {
	if category == "" {
		return Env{}
	}

	det.activityMu.Lock()
	defer det.activityMu.Unlock()

	cutoff := now.Add(-coordinationWindow)
	events := det.activity[category]

	idx := 0
	for idx < len(events) && events[idx].at.Before(cutoff) {
		idx++
	}
	events = append(events[idx:], categoryActivity{actorID: actorID, at: now})
	det.activity[category] = events

	actors := make(map[string]struct{}, len(events))
	for _, e := range events {
		actors[e.actorID] = struct{}{}
	}

	return Env{CategoryEvents: len(events), CategoryActors: len(actors)}
}

func (det *Detector) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			det.sweep(det.now())
		case <-det.stopJanitor:
			return
		}
	}
}

func (det *Detector) sweep(now time.Time) {
	cutoff := now.Add(-det.profileTTL)
	for _, shard := range det.shards {
		shard.mu.Lock()
		for id, p := range shard.profiles {
			if p.lastSeen.Before(cutoff) {
				delete(shard.profiles, id)
			}
		}
		shard.mu.Unlock()
	}

	det.activityMu.Lock()
	activityCutoff := now.Add(-coordinationWindow)
	for category, events := range det.activity {
		idx := 0
		for idx < len(events) && events[idx].at.Before(activityCutoff) {
			idx++
		}
		if idx == len(events) {
			delete(det.activity, category)
			continue
		}
		det.activity[category] = events[idx:]
	}
	det.activityMu.Unlock()
}

func revokeReason(signals []Signal) string {
	for _, sig := range signals {
		if revokesAuthorization(sig.Name) {
			return sig.Name
		}
	}
	return ""
}
