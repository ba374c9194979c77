package abuse

import (
	"math"
	"time"
)

// historyWindow bounds how far back per-actor history is consulted; events
// older than this no longer influence any scorer.
const historyWindow = 10 * time.Minute

// maxHistoryEvents caps per-profile history so a flooding actor cannot grow
// its own profile without bound.
const maxHistoryEvents = 256

type fingerprintEvent struct {
	fingerprint string
	at          time.Time
}

type categoryEvent struct {
	category string
	at       time.Time
}

// Profile is the per-actor mutable state behind abuse scoring. Profiles are
// created lazily on first observation and expire after inactivity. All
// access goes through the detector, which serializes mutation per actor.
type Profile struct {
	actorID   string
	createdAt time.Time
	lastSeen  time.Time

	// recent event times, ascending; trimmed to historyWindow.
	events []time.Time

	// recent content fingerprints, ascending by time.
	fingerprints []fingerprintEvent

	// recent category sequence, ascending by time.
	categories []categoryEvent

	// established request fingerprint per session.
	sessionFingerprints map[string]string

	score   float64
	scoreAt time.Time
}

func newProfile(actorID string, now time.Time) *Profile {
	return &Profile{
		actorID:             actorID,
		createdAt:           now,
		lastSeen:            now,
		sessionFingerprints: make(map[string]string),
		scoreAt:             now,
	}
}

// decayScore applies exponential decay since the last score update. Called
// lazily before any read or adjustment, so idle actors pay nothing.
func (p *Profile) decayScore(now time.Time, halfLife time.Duration) {
	if halfLife <= 0 || p.score == 0 {
		p.scoreAt = now
		return
	}
	elapsed := now.Sub(p.scoreAt)
	if elapsed <= 0 {
		return
	}
	p.score *= halfLifeFactor(elapsed, halfLife)
	if p.score < 0.01 {
		p.score = 0
	}
	p.scoreAt = now
}

// trim drops history older than historyWindow and enforces the event cap.
func (p *Profile) trim(now time.Time) {
	cutoff := now.Add(-historyWindow)

	idx := 0
	for idx < len(p.events) && p.events[idx].Before(cutoff) {
		idx++
	}
	p.events = append(p.events[:0], p.events[idx:]...)

	idx = 0
	for idx < len(p.fingerprints) && p.fingerprints[idx].at.Before(cutoff) {
		idx++
	}
	p.fingerprints = append(p.fingerprints[:0], p.fingerprints[idx:]...)

	idx = 0
	for idx < len(p.categories) && p.categories[idx].at.Before(cutoff) {
		idx++
	}
	p.categories = append(p.categories[:0], p.categories[idx:]...)

	if len(p.events) > maxHistoryEvents {
		p.events = p.events[len(p.events)-maxHistoryEvents:]
	}
	if len(p.fingerprints) > maxHistoryEvents {
		p.fingerprints = p.fingerprints[len(p.fingerprints)-maxHistoryEvents:]
	}
	if len(p.categories) > maxHistoryEvents {
		p.categories = p.categories[len(p.categories)-maxHistoryEvents:]
	}
}

// record appends the event to the profile's history after scoring, so
// scorers always compare the event against what came before it.
func (p *Profile) record(ev Event, now time.Time) {
	p.lastSeen = now
	p.events = append(p.events, now)
	if ev.ContentFingerprint != "" {
		p.fingerprints = append(p.fingerprints, fingerprintEvent{fingerprint: ev.ContentFingerprint, at: now})
	}
	if ev.Category != "" {
		p.categories = append(p.categories, categoryEvent{category: ev.Category, at: now})
	}
	if ev.SessionID != "" && ev.RequestFingerprint != "" {
		if _, known := p.sessionFingerprints[ev.SessionID]; !known {
			p.sessionFingerprints[ev.SessionID] = ev.RequestFingerprint
		}
	}
}

// fingerprintMatches counts recent events sharing the fingerprint.
func (p *Profile) fingerprintMatches(fp string) int {
	n := 0
	for _, f := range p.fingerprints {
		if f.fingerprint == fp {
			n++
		}
	}
	return n
}

// eventsSince counts recent events at or after the cutoff.
func (p *Profile) eventsSince(cutoff time.Time) int {
	n := 0
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].Before(cutoff) {
			break
		}
		n++
	}
	return n
}

// baselineRate is the actor's long-run events-per-minute since the profile
// was created, floored at the history the profile still holds.
func (p *Profile) baselineRate(now time.Time) float64 {
	age := now.Sub(p.createdAt)
	if age < time.Minute {
		age = time.Minute
	}
	return float64(len(p.events)) / age.Minutes()
}

// distinctRecentCategories counts distinct categories among the last n
// category events inside the window.
func (p *Profile) distinctRecentCategories(n int, cutoff time.Time) int {
	seen := make(map[string]struct{}, n)
	for i := len(p.categories) - 1; i >= 0 && len(p.categories)-i <= n; i-- {
		if p.categories[i].at.Before(cutoff) {
			break
		}
		seen[p.categories[i].category] = struct{}{}
	}
	return len(seen)
}

// halfLifeFactor returns 0.5^(elapsed/halfLife).
func halfLifeFactor(elapsed, halfLife time.Duration) float64 {
	return math.Exp2(-float64(elapsed) / float64(halfLife))
}
