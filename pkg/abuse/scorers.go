package abuse

import (
	"math"
	"time"
)

// Env exposes cross-actor context to scorers that need it. Per-actor state
// lives on the Profile; Env carries what no single profile can see.
type Env struct {
	// CategoryEvents is the number of recent events on the event's category
	// across all actors.
	CategoryEvents int

	// CategoryActors is the number of distinct actors recently active on
	// the event's category.
	CategoryActors int
}

// Scorer inspects one event against the actor's profile and returns a
// bounded contribution to the risk score. A zero-score signal is ignored.
// Scorers must not mutate the profile; recording happens after scoring.
type Scorer func(p *Profile, ev Event, env Env) Signal

// DefaultScorers returns the built-in heuristic set in evaluation order.
func DefaultScorers() []Scorer {
	return []Scorer{
		ContentSimilarity,
		FrequencyAnomaly,
		BehaviorPattern,
		CoordinatedAttack,
		SessionHijack,
		PrivilegeEscalation,
	}
}

// ContentSimilarity scores repeated near-duplicate content: the more recent
// events share this event's fingerprint, the higher the contribution. A few
// repeats are normal (retries, reminders); the score only starts after a
// grace number of matches and is capped.
func ContentSimilarity(p *Profile, ev Event, _ Env) Signal {
	const (
		grace    = 3
		maxScore = 15.0
	)
	if ev.ContentFingerprint == "" {
		return Signal{Name: SignalContentSimilarity}
	}
	matches := p.fingerprintMatches(ev.ContentFingerprint)
	if matches < grace {
		return Signal{Name: SignalContentSimilarity}
	}
	return Signal{Name: SignalContentSimilarity, Score: math.Min(maxScore, float64(matches))}
}

// FrequencyAnomaly scores deviation from the actor's own baseline send
// rate. A burst flag from the rate limiter's burst detector adds a fixed
// bump on top.
func FrequencyAnomaly(p *Profile, ev Event, _ Env) Signal {
	const (
		minRecent  = 5
		ratio      = 3.0
		maxScore   = 10.0
		burstScore = 5.0
	)

	score := 0.0
	if ev.Bursting {
		score += burstScore
	}

	now := ev.At
	recent := float64(p.eventsSince(now.Add(-time.Minute)))
	baseline := p.baselineRate(now)
	if recent >= minRecent && recent > baseline*ratio {
		score += math.Min(maxScore, recent-baseline)
	}

	return Signal{Name: SignalFrequencyAnomaly, Score: math.Min(maxScore+burstScore, score)}
}

// BehaviorPattern scores rapid category switching inconsistent with a
// normal producer, which tends to indicate scripted probing.
func BehaviorPattern(p *Profile, ev Event, _ Env) Signal {
	const (
		lookback = 10
		minDist  = 4
		maxScore = 8.0
	)
	distinct := p.distinctRecentCategories(lookback, ev.At.Add(-time.Minute))
	if distinct < minDist {
		return Signal{Name: SignalBehaviorPattern}
	}
	return Signal{Name: SignalBehaviorPattern, Score: math.Min(maxScore, float64(distinct)*2)}
}

// CoordinatedAttack scores correlated bursts across distinct actors on one
// category; any single actor's profile cannot see this, so the detector
// feeds cross-actor counts through Env.
func CoordinatedAttack(_ *Profile, _ Event, env Env) Signal {
	const (
		minActors = 5
		minEvents = 20
		maxScore  = 12.0
	)
	if env.CategoryActors < minActors || env.CategoryEvents < minEvents {
		return Signal{Name: SignalCoordinatedAttack}
	}
	return Signal{Name: SignalCoordinatedAttack, Score: math.Min(maxScore, float64(env.CategoryActors)*2)}
}

// SessionHijack scores a session whose request fingerprint diverges from
// the fingerprint it established earlier. A changed fingerprint mid-session
// is the classic stolen-cookie shape.
func SessionHijack(p *Profile, ev Event, _ Env) Signal {
	const score = 25.0
	if ev.SessionID == "" || ev.RequestFingerprint == "" {
		return Signal{Name: SignalSessionHijack}
	}
	established, known := p.sessionFingerprints[ev.SessionID]
	if !known || established == ev.RequestFingerprint {
		return Signal{Name: SignalSessionHijack}
	}
	return Signal{Name: SignalSessionHijack, Score: score}
}

// PrivilegeEscalation scores attempts to produce admin-scoped categories
// without an admin role. Authorization rejects the message regardless; the
// scorer makes repeated probing expensive.
func PrivilegeEscalation(_ *Profile, ev Event, _ Env) Signal {
	const score = 30.0
	if !ev.AdminCategory || ev.Role == "admin" {
		return Signal{Name: SignalPrivilegeEscalation}
	}
	return Signal{Name: SignalPrivilegeEscalation, Score: score}
}
