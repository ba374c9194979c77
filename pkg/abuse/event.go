package abuse

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// contentFingerprintLength truncates the hex digest; 64 bits of the hash is
// plenty for near-duplicate grouping and keeps profiles small.
const contentFingerprintLength = 16

// Event is one observed message attempt. The engine fills it from the
// validated message and the producer's request context before delivery is
// decided.
type Event struct {
	// ActorID identifies the producer (user id, or IP for anonymous
	// producers).
	ActorID string

	// Role is the producer's role name at the time of the attempt.
	Role string

	// Category is the message category being produced.
	Category string

	// AdminCategory is set when the category routes to an admin-only
	// namespace.
	AdminCategory bool

	// SessionID identifies the producer's session, when known.
	SessionID string

	// RequestFingerprint is the producer's request fingerprint
	// (IP + user-agent derived), when known.
	RequestFingerprint string

	// ContentFingerprint groups near-duplicate content; see
	// ContentFingerprint.
	ContentFingerprint string

	// Bursting is set when the burst detector flagged this attempt.
	Bursting bool

	// At is when the attempt was observed. Zero means "now".
	At time.Time
}

// ContentFingerprint derives the duplicate-detection fingerprint for a
// message's free text.
func ContentFingerprint(title, body string) string {
	sum := sha256.Sum256([]byte(title + "\x00" + body))
	return hex.EncodeToString(sum[:])[:contentFingerprintLength]
}

// Signal is one scorer's verdict on an event.
type Signal struct {
	// Name identifies the heuristic that produced the signal.
	Name string

	// Score is the bounded contribution added to the actor's risk score.
	Score float64
}

// Assessment is the detector's verdict on an observed event.
type Assessment struct {
	// Score is the actor's risk score after this event.
	Score float64

	// Signals lists the non-zero scorer contributions for this event.
	Signals []Signal

	// Suppressed reports whether the actor is under suppression after this
	// event. The caller drops the message silently when set.
	Suppressed bool
}

// signal names; revocation-triggering ones are matched by name.
const (
	SignalContentSimilarity   = "content_similarity"
	SignalFrequencyAnomaly    = "frequency_anomaly"
	SignalBehaviorPattern     = "behavior_pattern"
	SignalCoordinatedAttack   = "coordinated_attack"
	SignalSessionHijack       = "session_hijack"
	SignalPrivilegeEscalation = "privilege_escalation"
)

// revokesAuthorization reports whether a signal warrants immediate
// invalidation of the actor's live connections.
func revokesAuthorization(name string) bool {
	return name == SignalSessionHijack || name == SignalPrivilegeEscalation
}
