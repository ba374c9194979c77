// Package abuse detects misuse patterns that plain rate limiting cannot
// catch and applies automated responses.
//
// Each actor gets a lazily created Profile holding recent content
// fingerprints, event times, category history, and per-session request
// fingerprints. On every observed message attempt a set of independent
// scorers examines the event against the profile; each contributes a
// bounded amount to the actor's risk score. The score decays exponentially
// with a configurable half-life, applied lazily, so idle actors recover
// without background work.
//
// Crossing the suppression threshold triggers the automated response:
// the actor is suppressed for a TTL (the engine drops its messages
// silently), an alert callback fires so operators are notified through the
// admin channel, and when the deciding signals include session hijacking or
// privilege escalation a revocation callback detaches the actor's live
// connections.
//
// Scorers are plain functions; deployments can reorder, drop, or extend
// the set via WithScorers without touching the detector.
package abuse
