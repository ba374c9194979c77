package abuse

import "errors"

var (
	// ErrActorSuppressed marks an actor whose messages are being dropped
	// silently. Callers translate it into a rejection without telling the
	// actor why.
	ErrActorSuppressed = errors.New("actor is suppressed")

	ErrActorIDRequired = errors.New("actor id is required")
)
