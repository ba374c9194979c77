package pipeline

import (
	"errors"
	"fmt"
)

// ErrSerializationUnsafe is returned when a fully-built message cannot
// round-trip through JSON without loss. It indicates a pipeline bug or a
// payload the builder should have rejected, so callers alert operators.
var ErrSerializationUnsafe = errors.New("message is not serialization-safe")

// ValidationError reports a content-shape violation. Reason names the
// violated rule; the offending content itself is never included so rejected
// payloads cannot leak into logs or audit trails.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// AsValidationError extracts a ValidationError from an error chain.
func AsValidationError(err error) (ValidationError, bool) {
	var ve ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return ValidationError{}, false
}
