package notification

import (
	"errors"
	"fmt"
)

// ErrMalformedMessage is the structural failure class: a field is absent or
// has the wrong shape. Structural failures are terminal, never retried.
var ErrMalformedMessage = errors.New("malformed message")

func malformed(field, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrMalformedMessage, field, reason)
}
