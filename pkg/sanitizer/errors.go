package sanitizer

import "errors"

var (
	// ErrUnsafeContent is returned when a string contains a structural
	// attack marker. The wrapped detail names the marker, not the content.
	ErrUnsafeContent = errors.New("unsafe content")

	// ErrUnsafeURL is returned when an action URL violates the safety rules.
	ErrUnsafeURL = errors.New("unsafe url")
)
