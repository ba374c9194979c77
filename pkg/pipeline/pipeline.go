package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/platformkit/notifyhub/pkg/notification"
	"github.com/platformkit/notifyhub/pkg/sanitizer"
)

// Content bounds for a deliverable message. Length bounds are measured in
// runes so multi-byte text is not penalized for its encoding.
const (
	TitleMaxLen      = 200
	BodyMaxLen       = 2000
	DataScalarMaxLen = 1000
	DataMaxDepth     = 2
)

// Check is a single pipeline stage. Checks are pure functions over the
// message and must not retain or mutate it.
type Check func(notification.Message) error

// Checks returns the default ordered stages: length bounds, content
// screening, URL safety, serialization safety. A message is valid only if
// every stage passes; the first failure is terminal.
func Checks() []Check {
	return []Check{
		CheckLengths,
		CheckContent,
		CheckActionURL,
		CheckSerialization,
	}
}

// Validate runs the default pipeline over the message.
//
// Validate is pure and idempotent: running it twice on the same immutable
// message yields the same result and mutates nothing, so a message that
// passed once never needs re-validation.
func Validate(msg notification.Message) error {
	for _, check := range Checks() {
		if err := check(msg); err != nil {
			return err
		}
	}
	return nil
}

// CheckLengths enforces the size bounds: title in [1,200], body in
// [1,2000], every data scalar at most 1000 characters, data nesting at most
// 2 levels. Out-of-bounds input is rejected, never truncated.
func CheckLengths(msg notification.Message) error {
	if n := utf8.RuneCountInString(msg.Title); n < 1 || n > TitleMaxLen {
		return ValidationError{Field: "title", Reason: fmt.Sprintf("length must be 1-%d characters", TitleMaxLen)}
	}
	if n := utf8.RuneCountInString(msg.Body); n < 1 || n > BodyMaxLen {
		return ValidationError{Field: "message", Reason: fmt.Sprintf("length must be 1-%d characters", BodyMaxLen)}
	}
	return checkDataBounds(msg.Data, 1)
}

func checkDataBounds(data map[string]any, depth int) error {
	if data == nil {
		return nil
	}
	if depth > DataMaxDepth {
		return ValidationError{Field: "data", Reason: fmt.Sprintf("nesting depth exceeds %d", DataMaxDepth)}
	}
	for key, value := range data {
		switch v := value.(type) {
		case string:
			if utf8.RuneCountInString(v) > DataScalarMaxLen {
				return ValidationError{
					Field:  "data." + key,
					Reason: fmt.Sprintf("scalar exceeds %d characters", DataScalarMaxLen),
				}
			}
		case map[string]any:
			if err := checkDataBounds(v, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// CheckContent screens title, body, and every data string for structural
// attack markers. A match fails the message; structured data is interpreted
// programmatically downstream and cannot be safely auto-sanitized.
func CheckContent(msg notification.Message) error {
	if err := sanitizer.ScreenContent(msg.Title); err != nil {
		return ValidationError{Field: "title", Reason: err.Error()}
	}
	if err := sanitizer.ScreenContent(msg.Body); err != nil {
		return ValidationError{Field: "message", Reason: err.Error()}
	}
	return screenData(msg.Data, "data")
}

func screenData(data map[string]any, path string) error {
	for key, value := range data {
		field := path + "." + key
		if err := sanitizer.ScreenContent(key); err != nil {
			return ValidationError{Field: field, Reason: "unsafe key: " + err.Error()}
		}
		switch v := value.(type) {
		case string:
			if err := sanitizer.ScreenContent(v); err != nil {
				return ValidationError{Field: field, Reason: err.Error()}
			}
		case map[string]any:
			if err := screenData(v, field); err != nil {
				return err
			}
		}
	}
	return nil
}

// CheckActionURL validates the optional action URL. An absent URL passes;
// a present one must satisfy every rule in sanitizer.ValidateURL.
func CheckActionURL(msg notification.Message) error {
	if msg.ActionURL == "" {
		return nil
	}
	if err := sanitizer.ValidateURL(msg.ActionURL); err != nil {
		return ValidationError{Field: "action_url", Reason: err.Error()}
	}
	return nil
}

// CheckSerialization verifies the wire frame survives a JSON round trip
// byte-for-byte. Marshal failures (non-finite floats) and lossy trips
// (precision-losing numerics) both fail with ErrSerializationUnsafe.
func CheckSerialization(msg notification.Message) error {
	first, err := json.Marshal(msg.Frame())
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrSerializationUnsafe, err)
	}

	var decoded notification.Frame
	if err := json.Unmarshal(first, &decoded); err != nil {
		return fmt.Errorf("%w: unmarshal: %v", ErrSerializationUnsafe, err)
	}

	second, err := json.Marshal(decoded)
	if err != nil {
		return fmt.Errorf("%w: re-marshal: %v", ErrSerializationUnsafe, err)
	}

	if !bytes.Equal(first, second) {
		return fmt.Errorf("%w: lossy round trip", ErrSerializationUnsafe)
	}
	return nil
}
