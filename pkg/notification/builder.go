package notification

import (
	"time"

	"github.com/google/uuid"
)

// BuildInput carries the producer-supplied fields of a message.
type BuildInput struct {
	Type      Type
	Category  Category
	Priority  Priority
	Title     string
	Body      string
	Data      map[string]any
	ActionURL string
	Scope     Scope
}

// Build constructs an immutable Message from the input, generating its ID
// and creation timestamp. Build performs structural checks only - every
// field must be present with the right shape - and fails with
// ErrMalformedMessage otherwise. Content checks (length bounds, unsafe
// content, URL safety) belong to pkg/pipeline. Build has no side effects
// and performs no I/O.
func Build(in BuildInput) (Message, error) {
	if !in.Type.Valid() {
		return Message{}, malformed("type", "unknown value")
	}
	if !in.Category.Valid() {
		return Message{}, malformed("category", "unknown value")
	}
	if !in.Priority.Valid() {
		return Message{}, malformed("priority", "out of range")
	}
	if in.Title == "" {
		return Message{}, malformed("title", "required")
	}
	if in.Body == "" {
		return Message{}, malformed("message", "required")
	}
	if !in.Scope.Valid() {
		return Message{}, malformed("recipient_scope", "incomplete")
	}

	data, err := copyDataShape(in.Data)
	if err != nil {
		return Message{}, err
	}

	return Message{
		ID:        uuid.New().String(),
		Type:      in.Type,
		Category:  in.Category,
		Priority:  in.Priority,
		Title:     in.Title,
		Body:      in.Body,
		Data:      data,
		ActionURL: in.ActionURL,
		Scope:     in.Scope,
		CreatedAt: time.Now(),
	}, nil
}

// copyDataShape deep-copies the payload while rejecting value kinds the
// envelope cannot carry. Depth and length bounds are content checks and are
// deliberately not enforced here.
func copyDataShape(data map[string]any) (map[string]any, error) {
	if data == nil {
		return nil, nil
	}

	out := make(map[string]any, len(data))
	for key, value := range data {
		if key == "" {
			return nil, malformed("data", "empty key")
		}
		switch v := value.(type) {
		case nil, string, bool,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
			out[key] = value
		case map[string]any:
			nested, err := copyDataShape(v)
			if err != nil {
				return nil, err
			}
			out[key] = nested
		default:
			return nil, malformed("data", "unsupported value kind")
		}
	}
	return out, nil
}
