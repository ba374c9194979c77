package notification

import (
	"time"
)

// Message is the immutable envelope for a single notification event.
//
// A Message is only constructed through Build, which deep-copies the Data
// payload, so holding a Message value never aliases producer-owned state.
// Post-validation transformations produce a new message, never edit one in
// place.
type Message struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	Category  Category       `json:"category"`
	Priority  Priority       `json:"priority"`
	Title     string         `json:"title"`
	Body      string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	ActionURL string         `json:"action_url,omitempty"`
	Scope     Scope          `json:"-"`
	CreatedAt time.Time      `json:"created_at"`
}

// CloneData returns a deep copy of the structured payload, so callers can
// never mutate the message through the returned map.
func (m Message) CloneData() map[string]any {
	return cloneDataMap(m.Data)
}

// Frame returns the server-to-client wire representation of the message.
// Scope is intentionally absent: routing is the server's concern and clients
// only see messages already addressed to them.
func (m Message) Frame() Frame {
	return Frame{
		ID:        m.ID,
		Type:      m.Type,
		Category:  m.Category,
		Priority:  m.Priority,
		Title:     m.Title,
		Body:      m.Body,
		Data:      cloneDataMap(m.Data),
		ActionURL: m.ActionURL,
		CreatedAt: m.CreatedAt,
	}
}

func cloneDataMap(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		if nested, ok := v.(map[string]any); ok {
			out[k] = cloneDataMap(nested)
			continue
		}
		out[k] = v
	}
	return out
}

// Frame is the JSON object pushed to clients over the connection protocol.
type Frame struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	Category  Category       `json:"category"`
	Priority  Priority       `json:"priority"`
	Title     string         `json:"title"`
	Body      string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	ActionURL string         `json:"action_url,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
