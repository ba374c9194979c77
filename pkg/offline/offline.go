package offline

import (
	"context"
	"errors"
	"time"

	"github.com/platformkit/notifyhub/pkg/notification"
)

var (
	ErrUserIDRequired  = errors.New("user id is required")
	ErrMessageRequired = errors.New("message is required")
	ErrStorageClosed   = errors.New("offline storage is closed")
)

// Entry is one queued message awaiting a recipient with no live
// connections. Entries are durable (subject to the backing storage) and
// expire unreplayed after their TTL.
type Entry struct {
	UserID     string                `json:"user_id"`
	Message    *notification.Message `json:"message"`
	EnqueuedAt time.Time             `json:"enqueued_at"`
	ExpiresAt  time.Time             `json:"expires_at"`
}

// Expired reports whether the entry's TTL has passed.
func (e Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}

// Storage persists per-user backlogs of individually-addressed messages.
// Only user-scoped messages are ever queued; role and broadcast scopes are
// live-only.
type Storage interface {
	// Enqueue appends an entry to the user's backlog.
	Enqueue(ctx context.Context, entry Entry) error

	// Drain removes and returns the user's backlog in enqueue order,
	// skipping expired entries. A drained entry is gone: replay delivers it
	// exactly once.
	Drain(ctx context.Context, userID string) ([]Entry, error)

	// Len reports the user's current backlog size, including entries that
	// have expired but not yet been swept.
	Len(ctx context.Context, userID string) (int, error)
}

// NewEntry builds an entry for the message with the given TTL.
func NewEntry(userID string, msg *notification.Message, now time.Time, ttl time.Duration) Entry {
	return Entry{
		UserID:     userID,
		Message:    msg,
		EnqueuedAt: now,
		ExpiresAt:  now.Add(ttl),
	}
}
