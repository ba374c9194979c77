package offline

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/platformkit/notifyhub/pkg/notification"
)

const offlineSchema = `
CREATE TABLE IF NOT EXISTS offline_notifications (
	id          BIGSERIAL PRIMARY KEY,
	user_id     TEXT        NOT NULL,
	payload     JSONB       NOT NULL,
	enqueued_at TIMESTAMPTZ NOT NULL,
	expires_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS offline_notifications_user_idx
	ON offline_notifications (user_id, enqueued_at);
CREATE INDEX IF NOT EXISTS offline_notifications_expiry_idx
	ON offline_notifications (expires_at);
`

// PostgresStorage persists backlogs in a single table, one row per entry,
// ordered by enqueue time. Drain deletes what it returns in one statement,
// so replay delivers each entry exactly once even across concurrent
// handshakes.
type PostgresStorage struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// PostgresStorageOption configures a PostgresStorage.
type PostgresStorageOption func(*PostgresStorage)

// WithPostgresClock overrides the storage's time source. Intended for
// tests.
func WithPostgresClock(now func() time.Time) PostgresStorageOption {
	return func(s *PostgresStorage) {
		if now != nil {
			s.now = now
		}
	}
}

// NewPostgresStorage creates the storage and ensures its schema exists.
func NewPostgresStorage(ctx context.Context, pool *pgxpool.Pool, opts ...PostgresStorageOption) (*PostgresStorage, error) {
	if pool == nil {
		return nil, fmt.Errorf("offline: pgx pool is required")
	}

	s := &PostgresStorage{pool: pool, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := pool.Exec(ctx, offlineSchema); err != nil {
		return nil, fmt.Errorf("offline: ensure schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStorage) Enqueue(ctx context.Context, entry Entry) error {
	if entry.UserID == "" {
		return ErrUserIDRequired
	}
	if entry.Message == nil {
		return ErrMessageRequired
	}

	payload, err := json.Marshal(entry.Message)
	if err != nil {
		return fmt.Errorf("offline: marshal message: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO offline_notifications (user_id, payload, enqueued_at, expires_at)
		 VALUES ($1, $2, $3, $4)`,
		entry.UserID, payload, entry.EnqueuedAt, entry.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("offline: pg enqueue: %w", err)
	}
	return nil
}

func (s *PostgresStorage) Drain(ctx context.Context, userID string) ([]Entry, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	rows, err := s.pool.Query(ctx,
		`DELETE FROM offline_notifications
		 WHERE user_id = $1
		 RETURNING payload, enqueued_at, expires_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("offline: pg drain: %w", err)
	}
	defer rows.Close()

	type row struct {
		payload    []byte
		enqueuedAt time.Time
		expiresAt  time.Time
	}

	var drained []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.payload, &r.enqueuedAt, &r.expiresAt); err != nil {
			return nil, fmt.Errorf("offline: pg drain scan: %w", err)
		}
		drained = append(drained, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("offline: pg drain rows: %w", err)
	}

	// DELETE ... RETURNING does not guarantee order; restore it here.
	now := s.now()
	out := make([]Entry, 0, len(drained))
	for _, r := range drained {
		entry := Entry{
			UserID:     userID,
			EnqueuedAt: r.enqueuedAt,
			ExpiresAt:  r.expiresAt,
		}
		if entry.Expired(now) {
			continue
		}
		var msg notification.Message
		if err := json.Unmarshal(r.payload, &msg); err != nil {
			return nil, fmt.Errorf("offline: unmarshal message: %w", err)
		}
		msg.Scope = notification.UserScope(userID)
		entry.Message = &msg
		out = append(out, entry)
	}
	slices.SortStableFunc(out, func(a, b Entry) int {
		return a.EnqueuedAt.Compare(b.EnqueuedAt)
	})
	return out, nil
}

func (s *PostgresStorage) Len(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, ErrUserIDRequired
	}

	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM offline_notifications WHERE user_id = $1`,
		userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("offline: pg len: %w", err)
	}
	return n, nil
}

// SweepExpired deletes expired entries across all users and returns how
// many were removed. Run it periodically; drain-time filtering keeps
// correctness either way.
func (s *PostgresStorage) SweepExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM offline_notifications WHERE expires_at <= $1`, s.now(),
	)
	if err != nil {
		return 0, fmt.Errorf("offline: pg sweep: %w", err)
	}
	return tag.RowsAffected(), nil
}
