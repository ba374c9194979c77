package offline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps each user's backlog in a Redis list, surviving engine
// restarts. Entries carry their own expiry and are filtered on drain; the
// list key itself expires at the configured TTL past the last enqueue so
// abandoned backlogs do not accumulate.
type RedisStorage struct {
	client    redis.UniversalClient
	keyPrefix string
	keyTTL    time.Duration
	now       func() time.Time
}

// RedisStorageOption configures a RedisStorage.
type RedisStorageOption func(*RedisStorage)

// WithRedisKeyTTL sets the expiry applied to a user's backlog key on every
// enqueue. It should be at least the entry TTL.
func WithRedisKeyTTL(d time.Duration) RedisStorageOption {
	return func(s *RedisStorage) {
		if d > 0 {
			s.keyTTL = d
		}
	}
}

// WithRedisClock overrides the storage's time source. Intended for tests.
func WithRedisClock(now func() time.Time) RedisStorageOption {
	return func(s *RedisStorage) {
		if now != nil {
			s.now = now
		}
	}
}

// NewRedisStorage creates a Redis-backed storage.
func NewRedisStorage(client redis.UniversalClient, keyPrefix string, opts ...RedisStorageOption) (*RedisStorage, error) {
	if client == nil {
		return nil, fmt.Errorf("offline: redis client is required")
	}
	if keyPrefix == "" {
		keyPrefix = "offline"
	}
	s := &RedisStorage{
		client:    client,
		keyPrefix: keyPrefix,
		keyTTL:    96 * time.Hour,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *RedisStorage) key(userID string) string {
	return s.keyPrefix + ":" + userID
}

func (s *RedisStorage) Enqueue(ctx context.Context, entry Entry) error {
	if entry.UserID == "" {
		return ErrUserIDRequired
	}
	if entry.Message == nil {
		return ErrMessageRequired
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("offline: marshal entry: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.key(entry.UserID), raw)
	pipe.Expire(ctx, s.key(entry.UserID), s.keyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("offline: redis enqueue: %w", err)
	}
	return nil
}

func (s *RedisStorage) Drain(ctx context.Context, userID string) ([]Entry, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	// MULTI/EXEC makes read+delete atomic, so two simultaneous handshakes
	// for one user cannot both replay the same backlog.
	pipe := s.client.TxPipeline()
	items := pipe.LRange(ctx, s.key(userID), 0, -1)
	pipe.Del(ctx, s.key(userID))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("offline: redis drain: %w", err)
	}

	raws := items.Val()
	if len(raws) == 0 {
		return nil, nil
	}

	now := s.now()
	out := make([]Entry, 0, len(raws))
	for _, raw := range raws {
		var entry Entry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("offline: unmarshal entry: %w", err)
		}
		if entry.Expired(now) {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *RedisStorage) Len(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, ErrUserIDRequired
	}

	n, err := s.client.LLen(ctx, s.key(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("offline: redis len: %w", err)
	}
	return int(n), nil
}
