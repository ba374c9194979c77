package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// recordScript performs trim + count + conditional record atomically on the
// server, so concurrent attempts for one actor cannot both slip under the
// limit. KEYS[1] is the window zset; ARGV: now-ns, window-ns, limit, member.
// Returns {allowed, count, oldest-score}.
var recordScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)

local allowed = 0
if count < limit then
	redis.call('ZADD', key, now, member)
	count = count + 1
	allowed = 1
end
redis.call('PEXPIRE', key, math.ceil(window / 1000000))

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local oldestScore = 0
if oldest[2] then
	oldestScore = tonumber(oldest[2])
end

return {allowed, count, tostring(oldestScore)}
`)

// RedisStore is a sliding-window store backed by Redis sorted sets, for
// deployments where several engine instances share rate-limit state.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
	seq       atomic.Uint64
}

// NewRedisStore creates a Redis-backed store. The prefix namespaces keys so
// the engine can share a Redis database with other subsystems.
func NewRedisStore(client redis.UniversalClient, keyPrefix string) (*RedisStore, error) {
	if client == nil {
		return nil, ErrStoreRequired
	}
	if keyPrefix == "" {
		keyPrefix = "ratelimit"
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix}, nil
}

func (s *RedisStore) key(key string) string {
	return s.keyPrefix + ":" + key
}

// nextMember builds a zset member that is unique even when two admissions
// for one key land in the same nanosecond, so ZADD never collapses two
// events into one.
func (s *RedisStore) nextMember(now time.Time) string {
	return strconv.FormatInt(now.UnixNano(), 10) + "-" + strconv.FormatUint(s.seq.Add(1), 10)
}

func (s *RedisStore) RecordIfAllowed(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (bool, int64, time.Time, error) {
	member := s.nextMember(now)

	res, err := recordScript.Run(ctx, s.client, []string{s.key(key)},
		now.UnixNano(), window.Nanoseconds(), limit, member,
	).Slice()
	if err != nil {
		return false, 0, time.Time{}, fmt.Errorf("ratelimit: redis record: %w", err)
	}
	if len(res) != 3 {
		return false, 0, time.Time{}, fmt.Errorf("ratelimit: redis record: unexpected reply shape")
	}

	allowed := res[0].(int64) == 1
	count := res[1].(int64)

	var oldest time.Time
	if raw, ok := res[2].(string); ok {
		if ns, err := strconv.ParseInt(raw, 10, 64); err == nil && ns > 0 {
			oldest = time.Unix(0, ns)
		}
	}

	return allowed, count, oldest, nil
}

func (s *RedisStore) CountInWindow(ctx context.Context, key string, now time.Time, window time.Duration) (int64, error) {
	cutoff := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, s.key(key), "-inf", cutoff)
	card := pipe.ZCard(ctx, s.key(key))
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("ratelimit: redis count: %w", err)
	}
	return card.Val(), nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("ratelimit: redis delete: %w", err)
	}
	return nil
}
