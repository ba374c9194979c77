package ratelimit

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

// shardCount balances lock granularity against footprint; per-actor keys
// hash across shards so one hot actor never serializes the others.
const shardCount = 32

// MemoryStore is an in-memory sliding-window store. Keys are partitioned
// across shards, each with its own lock, so distinct actors' state is
// mutated fully in parallel while a single actor's window stays serialized.
type MemoryStore struct {
	shards [shardCount]*storeShard

	cleanupInterval time.Duration
	maxIdle         time.Duration
	stopCleanup     chan struct{}
	cleanupOnce     sync.Once
}

type storeShard struct {
	mu      sync.Mutex
	windows map[string]*eventWindow
}

type eventWindow struct {
	timestamps []time.Time
	touched    time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets how often idle windows are swept.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.cleanupInterval = interval
		}
	}
}

// WithMaxIdle sets how long an untouched window survives before the sweep
// removes it.
func WithMaxIdle(d time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) {
		if d > 0 {
			s.maxIdle = d
		}
	}
}

// NewMemoryStore creates an in-memory store with a background cleanup loop.
// Call Close to stop the loop.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		cleanupInterval: time.Minute,
		maxIdle:         10 * time.Minute,
		stopCleanup:     make(chan struct{}),
	}
	for i := range s.shards {
		s.shards[i] = &storeShard{windows: make(map[string]*eventWindow)}
	}
	for _, opt := range opts {
		opt(s)
	}

	go s.cleanupLoop()

	return s
}

func (s *MemoryStore) shardFor(key string) *storeShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[h.Sum32()%shardCount]
}

func (s *MemoryStore) RecordIfAllowed(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (bool, int64, time.Time, error) {
	shard := s.shardFor(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	w, exists := shard.windows[key]
	if !exists {
		w = &eventWindow{}
		shard.windows[key] = w
	}

	w.trim(now.Add(-window))
	w.touched = now

	if len(w.timestamps) >= limit {
		return false, int64(len(w.timestamps)), w.oldest(), nil
	}

	w.timestamps = append(w.timestamps, now)
	return true, int64(len(w.timestamps)), w.oldest(), nil
}

func (s *MemoryStore) CountInWindow(ctx context.Context, key string, now time.Time, window time.Duration) (int64, error) {
	shard := s.shardFor(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	w, exists := shard.windows[key]
	if !exists {
		return 0, nil
	}

	w.trim(now.Add(-window))
	return int64(len(w.timestamps)), nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	shard := s.shardFor(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	delete(shard.windows, key)
	return nil
}

// Close stops the background cleanup loop. Safe to call multiple times.
func (s *MemoryStore) Close() {
	s.cleanupOnce.Do(func() {
		close(s.stopCleanup)
	})
}

func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(time.Now())
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *MemoryStore) sweep(now time.Time) {
	cutoff := now.Add(-s.maxIdle)
	for _, shard := range s.shards {
		shard.mu.Lock()
		for key, w := range shard.windows {
			if w.touched.Before(cutoff) {
				delete(shard.windows, key)
			}
		}
		shard.mu.Unlock()
	}
}

// trim drops timestamps at or before the cutoff, keeping arrival order.
func (w *eventWindow) trim(cutoff time.Time) {
	idx := 0
	for idx < len(w.timestamps) && !w.timestamps[idx].After(cutoff) {
		idx++
	}
	if idx > 0 {
		w.timestamps = append(w.timestamps[:0], w.timestamps[idx:]...)
	}
}

func (w *eventWindow) oldest() time.Time {
	if len(w.timestamps) == 0 {
		return time.Time{}
	}
	return w.timestamps[0]
}
