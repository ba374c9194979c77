package offline

import (
	"context"
	"sync"
	"time"
)

// MemoryStorage is an in-process Storage for single-node deployments and
// tests. Backlogs do not survive a restart; use RedisStorage or
// PostgresStorage where durability matters.
type MemoryStorage struct {
	mu       sync.Mutex
	backlogs map[string][]Entry

	janitorInterval time.Duration
	stopJanitor     chan struct{}
	closeOnce       sync.Once
	now             func() time.Time
}

// MemoryStorageOption configures a MemoryStorage.
type MemoryStorageOption func(*MemoryStorage)

// WithJanitorInterval sets how often expired entries are swept.
func WithJanitorInterval(d time.Duration) MemoryStorageOption {
	return func(s *MemoryStorage) {
		if d > 0 {
			s.janitorInterval = d
		}
	}
}

// WithMemoryClock overrides the storage's time source. Intended for tests.
func WithMemoryClock(now func() time.Time) MemoryStorageOption {
	return func(s *MemoryStorage) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStorage creates an in-memory storage with a background sweep of
// expired entries. Call Close to stop the sweep.
func NewMemoryStorage(opts ...MemoryStorageOption) *MemoryStorage {
	s := &MemoryStorage{
		backlogs:        make(map[string][]Entry),
		janitorInterval: time.Minute,
		stopJanitor:     make(chan struct{}),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	go s.janitor()

	return s
}

func (s *MemoryStorage) Enqueue(ctx context.Context, entry Entry) error {
	if entry.UserID == "" {
		return ErrUserIDRequired
	}
	if entry.Message == nil {
		return ErrMessageRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.backlogs[entry.UserID] = append(s.backlogs[entry.UserID], entry)
	return nil
}

func (s *MemoryStorage) Drain(ctx context.Context, userID string) ([]Entry, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	s.mu.Lock()
	backlog := s.backlogs[userID]
	delete(s.backlogs, userID)
	s.mu.Unlock()

	if len(backlog) == 0 {
		return nil, nil
	}

	now := s.now()
	out := backlog[:0]
	for _, entry := range backlog {
		if entry.Expired(now) {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *MemoryStorage) Len(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, ErrUserIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.backlogs[userID]), nil
}

// Close stops the expiry sweep. Safe to call multiple times.
func (s *MemoryStorage) Close() {
	s.closeOnce.Do(func() {
		close(s.stopJanitor)
	})
}

func (s *MemoryStorage) janitor() {
	ticker := time.NewTicker(s.janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(s.now())
		case <-s.stopJanitor:
			return
		}
	}
}

func (s *MemoryStorage) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for userID, backlog := range s.backlogs {
		kept := backlog[:0]
		for _, entry := range backlog {
			if !entry.Expired(now) {
				kept = append(kept, entry)
			}
		}
		if len(kept) == 0 {
			delete(s.backlogs, userID)
			continue
		}
		s.backlogs[userID] = kept
	}
}
