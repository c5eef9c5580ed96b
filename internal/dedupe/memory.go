package dedupe

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and ephemeral runs. The
// mutex makes CheckAndMark atomic across goroutines; entries do not
// survive a restart.
type MemoryStore struct {
	mu        sync.Mutex
	processed map[string]int64 // request id -> processed-at epoch seconds
	ttl       time.Duration
	now       func() time.Time
}

// NewMemoryStore creates an empty in-memory store. A non-positive ttl
// falls back to DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		processed: make(map[string]int64),
		ttl:       ttl,
		now:       time.Now,
	}
}

func (s *MemoryStore) CheckAndMark(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.processed[id]; exists {
		return false, nil
	}
	s.processed[id] = s.now().Unix()
	return true, nil
}

func (s *MemoryStore) IsDuplicate(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.processed[id]
	return exists, nil
}

func (s *MemoryStore) MarkProcessed(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.processed[id] = s.now().Unix()
	return nil
}

func (s *MemoryStore) Unmark(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.processed, id)
	return nil
}

func (s *MemoryStore) CleanupExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl).Unix()
	removed := 0
	for id, processedAt := range s.processed {
		if processedAt < cutoff {
			delete(s.processed, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
