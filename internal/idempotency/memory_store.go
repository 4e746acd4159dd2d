package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore claims update keys in process memory. Suitable for
// single-instance deployments without Redis.
type MemoryStore struct {
	mu      sync.Mutex
	claims  map[string]time.Time
	now     func() time.Time
	maxSize int
}

// NewMemoryStore builds an in-memory Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		claims:  make(map[string]time.Time),
		now:     time.Now,
		maxSize: 100_000,
	}
}

// Acquire claims the key until its deadline passes.
func (s *MemoryStore) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if deadline, ok := s.claims[key]; ok && now.Before(deadline) {
		return false, nil
	}

	if len(s.claims) >= s.maxSize {
		s.evictExpiredLocked(now)
	}

	s.claims[key] = now.Add(ttl)
	return true, nil
}

// Release frees the key.
func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.claims, key)
	s.mu.Unlock()

	return nil
}

func (s *MemoryStore) evictExpiredLocked(now time.Time) {
	for key, deadline := range s.claims {
		if now.After(deadline) {
			delete(s.claims, key)
		}
	}
}
