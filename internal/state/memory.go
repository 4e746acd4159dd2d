package state

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL bounds how long an abandoned pending conversion survives. The
// entry is consumed on the next numeric message anyway; the TTL only guards
// against chats that pick a direction and never answer.
const DefaultTTL = time.Hour

// MemoryStorage keeps pending conversions in a mutex-guarded map. Suitable
// for single-instance deployments and tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	entries map[int64]PendingConversion
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStorage builds an in-memory Storage with the given TTL.
func NewMemoryStorage(ttl time.Duration) *MemoryStorage {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &MemoryStorage{
		entries: make(map[int64]PendingConversion),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the chat's pending conversion. Expired entries are treated as
// absent and dropped lazily.
func (s *MemoryStorage) Get(_ context.Context, chatID int64) (*PendingConversion, error) {
	s.mu.RLock()
	entry, ok := s.entries[chatID]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	if s.expired(entry) {
		s.mu.Lock()
		if current, ok := s.entries[chatID]; ok && s.expired(current) {
			delete(s.entries, chatID)
		}
		s.mu.Unlock()
		return nil, ErrNotFound
	}

	copied := entry
	return &copied, nil
}

// Set stores the pending conversion, stamping CreatedAt when unset.
func (s *MemoryStorage) Set(_ context.Context, chatID int64, pending *PendingConversion) error {
	if pending == nil {
		return nil
	}

	entry := *pending
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}

	s.mu.Lock()
	s.entries[chatID] = entry
	s.mu.Unlock()

	return nil
}

// Clear removes the chat's entry if present.
func (s *MemoryStorage) Clear(_ context.Context, chatID int64) error {
	s.mu.Lock()
	delete(s.entries, chatID)
	s.mu.Unlock()

	return nil
}

// EvictExpired drops all entries past the TTL and reports the count.
func (s *MemoryStorage) EvictExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for chatID, entry := range s.entries {
		if s.expired(entry) {
			delete(s.entries, chatID)
			evicted++
		}
	}

	return evicted, nil
}

// Len reports the number of live entries, expired ones included until the
// next eviction pass.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStorage) expired(entry PendingConversion) bool {
	return s.now().Sub(entry.CreatedAt) > s.ttl
}
