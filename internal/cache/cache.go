package cache

import (
	"context"
	"sync"
	"time"

	"github.com/newsforge/forecast-image-service/internal/models"
)

// Store defines the interface for forecast cache backends.
// Get returns the cached entry if present and not expired, Set stores an
// entry with TTL. A miss is (zero, false, nil); errors are reserved for
// backend failures.
type Store interface {
	Get(ctx context.Context, key string) (models.CacheEntry, bool, error)
	Set(ctx context.Context, key string, entry models.CacheEntry, ttl time.Duration) error
}

// InMemoryStore implements Store using a mutex-guarded map with TTL-based
// expiration. Expired entries are removed on access. Safe for concurrent use
// by the HTTP path and the scheduled refresher.
type InMemoryStore struct {
	mu   sync.RWMutex
	data map[string]storedEntry
}

type storedEntry struct {
	entry     models.CacheEntry
	expiresAt time.Time
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		data: make(map[string]storedEntry),
	}
}

// Get retrieves the entry for key if present and not expired.
func (s *InMemoryStore) Get(ctx context.Context, key string) (models.CacheEntry, bool, error) {
	s.mu.RLock()
	stored, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return models.CacheEntry{}, false, nil
	}

	if time.Now().After(stored.expiresAt) {
		s.mu.Lock()
		delete(s.data, key)
		s.mu.Unlock()
		return models.CacheEntry{}, false, nil
	}

	return stored.entry, true, nil
}

// Set stores the entry under key with the specified TTL. The entry expires
// after TTL elapses and is removed on next Get access.
func (s *InMemoryStore) Set(ctx context.Context, key string, entry models.CacheEntry, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = storedEntry{
		entry:     entry,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}
