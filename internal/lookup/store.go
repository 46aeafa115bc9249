package lookup

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dacv/strategist/internal/model"
)

// Store persists cache entries. Freshness is decided by Cache on read, so
// stores may return stale entries.
type Store interface {
	Get(ctx context.Context, key string) (model.CacheEntry, bool, error)
	Set(ctx context.Context, key string, entry model.CacheEntry) error
}

// DefaultMaxEntries bounds the in-memory store when no size is configured.
const DefaultMaxEntries = 1024

// MemoryStore is a size-bounded in-process Store with least-recently-used
// eviction.
type MemoryStore struct {
	entries *lru.Cache[string, model.CacheEntry]
}

// NewMemoryStore creates a MemoryStore holding at most maxEntries entries.
func NewMemoryStore(maxEntries int) (*MemoryStore, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	entries, err := lru.New[string, model.CacheEntry](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru: %w", err)
	}
	return &MemoryStore{entries: entries}, nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) (model.CacheEntry, bool, error) {
	entry, ok := s.entries.Get(key)
	if ok {
		entry.Value = cloneBytes(entry.Value)
	}
	return entry, ok, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key string, entry model.CacheEntry) error {
	entry.Value = cloneBytes(entry.Value)
	s.entries.Add(key, entry)
	return nil
}

// Len returns the number of entries currently held.
func (s *MemoryStore) Len() int {
	return s.entries.Len()
}
