package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dacv/strategist/internal/model"
)

// LookupStore keeps lookup cache entries in Redis hashes. The payload is
// stored as raw bytes so cache hits return exactly what the provider sent.
// Entries carry their own stored_at; the Redis TTL only reclaims space once
// an entry can no longer be fresh.
type LookupStore struct {
	cache *Cache
	ttl   time.Duration
}

// NewLookupStore creates a LookupStore whose keys expire after ttl.
func NewLookupStore(c *Cache, ttl time.Duration) *LookupStore {
	return &LookupStore{cache: c, ttl: ttl}
}

// Get loads an entry by key.
func (s *LookupStore) Get(ctx context.Context, key string) (model.CacheEntry, bool, error) {
	result, err := s.cache.client.HGetAll(ctx, key).Result()
	if err != nil {
		return model.CacheEntry{}, false, fmt.Errorf("redis hgetall failed: %w", err)
	}

	if len(result) == 0 {
		return model.CacheEntry{}, false, nil
	}

	storedAt, err := strconv.ParseInt(result["stored_at"], 10, 64)
	if err != nil {
		return model.CacheEntry{}, false, fmt.Errorf("failed to parse stored_at: %w", err)
	}

	return model.CacheEntry{
		Key:      key,
		Value:    []byte(result["value"]),
		StoredAt: time.Unix(0, storedAt),
	}, true, nil
}

// Set stores an entry, overwriting any previous one.
func (s *LookupStore) Set(ctx context.Context, key string, entry model.CacheEntry) error {
	fields := map[string]any{
		"value":     []byte(entry.Value),
		"stored_at": strconv.FormatInt(entry.StoredAt.UnixNano(), 10),
	}

	pipe := s.cache.client.Pipeline()
	pipe.HSet(ctx, key, fields)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache lookup: %w", err)
	}

	return nil
}
