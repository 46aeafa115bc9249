package model

import (
	"encoding/json"
	"time"
)

// CacheEntry is a memoized external lookup payload.
type CacheEntry struct {
	Key      string          `json:"key"`
	Value    json.RawMessage `json:"value"`
	StoredAt time.Time       `json:"stored_at"`
}

// IsFresh reports whether the entry is still readable at now.
// Entries are valid only while now - StoredAt < expiry.
func (c CacheEntry) IsFresh(now time.Time, expiry time.Duration) bool {
	return now.Sub(c.StoredAt) < expiry
}
