// Package entitlement gates strategy generation behind a free-use counter
// and a paid flag.
package entitlement

import (
	"context"
	"sync"
	"time"

	"github.com/dacv/strategist/internal/model"
)

// Store persists entitlement records. Every method must be atomic with
// respect to concurrent calls for the same user.
type Store interface {
	// Get returns the record for userID. The boolean is false if none exists.
	Get(ctx context.Context, userID string) (*model.UserEntitlement, bool, error)
	// GetOrCreate returns the record for userID, inserting the default if absent.
	GetOrCreate(ctx context.Context, userID string) (*model.UserEntitlement, error)
	// IncrementUses adds one to the free-use counter and returns the new value.
	IncrementUses(ctx context.Context, userID string) (int, error)
	// SetPaid marks the user paid and stores both references.
	SetPaid(ctx context.Context, userID, customerRef, subscriptionRef string) error
}

// MemoryStore is an in-process Store guarded by a single mutex.
// Records live for the lifetime of the process.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*model.UserEntitlement
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*model.UserEntitlement),
		now:     time.Now,
	}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, userID string) (*model.UserEntitlement, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		return nil, false, nil
	}
	return rec.Clone(), true, nil
}

// GetOrCreate implements Store.
func (s *MemoryStore) GetOrCreate(_ context.Context, userID string) (*model.UserEntitlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getOrCreateLocked(userID).Clone(), nil
}

// IncrementUses implements Store.
func (s *MemoryStore) IncrementUses(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.getOrCreateLocked(userID)
	rec.FreeUsesConsumed++
	rec.UpdatedAt = s.now()
	return rec.FreeUsesConsumed, nil
}

// SetPaid implements Store.
func (s *MemoryStore) SetPaid(_ context.Context, userID, customerRef, subscriptionRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.getOrCreateLocked(userID)
	rec.IsPaid = true
	rec.CustomerRef = customerRef
	rec.SubscriptionRef = subscriptionRef
	rec.UpdatedAt = s.now()
	return nil
}

// Len returns the number of tracked users.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *MemoryStore) getOrCreateLocked(userID string) *model.UserEntitlement {
	rec, ok := s.records[userID]
	if !ok {
		rec = model.NewUserEntitlement(userID, s.now())
		s.records[userID] = rec
	}
	return rec
}
