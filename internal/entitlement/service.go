package entitlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/dacv/strategist/internal/model"
)

// ErrInvalidReference is returned when GrantPaid receives an empty reference.
var ErrInvalidReference = errors.New("customer and subscription references are required")

// Usage is the combined usage view returned to clients.
type Usage struct {
	UsesLeft int                    `json:"uses_left"`
	Paid     bool                   `json:"paid"`
	State    model.EntitlementState `json:"state"`
}

// Service is the single source of truth for whether a user may generate.
type Service struct {
	store Store
}

// NewService creates a Service over the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// GetOrCreate returns the user's record, creating the default one if unseen.
func (s *Service) GetOrCreate(ctx context.Context, userID string) (*model.UserEntitlement, error) {
	rec, err := s.store.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entitlement: %w", err)
	}
	return rec, nil
}

// MayGenerate reports whether the user is paid or has free uses left.
// Unseen users are evaluated against the default record without inserting it.
func (s *Service) MayGenerate(ctx context.Context, userID string, freeUseLimit int) (bool, error) {
	rec, err := s.lookup(ctx, userID)
	if err != nil {
		return false, err
	}
	return rec.MayGenerate(freeUseLimit), nil
}

// RecordUse consumes one free use and returns the new count.
// Call it only after a generation has fully succeeded.
func (s *Service) RecordUse(ctx context.Context, userID string) (int, error) {
	n, err := s.store.IncrementUses(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to record use: %w", err)
	}
	return n, nil
}

// GrantPaid moves the user to the paid state. Repeated grants overwrite the
// stored references.
func (s *Service) GrantPaid(ctx context.Context, userID, customerRef, subscriptionRef string) error {
	if customerRef == "" || subscriptionRef == "" {
		return ErrInvalidReference
	}
	if err := s.store.SetPaid(ctx, userID, customerRef, subscriptionRef); err != nil {
		return fmt.Errorf("failed to grant paid entitlement: %w", err)
	}
	return nil
}

// UsesRemaining returns max(0, limit - consumed), ignoring paid status.
func (s *Service) UsesRemaining(ctx context.Context, userID string, freeUseLimit int) (int, error) {
	rec, err := s.lookup(ctx, userID)
	if err != nil {
		return 0, err
	}
	return rec.UsesRemaining(freeUseLimit), nil
}

// Usage returns remaining uses, paid flag and state in one read.
func (s *Service) Usage(ctx context.Context, userID string, freeUseLimit int) (Usage, error) {
	rec, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return Usage{}, err
	}
	return Usage{
		UsesLeft: rec.UsesRemaining(freeUseLimit),
		Paid:     rec.IsPaid,
		State:    rec.State(freeUseLimit),
	}, nil
}

func (s *Service) lookup(ctx context.Context, userID string) (*model.UserEntitlement, error) {
	rec, ok, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entitlement: %w", err)
	}
	if !ok {
		return &model.UserEntitlement{UserID: userID}, nil
	}
	return rec, nil
}
