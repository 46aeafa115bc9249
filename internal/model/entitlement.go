// Package model defines domain entities for the application.
package model

import "time"

// EntitlementState is the derived position of a user in the usage state machine.
type EntitlementState string

const (
	StateFreeUnused    EntitlementState = "free_unused"
	StateFreePartial   EntitlementState = "free_partial"
	StateFreeExhausted EntitlementState = "free_exhausted"
	StatePaid          EntitlementState = "paid"
)

// UserEntitlement tracks free-tier consumption and paid status for one user.
// FreeUsesConsumed never decreases and IsPaid never reverts to false.
type UserEntitlement struct {
	UserID           string    `json:"user_id"`
	FreeUsesConsumed int       `json:"free_uses_consumed"`
	IsPaid           bool      `json:"is_paid"`
	CustomerRef      string    `json:"customer_ref,omitempty"`
	SubscriptionRef  string    `json:"subscription_ref,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewUserEntitlement returns the default record for an unseen user.
func NewUserEntitlement(userID string, now time.Time) *UserEntitlement {
	return &UserEntitlement{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MayGenerate reports whether the user can generate under the given free limit.
func (e *UserEntitlement) MayGenerate(freeUseLimit int) bool {
	return e.IsPaid || e.FreeUsesConsumed < freeUseLimit
}

// UsesRemaining returns the free uses left, ignoring paid status. Never negative.
func (e *UserEntitlement) UsesRemaining(freeUseLimit int) int {
	remaining := freeUseLimit - e.FreeUsesConsumed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// State computes the state machine position for the given free limit.
func (e *UserEntitlement) State(freeUseLimit int) EntitlementState {
	switch {
	case e.IsPaid:
		return StatePaid
	case e.FreeUsesConsumed == 0 && freeUseLimit > 0:
		return StateFreeUnused
	case e.FreeUsesConsumed < freeUseLimit:
		return StateFreePartial
	default:
		return StateFreeExhausted
	}
}

// Clone returns a copy safe to hand out of a store.
func (e *UserEntitlement) Clone() *UserEntitlement {
	c := *e
	return &c
}
