package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dacv/strategist/internal/model"
)

// EntitlementRepository stores user entitlements in the entitlements table.
// Each write is a single statement, so concurrent requests for one user
// serialize on the row lock.
type EntitlementRepository struct {
	pool *pgxpool.Pool
}

const entitlementColumns = `user_id, free_uses_consumed, is_paid, customer_ref, subscription_ref, created_at, updated_at`

// Get returns the record for userID, reporting false when none exists.
func (r *EntitlementRepository) Get(ctx context.Context, userID string) (*model.UserEntitlement, bool, error) {
	query := `SELECT ` + entitlementColumns + ` FROM entitlements WHERE user_id = $1`

	rec, err := scanEntitlement(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get entitlement: %w", err)
	}
	return rec, true, nil
}

// GetOrCreate returns the record for userID, inserting the default if absent.
func (r *EntitlementRepository) GetOrCreate(ctx context.Context, userID string) (*model.UserEntitlement, error) {
	// The no-op update makes RETURNING yield the existing row on conflict.
	query := `
		INSERT INTO entitlements (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING ` + entitlementColumns

	rec, err := scanEntitlement(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get or create entitlement: %w", err)
	}
	return rec, nil
}

// IncrementUses atomically adds one free use and returns the new count.
func (r *EntitlementRepository) IncrementUses(ctx context.Context, userID string) (int, error) {
	query := `
		INSERT INTO entitlements (user_id, free_uses_consumed)
		VALUES ($1, 1)
		ON CONFLICT (user_id) DO UPDATE
		SET free_uses_consumed = entitlements.free_uses_consumed + 1,
		    updated_at = NOW()
		RETURNING free_uses_consumed`

	var consumed int
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&consumed); err != nil {
		return 0, fmt.Errorf("failed to increment uses: %w", err)
	}
	return consumed, nil
}

// SetPaid marks the user paid and records the provider references.
func (r *EntitlementRepository) SetPaid(ctx context.Context, userID, customerRef, subscriptionRef string) error {
	query := `
		INSERT INTO entitlements (user_id, is_paid, customer_ref, subscription_ref)
		VALUES ($1, TRUE, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET is_paid = TRUE,
		    customer_ref = EXCLUDED.customer_ref,
		    subscription_ref = EXCLUDED.subscription_ref,
		    updated_at = NOW()`

	if _, err := r.pool.Exec(ctx, query, userID, customerRef, subscriptionRef); err != nil {
		return fmt.Errorf("failed to set paid: %w", err)
	}
	return nil
}

func scanEntitlement(row pgx.Row) (*model.UserEntitlement, error) {
	var rec model.UserEntitlement
	err := row.Scan(
		&rec.UserID,
		&rec.FreeUsesConsumed,
		&rec.IsPaid,
		&rec.CustomerRef,
		&rec.SubscriptionRef,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
