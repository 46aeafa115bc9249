package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dacv/strategist/internal/model"
)

// HistoryRepository stores generated strategies in strategy_history.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

// Append inserts a strategy record.
func (r *HistoryRepository) Append(ctx context.Context, rec *model.StrategyRecord) error {
	body, err := json.Marshal(rec.Strategy)
	if err != nil {
		return fmt.Errorf("failed to encode strategy: %w", err)
	}

	query := `
		INSERT INTO strategy_history (id, user_id, product, audience, budget, strategy, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.pool.Exec(ctx, query,
		rec.ID,
		rec.UserID,
		rec.Product,
		rec.Audience,
		rec.Budget,
		body,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append strategy: %w", err)
	}
	return nil
}

// ListByUser returns up to limit records for userID, newest first.
// A non-positive limit returns every record.
func (r *HistoryRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*model.StrategyRecord, error) {
	query := `
		SELECT id, user_id, product, audience, budget, strategy, created_at
		FROM strategy_history
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list strategies: %w", err)
	}
	defer rows.Close()

	records := make([]*model.StrategyRecord, 0)
	for rows.Next() {
		var (
			rec  model.StrategyRecord
			body []byte
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Product, &rec.Audience, &rec.Budget, &body, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan strategy: %w", err)
		}
		rec.Strategy = new(model.Strategy)
		if err := json.Unmarshal(body, rec.Strategy); err != nil {
			return nil, fmt.Errorf("failed to decode strategy: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate strategies: %w", err)
	}
	return records, nil
}
