// Package testutil holds helpers shared by integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dacv/strategist/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema applies every down migration in reverse order, then every up
// migration in order.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	dir, err := MigrationsDir()
	if err != nil {
		return err
	}

	downs, err := filepath.Glob(filepath.Join(dir, "*.down.sql"))
	if err != nil {
		return fmt.Errorf("list down migrations: %w", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(downs)))
	for _, path := range downs {
		if err := execFile(ctx, pool, path); err != nil {
			return err
		}
	}

	ups, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("list up migrations: %w", err)
	}
	sort.Strings(ups)
	for _, path := range ups {
		if err := execFile(ctx, pool, path); err != nil {
			return err
		}
	}

	return nil
}

func execFile(ctx context.Context, pool *pgxpool.Pool, path string) error {
	sql, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", filepath.Base(path), err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("apply migration %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// MigrationsDir returns the directory holding the SQL migrations.
func MigrationsDir() (string, error) {
	root, err := ProjectRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "internal", "repository", "migrations"), nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestStrategyRecord creates a history record with sensible defaults.
func NewTestStrategyRecord(t testing.TB, userID string, createdAt time.Time) *model.StrategyRecord {
	t.Helper()
	return &model.StrategyRecord{
		ID:       UniqueID("rec"),
		UserID:   userID,
		Product:  "eco-friendly water bottle",
		Audience: "outdoor enthusiasts",
		Budget:   1000,
		Strategy: &model.Strategy{
			SocialMedia: map[string]any{"platforms": []any{"Instagram"}},
			SEO:         map[string]any{},
			Content:     map[string]any{},
			BudgetAllocation: model.BudgetAllocation{
				SocialMedia:     300,
				SEO:             200,
				Content:         250,
				PaidAdvertising: 250,
				Total:           1000,
			},
			Timestamp: createdAt,
		},
		CreatedAt: createdAt,
	}
}

// UniqueUserID generates a unique user id for tests.
func UniqueUserID() string {
	return UniqueID("user")
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
