package strategist

import (
	"context"
	"sort"
	"sync"

	"github.com/dacv/strategist/internal/model"
)

// HistoryStore keeps generated strategies per user.
type HistoryStore interface {
	Append(ctx context.Context, rec *model.StrategyRecord) error
	// ListByUser returns up to limit records, newest first. A non-positive
	// limit means no limit.
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.StrategyRecord, error)
}

// MemoryHistory is an in-process HistoryStore.
type MemoryHistory struct {
	mu     sync.RWMutex
	byUser map[string][]*model.StrategyRecord
}

// NewMemoryHistory creates an empty MemoryHistory.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{byUser: make(map[string][]*model.StrategyRecord)}
}

// Append implements HistoryStore.
func (h *MemoryHistory) Append(_ context.Context, rec *model.StrategyRecord) error {
	cp := *rec
	h.mu.Lock()
	h.byUser[rec.UserID] = append(h.byUser[rec.UserID], &cp)
	h.mu.Unlock()
	return nil
}

// ListByUser implements HistoryStore.
func (h *MemoryHistory) ListByUser(_ context.Context, userID string, limit int) ([]*model.StrategyRecord, error) {
	h.mu.RLock()
	recs := h.byUser[userID]
	out := make([]*model.StrategyRecord, 0, len(recs))
	for i := len(recs) - 1; i >= 0; i-- {
		cp := *recs[i]
		out = append(out, &cp)
	}
	h.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
