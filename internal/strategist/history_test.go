package strategist

import (
	"context"
	"testing"
	"time"

	"github.com/dacv/strategist/internal/model"
)

func TestMemoryHistory_NewestFirstWithLimit(t *testing.T) {
	t.Parallel()
	h := NewMemoryHistory()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		rec := &model.StrategyRecord{ID: string(rune('a' + i)), UserID: "u1", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := h.Append(ctx, rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	all, _ := h.ListByUser(ctx, "u1", 0)
	if len(all) != 3 || all[0].ID != "c" || all[2].ID != "a" {
		t.Fatalf("order wrong: %v %v %v", all[0].ID, all[1].ID, all[2].ID)
	}

	limited, _ := h.ListByUser(ctx, "u1", 2)
	if len(limited) != 2 || limited[0].ID != "c" {
		t.Errorf("limited = %+v", limited)
	}

	limited[0].Product = "mutated"
	again, _ := h.ListByUser(ctx, "u1", 1)
	if again[0].Product == "mutated" {
		t.Error("ListByUser must return copies")
	}
}
