package entitlement

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dacv/strategist/internal/model"
)

func newTestService() (*Service, *MemoryStore) {
	store := NewMemoryStore()
	return NewService(store), store
}

func mustMayGenerate(t *testing.T, svc *Service, userID string, limit int) bool {
	t.Helper()
	ok, err := svc.MayGenerate(context.Background(), userID, limit)
	if err != nil {
		t.Fatalf("MayGenerate failed: %v", err)
	}
	return ok
}

func TestService_FreshUserMayGenerate(t *testing.T) {
	t.Parallel()

	svc, store := newTestService()

	for _, limit := range []int{1, 2, 10} {
		if !mustMayGenerate(t, svc, "never-seen", limit) {
			t.Errorf("fresh user should be allowed with limit %d", limit)
		}
	}

	if store.Len() != 0 {
		t.Errorf("MayGenerate should not insert records, store has %d", store.Len())
	}
}

func TestService_ExhaustAfterLimitUses(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService()
	const limit = 3

	for i := 1; i <= limit; i++ {
		n, err := svc.RecordUse(ctx, "u1")
		if err != nil {
			t.Fatalf("RecordUse failed: %v", err)
		}
		if n != i {
			t.Errorf("RecordUse returned %d, want %d", n, i)
		}
	}

	if mustMayGenerate(t, svc, "u1", limit) {
		t.Error("user should be blocked after consuming the limit")
	}

	remaining, err := svc.UsesRemaining(ctx, "u1", limit)
	if err != nil {
		t.Fatalf("UsesRemaining failed: %v", err)
	}
	if remaining != 0 {
		t.Errorf("UsesRemaining = %d, want 0", remaining)
	}
}

func TestService_UsesRemainingNeverNegative(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService()

	for i := 0; i < 5; i++ {
		if _, err := svc.RecordUse(ctx, "u1"); err != nil {
			t.Fatalf("RecordUse failed: %v", err)
		}
	}

	remaining, err := svc.UsesRemaining(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("UsesRemaining failed: %v", err)
	}
	if remaining != 0 {
		t.Errorf("UsesRemaining = %d, want 0", remaining)
	}
}

func TestService_GrantPaidOverridesLimit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService()

	for i := 0; i < 4; i++ {
		if _, err := svc.RecordUse(ctx, "u1"); err != nil {
			t.Fatalf("RecordUse failed: %v", err)
		}
	}

	if err := svc.GrantPaid(ctx, "u1", "cus_1", "sub_1"); err != nil {
		t.Fatalf("GrantPaid failed: %v", err)
	}

	for _, limit := range []int{0, 1, 4, 100} {
		if !mustMayGenerate(t, svc, "u1", limit) {
			t.Errorf("paid user should be allowed with limit %d", limit)
		}
	}

	// Paid status is ignored by UsesRemaining.
	remaining, err := svc.UsesRemaining(ctx, "u1", 1)
	if err != nil {
		t.Fatalf("UsesRemaining failed: %v", err)
	}
	if remaining != 0 {
		t.Errorf("UsesRemaining = %d, want 0", remaining)
	}
}

func TestService_GrantPaidLastWriteWins(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService()

	if err := svc.GrantPaid(ctx, "u1", "cus_1", "sub_1"); err != nil {
		t.Fatalf("GrantPaid failed: %v", err)
	}
	if err := svc.GrantPaid(ctx, "u1", "cus_2", "sub_2"); err != nil {
		t.Fatalf("GrantPaid failed: %v", err)
	}

	rec, err := svc.GetOrCreate(ctx, "u1")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if !rec.IsPaid {
		t.Error("expected IsPaid")
	}
	if rec.CustomerRef != "cus_2" || rec.SubscriptionRef != "sub_2" {
		t.Errorf("refs = (%s, %s), want (cus_2, sub_2)", rec.CustomerRef, rec.SubscriptionRef)
	}
}

func TestService_GrantPaidRejectsEmptyRefs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService()

	tests := []struct {
		name     string
		customer string
		sub      string
	}{
		{"empty customer", "", "sub_1"},
		{"empty subscription", "cus_1", ""},
		{"both empty", "", ""},
	}

	for _, tt := range tests {
		err := svc.GrantPaid(ctx, "u1", tt.customer, tt.sub)
		if !errors.Is(err, ErrInvalidReference) {
			t.Errorf("%s: error = %v, want ErrInvalidReference", tt.name, err)
		}
	}

	if mustMayGenerate(t, svc, "u1", 0) {
		t.Error("rejected grant must not mark the user paid")
	}
}

func TestService_Scenario(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService()

	if !mustMayGenerate(t, svc, "u1", 1) {
		t.Fatal("fresh u1 should be allowed")
	}
	if _, err := svc.RecordUse(ctx, "u1"); err != nil {
		t.Fatalf("RecordUse failed: %v", err)
	}
	if mustMayGenerate(t, svc, "u1", 1) {
		t.Fatal("u1 should be blocked after one use")
	}
	if err := svc.GrantPaid(ctx, "u1", "cus_1", "sub_1"); err != nil {
		t.Fatalf("GrantPaid failed: %v", err)
	}
	if !mustMayGenerate(t, svc, "u1", 1) {
		t.Fatal("u1 should be allowed after payment")
	}
}

func TestService_Usage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService()

	usage, err := svc.Usage(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("Usage failed: %v", err)
	}
	if usage.UsesLeft != 2 || usage.Paid || usage.State != model.StateFreeUnused {
		t.Errorf("unexpected fresh usage: %+v", usage)
	}

	if _, err := svc.RecordUse(ctx, "u1"); err != nil {
		t.Fatalf("RecordUse failed: %v", err)
	}

	usage, err = svc.Usage(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("Usage failed: %v", err)
	}
	if usage.UsesLeft != 1 || usage.State != model.StateFreePartial {
		t.Errorf("unexpected partial usage: %+v", usage)
	}
}

func TestService_ConcurrentRecordUse(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService()

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if _, err := svc.RecordUse(ctx, "shared"); err != nil {
				t.Errorf("RecordUse failed: %v", err)
			}
		}()
	}
	wg.Wait()

	rec, err := svc.GetOrCreate(ctx, "shared")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if rec.FreeUsesConsumed != workers {
		t.Errorf("FreeUsesConsumed = %d, want %d", rec.FreeUsesConsumed, workers)
	}
}

type failingStore struct{ MemoryStore }

var errBackend = errors.New("backend down")

func (f *failingStore) Get(context.Context, string) (*model.UserEntitlement, bool, error) {
	return nil, false, errBackend
}

func TestService_StoreErrorsPropagate(t *testing.T) {
	t.Parallel()

	svc := NewService(&failingStore{})

	if _, err := svc.MayGenerate(context.Background(), "u1", 1); !errors.Is(err, errBackend) {
		t.Errorf("MayGenerate error = %v, want wrapped errBackend", err)
	}
}
