package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dacv/strategist/internal/metrics"
	"github.com/dacv/strategist/internal/model"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type countingFetcher struct {
	calls   atomic.Int64
	payload json.RawMessage
	err     error
}

func (f *countingFetcher) Fetch(context.Context, Kind, string) (json.RawMessage, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

func newTestCache(t *testing.T, fetcher Fetcher, clock *fakeClock, opts ...Option) (*Cache, *MemoryStore) {
	t.Helper()
	store, err := NewMemoryStore(16)
	if err != nil {
		t.Fatalf("NewMemoryStore failed: %v", err)
	}
	opts = append([]Option{
		WithClock(clock.Now),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)
	return NewCache(store, fetcher, time.Hour, opts...), store
}

func TestCache_HitWithinExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock()
	fetcher := &countingFetcher{payload: json.RawMessage(`{"platforms":["X"]}`)}
	cache, _ := newTestCache(t, fetcher, clock)

	first := cache.Get(ctx, KindTrends, "")
	clock.Advance(59 * time.Minute)
	second := cache.Get(ctx, KindTrends, "")

	if got := fetcher.calls.Load(); got != 1 {
		t.Errorf("fetch calls = %d, want 1", got)
	}
	if first.Source != SourceLive {
		t.Errorf("first source = %s, want live", first.Source)
	}
	if second.Source != SourceCache {
		t.Errorf("second source = %s, want cache", second.Source)
	}
	if !bytes.Equal(first.Payload, second.Payload) {
		t.Errorf("payloads differ: %s vs %s", first.Payload, second.Payload)
	}
	if string(second.Payload) != `{"platforms":["X"]}` {
		t.Errorf("unexpected payload %s", second.Payload)
	}
}

func TestCache_RefetchAfterExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock()
	fetcher := &countingFetcher{payload: json.RawMessage(`{"sentiment":"positive"}`)}
	cache, _ := newTestCache(t, fetcher, clock)

	cache.Sentiment(ctx, "coffee beans")
	clock.Advance(time.Hour)
	res := cache.Sentiment(ctx, "coffee beans")

	if got := fetcher.calls.Load(); got != 2 {
		t.Errorf("fetch calls = %d, want 2", got)
	}
	if res.Source != SourceLive {
		t.Errorf("source = %s, want live", res.Source)
	}
}

func TestCache_FailureReturnsDefaultAndRetries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock()
	fetcher := &countingFetcher{err: errors.New("connection refused")}
	recorder := metrics.NewInMemory()
	cache, store := newTestCache(t, fetcher, clock, WithRecorder(recorder))

	first := cache.Trends(ctx)
	second := cache.Trends(ctx)

	if got := fetcher.calls.Load(); got != 2 {
		t.Errorf("fetch calls = %d, want 2 (failures must not be cached)", got)
	}
	for i, res := range []Result{first, second} {
		if !res.Fallback() {
			t.Errorf("call %d: source = %s, want fallback", i, res.Source)
		}
		if res.Err == nil {
			t.Errorf("call %d: expected Err on fallback", i)
		}
		if !bytes.Equal(res.Payload, Default(KindTrends, "")) {
			t.Errorf("call %d: payload = %s, want default", i, res.Payload)
		}
	}
	if store.Len() != 0 {
		t.Errorf("store has %d entries after failures, want 0", store.Len())
	}
	if n := recorder.Snapshot().Lookups["trends/fallback"]; n != 2 {
		t.Errorf("trends/fallback = %d, want 2", n)
	}
}

func TestCache_RecoversAfterFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock()
	var fail atomic.Bool
	fail.Store(true)
	fetcher := FetcherFunc(func(context.Context, Kind, string) (json.RawMessage, error) {
		if fail.Load() {
			return nil, errors.New("timeout")
		}
		return json.RawMessage(`{"search_volume":42}`), nil
	})
	cache, _ := newTestCache(t, fetcher, clock)

	if res := cache.SEO(ctx, "coffee"); !res.Fallback() {
		t.Fatalf("expected fallback, got %s", res.Source)
	}

	fail.Store(false)
	res := cache.SEO(ctx, "coffee")
	if res.Source != SourceLive {
		t.Fatalf("expected live after recovery, got %s", res.Source)
	}
	if string(res.Payload) != `{"search_volume":42}` {
		t.Errorf("unexpected payload %s", res.Payload)
	}
}

func TestCache_MalformedPayloadFallsBack(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	fetcher := &countingFetcher{payload: json.RawMessage(`<html>oops`)}
	cache, store := newTestCache(t, fetcher, clock)

	res := cache.Sentiment(context.Background(), "x")
	if !errors.Is(res.Err, ErrMalformedPayload) {
		t.Errorf("Err = %v, want ErrMalformedPayload", res.Err)
	}
	if store.Len() != 0 {
		t.Error("malformed payload must not be cached")
	}
}

func TestCache_NormalizedInputsShareEntry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fetcher := &countingFetcher{payload: json.RawMessage(`{}`)}
	cache, _ := newTestCache(t, fetcher, newFakeClock())

	cache.SEO(ctx, "Coffee")
	cache.SEO(ctx, "  coffee ")
	cache.Sentiment(ctx, "coffee")

	if got := fetcher.calls.Load(); got != 2 {
		t.Errorf("fetch calls = %d, want 2 (seo shared, sentiment separate)", got)
	}
}

func TestCache_HitPayloadIsIndependent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fetcher := &countingFetcher{payload: json.RawMessage(`{"platforms":["X"]}`)}
	cache, _ := newTestCache(t, fetcher, newFakeClock())

	cache.Trends(ctx)
	hit := cache.Trends(ctx)
	if hit.Source != SourceCache {
		t.Fatalf("source = %s, want cache", hit.Source)
	}
	hit.Payload[3] = 'Z'

	again := cache.Trends(ctx)
	if string(again.Payload) != `{"platforms":["X"]}` {
		t.Errorf("cached payload changed: %s", again.Payload)
	}
}

func TestCache_ProviderSeesCallerInput(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var mu sync.Mutex
	var inputs []string
	fetcher := FetcherFunc(func(_ context.Context, _ Kind, input string) (json.RawMessage, error) {
		mu.Lock()
		inputs = append(inputs, input)
		mu.Unlock()
		return nil, errors.New("unavailable")
	})
	cache, _ := newTestCache(t, fetcher, newFakeClock())

	res := cache.SEO(ctx, "  Widget ")
	cache.Sentiment(ctx, "Eco Bottle for Hikers")

	if len(inputs) != 2 || inputs[0] != "Widget" || inputs[1] != "Eco Bottle for Hikers" {
		t.Errorf("provider inputs = %q", inputs)
	}
	seo := Decode[SEOData](res.Payload)
	if len(seo.RelatedKeywords) < 2 || seo.RelatedKeywords[1] != "best Widget" {
		t.Errorf("related keywords = %v, want caller casing", seo.RelatedKeywords)
	}
}

func TestCache_ConcurrentMissesFetchOnce(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	var calls atomic.Int64
	fetcher := FetcherFunc(func(context.Context, Kind, string) (json.RawMessage, error) {
		calls.Add(1)
		<-release
		return json.RawMessage(`{"ok":true}`), nil
	})
	cache, _ := newTestCache(t, fetcher, newFakeClock())

	const callers = 20
	var wg sync.WaitGroup
	wg.Add(callers)
	results := make([]Result, callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			results[i] = cache.Trends(context.Background())
		}(i)
	}

	// Let the goroutines pile up on the in-flight fetch.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("fetch calls = %d, want 1", got)
	}
	for i, res := range results {
		if string(res.Payload) != `{"ok":true}` {
			t.Errorf("caller %d got %s", i, res.Payload)
		}
	}
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (model.CacheEntry, bool, error) {
	return model.CacheEntry{}, false, errors.New("redis down")
}

func (brokenStore) Set(context.Context, string, model.CacheEntry) error {
	return errors.New("redis down")
}

func TestCache_StoreErrorsAreAbsorbed(t *testing.T) {
	t.Parallel()

	fetcher := &countingFetcher{payload: json.RawMessage(`{"a":1}`)}
	clock := newFakeClock()
	cache := NewCache(brokenStore{}, fetcher, time.Hour,
		WithClock(clock.Now),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	res := cache.Trends(context.Background())
	if res.Source != SourceLive {
		t.Errorf("source = %s, want live", res.Source)
	}
	if string(res.Payload) != `{"a":1}` {
		t.Errorf("unexpected payload %s", res.Payload)
	}
}
