package lookup

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dacv/strategist/internal/metrics"
	"github.com/dacv/strategist/internal/model"
)

// DefaultExpiry is the freshness window for cached payloads.
const DefaultExpiry = time.Hour

// Source tells where a payload came from.
type Source string

const (
	SourceLive     Source = metrics.SourceLive
	SourceCache    Source = metrics.SourceCache
	SourceFallback Source = metrics.SourceFallback
)

// Result is the outcome of a lookup. Payload is always set; Err is set only
// when Source is SourceFallback and explains why live data was unavailable.
type Result struct {
	Kind    Kind
	Payload json.RawMessage
	Source  Source
	Err     error
}

// Fallback reports whether the payload is a static default.
func (r Result) Fallback() bool {
	return r.Source == SourceFallback
}

// Fetcher performs one blocking external lookup.
type Fetcher interface {
	Fetch(ctx context.Context, kind Kind, input string) (json.RawMessage, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, kind Kind, input string) (json.RawMessage, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, kind Kind, input string) (json.RawMessage, error) {
	return f(ctx, kind, input)
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source used for StoredAt and freshness checks.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger used for fallback and store warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(recorder metrics.Recorder) Option {
	return func(c *Cache) { c.metrics = recorder }
}

// Cache memoizes lookups by derived key. It never returns an error: failed
// fetches yield the kind's default payload and are not cached, so the next
// call for the same key fetches again.
type Cache struct {
	store   Store
	fetcher Fetcher
	expiry  time.Duration
	now     func() time.Time
	logger  *slog.Logger
	metrics metrics.Recorder
	flights singleflight.Group
}

// NewCache creates a Cache. A non-positive expiry uses DefaultExpiry.
func NewCache(store Store, fetcher Fetcher, expiry time.Duration, opts ...Option) *Cache {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	c := &Cache{
		store:   store,
		fetcher: fetcher,
		expiry:  expiry,
		now:     time.Now,
		logger:  slog.Default(),
		metrics: metrics.NewNoop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Trends returns social media trends.
func (c *Cache) Trends(ctx context.Context) Result {
	return c.Get(ctx, KindTrends, "")
}

// SEO returns SEO metrics for keyword.
func (c *Cache) SEO(ctx context.Context, keyword string) Result {
	return c.Get(ctx, KindSEO, keyword)
}

// Sentiment returns market sentiment for text.
func (c *Cache) Sentiment(ctx context.Context, text string) Result {
	return c.Get(ctx, KindSentiment, text)
}

// Get returns the payload for kind and input, from cache when fresh,
// otherwise from the fetcher, otherwise the static default. The cache key
// uses the normalized input; providers and defaults see the trimmed input
// as the caller wrote it.
func (c *Cache) Get(ctx context.Context, kind Kind, input string) Result {
	start := time.Now()
	key := DeriveKey(kind, Normalize(input))
	input = strings.TrimSpace(input)

	res, ok := c.cached(ctx, kind, key)
	if !ok {
		// Concurrent misses for one key share a single fetch. The fetch is
		// detached from the caller's cancellation since other callers may
		// be waiting on it.
		v, _, _ := c.flights.Do(key, func() (any, error) {
			if res, ok := c.cached(ctx, kind, key); ok {
				return res, nil
			}
			return c.fetch(context.WithoutCancel(ctx), kind, key, input), nil
		})
		res = v.(Result)
	}

	c.metrics.IncLookup(string(kind), string(res.Source))
	c.metrics.ObserveLookupDuration(string(kind), time.Since(start))
	return res
}

func (c *Cache) cached(ctx context.Context, kind Kind, key string) (Result, bool) {
	entry, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("lookup cache read failed",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
		return Result{}, false
	}
	if !ok || !entry.IsFresh(c.now(), c.expiry) {
		return Result{}, false
	}
	return Result{Kind: kind, Payload: entry.Value, Source: SourceCache}, true
}

func (c *Cache) fetch(ctx context.Context, kind Kind, key, input string) Result {
	payload, err := c.fetcher.Fetch(ctx, kind, input)
	if err == nil && !json.Valid(payload) {
		err = ErrMalformedPayload
	}
	if err != nil {
		c.logger.Warn("lookup failed, using default",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
		return Result{Kind: kind, Payload: Default(kind, input), Source: SourceFallback, Err: err}
	}

	entry := model.CacheEntry{Key: key, Value: payload, StoredAt: c.now()}
	if err := c.store.Set(ctx, key, entry); err != nil {
		c.logger.Warn("lookup cache write failed",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
	}

	return Result{Kind: kind, Payload: payload, Source: SourceLive}
}
