// Package strategist assembles marketing strategies from live market data
// and a generative model, gated by the user's entitlement.
package strategist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/dacv/strategist/internal/lookup"
	"github.com/dacv/strategist/internal/metrics"
	"github.com/dacv/strategist/internal/model"
)

// Service errors.
var (
	ErrPaymentRequired  = errors.New("payment required")
	ErrGenerationFailed = errors.New("strategy generation failed")
	ErrInvalidInput     = errors.New("invalid input")
)

// DefaultGenerationTimeout bounds a single completer call.
const DefaultGenerationTimeout = 60 * time.Second

// Entitlements is the slice of the entitlement service the strategist needs.
type Entitlements interface {
	MayGenerate(ctx context.Context, userID string, freeUseLimit int) (bool, error)
	RecordUse(ctx context.Context, userID string) (int, error)
}

// Lookups provides the three external data lookups.
type Lookups interface {
	Trends(ctx context.Context) lookup.Result
	SEO(ctx context.Context, keyword string) lookup.Result
	Sentiment(ctx context.Context, text string) lookup.Result
}

// GenerateInput is a single strategy request.
type GenerateInput struct {
	UserID   string
	Product  string
	Audience string
	Budget   float64
}

// Config holds tunables for Service.
type Config struct {
	FreeUseLimit      int
	GenerationTimeout time.Duration
}

// Service generates strategies and keeps per-user history.
type Service struct {
	entitlements Entitlements
	lookups      Lookups
	completer    Completer
	history      HistoryStore
	cfg          Config
	logger       *slog.Logger
	recorder     metrics.Recorder
	now          func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(recorder metrics.Recorder) Option {
	return func(s *Service) { s.recorder = recorder }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires a Service.
func NewService(ent Entitlements, lookups Lookups, completer Completer, history HistoryStore, cfg Config, opts ...Option) *Service {
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = DefaultGenerationTimeout
	}
	s := &Service{
		entitlements: ent,
		lookups:      lookups,
		completer:    completer,
		history:      history,
		cfg:          cfg,
		logger:       slog.Default(),
		recorder:     metrics.NewNoop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate builds a strategy for in. A use is consumed only when the whole
// strategy was produced; lookup failures degrade to default data and never
// fail the request.
func (s *Service) Generate(ctx context.Context, in GenerateInput) (*model.Strategy, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	start := s.now()

	allowed, err := s.entitlements.MayGenerate(ctx, in.UserID, s.cfg.FreeUseLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to check entitlement: %w", err)
	}
	if !allowed {
		s.recorder.IncPaymentRequired()
		return nil, ErrPaymentRequired
	}

	keyword := seoKeyword(in.Product)
	var trends, seo, sentiment lookup.Result

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { trends = s.lookups.Trends(gctx); return nil })
	g.Go(func() error { seo = s.lookups.SEO(gctx, keyword); return nil })
	g.Go(func() error { sentiment = s.lookups.Sentiment(gctx, in.Product); return nil })
	_ = g.Wait()

	trendsData := lookup.Decode[lookup.TrendsData](trends.Payload)
	seoData := lookup.Decode[lookup.SEOData](seo.Payload)
	sentimentData := lookup.Decode[lookup.SentimentData](sentiment.Payload)

	cctx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	draft, err := s.completer.Complete(cctx, buildPrompt(in, trendsData, sentimentData))
	cancel()
	if err != nil {
		s.recorder.IncGenerationFailed()
		s.logger.Error("strategy generation failed",
			slog.String("user_id", in.UserID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	now := s.now().UTC()
	strategy := &model.Strategy{
		SocialMedia:      enhanceSocial(draft.SocialMedia, trendsData),
		SEO:              enhanceSEO(draft.SEO, keyword, seoData),
		Content:          enhanceContent(draft.Content, sentimentData),
		PaidAdvertising:  PaidAdvertising(in.Budget, sentimentData),
		BudgetAllocation: AllocateBudget(in.Budget),
		RealTimeInsights: model.RealTimeInsights{
			MarketSentiment:    sentiment.Payload,
			TrendingContent:    trendsData.PopularContentTypes,
			CompetitorAnalysis: CompetitorAnalysis(in.Product, seoData),
			DataSources: map[string]string{
				string(lookup.KindTrends):    string(trends.Source),
				string(lookup.KindSEO):       string(seo.Source),
				string(lookup.KindSentiment): string(sentiment.Source),
			},
		},
		Timestamp: now,
	}

	rec := &model.StrategyRecord{
		ID:        ulid.Make().String(),
		UserID:    in.UserID,
		Product:   in.Product,
		Audience:  in.Audience,
		Budget:    in.Budget,
		Strategy:  strategy,
		CreatedAt: now,
	}
	if _, err := s.entitlements.RecordUse(ctx, in.UserID); err != nil {
		return nil, fmt.Errorf("failed to record use: %w", err)
	}

	if err := s.history.Append(ctx, rec); err != nil {
		s.logger.Warn("failed to append strategy history",
			slog.String("user_id", in.UserID),
			slog.String("error", err.Error()),
		)
	}

	s.recorder.IncStrategyGenerated()
	s.recorder.ObserveGenerationDuration(s.now().Sub(start))
	return strategy, nil
}

// History returns up to limit of the user's strategies, newest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]*model.StrategyRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	recs, err := s.history.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return recs, nil
}

func validateInput(in GenerateInput) error {
	switch {
	case strings.TrimSpace(in.UserID) == "":
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	case strings.TrimSpace(in.Product) == "":
		return fmt.Errorf("%w: product is required", ErrInvalidInput)
	case strings.TrimSpace(in.Audience) == "":
		return fmt.Errorf("%w: audience is required", ErrInvalidInput)
	case in.Budget < 0:
		return fmt.Errorf("%w: budget must not be negative", ErrInvalidInput)
	}
	return nil
}
