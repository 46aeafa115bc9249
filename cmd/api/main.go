// Package main is the entrypoint for the strategist API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stripe/stripe-go/v79"

	"github.com/dacv/strategist/internal/billing"
	"github.com/dacv/strategist/internal/cache"
	"github.com/dacv/strategist/internal/config"
	"github.com/dacv/strategist/internal/entitlement"
	"github.com/dacv/strategist/internal/handler"
	"github.com/dacv/strategist/internal/lookup"
	"github.com/dacv/strategist/internal/metrics"
	"github.com/dacv/strategist/internal/middleware"
	"github.com/dacv/strategist/internal/repository"
	"github.com/dacv/strategist/internal/server"
	"github.com/dacv/strategist/internal/strategist"
	"github.com/dacv/strategist/internal/webhook"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)
	recorder := metrics.NewPrometheus()

	deps := routerDeps{metrics: recorder.Handler()}
	var shutdowns []shutdownHook

	// Entitlements and history: Postgres when configured, in-process otherwise.
	var (
		entStore entitlement.Store
		history  strategist.HistoryStore
	)
	if cfg.DatabaseURL != "" {
		repo, err := repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error(
				"failed to connect to database",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
			os.Exit(1)
		}
		if err := repo.Migrate(ctx); err != nil {
			logger.Error("failed to apply migrations", slog.String("error", sanitizeError(err, cfg.DatabaseURL)))
			repo.Close()
			os.Exit(1)
		}
		shutdowns = append(shutdowns, shutdownHook{"postgres", func(context.Context) error {
			repo.Close()
			return nil
		}})
		entStore, history, deps.db = repo.Entitlements(), repo.History(), repo
		logger.Info("connected to database")
	} else {
		entStore, history = entitlement.NewMemoryStore(), strategist.NewMemoryHistory()
		logger.Warn("DATABASE_URL not set, entitlements and history are kept in memory")
	}

	// Lookup cache and rate limiter: Redis when configured, in-process otherwise.
	var lookupStore lookup.Store
	if cfg.RedisURL != "" {
		cacheClient, err := cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			os.Exit(1)
		}
		shutdowns = append(shutdowns, shutdownHook{"redis", func(context.Context) error { return cacheClient.Close() }})
		lookupStore = cache.NewLookupStore(cacheClient, cfg.CacheExpiry)
		deps.limiter, deps.cache = cacheClient, cacheClient
		logger.Info("connected to Redis")
	} else {
		mem, err := lookup.NewMemoryStore(cfg.CacheMaxEntries)
		if err != nil {
			logger.Error("failed to create lookup cache", "error", err)
			os.Exit(1)
		}
		lookupStore, deps.limiter = mem, cache.NewMemoryRateLimiter()
		logger.Warn("REDIS_URL not set, lookup cache and rate limits are kept in memory")
	}

	ent := entitlement.NewService(entStore)
	deps.usage = ent

	fetcher := lookup.NewHTTPFetcher(lookup.HTTPConfig{
		MarketDataBaseURL: cfg.MarketDataBaseURL,
		MarketDataAPIKey:  cfg.MarketDataAPIKey,
		SentimentURL:      cfg.SentimentURL,
		SentimentAPIKey:   cfg.SentimentAPIKey,
	}, lookup.NewHTTPClient(cfg.FetchTimeout))
	lookups := lookup.NewCache(lookupStore, fetcher, cfg.CacheExpiry,
		lookup.WithLogger(logger),
		lookup.WithRecorder(recorder),
	)

	if cfg.OpenAIAPIKey == "" {
		logger.Warn("OPENAI_API_KEY not set, strategy generation will fail")
	}
	completer := strategist.NewOpenAICompleter(strategist.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
	})
	deps.strategies = strategist.NewService(ent, lookups, completer, history,
		strategist.Config{FreeUseLimit: cfg.MaxFreeUses, GenerationTimeout: cfg.GenerationTimeout},
		strategist.WithLogger(logger),
		strategist.WithRecorder(recorder),
	)

	if cfg.BillingEnabled() {
		provider := billing.NewStripeProvider(cfg.StripeSecretKey, stripeBackends(logger))
		deps.subscriber = billing.NewService(provider, ent, logger, recorder)
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set, subscriptions are disabled")
	}
	deps.verifier = webhook.NewVerifier(cfg.StripeWebhookSecret)
	deps.dispatcher = webhook.NewDispatcher(ent, logger, recorder)

	srv := server.New(setupRouter(cfg, deps, logger), server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		IdleTimeout:     2 * cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)
	for _, hook := range shutdowns {
		srv.OnShutdown(hook.name, hook.fn)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"free_uses", cfg.MaxFreeUses,
		"billing", cfg.BillingEnabled(),
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

type shutdownHook struct {
	name string
	fn   server.ShutdownFunc
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// stripeBackends routes Stripe client logs through slog at warn level.
func stripeBackends(logger *slog.Logger) *stripe.Backends {
	cfg := &stripe.BackendConfig{
		HTTPClient:    &http.Client{Timeout: 30 * time.Second},
		LeveledLogger: &stripeLogger{logger: logger},
	}
	return &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, cfg),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, cfg),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, cfg),
	}
}

// stripeLogger adapts slog to stripe.LeveledLoggerInterface. Debug and info
// chatter is dropped.
type stripeLogger struct {
	logger *slog.Logger
}

func (l *stripeLogger) Debugf(string, ...any) {}
func (l *stripeLogger) Infof(string, ...any)  {}

func (l *stripeLogger) Warnf(format string, v ...any) {
	l.logger.Warn("stripe", "message", fmt.Sprintf(format, v...))
}

func (l *stripeLogger) Errorf(format string, v ...any) {
	l.logger.Error("stripe", "message", fmt.Sprintf(format, v...))
}

// routerDeps are the collaborators setupRouter mounts. Nil db or cache mean
// the in-process stores are in use; nil subscriber disables subscriptions.
type routerDeps struct {
	db         handler.HealthChecker
	cache      handler.HealthChecker
	limiter    middleware.IPRateLimiter
	usage      handler.UsageReader
	strategies handler.StrategyService
	subscriber handler.Subscriber
	verifier   handler.EventVerifier
	dispatcher handler.EventDispatcher
	metrics    http.Handler
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(cfg *config.Config, deps routerDeps, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	h := handler.New(cfg.AppEnv)
	healthHandler := handler.NewHealthHandler(deps.db, deps.cache, logger)
	strategyHandler := handler.NewStrategyHandler(deps.strategies, logger)
	usageHandler := handler.NewUsageHandler(deps.usage, cfg.MaxFreeUses, logger)
	plans := billing.Plans(billing.PriceIDs{
		Starter:      cfg.StripePriceStarter,
		Professional: cfg.StripePriceProfessional,
		Enterprise:   cfg.StripePriceEnterprise,
	})
	billingHandler := handler.NewBillingHandler(deps.subscriber, plans, cfg.StripePublicKey, logger)
	webhookHandler := handler.NewWebhookHandler(deps.verifier, deps.dispatcher, logger)

	// Service endpoints
	r.Get("/", h.Hello)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	if deps.metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.metrics)
	}

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:    logger,
		Limiter:   deps.limiter,
		Enabled:   cfg.RateLimitGenerateEnabled,
		PerMinute: cfg.RateLimitGeneratePerMinute,
	}

	// Strategy endpoints
	r.With(middleware.RateLimitIP(rateLimitCfg)).Post("/generate-strategy", strategyHandler.Generate)
	r.Get("/get-user-history", strategyHandler.History)
	r.Get("/check-user-usage", usageHandler.CheckUsage)

	// Billing endpoints
	r.Get("/plans", billingHandler.Plans)
	r.Post("/create-subscription", billingHandler.CreateSubscription)
	r.Post("/stripe-webhook", webhookHandler.Receive)

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
