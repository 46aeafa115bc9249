// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Storage. Either may be empty, in which case in-process stores are used.
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts. WriteTimeout must cover a full generation.
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"90s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Entitlements
	MaxFreeUses int `env:"MAX_FREE_USES" envDefault:"1"`

	// External data cache
	CacheExpiry     time.Duration `env:"CACHE_EXPIRY" envDefault:"1h"`
	CacheMaxEntries int           `env:"CACHE_MAX_ENTRIES" envDefault:"1024"`
	FetchTimeout    time.Duration `env:"FETCH_TIMEOUT" envDefault:"10s"`

	// Market data providers
	MarketDataAPIKey  string `env:"MARKET_DATA_API_KEY"`
	MarketDataBaseURL string `env:"MARKET_DATA_BASE_URL" envDefault:"https://api.marketdata.com"`
	SentimentAPIKey   string `env:"SENTIMENT_API_KEY"`
	SentimentURL      string `env:"SENTIMENT_URL" envDefault:"https://api.sentimentanalysis.com/analyze"`

	// Generative model
	OpenAIAPIKey      string        `env:"OPENAI_API_KEY"`
	OpenAIModel       string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIBaseURL     string        `env:"OPENAI_BASE_URL"`
	GenerationTimeout time.Duration `env:"GENERATION_TIMEOUT" envDefault:"60s"`

	// Billing (Stripe)
	StripeSecretKey         string `env:"STRIPE_SECRET_KEY"`
	StripePublicKey         string `env:"STRIPE_PUBLIC_KEY"`
	StripeWebhookSecret     string `env:"STRIPE_WEBHOOK_SECRET"`
	StripePriceStarter      string `env:"STRIPE_PRICE_STARTER" envDefault:"price_1"`
	StripePriceProfessional string `env:"STRIPE_PRICE_PROFESSIONAL" envDefault:"price_2"`
	StripePriceEnterprise   string `env:"STRIPE_PRICE_ENTERPRISE" envDefault:"price_3"`

	// Rate limiting on POST /generate-strategy
	RateLimitGenerateEnabled   bool `env:"RATE_LIMIT_GENERATE_ENABLED" envDefault:"true"`
	RateLimitGeneratePerMinute int  `env:"RATE_LIMIT_GENERATE_PER_MINUTE" envDefault:"5"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// BillingEnabled reports whether subscriptions can be created.
func (c *Config) BillingEnabled() bool {
	return c.StripeSecretKey != ""
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Validate checks cross-field constraints env tags cannot express.
func (c *Config) Validate() error {
	var errs []error
	if c.AppPort <= 0 || c.AppPort > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT out of range: %d", c.AppPort))
	}
	if c.MaxFreeUses < 0 {
		errs = append(errs, fmt.Errorf("MAX_FREE_USES must not be negative: %d", c.MaxFreeUses))
	}
	if c.CacheExpiry <= 0 {
		errs = append(errs, errors.New("CACHE_EXPIRY must be positive"))
	}
	if c.CacheMaxEntries <= 0 {
		errs = append(errs, errors.New("CACHE_MAX_ENTRIES must be positive"))
	}
	if c.RateLimitGenerateEnabled && c.RateLimitGeneratePerMinute <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_GENERATE_PER_MINUTE must be positive"))
	}
	if c.WriteTimeout > 0 && c.WriteTimeout <= c.GenerationTimeout+c.FetchTimeout {
		errs = append(errs, fmt.Errorf("WRITE_TIMEOUT (%s) must exceed GENERATION_TIMEOUT + FETCH_TIMEOUT (%s)",
			c.WriteTimeout, c.GenerationTimeout+c.FetchTimeout))
	}
	return errors.Join(errs...)
}

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom builds a Config from the given variables instead of the process
// environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
