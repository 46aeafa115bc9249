package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/dacv/strategist/internal/cache"
)

// IPRateLimiter is satisfied by the Redis cache and the in-memory limiter.
type IPRateLimiter interface {
	CheckIPRateLimit(ctx context.Context, ip string, ratePerMinute, burst int) (*cache.RateLimitResult, error)
}

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	Logger    *slog.Logger
	Limiter   IPRateLimiter
	Enabled   bool
	PerMinute int
	Burst     int
}

// RateLimitIP limits requests per client IP. Limiter errors fail open.
func RateLimitIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.PerMinute
	}
	return func(next http.Handler) http.Handler {
		if !cfg.Enabled || cfg.Limiter == nil || cfg.PerMinute <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			result, err := cfg.Limiter.CheckIPRateLimit(r.Context(), ip, cfg.PerMinute, burst)
			if err != nil {
				cfg.Logger.Error("IP rate limit check failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.PerMinute))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				retryAfter := int(result.RetryAfter.Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				cfg.Logger.Warn("rate limit exceeded",
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Int("retry_after_seconds", retryAfter),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeError(w, http.StatusTooManyRequests, "RATE_LIMITED",
					fmt.Sprintf("Rate limit exceeded. Retry after %d seconds.", retryAfter))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the host part of RemoteAddr. Proxy headers are resolved
// upstream by chi's RealIP middleware.
func clientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
