package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// HealthChecker defines an interface for checking service health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler manages health check endpoints.
type HealthHandler struct {
	db     HealthChecker
	cache  HealthChecker
	logger *slog.Logger
}

// NewHealthHandler creates a new HealthHandler. A nil db or cache means the
// in-process store is used for that concern.
func NewHealthHandler(db, cache HealthChecker, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{db: db, cache: cache, logger: logger}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz is a liveness probe with no dependency checks.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz pings every configured backing service.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{
		"postgres": h.check(ctx, "postgres", h.db),
		"redis":    h.check(ctx, "redis", h.cache),
	}

	status, code := "ok", http.StatusOK
	for _, result := range checks {
		if result == "unavailable" {
			status, code = "unhealthy", http.StatusServiceUnavailable
			break
		}
	}

	writeJSON(w, code, HealthResponse{Status: status, Checks: checks})
}

func (h *HealthHandler) check(ctx context.Context, name string, checker HealthChecker) string {
	if checker == nil {
		return "memory"
	}
	if err := checker.Ping(ctx); err != nil {
		h.logger.Warn("readiness check failed",
			slog.String("dependency", name),
			slog.String("error", err.Error()),
		)
		return "unavailable"
	}
	return "ok"
}
