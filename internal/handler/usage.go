package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dacv/strategist/internal/entitlement"
)

// UsageReader reports a user's entitlement.
type UsageReader interface {
	Usage(ctx context.Context, userID string, freeUseLimit int) (entitlement.Usage, error)
}

// UsageHandler serves the usage check.
type UsageHandler struct {
	usage        UsageReader
	freeUseLimit int
	logger       *slog.Logger
}

// NewUsageHandler creates a new UsageHandler.
func NewUsageHandler(usage UsageReader, freeUseLimit int, logger *slog.Logger) *UsageHandler {
	return &UsageHandler{usage: usage, freeUseLimit: freeUseLimit, logger: logger}
}

// CheckUsage handles GET /check-user-usage?user_id=.
func (h *UsageHandler) CheckUsage(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_USER_ID", "User ID required")
		return
	}

	usage, err := h.usage.Usage(r.Context(), userID, h.freeUseLimit)
	if err != nil {
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}
	writeJSON(w, http.StatusOK, usage)
}
