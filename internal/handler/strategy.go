package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dacv/strategist/internal/handler/dto"
	"github.com/dacv/strategist/internal/model"
	"github.com/dacv/strategist/internal/strategist"
)

// History paging bounds.
const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 100
)

// StrategyService generates strategies and lists history.
type StrategyService interface {
	Generate(ctx context.Context, in strategist.GenerateInput) (*model.Strategy, error)
	History(ctx context.Context, userID string, limit int) ([]*model.StrategyRecord, error)
}

// StrategyHandler handles strategy generation and history.
type StrategyHandler struct {
	svc    StrategyService
	logger *slog.Logger
}

// NewStrategyHandler creates a new StrategyHandler.
func NewStrategyHandler(svc StrategyService, logger *slog.Logger) *StrategyHandler {
	return &StrategyHandler{svc: svc, logger: logger}
}

// Generate handles POST /generate-strategy.
func (h *StrategyHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req dto.GenerateStrategyRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	strategy, err := h.svc.Generate(r.Context(), strategist.GenerateInput{
		UserID:   req.UserID,
		Product:  strings.TrimSpace(req.Product),
		Audience: strings.TrimSpace(req.Audience),
		Budget:   *req.Budget,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, strategy)
}

// History handles GET /get-user-history?user_id=&limit=.
func (h *StrategyHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_USER_ID", "User ID required")
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := h.svc.History(r.Context(), userID, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.HistoryResponse(records))
}

func (h *StrategyHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, strategist.ErrPaymentRequired):
		writeJSON(w, http.StatusPaymentRequired, dto.PaymentRequiredResponse{
			Error:           "Payment required",
			PaymentRequired: true,
		})
	case errors.Is(err, strategist.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", strings.TrimPrefix(err.Error(), strategist.ErrInvalidInput.Error()+": "))
	case errors.Is(err, strategist.ErrGenerationFailed):
		writeError(w, http.StatusBadGateway, "GENERATION_FAILED", "Strategy generation failed, please try again")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
