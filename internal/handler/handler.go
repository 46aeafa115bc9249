// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/dacv/strategist/internal/handler/dto"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// Handler serves the service-level endpoints.
type Handler struct {
	environment string
}

// New creates a new Handler instance.
func New(environment string) *Handler {
	return &Handler{environment: environment}
}

// Hello describes the service.
// GET /
func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":     "strategist",
		"version":     Version,
		"environment": h.environment,
		"endpoints": []string{
			"POST /generate-strategy",
			"GET /get-user-history",
			"GET /check-user-usage",
			"GET /plans",
			"POST /create-subscription",
			"POST /stripe-webhook",
		},
	})
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes the standard error envelope.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{Error: message, Code: code})
}
