package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) Ping(ctx context.Context) error {
	return m.err
}

func TestHealthHandler_Healthz(t *testing.T) {
	t.Parallel()
	h := NewHealthHandler(nil, nil, testLogger())

	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	var response HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Status != "ok" {
		t.Errorf("expected status 'ok', got %s", response.Status)
	}
}

func TestHealthHandler_Readyz(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		db         HealthChecker
		cache      HealthChecker
		wantCode   int
		wantStatus string
		wantChecks map[string]string
	}{
		{
			name:       "all healthy",
			db:         &mockHealthChecker{},
			cache:      &mockHealthChecker{},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
			wantChecks: map[string]string{"postgres": "ok", "redis": "ok"},
		},
		{
			name:       "in-process stores",
			wantCode:   http.StatusOK,
			wantStatus: "ok",
			wantChecks: map[string]string{"postgres": "memory", "redis": "memory"},
		},
		{
			name:       "database down",
			db:         &mockHealthChecker{err: errors.New("connection refused")},
			cache:      &mockHealthChecker{},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unhealthy",
			wantChecks: map[string]string{"postgres": "unavailable", "redis": "ok"},
		},
		{
			name:       "redis down",
			cache:      &mockHealthChecker{err: errors.New("connection refused")},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unhealthy",
			wantChecks: map[string]string{"postgres": "memory", "redis": "unavailable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := NewHealthHandler(tt.db, tt.cache, testLogger())

			rec := httptest.NewRecorder()
			h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("expected status %d, got %d", tt.wantCode, rec.Code)
			}
			var response HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if response.Status != tt.wantStatus {
				t.Errorf("expected status %q, got %q", tt.wantStatus, response.Status)
			}
			for k, v := range tt.wantChecks {
				if response.Checks[k] != v {
					t.Errorf("check %s: expected %q, got %q", k, v, response.Checks[k])
				}
			}
		})
	}
}
