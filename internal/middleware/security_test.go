package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSecurity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		isDev       bool
		checkHeader string
		wantValue   string
	}{
		{"nosniff", false, "X-Content-Type-Options", "nosniff"},
		{"frame options", false, "X-Frame-Options", "DENY"},
		{"referrer policy", false, "Referrer-Policy", "strict-origin-when-cross-origin"},
		{"csp", false, "Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
		{"hsts in production", false, "Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload"},
		{"no hsts in development", true, "Strict-Transport-Security", ""},
		{"no-store", false, "Cache-Control", "no-store"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			handler := Security(SecurityConfig{IsDevelopment: tt.isDev})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			if got := rec.Header().Get(tt.checkHeader); got != tt.wantValue {
				t.Errorf("%s = %q, want %q", tt.checkHeader, got, tt.wantValue)
			}
		})
	}
}

func TestMaxBodySize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		limit      int64
		wantStatus int
	}{
		{"under limit", `{"user_id":"u1"}`, 64, http.StatusOK},
		{"over limit", strings.Repeat("a", 100), 10, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			handler := MaxBodySize(tt.limit)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if _, err := io.ReadAll(r.Body); err != nil {
					w.WriteHeader(http.StatusRequestEntityTooLarge)
					return
				}
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest(http.MethodPost, "/generate-strategy", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestMaxBodySize_StreamedBodyCapped(t *testing.T) {
	t.Parallel()
	var readErr error
	handler := MaxBodySize(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", io.NopCloser(strings.NewReader(strings.Repeat("b", 64))))
	req.ContentLength = -1
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if readErr == nil {
		t.Error("expected read error past the limit")
	}
}
