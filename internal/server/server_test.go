package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServer_ShutdownOrder(t *testing.T) {
	t.Parallel()

	srv := New(http.NotFoundHandler(), Config{
		Port:            0,
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		ShutdownTimeout: time.Second,
	}, testLogger())

	var (
		mu    sync.Mutex
		order []string
	)
	for _, name := range []string{"postgres", "redis", "metrics"} {
		srv.OnShutdown(name, func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.RunContext(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunContext: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	want := "metrics,redis,postgres"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("expected shutdown order %s, got %s", want, got)
	}
}

func TestServer_ShutdownErrorsAreJoined(t *testing.T) {
	t.Parallel()

	srv := New(http.NotFoundHandler(), Config{ShutdownTimeout: time.Second}, testLogger())
	errA := errors.New("close a")
	errB := errors.New("close b")
	srv.OnShutdown("a", func(context.Context) error { return errA })
	srv.OnShutdown("b", func(context.Context) error { return errB })

	err := srv.gracefulShutdown()
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("expected both errors, got %v", err)
	}
}

func TestServer_ReadHeaderTimeoutDefaultsToReadTimeout(t *testing.T) {
	t.Parallel()

	srv := New(http.NotFoundHandler(), Config{Port: 8080, ReadTimeout: 7 * time.Second}, testLogger())
	if srv.httpServer.ReadHeaderTimeout != 7*time.Second {
		t.Errorf("expected 7s, got %s", srv.httpServer.ReadHeaderTimeout)
	}
	if srv.Addr() != ":8080" {
		t.Errorf("unexpected addr %s", srv.Addr())
	}
}
