package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/genericsdirect/dealtracker/pkg/config"
	pkgerrors "github.com/genericsdirect/dealtracker/pkg/errors"
	"github.com/genericsdirect/dealtracker/pkg/logger"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

func TestHealthLive(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	rec := serve(HealthLive(cfg), httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-DealTracker-Env"); got != "test" {
		t.Fatalf("unexpected env header %q", got)
	}
}

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	logg := logger.Nop()

	t.Run("ready without redis", func(t *testing.T) {
		rec := serve(HealthReady(cfg, logg, stubPinger{}, nil), httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var body map[string]string
		decodeData(t, rec, &body)
		if body["status"] != "ready" || body["database"] != "ok" {
			t.Fatalf("unexpected body %v", body)
		}
		if _, ok := body["redis"]; ok {
			t.Fatalf("redis reported although not configured: %v", body)
		}
	})

	t.Run("database down", func(t *testing.T) {
		rec := serve(HealthReady(cfg, logg, stubPinger{err: errors.New("refused")}, stubPinger{}), httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
		apiErr := decodeError(t, rec)
		if apiErr.Code != string(pkgerrors.CodeDependency) {
			t.Fatalf("unexpected code %s", apiErr.Code)
		}
	})

	t.Run("redis down", func(t *testing.T) {
		rec := serve(HealthReady(cfg, logg, stubPinger{}, stubPinger{err: errors.New("timeout")}), httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})
}
