package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/genericsdirect/dealtracker/api/responses"
	"github.com/genericsdirect/dealtracker/pkg/config"
	pkgerrors "github.com/genericsdirect/dealtracker/pkg/errors"
	"github.com/genericsdirect/dealtracker/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-DealTracker-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and, when configured, redis.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP Pinger, redisP Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-DealTracker-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{"database": "ok"}
		failed := false
		if dbP == nil {
			checks["database"] = "missing"
			failed = true
		} else if err := dbP.Ping(ctx); err != nil {
			checks["database"] = "unavailable"
			failed = true
			logg.Error(logg.WithField(r.Context(), "check", "database"), "readiness check failed", err)
		}
		if redisP != nil {
			checks["redis"] = "ok"
			if err := redisP.Ping(ctx); err != nil {
				checks["redis"] = "unavailable"
				failed = true
				logg.Error(logg.WithField(r.Context(), "check", "redis"), "readiness check failed", err)
			}
		}

		if failed {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "service not ready").WithDetails(checks))
			return
		}
		checks["status"] = "ready"
		responses.WriteSuccess(w, checks)
	}
}
