package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/genericsdirect/dealtracker/api/controllers"
	"github.com/genericsdirect/dealtracker/api/routes"
	"github.com/genericsdirect/dealtracker/internal/catalog"
	"github.com/genericsdirect/dealtracker/internal/cron"
	"github.com/genericsdirect/dealtracker/internal/events"
	"github.com/genericsdirect/dealtracker/internal/scenarios"
	"github.com/genericsdirect/dealtracker/pkg/config"
	"github.com/genericsdirect/dealtracker/pkg/db"
	"github.com/genericsdirect/dealtracker/pkg/logger"
	"github.com/genericsdirect/dealtracker/pkg/metrics"
	"github.com/genericsdirect/dealtracker/pkg/migrate"
	"github.com/genericsdirect/dealtracker/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		return 1
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		return 1
	}

	var (
		redisClient *redis.Client
		redisPinger controllers.Pinger
		idempotency redis.IdempotencyStore
	)
	// fail releases what was opened so far; every startup error after db.New goes through it.
	fail := func(msg string, err error) int {
		logg.Error(context.Background(), msg, err)
		if redisClient != nil {
			_ = redisClient.Close()
		}
		_ = dbClient.Close()
		return 1
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		return fail("failed to run dev migrations", err)
	}

	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			return fail("failed to bootstrap redis", err)
		}
		redisPinger = redisClient
		idempotency = redisClient
	} else {
		logg.Warn(context.Background(), "redis not configured, idempotency keys are ignored")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	allocationMetrics := metrics.NewAllocationMetrics(registry)
	jobMetrics := metrics.NewJobMetrics(registry)

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	if err != nil {
		return fail("failed to create catalog service", err)
	}

	hub := events.NewHub(cfg.Workspace.EventBuffer, logg)
	workspaces := scenarios.NewRegistry(cfg.Workspace.IdleTTL, allocationMetrics, logg)
	scenarioService, err := scenarios.NewService(scenarios.ServiceParams{
		Catalog:  catalogService,
		Store:    scenarios.NewRepository(dbClient.DB()),
		Registry: workspaces,
		Events:   hub,
		Metrics:  allocationMetrics,
		Logger:   logg,
	})
	if err != nil {
		return fail("failed to create scenario service", err)
	}

	sweepJob, err := cron.NewWorkspaceSweepJob(logg, workspaces)
	if err != nil {
		return fail("failed to create workspace sweep job", err)
	}
	jobs, err := cron.NewRegistry(sweepJob)
	if err != nil {
		return fail("failed to register cron jobs", err)
	}
	cronService, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: jobs,
		Lock:     &cron.LocalLock{},
		Metrics:  jobMetrics,
		Interval: cfg.Workspace.SweepInterval,
	})
	if err != nil {
		return fail("failed to create cron service", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := newHTTPServer(addr, routes.NewRouter(cfg, logg, dbClient, redisPinger, idempotency, registry, catalogService, scenarioService, hub))

	cronDone := make(chan error, 1)
	go func() {
		cronDone <- cronService.Run(ctx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var shutdownErr error
	shutdownErr = multierr.Append(shutdownErr, server.Shutdown(shutdownCtx))
	if err := <-cronDone; err != nil && !errors.Is(err, context.Canceled) {
		shutdownErr = multierr.Append(shutdownErr, err)
	}
	if redisClient != nil {
		shutdownErr = multierr.Append(shutdownErr, redisClient.Close())
	}
	shutdownErr = multierr.Append(shutdownErr, dbClient.Close())

	if shutdownErr != nil {
		logg.Error(ctx, "errors during shutdown", shutdownErr)
		exitCode = 1
	}
	logg.Info(ctx, "api server shut down")
	return exitCode
}

// newHTTPServer builds the API server. Shutdown cancels every request
// context, which ends open event streams.
func newHTTPServer(addr string, handler http.Handler) *http.Server {
	baseCtx, cancelBase := context.WithCancel(context.Background())
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	server.RegisterOnShutdown(cancelBase)
	return server
}
