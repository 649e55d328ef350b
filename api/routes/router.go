package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/genericsdirect/dealtracker/api/controllers"
	"github.com/genericsdirect/dealtracker/api/middleware"
	"github.com/genericsdirect/dealtracker/internal/catalog"
	"github.com/genericsdirect/dealtracker/internal/events"
	"github.com/genericsdirect/dealtracker/internal/scenarios"
	"github.com/genericsdirect/dealtracker/pkg/config"
	"github.com/genericsdirect/dealtracker/pkg/logger"
	"github.com/genericsdirect/dealtracker/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	idempotencyStore redis.IdempotencyStore,
	gatherer prometheus.Gatherer,
	catalogService catalog.Service,
	scenarioService scenarios.Service,
	hub *events.Hub,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	idempotent := middleware.Idempotency(idempotencyStore, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/manufacturers", controllers.CatalogManufacturers(catalogService, logg))
		r.Get("/products", controllers.CatalogProducts(catalogService, logg))

		r.Get("/scenarios", controllers.ScenarioList(scenarioService, logg))
		r.With(idempotent).Post("/scenarios", controllers.ScenarioCreate(scenarioService, logg))
		r.Get("/scenarios/{scenarioId}", controllers.ScenarioGet(scenarioService, logg))
		r.Post("/scenarios/{scenarioId}/open", controllers.ScenarioOpen(scenarioService, logg))
		r.Get("/scenarios/{scenarioId}/board", controllers.ScenarioBoard(scenarioService, logg))
		r.With(idempotent).Post("/scenarios/{scenarioId}/moves", controllers.ScenarioMove(scenarioService, logg))
		r.With(idempotent).Post("/scenarios/{scenarioId}/reset", controllers.ScenarioReset(scenarioService, logg))
		r.With(idempotent).Put("/scenarios/{scenarioId}/allocations", controllers.ScenarioSave(scenarioService, logg))
		r.Delete("/scenarios/{scenarioId}/workspace", controllers.ScenarioClose(scenarioService, logg))
		r.Get("/scenarios/{scenarioId}/buckets/{bucket}", controllers.ScenarioBucket(scenarioService, logg))
		r.Get("/scenarios/{scenarioId}/events", controllers.ScenarioEvents(scenarioService, hub, controllers.DefaultHeartbeat, logg))
	})

	return r
}
