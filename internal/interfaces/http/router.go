package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/fieldplan/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/fieldplan/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/fieldplan/internal/interfaces/http/handlers"
	"github.com/turtacn/fieldplan/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies of the
// route tree. Nil members are skipped.
type RouterConfig struct {
	PlanHandler   *handlers.PlanHandler
	HealthHandler *handlers.HealthHandler

	Logger  logging.Logger
	Logging middleware.LoggingConfig
	// Limiter guards plan creation only; reads are never refused.
	Limiter *middleware.InFlightLimiter

	MetricsCollector prometheus.MetricsCollector
	AppMetrics       *prometheus.AppMetrics
}

// NewRouter constructs the HTTP route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogging(cfg.Logger, cfg.Logging))
	}
	if cfg.AppMetrics != nil {
		r.Use(middleware.Metrics(cfg.AppMetrics))
	}

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsCollector != nil {
		r.Handle("/metrics", cfg.MetricsCollector.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		registerPlanRoutes(api, cfg.PlanHandler, cfg.Limiter)
	})

	return r
}

// registerPlanRoutes mounts the plan endpoints under /plans.
func registerPlanRoutes(r chi.Router, h *handlers.PlanHandler, limiter *middleware.InFlightLimiter) {
	if h == nil {
		return
	}
	r.Route("/plans", func(pr chi.Router) {
		pr.Get("/", h.List)
		pr.Get("/{id}", h.Get)
		pr.Group(func(create chi.Router) {
			if limiter != nil {
				create.Use(limiter.Handler)
			}
			create.Post("/", h.Create)
		})
	})
}

//Personal.AI order the ending
