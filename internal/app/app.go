// Package app wires the planning service and its optional backends from a
// loaded Config. The CLI, the API server and the Lambda handler all start
// from Build.
package app

import (
	"context"
	"net/http"

	"github.com/turtacn/fieldplan/internal/application/planning"
	"github.com/turtacn/fieldplan/internal/config"
	"github.com/turtacn/fieldplan/internal/infrastructure/database/redis"
	"github.com/turtacn/fieldplan/internal/infrastructure/database/sqlite"
	"github.com/turtacn/fieldplan/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/fieldplan/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/fieldplan/internal/infrastructure/storage/minio"
	httpapi "github.com/turtacn/fieldplan/internal/interfaces/http"
	"github.com/turtacn/fieldplan/internal/interfaces/http/handlers"
	"github.com/turtacn/fieldplan/internal/interfaces/http/middleware"
	core "github.com/turtacn/fieldplan/internal/planning"
)

// Components holds everything Build created. Close releases it.
type Components struct {
	Config    *config.Config
	Logger    logging.Logger
	Service   planning.Service
	Collector prometheus.MetricsCollector
	Metrics   *prometheus.AppMetrics

	redis   *redis.Client
	history *sqlite.Store
	archive *minio.PlanArchive
}

// Build connects every backend enabled in cfg. A backend that fails to
// connect is fatal; a disabled one is skipped.
func Build(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Components, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	c := &Components{Config: cfg, Logger: logger}

	if cfg.Metrics.Enabled {
		collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, logger.Named("metrics"))
		if err != nil {
			return nil, err
		}
		c.Collector = collector
		c.Metrics = prometheus.NewAppMetrics(collector)
	} else {
		c.Collector = prometheus.NewNoopCollector()
		c.Metrics = prometheus.NewNoopAppMetrics()
	}

	opts := []planning.Option{planning.WithMetrics(c.Metrics)}

	if cfg.Redis.Enabled {
		client, err := redis.NewClient(cfg.Redis, logger.Named("redis"))
		if err != nil {
			c.Close()
			return nil, err
		}
		c.redis = client
		opts = append(opts, planning.WithCache(redis.NewPlanCache(client, logger.Named("cache"),
			redis.WithPrefix(cfg.Redis.KeyPrefix),
			redis.WithDefaultTTL(cfg.Redis.TTL))))
	}

	if cfg.History.Enabled {
		store, err := sqlite.Open(cfg.History.Path, logger.Named("history"))
		if err != nil {
			c.Close()
			return nil, err
		}
		c.history = store
		opts = append(opts, planning.WithHistory(store))
	}

	if cfg.Export.MinIO.Enabled {
		archive, err := minio.NewPlanArchive(ctx, cfg.Export.MinIO, logger.Named("archive"))
		if err != nil {
			c.Close()
			return nil, err
		}
		c.archive = archive
		opts = append(opts, planning.WithArchive(archive))
	}

	c.Service = planning.NewService(core.NewPlanner(logger), planning.ConfigFrom(cfg), logger.Named("service"), opts...)
	return c, nil
}

// HealthCheckers reports one checker per connected backend.
func (c *Components) HealthCheckers() []handlers.HealthChecker {
	var out []handlers.HealthChecker
	if c.redis != nil {
		out = append(out, handlers.CheckFunc{Label: "redis", Fn: c.redis.Ping})
	}
	if c.history != nil {
		out = append(out, handlers.CheckFunc{Label: "history", Fn: c.history.Ping})
	}
	return out
}

// Handler builds the HTTP route tree over the service.
func (c *Components) Handler(version string) http.Handler {
	srv := c.Config.Server
	return httpapi.NewRouter(httpapi.RouterConfig{
		PlanHandler:      handlers.NewPlanHandler(c.Service, c.Logger.Named("http"), srv.MaxBodySize),
		HealthHandler:    handlers.NewHealthHandler(version, c.HealthCheckers()...),
		Logger:           c.Logger.Named("http"),
		Logging:          middleware.DefaultLoggingConfig(),
		Limiter:          middleware.NewInFlightLimiter(srv.MaxInFlight),
		MetricsCollector: c.Collector,
		AppMetrics:       c.Metrics,
	})
}

// Close releases the backends. It is safe to call more than once.
func (c *Components) Close() {
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.Logger.Warn("close redis", logging.Err(err))
		}
		c.redis = nil
	}
	if c.history != nil {
		if err := c.history.Close(); err != nil {
			c.Logger.Warn("close history", logging.Err(err))
		}
		c.history = nil
	}
}

//Personal.AI order the ending
