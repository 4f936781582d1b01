package app

import (
	"context"

	"github.com/turtacn/fieldplan/internal/config"
	"github.com/turtacn/fieldplan/internal/infrastructure/monitoring/logging"
	httpapi "github.com/turtacn/fieldplan/internal/interfaces/http"
)

// Serve runs the HTTP API until ctx is cancelled, then shuts down
// gracefully. When configPath is set, planner and reward settings are
// reloaded whenever the file changes.
func (c *Components) Serve(ctx context.Context, version, configPath string) error {
	if configPath != "" {
		err := config.Watch(configPath, func(cfg *config.Config) {
			c.Service.UpdateTuning(cfg.Planner, cfg.Rewards)
			c.Logger.Info("planner tuning reloaded",
				logging.Duration("time_budget", cfg.Planner.TimeBudget),
				logging.Int("max_restarts", cfg.Planner.MaxRestarts))
		}, func(err error) {
			c.Logger.Warn("config reload rejected", logging.Err(err))
		})
		if err != nil {
			return err
		}
	}

	server := httpapi.NewServer(c.Config.Server, c.Handler(version), c.Logger.Named("http"))
	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	if err := server.Stop(context.Background()); err != nil {
		return err
	}
	return <-errCh
}

//Personal.AI order the ending
