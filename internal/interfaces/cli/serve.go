package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/turtacn/fieldplan/internal/infrastructure/monitoring/logging"
)

// NewServeCmd builds `fieldplan serve`.
func NewServeCmd() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the planning HTTP API",
		Long:  "Serves the plan API until interrupted. Planner settings reload when the config file changes.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cliCtx.Config.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cliCtx.Config.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			comps, err := cliCtx.Components(ctx)
			if err != nil {
				return err
			}
			cliCtx.Logger.Info("starting fieldplan API",
				logging.String("version", Version),
				logging.String("addr", cliCtx.Config.Server.Address()))
			return comps.Serve(ctx, Version, cliCtx.ConfigPath)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (default: server.host)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default: server.port)")
	return cmd
}

//Personal.AI order the ending
