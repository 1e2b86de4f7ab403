package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/pm-tracker/internal/server"
	"github.com/sakif/pm-tracker/internal/telemetry"
)

func (a *app) serverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Start the API server",
		Long: `Starts the project tracker API on $PORT (default 5000).

The store is chosen by DB_DRIVER. With DB_AUTO_MIGRATE=true pending
Postgres migrations are applied before serving.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			shutdown, err := telemetry.Setup(ctx, a.cfg.Telemetry.Config())
			if err != nil {
				return err
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					a.logger.Warn("telemetry shutdown", slog.String("error", err.Error()))
				}
			}()

			srv, err := server.New(ctx, a.cfg, a.logger)
			if err != nil {
				return err
			}
			return srv.Start()
		},
	}
}
