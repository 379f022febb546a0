package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/odysseus0/sharedfeed/internal/jobs"
)

func newServeCmd(getApp func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Refresh feeds and apply retention on a schedule until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			runner := jobs.NewRunner(app.fetcher, app.store, app.cfg, app.logger.WithPrefix("jobs"))
			s, err := jobs.Schedule(ctx, runner, app.cfg.RefreshInterval)
			if err != nil {
				return fmt.Errorf("schedule refresh: %w", err)
			}
			s.Start()
			app.logger.Info("serving", "refresh_interval", app.cfg.RefreshInterval, "db", app.cfg.DBPath)

			<-ctx.Done()
			app.logger.Info("shutting down")
			return s.Shutdown()
		},
	}
}
