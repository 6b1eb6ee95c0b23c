package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orderdesk/internal/telemetry"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// orderdesk serve
func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the orders API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := c.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			shutdownTracing, err := telemetry.SetupTracing(ctx, "orderdesk", cfg.OTLPEndpoint)
			if err != nil {
				return err
			}
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdownTracing(flushCtx); err != nil {
					log.Error("failed to flush traces", zap.Error(err))
				}
			}()

			app, err := NewApp(cfg, log)
			if err != nil {
				return err
			}
			defer func() {
				if err := app.Close(); err != nil {
					log.Error("failed to release resources", zap.Error(err))
				}
			}()

			return app.Run(ctx)
		},
	}
}
