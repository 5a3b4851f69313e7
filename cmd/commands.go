package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/kumarabd/gokit/logger"
	"github.com/kumarabd/log-archiver/pkg/cache"
	"github.com/kumarabd/log-archiver/pkg/export"
	"github.com/kumarabd/log-archiver/pkg/page"
	"github.com/kumarabd/log-archiver/pkg/scheduler"
	"github.com/kumarabd/log-archiver/pkg/server"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand(log *logger.Handler) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the manual trigger and informational page",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, log)
			if err != nil {
				return err
			}
			defer a.Close()

			cacheHandler, err := cache.New(a.config.Cache)
			if err != nil {
				return err
			}
			pageHandler, err := page.New(a.config.Page, cacheHandler, log, a.metric)
			if err != nil {
				return err
			}

			if a.config.Scheduler.Enabled {
				sched, err := scheduler.New(a.config.Scheduler, a.exporter.RunScheduled, log)
				if err != nil {
					return err
				}
				go sched.Run(ctx)
				log.Info().Str("schedule", a.config.Scheduler.Schedule).Msg("scheduler initialized")
			}

			srv, err := server.New(log, a.metric, a.config.Server, a.exporter, pageHandler)
			if err != nil {
				return err
			}
			log.Info().Msg("server initialized")

			// Run until a listener exits or a signal arrives
			ch := make(chan struct{}, 2)
			srv.Start(ch)
			select {
			case <-ch:
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Stop(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("server shutdown failed")
			}
			log.Info().Msg("server stopped")
			return nil
		},
	}
}

func newExportCommand(log *logger.Handler) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Run one export and exit; defaults to yesterday (UTC)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, log)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.exporter.Run(ctx, export.TriggerCLI, date)
			if err != nil {
				return err
			}
			cmd.Printf("exported %d records for %s to %s\n", res.Count, res.Date, res.Key)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to export as YYYY-MM-DD")
	return cmd
}
