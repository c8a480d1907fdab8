package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/coach/internal/api"
	"github.com/MikeSquared-Agency/coach/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.Port = port
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		slog.Info("coach starting", "port", cfg.Port)

		sinks, cleanup, err := optionalSinks(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m := metrics.New(reg)

		srv := api.NewServer(api.Options{
			Port:         cfg.Port,
			Client:       m.Instrument(newInferenceClient()),
			Sinks:        append(sinks, m),
			DefaultToken: cfg.HFAPIToken,
			SessionTTL:   cfg.SessionTTL,
			Logger:       slog.Default(),
			Controller:   controllerOptions(),
			Metrics:      reg,
		})

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start(ctx) }()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
		}
		slog.Info("coach stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "Override COACH_PORT")
}
