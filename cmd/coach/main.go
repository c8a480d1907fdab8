package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/coach/internal/config"
	"github.com/MikeSquared-Agency/coach/internal/dialogue"
	"github.com/MikeSquared-Agency/coach/internal/hermes"
	"github.com/MikeSquared-Agency/coach/internal/inference"
	"github.com/MikeSquared-Agency/coach/internal/store"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "coach",
	Short: "Phased coaching dialogue service",
	Long: `coach guides a user through exploration, theme generation and a
future-self simulation, backed by a hosted text-generation model.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			slog.Debug("no .env file found, using environment variables")
		}
		cfg = config.Load()
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.LogLevel = lvl
		}
		setupLogging(os.Stderr, cfg.LogLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(transcriptCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging installs a JSON logger on w. Logs go to stderr so that stdout
// carries only the chat, watch and transcript output.
func setupLogging(w io.Writer, level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

func newInferenceClient() *inference.Client {
	client := inference.NewClient(cfg.HFAPIURL, cfg.HFTimeout)
	slog.Info("inference client ready", "url", cfg.HFAPIURL, "timeout", cfg.HFTimeout)
	return client
}

// controllerOptions are applied to every session.
func controllerOptions() []dialogue.Option {
	return []dialogue.Option{
		dialogue.WithExplorationTurns(cfg.ExplorationTurns),
		dialogue.WithTransitionDelay(cfg.TransitionDelay),
	}
}

// optionalSinks connects the NATS publisher and the Postgres archive when
// they are configured. The returned func releases both.
func optionalSinks(ctx context.Context) ([]dialogue.EventSink, func(), error) {
	var sinks []dialogue.EventSink
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.NatsURL != "" {
		hc, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect to NATS: %w", err)
		}
		closers = append(closers, func() {
			if err := hc.Drain(); err != nil {
				slog.Warn("nats drain failed", "error", err)
			}
		})
		sinks = append(sinks, hermes.NewEventPublisher(hc, slog.Default()))
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Info("NATS_URL not set, session events will not be published")
	}

	if cfg.DatabaseURL != "" {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		closers = append(closers, db.Close)
		if err := db.Migrate(ctx); err != nil {
			cleanup()
			return nil, nil, err
		}
		sinks = append(sinks, store.NewArchiver(db, slog.Default()))
		slog.Info("database connected, transcripts will be archived")
	} else {
		slog.Info("DATABASE_URL not set, transcripts will not be archived")
	}

	return sinks, cleanup, nil
}
