package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/coach/internal/dialogue"
	"github.com/MikeSquared-Agency/coach/internal/hermes"
)

var watchCmd = &cobra.Command{
	Use:   "watch [session-id]",
	Short: "Stream session events from NATS",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.NatsURL == "" {
			return errors.New("NATS_URL is required")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		hc, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			return err
		}
		defer hc.Close()

		subject := hermes.SubjectAll
		if len(args) == 1 {
			subject = hermes.SessionSubject(args[0])
		}

		out := cmd.OutOrStdout()
		if err := hc.Subscribe(subject, func(_ string, data []byte) {
			printEvent(out, data)
		}); err != nil {
			return err
		}

		<-ctx.Done()
		return nil
	},
}

func printEvent(out io.Writer, data []byte) {
	var e dialogue.Event
	if err := json.Unmarshal(data, &e); err != nil {
		slog.Warn("failed to decode session event", "error", err)
		return
	}

	line := fmt.Sprintf("%s %s %-18s", e.Timestamp.Format("15:04:05"), e.SessionID, e.Type)
	switch {
	case e.Turn != nil:
		line += fmt.Sprintf(" #%d %s: %s", e.Seq, e.Turn.Role.Label(), e.Turn.Content)
	case len(e.Themes) > 0:
		line += fmt.Sprintf(" %s %v", e.CentralTheme, e.Themes)
	case e.CentralTheme != "":
		line += " " + e.CentralTheme
	case e.Type == dialogue.EventTurnRolledBack:
		line += fmt.Sprintf(" from #%d (%d removed)", e.Seq, e.Removed)
	default:
		line += " " + string(e.Phase)
	}
	fmt.Fprintln(out, line)
}
