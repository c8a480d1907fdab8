package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/coach/internal/dialogue"
	"github.com/MikeSquared-Agency/coach/internal/store"
)

var transcriptCmd = &cobra.Command{
	Use:   "transcript <session-id>",
	Short: "Print an archived session transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required")
		}
		ctx := cmd.Context()

		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		turns, err := db.Transcript(ctx, args[0])
		if err != nil {
			return err
		}
		if len(turns) == 0 {
			return fmt.Errorf("no archived turns for session %s", args[0])
		}

		out := cmd.OutOrStdout()
		for _, t := range turns {
			fmt.Fprintf(out, "[%s] %s: %s\n", t.Phase, dialogue.Role(t.Role).Label(), t.Content)
		}

		ts, err := db.LatestThemeSet(ctx, args[0])
		if err != nil {
			return err
		}
		if ts != nil {
			fmt.Fprintf(out, "\n中心テーマ: %s\n", ts.CentralTheme)
			for i, theme := range ts.Themes {
				fmt.Fprintf(out, "%d. %s\n", i+1, theme)
			}
		}
		return nil
	},
}
