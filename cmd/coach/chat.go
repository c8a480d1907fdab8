package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/coach/internal/dialogue"
)

const (
	cmdReset = "/reset"
	cmdQuit  = "/quit"

	maxLineBytes = 1 << 20
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the coach in the terminal",
	Long: `Starts an interactive session on stdin/stdout. Each line is one turn.
Type /reset to start over and /quit to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, _ := cmd.Flags().GetString("token")
		if token == "" {
			token = cfg.HFAPIToken
		}
		if token == "" {
			return errors.New("a Hugging Face API token is required (--token or HF_API_TOKEN)")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		sinks, cleanup, err := optionalSinks(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		out := cmd.OutOrStdout()
		opts := append(controllerOptions(),
			dialogue.WithLogger(slog.Default()),
			dialogue.WithSink(append(dialogue.MultiSink{newRenderer(out)}, sinks...)),
		)
		ctrl := dialogue.New(newInferenceClient(), opts...)

		return runChat(ctx, ctrl, cmd.InOrStdin(), out, token)
	},
}

func init() {
	chatCmd.Flags().String("token", "", "Hugging Face API token (defaults to HF_API_TOKEN)")
}

// session is what runChat needs from a dialogue controller.
type session interface {
	SubmitTurn(ctx context.Context, text, credential string) error
	Reset()
}

// runChat reads one turn per line until EOF, /quit or ctx is done. Coach
// output reaches out through the controller's renderer sink.
func runChat(ctx context.Context, s session, in io.Reader, out io.Writer, token string) error {
	fmt.Fprintln(out, "コーチとの対話を始めましょう。今、心にあることを自由に書いてください。")
	fmt.Fprintf(out, "(%s でやり直し、%s で終了)\n", cmdReset, cmdQuit)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case cmdQuit:
			return nil
		case cmdReset:
			s.Reset()
			continue
		}

		if err := s.SubmitTurn(ctx, line, token); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintln(out, dialogue.UserMessage(err))
		}
	}
}

// renderer prints coach turns and session notices as they are emitted.
type renderer struct {
	out io.Writer
}

func newRenderer(out io.Writer) *renderer {
	return &renderer{out: out}
}

func (r *renderer) OnEvent(_ context.Context, e dialogue.Event) {
	switch e.Type {
	case dialogue.EventTurn:
		if e.Turn != nil && e.Turn.Role == dialogue.RoleCoach {
			fmt.Fprintf(r.out, "\n%s: %s\n\n", e.Turn.Role.Label(), e.Turn.Content)
		}
	case dialogue.EventPhaseChanged:
		if e.Phase == dialogue.PhaseSimulation {
			fmt.Fprintln(r.out, "--- 未来のシミュレーション ---")
		}
	case dialogue.EventTurnRolledBack:
		fmt.Fprintln(r.out, "(直前の発言は取り消されました)")
	case dialogue.EventSessionReset:
		fmt.Fprintln(r.out, "セッションをリセットしました。もう一度、今の気持ちから聞かせてください。")
	}
}
