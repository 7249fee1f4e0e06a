package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bull/coursechat/internal/session"
)

var askSession string

// NewAskCmd creates the ask command.
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question about the indexed courses",
		Long: `Ask a single question and print the answer with its sources.

Pass --session to continue an earlier conversation; the session history
lives in the backend the [session] config section selects, so only the
sqlite and redis backends persist across invocations.

Examples:
  coursechat ask "What does lesson 3 of the MCP course cover?"
  coursechat ask --session 01J8ZQ4J0Q "And the lesson after that?"`,
		Args: cobra.ExactArgs(1),
		RunE: runAsk,
	}
	cmd.Flags().StringVar(&askSession, "session", "", "Session ID to continue (default: a fresh session)")
	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	orch, cleanup, err := a.orchestrator()
	if err != nil {
		return err
	}
	defer cleanup()

	sessionID := askSession
	if sessionID == "" {
		sessionID = session.NewSessionID()
	}

	answer, err := orch.Answer(ctx, sessionID, args[0])
	if answer == nil {
		return err
	}
	if err != nil {
		// A non-nil answer alongside an error is best-effort output,
		// e.g. when the tool round budget ran out.
		slog.Warn("Answer is best-effort", "error", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, answer.Text)
	printSources(out, answer.Sources)
	return nil
}
