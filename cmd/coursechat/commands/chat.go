package commands

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bull/coursechat/internal/session"
)

var chatSession string

// NewChatCmd creates the chat command.
func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat interactively about the indexed courses",
		Long: `Start an interactive session. Follow-up questions see the recent
conversation history, so "tell me more about that lesson" works.

Type 'exit' or press Ctrl-D to leave.`,
		Args: cobra.NoArgs,
		RunE: runChat,
	}
	cmd.Flags().StringVar(&chatSession, "session", "", "Session ID to continue (default: a fresh session)")
	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
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

	sessionID := chatSession
	if sessionID == "" {
		sessionID = session.NewSessionID()
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session %s. Ask about your courses; 'exit' to leave.\n", sessionID)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for ctx.Err() == nil {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if query == "exit" || query == "quit" {
			break
		}

		answer, err := orch.Answer(ctx, sessionID, query)
		if answer == nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
			continue
		}

		fmt.Fprintln(out, answer.Text)
		printSources(out, answer.Sources)
		fmt.Fprintln(out)
	}
	return scanner.Err()
}
