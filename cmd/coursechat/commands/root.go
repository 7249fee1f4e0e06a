// Package commands assembles the coursechat CLI.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bull/coursechat/internal/search"
)

var (
	configPath string
	verbose    bool
)

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coursechat",
		Short: "Ask questions about indexed course materials",
		Long: `coursechat indexes structured course documents into a vector store and
answers natural-language questions about them, citing the course and
lesson each piece of the answer came from.

Environment variables:
  OPENAI_API_KEY  OpenAI API key (required for ingest, ask and chat)
  QDRANT_HOST     Qdrant hostname (default: localhost)
  QDRANT_PORT     Qdrant gRPC port (default: 6334)
  GITHUB_TOKEN    GitHub token for the sync command (optional)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a TOML config file (default: coursechat.toml when present)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(
		NewIngestCmd(),
		NewSyncCmd(),
		NewWatchCmd(),
		NewAskCmd(),
		NewChatCmd(),
		NewCoursesCmd(),
		NewResetCmd(),
	)
	return cmd
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// printSources lists answer attributions, most specific link first.
func printSources(w io.Writer, sources []search.Attribution) {
	if len(sources) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sources:")
	for _, src := range sources {
		if src.Link != "" {
			fmt.Fprintf(w, "  - %s (%s)\n", src.Label(), src.Link)
		} else {
			fmt.Fprintf(w, "  - %s\n", src.Label())
		}
	}
}
