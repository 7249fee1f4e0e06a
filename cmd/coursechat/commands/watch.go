package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bull/coursechat/internal/ingest"
)

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Load a course directory and re-index documents as they change",
		Long: `Load every course document under a directory, then keep watching it:
new and modified documents are re-ingested automatically. The directory
defaults to the [docs] config section (or DOCS_DIR).

Runs until interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runWatch,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	dir := a.cfg.Docs.Dir
	if len(args) == 1 {
		dir = args[0]
	}

	pipeline, err := a.pipeline()
	if err != nil {
		return err
	}

	result, err := pipeline.IngestDir(ctx, dir)
	if err != nil {
		return fmt.Errorf("initial load of %s: %w", dir, err)
	}
	printDirResult(cmd.OutOrStdout(), dir, result)

	watcher := ingest.NewWatcher(pipeline, dir, 0, nil)
	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
