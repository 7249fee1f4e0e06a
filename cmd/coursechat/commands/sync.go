package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bull/coursechat/internal/githubdocs"
)

// NewSyncCmd creates the sync command.
func NewSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Re-index course documents from the configured GitHub repository",
		Long: `Fetch every course document from the configured GitHub repository and
re-ingest it, replacing whatever the index held for those courses.

The corpus location comes from the [github] config section or the
GITHUB_OWNER, GITHUB_REPO and GITHUB_PATH environment variables. Set
GITHUB_TOKEN for a higher API rate limit.`,
		RunE: runSync,
	}
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	gh := a.cfg.GitHub
	if gh.Owner == "" || gh.Repo == "" {
		return errors.New("github.owner and github.repo must be configured (or set GITHUB_OWNER / GITHUB_REPO)")
	}

	pipeline, err := a.pipeline()
	if err != nil {
		return err
	}

	client, err := githubdocs.NewClient()
	if err != nil {
		return fmt.Errorf("create GitHub client: %w", err)
	}
	fetcher := githubdocs.NewFetcher(client, gh.Owner, gh.Repo, gh.Path)
	syncer := githubdocs.NewSyncer(fetcher, pipeline, nil)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Syncing %s/%s at %s...\n", gh.Owner, gh.Repo, gh.Path)

	result, err := syncer.Sync(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Sync complete")
	fmt.Fprintf(out, "  Documents: %d/%d\n", result.IngestedDocs, result.TotalDocs)
	fmt.Fprintf(out, "  Chunks:    %d\n", result.TotalChunks)
	fmt.Fprintf(out, "  Commit:    %s\n", result.CommitSHA)
	fmt.Fprintf(out, "  Duration:  %s\n", result.Duration.Round(time.Second))

	if len(result.FailedDocs) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Failed documents:")
		for _, failed := range result.FailedDocs {
			fmt.Fprintf(out, "  - %s: %s\n", failed.Path, failed.Reason)
		}
	}
	return nil
}
