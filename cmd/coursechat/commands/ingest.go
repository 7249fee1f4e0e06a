package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bull/coursechat/internal/ingest"
)

// NewIngestCmd creates the ingest command.
func NewIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <path>...",
		Short: "Index course documents from files or directories",
		Long: `Index course documents into the vector store.

A file argument is always (re-)ingested, replacing whatever the index
held for its course. A directory argument is loaded the way startup
loading works: documents whose course title is already indexed are
skipped.

Examples:
  coursechat ingest docs/
  coursechat ingest docs/new_course.txt docs/other_course.md`,
		Args: cobra.MinimumNArgs(1),
		RunE: runIngest,
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	pipeline, err := a.pipeline()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, path := range args {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}

		if info.IsDir() {
			result, err := pipeline.IngestDir(ctx, path)
			if err != nil {
				return fmt.Errorf("ingest %s: %w", path, err)
			}
			printDirResult(out, path, result)
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		result, err := pipeline.IngestDocument(ctx, path, string(data))
		if err != nil {
			return fmt.Errorf("ingest %s: %w", path, err)
		}
		fmt.Fprintf(out, "Indexed %q (%d lessons, %d chunks)\n",
			result.CourseTitle, result.Lessons, result.Chunks)
	}
	return nil
}

func printDirResult(w io.Writer, dir string, result *ingest.Result) {
	fmt.Fprintf(w, "Loaded %s: %d new courses, %d skipped, %d chunks in %s\n",
		dir, result.NewCourses, result.SkippedDocs, result.TotalChunks,
		result.Duration.Round(time.Millisecond))
	for _, failed := range result.FailedDocs {
		fmt.Fprintf(w, "  failed %s: %s\n", failed.Path, failed.Reason)
	}
}
