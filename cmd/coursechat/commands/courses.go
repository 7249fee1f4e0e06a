package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCoursesCmd creates the courses command.
func NewCoursesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "courses",
		Short: "List the indexed courses",
		Args:  cobra.NoArgs,
		RunE:  runCourses,
	}
}

func runCourses(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	titles, err := a.store.ListCourseTitles(ctx)
	if err != nil {
		return fmt.Errorf("list courses: %w", err)
	}
	counts, err := a.store.Counts(ctx)
	if err != nil {
		return fmt.Errorf("count index: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(titles) == 0 {
		fmt.Fprintln(out, "No courses indexed. Run 'coursechat ingest <dir>' first.")
		return nil
	}
	for _, title := range titles {
		fmt.Fprintf(out, "  %s\n", title)
	}
	fmt.Fprintf(out, "%d courses, %d chunks indexed\n", counts.Courses, counts.Chunks)
	return nil
}
