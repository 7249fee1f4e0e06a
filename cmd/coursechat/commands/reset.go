package commands

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var resetYes bool

// NewResetCmd creates the reset command.
func NewResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete and recreate the course index",
		Long:  "Drop both index collections and recreate them empty. All indexed courses are lost.",
		Args:  cobra.NoArgs,
		RunE:  runReset,
	}
	cmd.Flags().BoolVar(&resetYes, "yes", false, "Skip the confirmation prompt")
	return cmd
}

func runReset(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	out := cmd.OutOrStdout()
	if !resetYes {
		fmt.Fprint(out, "This deletes every indexed course. Continue? [y/N]: ")
		scanner := bufio.NewScanner(cmd.InOrStdin())
		if !scanner.Scan() {
			return nil
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "y", "yes":
		default:
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	if err := a.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset index: %w", err)
	}
	fmt.Fprintln(out, "Index reset.")
	return nil
}
