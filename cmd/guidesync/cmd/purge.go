package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/guidesync/guidesync/pkg/duration"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove old schedule entries",
	Long: `Remove schedule entries that ended more than the given age ago.

Stored entries are insert-only: a re-synced feed never rewrites an
existing slot, so stale guide data accumulates until it is purged.`,
	RunE: runPurge,
}

func init() {
	rootCmd.AddCommand(purgeCmd)

	purgeCmd.Flags().String("older-than", "7d", "Age threshold (e.g. 36h, 7d)")
}

func runPurge(cmd *cobra.Command, args []string) error {
	olderThan, _ := cmd.Flags().GetString("older-than")
	age, err := duration.Parse(olderThan)
	if err != nil {
		return fmt.Errorf("invalid --older-than value %q: %w", olderThan, err)
	}
	if age <= 0 {
		return fmt.Errorf("--older-than must be positive")
	}

	a, err := buildApp(slog.Default())
	if err != nil {
		return err
	}
	defer a.Close()

	cutoff := time.Now().Add(-age)
	removed, err := a.guide.PurgeBefore(cmd.Context(), cutoff)
	if err != nil {
		return err
	}

	fmt.Printf("removed %d schedule entries ending before %s\n",
		removed, cutoff.Format(time.RFC3339))
	return nil
}
