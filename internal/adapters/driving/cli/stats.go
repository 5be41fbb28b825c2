package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Long:  `Shows the number of stored passages and the most recent ingestion runs.`,
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if statsService == nil {
		return errors.New("stats service not configured")
	}

	stats, err := statsService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	cmd.Printf("Passages: %d\n", stats.Passages)
	if len(stats.Runs) == 0 {
		cmd.Println("No ingestion runs recorded.")
		return nil
	}

	cmd.Println()
	cmd.Println("Recent runs:")
	for _, run := range stats.Runs {
		cmd.Printf("  %s  %s  %d files, %d new, %d unchanged (%s)\n",
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			run.Root,
			run.Report.FilesSeen,
			run.Report.Inserted,
			run.Report.Skipped,
			run.EndedAt.Sub(run.StartedAt).Round(10*time.Millisecond),
		)
		if run.Error != "" {
			cmd.Printf("    %s\n", errorStyle.Render(run.Error))
		}
	}
	return nil
}
