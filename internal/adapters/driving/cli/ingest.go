package cli

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/grimoire/internal/core/domain"
)

var ingestWatch bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Index a documentation directory",
	Long: `Walks a directory of Markdown and MDX files, splits each file into passages,
embeds them and stores them in the local index. Passages already stored are
skipped, so re-running ingestion only embeds new content.

With --watch, ingestion continues and re-indexes files as they change.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "re-index files as they change")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	cmd.Printf("Indexing %s...\n", root)
	report, err := ingestService.IngestPath(cmd.Context(), root)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	printReport(cmd, report)

	if !ingestWatch {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Println("Watching for changes. Press Ctrl+C to stop.")
	return ingestService.Watch(ctx, root, func(c domain.FileChange) {
		switch {
		case c.Err != nil:
			cmd.Printf("  ! %s: %v\n", c.Path, c.Err)
		case c.Type == domain.ChangeDeleted:
			cmd.Printf("  - %s removed (passages kept)\n", c.Path)
		default:
			cmd.Printf("  + %s (%s): %d new passages\n", c.Path, c.Type, c.Inserted)
		}
	})
}

func printReport(cmd *cobra.Command, report *domain.IngestReport) {
	cmd.Printf("  Files:    %d", report.FilesSeen)
	if report.FilesFailed > 0 {
		cmd.Printf(" (%d failed)", report.FilesFailed)
	}
	cmd.Println()
	cmd.Printf("  Passages: %d new, %d unchanged\n", report.Inserted, report.Skipped)
}
