package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui"
	"github.com/custodia-labs/grimoire/internal/logger"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for grimoire.

The TUI searches the indexed documentation, opens the documents behind
matching passages, validates scripts and edits provider settings.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Search / Select
  Ctrl+S   - Validate script
  Esc      - Back
  q        - Quit

With --verbose the trace log is written to grimoire.log in the data
directory while the TUI owns the terminal.`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

// newTUIPorts builds the TUI ports from the injected services.
func newTUIPorts() *tui.Ports {
	return &tui.Ports{
		Retrieval:  retrievalService,
		Validation: validationService,
		Stats:      statsService,
		Settings:   settingsService,
	}
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("panic in TUI: %v", r)
		}
	}()

	if logger.IsVerbose() {
		restore, err := logger.ToFile(tuiLogPath())
		if err != nil {
			return err
		}
		defer func() { _ = restore() }()
	}

	app, err := tui.NewApp(newTUIPorts())
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	if err := app.WithContext(cmd.Context()).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// tuiLogPath is where verbose output goes while the TUI is running.
func tuiLogPath() string {
	return filepath.Join(dataDir, "grimoire.log")
}
