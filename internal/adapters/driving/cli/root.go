// Package cli provides the grimoire command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/grimoire/internal/core/ports/driving"
	"github.com/custodia-labs/grimoire/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// skipInitAnnotation marks commands that run without services.
const skipInitAnnotation = "grimoire/skip-init"

// Global flags.
var (
	verbose   bool
	configDir string
	dataDir   string
)

// Services wired by main.
var (
	retrievalService  driving.RetrievalService
	validationService driving.ValidationService
	correctionService driving.CorrectionService
	functionService   driving.FunctionService
	answerService     driving.AnswerService
	ingestService     driving.IngestService
	statsService      driving.StatsService
	settingsService   driving.SettingsService
)

// Services aggregates the driving ports used by commands.
type Services struct {
	Retrieval  driving.RetrievalService
	Validation driving.ValidationService
	Correction driving.CorrectionService
	Function   driving.FunctionService
	Answer     driving.AnswerService
	Ingest     driving.IngestService
	Stats      driving.StatsService
	Settings   driving.SettingsService
}

// Options are the global flag values passed to the initializer.
type Options struct {
	// ConfigDir holds config.toml and prompt templates.
	ConfigDir string

	// DataDir holds the passage database.
	DataDir string
}

// Initializer builds services from the global options. The returned
// cleanup is run after the command completes.
type Initializer func(ctx context.Context, opts Options) (*Services, func(), error)

var (
	initializer Initializer
	cleanup     func()
)

var rootCmd = &cobra.Command{
	Use:   "grimoire",
	Short: "Documentation assistant for a scripting DSL",
	Long: `Grimoire indexes DSL documentation into a local vector store and answers
from it: similarity search, script validation with documentation coverage,
function lookup and grounded answers.

Start by indexing your documentation:
  grimoire ingest ./website/docs`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
	},
}

func init() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	defaultDir := filepath.Join(home, ".grimoire")

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", defaultDir, "directory for config.toml and prompts")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDir, "directory for the passage database")
}

// SetServices injects the services used by commands.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	retrievalService = s.Retrieval
	validationService = s.Validation
	correctionService = s.Correction
	functionService = s.Function
	answerService = s.Answer
	ingestService = s.Ingest
	statsService = s.Stats
	settingsService = s.Settings
}

// SetInitializer registers the function that builds services once flags are parsed.
func SetInitializer(fn Initializer) {
	initializer = fn
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func initServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	// A missing .env is normal.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("loading .env: %v", err)
	}

	if initializer == nil || cmd.Annotations[skipInitAnnotation] != "" {
		return nil
	}

	svc, done, err := initializer(cmd.Context(), Options{ConfigDir: configDir, DataDir: dataDir})
	if err != nil {
		return fmt.Errorf("initialising: %w", err)
	}
	SetServices(svc)
	cleanup = done
	return nil
}
