package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/grimoire/internal/logger"
)

func TestTUICmd_Exists(t *testing.T) {
	found := false
	for _, cmd := range rootCmd.Commands() {
		if cmd.Use == "tui" {
			found = true
			break
		}
	}
	assert.True(t, found, "tui command should be registered")
	assert.Equal(t, "Launch the interactive terminal UI", tuiCmd.Short)
}

func TestTUICmd_HelpOutput(t *testing.T) {
	out, err := execute(t, nil, "tui", "--help")

	require.NoError(t, err)
	assert.Contains(t, out, "interactive terminal user interface")
	assert.Contains(t, out, "Controls:")
}

func TestNewTUIPorts(t *testing.T) {
	svc := newTestServices()
	cleanup := useServices(svc)
	defer cleanup()

	ports := newTUIPorts()

	assert.Same(t, svc.Retrieval, ports.Retrieval)
	assert.Same(t, svc.Validation, ports.Validation)
	assert.Same(t, svc.Stats, ports.Stats)
	assert.Same(t, svc.Settings, ports.Settings)
	assert.NoError(t, ports.Validate())
}

func TestTUICmd_RequiresRetrieval(t *testing.T) {
	cleanup := useServices(nil)
	defer cleanup()

	_, err := execute(t, nil, "tui")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create TUI")
}

func TestRunTUI_VerboseLogsToDataDir(t *testing.T) {
	cleanup := useServices(nil)
	defer cleanup()

	prevDir := dataDir
	dataDir = t.TempDir()
	logger.SetVerbose(true)
	defer func() {
		dataDir = prevDir
		logger.SetVerbose(false)
	}()

	err := runTUI(tuiCmd, nil)
	require.Error(t, err)

	info, statErr := os.Stat(filepath.Join(dataDir, "grimoire.log"))
	require.NoError(t, statErr)
	assert.False(t, info.IsDir())
	assert.Equal(t, filepath.Join(dataDir, "grimoire.log"), tuiLogPath())
}
