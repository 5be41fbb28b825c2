package menu

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/grimoire/internal/core/domain"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewView(t *testing.T) {
	view := NewView(styles.DefaultStyles(), keymap.DefaultKeyMap())

	require.NotNil(t, view)
	assert.Len(t, view.items, 5)
	assert.Equal(t, 0, view.Selected())
	assert.Nil(t, view.Init())

	defaults := NewView(nil, nil)
	assert.NotNil(t, defaults.styles)
	assert.NotNil(t, defaults.keymap)
}

func TestView_Update_WindowSize(t *testing.T) {
	view := NewView(nil, nil)

	updated, cmd := view.Update(tea.WindowSizeMsg{Width: 100, Height: 50})

	assert.Same(t, view, updated)
	assert.Nil(t, cmd)
	assert.True(t, view.ready)
	assert.Equal(t, 100, view.width)
	assert.Equal(t, 50, view.height)
}

func TestView_Navigation(t *testing.T) {
	view := NewView(nil, nil)

	for range 10 {
		view.Update(runes("j"))
	}
	assert.Equal(t, 4, view.Selected(), "stops at last item")

	view.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 3, view.Selected())

	for range 10 {
		view.Update(runes("k"))
	}
	assert.Equal(t, 0, view.Selected(), "stops at first item")
}

func TestView_Update_Enter(t *testing.T) {
	tests := []struct {
		name     string
		selected int
		want     messages.ViewType
	}{
		{name: "search", selected: 0, want: messages.ViewSearch},
		{name: "validate", selected: 1, want: messages.ViewValidate},
		{name: "settings", selected: 2, want: messages.ViewSettings},
		{name: "help", selected: 3, want: messages.ViewHelp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := NewView(nil, nil)
			view.selected = tt.selected

			_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

			require.NotNil(t, cmd)
			assert.Equal(t, messages.ViewChanged{View: tt.want}, cmd())
		})
	}
}

func TestView_Update_Shortcuts(t *testing.T) {
	tests := []struct {
		key      string
		want     messages.ViewType
		selected int
	}{
		{key: "/", want: messages.ViewSearch, selected: 0},
		{key: "s", want: messages.ViewSearch, selected: 0},
		{key: "v", want: messages.ViewValidate, selected: 1},
		{key: "c", want: messages.ViewSettings, selected: 2},
		{key: "?", want: messages.ViewHelp, selected: 3},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			view := NewView(nil, nil)

			_, cmd := view.Update(runes(tt.key))

			require.NotNil(t, cmd)
			assert.Equal(t, messages.ViewChanged{View: tt.want}, cmd())
			assert.Equal(t, tt.selected, view.Selected())
		})
	}

	t.Run("unbound", func(t *testing.T) {
		_, cmd := NewView(nil, nil).Update(runes("x"))
		assert.Nil(t, cmd)
	})
}

func TestView_Update_Quit(t *testing.T) {
	t.Run("quit item", func(t *testing.T) {
		view := NewView(nil, nil)
		view.selected = 4

		_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	})

	t.Run("q key", func(t *testing.T) {
		_, cmd := NewView(nil, nil).Update(runes("q"))

		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	})
}

func TestView_View(t *testing.T) {
	view := NewView(nil, nil)
	assert.Equal(t, "Initialising...", view.View())

	view.SetDimensions(80, 24)
	out := view.View()

	assert.Contains(t, out, "Grimoire")
	assert.Contains(t, out, "DSL Documentation")
	assert.Contains(t, out, "Loading index...")
	for _, label := range []string{"Search", "Validate", "Settings", "Help", "Quit"} {
		assert.Contains(t, out, label)
	}
	assert.Contains(t, out, "[v]")
	assert.Contains(t, out, "$name for one function")
	assert.Contains(t, out, "> ")
}

func TestView_View_Stats(t *testing.T) {
	ended := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		name    string
		stats   *domain.IndexStats
		want    []string
		notWant []string
	}{
		{
			name:  "empty index",
			stats: &domain.IndexStats{},
			want:  []string{"Index is empty", "grimoire ingest"},
		},
		{
			name:    "passages without runs",
			stats:   &domain.IndexStats{Passages: 42},
			want:    []string{"42 passages indexed"},
			notWant: []string{"last ingest"},
		},
		{
			name: "clean run",
			stats: &domain.IndexStats{Passages: 42, Runs: []domain.IngestRun{{
				Root: "docs", EndedAt: ended,
				Report: domain.IngestReport{FilesSeen: 7, Inserted: 30},
			}}},
			want:    []string{"last ingest 2026-03-01 09:30 of docs: 7 files, 30 new passages"},
			notWant: []string{"failed"},
		},
		{
			name: "run with failures",
			stats: &domain.IndexStats{Passages: 42, Runs: []domain.IngestRun{{
				Root: "docs", EndedAt: ended,
				Report: domain.IngestReport{FilesSeen: 7, FilesFailed: 2, Inserted: 30},
			}}},
			want: []string{"30 new passages, 2 failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := NewView(nil, nil)
			view.SetDimensions(120, 24)
			view.SetStats(tt.stats)

			out := view.View()
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
			for _, w := range tt.notWant {
				assert.NotContains(t, out, w)
			}
		})
	}
}

func TestView_View_StatsError(t *testing.T) {
	view := NewView(nil, nil)
	view.SetDimensions(80, 24)

	view.SetStatsError(errors.New("database is locked"))
	assert.Contains(t, view.View(), "Index unavailable: database is locked")

	view.SetStats(&domain.IndexStats{Passages: 1})
	assert.NotContains(t, view.View(), "Index unavailable")
}
