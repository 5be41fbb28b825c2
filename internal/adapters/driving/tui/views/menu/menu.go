// Package menu provides the start screen of the TUI: index health at the
// top and the views below, each reachable by arrow keys or a shortcut.
package menu

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/grimoire/internal/core/domain"
)

// Item is one entry of the menu.
type Item struct {
	Label    string
	Desc     string
	View     messages.ViewType
	Shortcut key.Binding
	Quit     bool
}

// View is the start screen.
type View struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	items    []Item
	selected int
	stats    *domain.IndexStats
	statsErr error
	width    int
	height   int
	ready    bool
}

// NewView creates the menu.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles: s,
		keymap: km,
		items: []Item{
			{Label: "Search", Desc: "find passages, or $name for one function", View: messages.ViewSearch, Shortcut: km.GoSearch},
			{Label: "Validate", Desc: "check a script and repair unclosed $if blocks", View: messages.ViewValidate, Shortcut: km.GoValidate},
			{Label: "Settings", Desc: "providers, models and retrieval tuning", View: messages.ViewSettings, Shortcut: km.GoSettings},
			{Label: "Help", Desc: "key bindings", View: messages.ViewHelp, Shortcut: km.Help},
			{Label: "Quit", Quit: true, Shortcut: km.Quit},
		},
		width:  80,
		height: 24,
	}
}

// Init initialises the menu view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keymap.Up):
			v.selected = max(v.selected-1, 0)
			return v, nil
		case key.Matches(msg, v.keymap.Down):
			v.selected = min(v.selected+1, len(v.items)-1)
			return v, nil
		case key.Matches(msg, v.keymap.Select):
			return v, v.choose(v.items[v.selected])
		}
		for i, item := range v.items {
			if key.Matches(msg, item.Shortcut) {
				v.selected = i
				return v, v.choose(item)
			}
		}
	}

	return v, nil
}

func (v *View) choose(item Item) tea.Cmd {
	if item.Quit {
		return tea.Quit
	}
	return func() tea.Msg {
		return messages.ViewChanged{View: item.View}
	}
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Grimoire"))
	b.WriteString("\n\n")
	b.WriteString(v.styles.Subtitle.Render("DSL Documentation"))
	b.WriteString("\n")
	b.WriteString(v.indexSummary())
	b.WriteString("\n\n")

	for i, item := range v.items {
		hint := v.styles.Muted.Render(fmt.Sprintf("[%s]", item.Shortcut.Help().Key))
		label := fmt.Sprintf("%-9s", item.Label)
		if i == v.selected {
			b.WriteString("> " + v.styles.Selected.Render(label))
		} else {
			b.WriteString("  " + v.styles.Normal.Render(label))
		}
		b.WriteString(" " + hint)
		if item.Desc != "" {
			b.WriteString("  " + v.styles.Muted.Render(item.Desc))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[j/k] Navigate  [Enter] Select  [q] Quit"))
	return b.String()
}

// indexSummary describes the passage count and the most recent ingest.
func (v *View) indexSummary() string {
	switch {
	case v.statsErr != nil:
		return v.styles.Error.Render("Index unavailable: " + v.statsErr.Error())
	case v.stats == nil:
		return v.styles.Muted.Render("Loading index...")
	case v.stats.Passages == 0:
		return v.styles.Warning.Render("Index is empty, run `grimoire ingest <docs dir>`")
	}

	lines := []string{v.styles.Muted.Render(fmt.Sprintf("%d passages indexed", v.stats.Passages))}
	if len(v.stats.Runs) > 0 {
		run := v.stats.Runs[0]
		text := fmt.Sprintf("last ingest %s of %s: %d files, %d new passages",
			run.EndedAt.Format("2006-01-02 15:04"), run.Root, run.Report.FilesSeen, run.Report.Inserted)
		style := v.styles.Muted
		if run.Error != "" || run.Report.FilesFailed > 0 {
			text += fmt.Sprintf(", %d failed", run.Report.FilesFailed)
			style = v.styles.Warning
		}
		lines = append(lines, style.Render(text))
	}
	return strings.Join(lines, "\n")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// SetStats records the index statistics shown under the title.
func (v *View) SetStats(stats *domain.IndexStats) {
	v.stats = stats
	v.statsErr = nil
}

// SetStatsError records why the statistics could not be loaded.
func (v *View) SetStatsError(err error) {
	v.statsErr = err
}

// Selected returns the currently selected index.
func (v *View) Selected() int {
	return v.selected
}
