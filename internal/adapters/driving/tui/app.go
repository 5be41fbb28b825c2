package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/views/doccontent"
	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/views/settings"
	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/views/validate"
	"github.com/custodia-labs/grimoire/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	keymap *keymap.KeyMap

	// styles holds the TUI styles.
	styles *styles.Styles

	menuView       *menu.View
	searchView     *search.View
	validateView   *validate.View
	docContentView *doccontent.View
	settingsView   *settings.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:          ports,
		keymap:         km,
		ctx:            context.Background(),
		styles:         s,
		menuView:       menu.NewView(s, km),
		searchView:     search.NewView(s, km, ports.Retrieval),
		validateView:   validate.NewView(s, km, ports.Validation),
		docContentView: doccontent.NewView(s, km, ports.Retrieval),
		settingsView:   settings.NewView(s, ports.Settings),
		currentView:    messages.ViewMenu,
	}, nil
}

// WithContext sets the context for the app and the views that call services.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.searchView.WithContext(ctx)
	a.validateView.WithContext(ctx)
	a.docContentView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("grimoire"),
		a.loadStats(),
	)
}

// loadStats returns a command that fetches index statistics for the menu.
func (a *App) loadStats() tea.Cmd {
	if a.ports.Stats == nil {
		return nil
	}
	stats := a.ports.Stats
	ctx := a.ctx
	return func() tea.Msg {
		s, err := stats.Stats(ctx)
		return messages.StatsLoaded{Stats: s, Err: err}
	}
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.currentView == messages.ViewHelp {
			if key.Matches(msg, a.keymap.Back) {
				a.currentView = messages.ViewMenu
			}
			return a, nil
		}
		return a, a.forward(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewSearch:
			a.searchView.Reset()
			return a, a.searchView.Init()
		case messages.ViewValidate:
			return a, a.validateView.Init()
		case messages.ViewSettings:
			a.settingsView.Reset()
			return a, a.settingsView.Init()
		case messages.ViewMenu:
			return a, a.loadStats()
		case messages.ViewHelp, messages.ViewDocContent:
		}
		return a, nil

	case messages.SearchCompleted:
		a.searchView, cmd = a.searchView.Update(msg)
		a.err = a.searchView.Err()
		return a, cmd

	case messages.DocumentSelected:
		a.currentView = messages.ViewDocContent
		return a, a.docContentView.SetSource(msg.SourcePath, msg.PassageID)

	case messages.DocumentContentLoaded:
		a.docContentView, cmd = a.docContentView.Update(msg)
		return a, cmd

	case messages.ValidationCompleted:
		a.validateView, cmd = a.validateView.Update(msg)
		a.err = msg.Err
		return a, cmd

	case messages.StatsLoaded:
		if msg.Err != nil {
			a.err = msg.Err
			a.menuView.SetStatsError(msg.Err)
			return a, nil
		}
		a.menuView.SetStats(msg.Stats)
		return a, nil

	case messages.SettingsLoaded, messages.SettingsSaved:
		a.settingsView, cmd = a.settingsView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, a.forward(msg)

	case messages.Quit:
		return a, tea.Quit
	}

	return a, a.forward(msg)
}

// forward hands a message to the active view.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	case messages.ViewValidate:
		a.validateView, cmd = a.validateView.Update(msg)
	case messages.ViewDocContent:
		a.docContentView, cmd = a.docContentView.Update(msg)
	case messages.ViewSettings:
		a.settingsView, cmd = a.settingsView.Update(msg)
	case messages.ViewHelp:
	}
	return cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewSearch:
		return a.searchView.View()
	case messages.ViewValidate:
		return a.validateView.View()
	case messages.ViewDocContent:
		return a.docContentView.View()
	case messages.ViewSettings:
		return a.settingsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

// viewHelp lists the bindings of every view, taken from the key map so the
// screen never drifts from what the views accept.
func (a *App) viewHelp() string {
	km := a.keymap
	sections := []struct {
		title    string
		note     string
		bindings []key.Binding
	}{
		{"Menu", "", append(km.MenuHelp(), km.Up, km.Down, km.Select)},
		{"Search", "Type a question, or $name to read one function's pages.", append(km.ResultsHelp(), km.Down)},
		{"Document", "", append(km.ReaderHelp(), km.PageUp)},
		{"Validate", "Type a script; the intent field is optional.", km.ValidateHelp()},
	}

	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n")
	for _, sec := range sections {
		b.WriteString("\n" + a.styles.Subtitle.Render(sec.title) + "\n")
		if sec.note != "" {
			b.WriteString("  " + a.styles.Muted.Render(sec.note) + "\n")
		}
		for _, binding := range sec.bindings {
			h := binding.Help()
			fmt.Fprintf(&b, "  %-10s %s\n", h.Key, h.Desc)
		}
	}
	b.WriteString("\n" + a.styles.Help.Render("[esc] back to menu"))
	return b.String()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// Query returns the current search query.
func (a *App) Query() string {
	return a.searchView.Query()
}

// Results returns the current search results.
func (a *App) Results() []domain.ScoredPassage {
	return a.searchView.Results()
}

// SelectedIndex returns the currently selected result index.
func (a *App) SelectedIndex() int {
	return a.searchView.SelectedIndex()
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.searchView.SetDimensions(width, height)
	a.validateView.SetDimensions(width, height)
	a.docContentView.SetDimensions(width, height)
	a.settingsView.SetDimensions(width, height)
}
