// Package search provides the documentation search view of the TUI.
package search

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/grimoire/internal/core/domain"
	"github.com/custodia-labs/grimoire/internal/core/ports/driving"
)

// reservedRows is the height taken by the header, query line and status bar.
const reservedRows = 10

// View searches the documentation index. Free text goes through similarity
// search; a lone $name is answered from that function's pages only.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	query     *input.QueryInput
	list      *list.ResultList
	statusbar *status.Bar

	retrieval driving.RetrievalService
	ctx       context.Context

	width  int
	height int
	ready  bool
	err    error

	// function is the name behind the shown results when they came from a
	// function lookup.
	function string

	// typing is true while keys edit the query and false while they move
	// through the results.
	typing bool
}

// NewView creates a search view. The similarity threshold of retrieval
// decides which passages are highlighted as documentation.
func NewView(s *styles.Styles, km *keymap.KeyMap, retrieval driving.RetrievalService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	results := list.NewResultList(s, km)
	bar := status.NewBar(s, km)
	if retrieval != nil {
		results.SetThreshold(retrieval.Threshold())
		bar.SetThreshold(retrieval.Threshold())
	}

	return &View{
		styles:    s,
		keymap:    km,
		query:     input.NewQueryInput(s),
		list:      results,
		statusbar: bar,
		retrieval: retrieval,
		ctx:       context.Background(),
		width:     80,
		height:    24,
		typing:    true,
	}
}

// WithContext sets the context passed to the retrieval service.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts the query cursor.
func (v *View) Init() tea.Cmd {
	return v.query.Init()
}

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v, v.handleKey(msg)

	case messages.SearchCompleted:
		v.showResults(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		v.statusbar.Fail(msg.Err)
		return v, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	if v.query, cmd = v.query.Update(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if v.list, cmd = v.list.Update(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return v, tea.Batch(cmds...)
}

func (v *View) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, v.keymap.Back) {
		return func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
	}

	if v.typing {
		if key.Matches(msg, v.keymap.Select) {
			return v.submit()
		}
		v.query, _ = v.query.Update(msg)
		return nil
	}

	switch {
	case key.Matches(msg, v.keymap.Open):
		selected := v.list.SelectedResult()
		if selected == nil {
			return nil
		}
		doc := messages.DocumentSelected{SourcePath: selected.Passage.SourcePath, PassageID: selected.Passage.ID}
		return func() tea.Msg { return doc }
	case key.Matches(msg, v.keymap.NewSearch):
		v.typing = true
		v.query.SetValue("")
		return v.query.Focus()
	}
	v.list, _ = v.list.Update(msg)
	return nil
}

// submit starts a search for the current query and moves to results mode.
func (v *View) submit() tea.Cmd {
	text := v.query.Value()
	if text == "" {
		return nil
	}
	name, lookup := v.query.FunctionName()

	v.typing = false
	v.query.Blur()
	v.statusbar.SetState(status.StateSearching)

	retrieval := v.retrieval
	ctx := v.ctx
	return func() tea.Msg {
		if retrieval == nil {
			return messages.ErrorOccurred{Err: ErrNoRetrievalService}
		}
		if lookup {
			results, _, err := retrieval.FunctionPassages(ctx, name)
			return messages.SearchCompleted{Results: results, Function: name, Err: err}
		}
		results, err := retrieval.SearchByText(ctx, text, 0)
		return messages.SearchCompleted{Results: results, Err: err}
	}
}

func (v *View) showResults(msg messages.SearchCompleted) {
	if msg.Err != nil {
		v.err = msg.Err
		v.statusbar.Fail(msg.Err)
		return
	}

	v.err = nil
	v.function = msg.Function
	v.list.SetResults(msg.Results)
	v.statusbar.ShowPassages(msg.Results)
	v.typing = false
	v.query.Blur()
}

// View renders the header, query line, results and status bar.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	header := v.styles.Title.Render("Search")
	if v.function != "" {
		header = v.styles.Title.Render("Function $" + v.function)
	}

	sections := []string{header, "", v.query.View(), ""}
	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}
	sections = append(sections, v.list.View(), "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sizes the view and its components.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.query.SetWidth(width)
	v.list.SetDimensions(width, height-reservedRows)
	v.statusbar.SetWidth(width)
}

// Width returns the current width.
func (v *View) Width() int {
	return v.width
}

// Height returns the current height.
func (v *View) Height() int {
	return v.height
}

// Ready reports whether the view has been sized.
func (v *View) Ready() bool {
	return v.ready
}

// Query returns the current query text.
func (v *View) Query() string {
	return v.query.Value()
}

// SetQuery replaces the query text.
func (v *View) SetQuery(query string) {
	v.query.SetValue(query)
}

// Function returns the function name behind the shown results, if any.
func (v *View) Function() string {
	return v.function
}

// Results returns the shown passages.
func (v *View) Results() []domain.ScoredPassage {
	return v.list.Results()
}

// SelectedIndex returns the index of the selected passage.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// SelectedResult returns the selected passage, or nil.
func (v *View) SelectedResult() *domain.ScoredPassage {
	return v.list.SelectedResult()
}

// Err returns the last error, if any.
func (v *View) Err() error {
	return v.err
}

// ClearError clears the last error.
func (v *View) ClearError() {
	v.err = nil
	v.statusbar.Clear()
}

// Reset returns the view to an empty query.
func (v *View) Reset() {
	v.typing = true
	v.query.Focus()
	v.query.SetValue("")
	v.list.SetResults(nil)
	v.function = ""
	v.err = nil
	v.statusbar.Clear()
}

// InputFocused reports whether keys edit the query.
func (v *View) InputFocused() bool {
	return v.typing
}
