// Package doccontent is the TUI reader for one documentation file. It shows
// every stored passage of the file in ingestion order and opens at the
// passage the search result pointed to.
package doccontent

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/grimoire/internal/core/domain"
	"github.com/custodia-labs/grimoire/internal/core/ports/driving"
)

const (
	// headerRows and footerRows surround the viewport.
	headerRows = 3
	footerRows = 4

	// gutter marks the lines of the focused passage.
	gutter        = "│ "
	gutterWidth   = 2
	minTextColumn = 20
)

// View is the document reader.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	retrieval driving.RetrievalService
	ctx       context.Context
	viewport  viewport.Model

	sourcePath string
	focusID    string
	passages   []domain.Passage

	// lines is the wrapped text; starts[i] is the first line of passage i.
	lines  []string
	starts []int

	width   int
	height  int
	loading bool
	err     error
}

// NewView creates a document reader.
func NewView(s *styles.Styles, km *keymap.KeyMap, retrieval driving.RetrievalService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	v := &View{
		styles:    s,
		keymap:    km,
		retrieval: retrieval,
		ctx:       context.Background(),
		viewport:  viewport.New(0, 0),
	}
	v.SetDimensions(80, 24)
	return v
}

// WithContext sets the context used when loading passages.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetSource selects the document to show and loads its passages. When
// passageID names one of them the reader opens scrolled to it.
func (v *View) SetSource(sourcePath, passageID string) tea.Cmd {
	v.sourcePath = sourcePath
	v.focusID = passageID
	v.passages = nil
	v.err = nil
	v.loading = true
	v.layout()
	return v.loadContent()
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

func (v *View) loadContent() tea.Cmd {
	path := v.sourcePath
	retrieval := v.retrieval
	ctx := v.ctx
	return func() tea.Msg {
		if retrieval == nil {
			return messages.DocumentContentLoaded{SourcePath: path, Err: ErrNoRetrievalService}
		}
		passages, err := retrieval.PassagesBySource(ctx, path, 0)
		return messages.DocumentContentLoaded{SourcePath: path, Passages: passages, Err: err}
	}
}

// Update handles messages for the reader.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v, v.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd

	case messages.DocumentContentLoaded:
		if msg.SourcePath != v.sourcePath {
			return v, nil
		}
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.passages = msg.Passages
		}
		v.layout()
		v.scrollToFocus()
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) tea.Cmd {
	vp := &v.viewport
	switch {
	case key.Matches(msg, v.keymap.Back):
		return func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewSearch}
		}
	case key.Matches(msg, v.keymap.Up):
		vp.SetYOffset(vp.YOffset - 1)
	case key.Matches(msg, v.keymap.Down):
		vp.SetYOffset(vp.YOffset + 1)
	case key.Matches(msg, v.keymap.PageUp):
		vp.SetYOffset(vp.YOffset - vp.Height)
	case key.Matches(msg, v.keymap.PageDown):
		vp.SetYOffset(vp.YOffset + vp.Height)
	case key.Matches(msg, v.keymap.Top):
		vp.GotoTop()
	case key.Matches(msg, v.keymap.Bottom):
		vp.GotoBottom()
	}
	return nil
}

// layout wraps the passages to the current width and hands them to the
// viewport. The scroll position is kept where possible.
func (v *View) layout() {
	textWidth := max(v.viewport.Width-gutterWidth, minTextColumn)
	v.lines = v.lines[:0]
	v.starts = v.starts[:0]

	for i, p := range v.passages {
		if i > 0 {
			v.lines = append(v.lines, "")
		}
		v.starts = append(v.starts, len(v.lines))

		mark := "  "
		if p.ID != "" && p.ID == v.focusID {
			mark = gutter
		}
		for _, line := range strings.Split(passageText(p), "\n") {
			for _, wrapped := range wrap(line, textWidth) {
				v.lines = append(v.lines, mark+wrapped)
			}
		}
	}

	offset := v.viewport.YOffset
	v.viewport.SetContent(strings.Join(v.lines, "\n"))
	v.viewport.SetYOffset(offset)
}

func (v *View) scrollToFocus() {
	if i := v.focusIndex(); i >= 0 {
		v.viewport.SetYOffset(v.starts[i])
		return
	}
	v.viewport.GotoTop()
}

// focusIndex is the position of the focused passage, or -1.
func (v *View) focusIndex() int {
	if v.focusID == "" {
		return -1
	}
	for i, p := range v.passages {
		if p.ID == v.focusID {
			return i
		}
	}
	return -1
}

// View renders the reader.
func (v *View) View() string {
	var b strings.Builder

	title := "Document"
	if v.sourcePath != "" {
		title = v.sourcePath
	}
	b.WriteString(v.styles.Title.Render(title))
	if n := len(v.passages); n > 0 {
		info := fmt.Sprintf("%d passages", n)
		if i := v.focusIndex(); i >= 0 {
			info += fmt.Sprintf(", match is passage %d", i+1)
		}
		b.WriteString("  " + v.styles.Muted.Render(info))
	}
	b.WriteString("\n" + strings.Repeat("─", min(max(v.width-4, 1), 60)) + "\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading passages..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.lines) == 0:
		b.WriteString(v.styles.Muted.Render("(No content)"))
	default:
		b.WriteString(v.viewport.View())
		if total := len(v.lines); total > v.viewport.Height {
			last := min(v.viewport.YOffset+v.viewport.Height, total)
			b.WriteString("\n" + v.styles.Muted.Render(fmt.Sprintf("  [%3.f%%] line %d-%d of %d",
				v.viewport.ScrollPercent()*100, v.viewport.YOffset+1, last, total)))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) renderHelp() string {
	hints := make([]string, 0, 5)
	for _, binding := range v.keymap.ReaderHelp() {
		h := binding.Help()
		hints = append(hints, fmt.Sprintf("[%s] %s", h.Key, h.Desc))
	}
	return v.styles.Help.Render(strings.Join(hints, "  "))
}

// SetDimensions sizes the reader and rewraps its text.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.viewport.Width = max(width-4, minTextColumn+gutterWidth)
	v.viewport.Height = max(height-headerRows-footerRows, 1)
	v.layout()
}

// SourcePath returns the path of the document being shown.
func (v *View) SourcePath() string {
	return v.sourcePath
}

// Passages returns the loaded passages.
func (v *View) Passages() []domain.Passage {
	return v.passages
}

// Loading reports whether passages are still being fetched.
func (v *View) Loading() bool {
	return v.loading
}

// Offset is the first visible line.
func (v *View) Offset() int {
	return v.viewport.YOffset
}

// Content returns the passages joined as one plain text.
func (v *View) Content() string {
	parts := make([]string, len(v.passages))
	for i, p := range v.passages {
		parts[i] = passageText(p)
	}
	return strings.Join(parts, "\n\n")
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// passageText is the passage content introduced by its section title, unless
// the content already opens with a heading.
func passageText(p domain.Passage) string {
	text := strings.TrimSpace(p.Content)
	if title := p.Title(); title != "" && !strings.HasPrefix(text, "#") {
		text = "## " + title + "\n" + text
	}
	return text
}

// wrap splits line into pieces of at most width runes.
func wrap(line string, width int) []string {
	runes := []rune(line)
	if len(runes) <= width {
		return []string{line}
	}
	var out []string
	for len(runes) > width {
		out = append(out, string(runes[:width]))
		runes = runes[width:]
	}
	return append(out, string(runes))
}
