// Package input provides the query line of the search view.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/grimoire/internal/docmeta"
)

// minInputWidth keeps the field usable on narrow terminals.
const minInputWidth = 20

// QueryInput accepts either free text or a single $function name. A lone
// $name switches the label so the user can see the query will be answered
// from that function's documentation pages.
type QueryInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int
}

// NewQueryInput creates a focused query input.
func NewQueryInput(s *styles.Styles) *QueryInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Ask the docs, or type $name for a function"
	ti.CharLimit = 256
	ti.Width = 50
	ti.Focus()

	return &QueryInput{textinput: ti, styles: s, width: 50}
}

// Init starts the cursor blinking.
func (q *QueryInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update forwards msg to the text field.
func (q *QueryInput) Update(msg tea.Msg) (*QueryInput, tea.Cmd) {
	var cmd tea.Cmd
	q.textinput, cmd = q.textinput.Update(msg)
	return q, cmd
}

// FunctionName returns the normalised function name when the query is a
// single $identifier, such as "$sendMessage" or "$getUserVar ".
func (q *QueryInput) FunctionName() (string, bool) {
	query := strings.TrimSpace(q.textinput.Value())
	if len(query) < 2 || query[0] != '$' {
		return "", false
	}
	for _, r := range query[1:] {
		if !isIdentRune(r) {
			return "", false
		}
	}
	return docmeta.NormalizeName(query), true
}

func isIdentRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// View renders the label and the field on one line.
func (q *QueryInput) View() string {
	label := "Search: "
	if _, ok := q.FunctionName(); ok {
		label = "Function: "
	}
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center,
		q.styles.Title.Render(label),
		q.styles.InputField.Render(q.textinput.View()),
	)
}

// Value returns the raw query text.
func (q *QueryInput) Value() string {
	return q.textinput.Value()
}

// SetValue replaces the query text.
func (q *QueryInput) SetValue(value string) {
	q.textinput.SetValue(value)
}

// Focus gives the field the cursor.
func (q *QueryInput) Focus() tea.Cmd {
	return q.textinput.Focus()
}

// Blur removes the cursor.
func (q *QueryInput) Blur() {
	q.textinput.Blur()
}

// Focused reports whether the field has the cursor.
func (q *QueryInput) Focused() bool {
	return q.textinput.Focused()
}

// SetWidth sizes the field to width minus the label.
func (q *QueryInput) SetWidth(width int) {
	q.width = width
	q.textinput.Width = max(width-12, minInputWidth)
}

// Width returns the width given to SetWidth.
func (q *QueryInput) Width() int {
	return q.width
}

// Reset clears the query.
func (q *QueryInput) Reset() {
	q.textinput.Reset()
}
