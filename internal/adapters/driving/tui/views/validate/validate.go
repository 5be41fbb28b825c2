// Package validate provides the script validation view for the TUI.
package validate

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/grimoire/internal/core/domain"
	"github.com/custodia-labs/grimoire/internal/core/ports/driving"
)

// ErrNoValidationService indicates that no validation service was provided.
var ErrNoValidationService = errors.New("validation service is required")

// focus identifies which field receives key presses.
type focus int

const (
	focusEditor focus = iota
	focusIntent
)

// View lets the user edit a script, validate it and apply the suggested repair.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	validation driving.ValidationService
	ctx        context.Context

	editor    textarea.Model
	intent    textinput.Model
	statusbar *status.Bar
	focus     focus

	result   *domain.ValidationResult
	err      error
	checking bool

	width  int
	height int
	ready  bool
}

// NewView creates a new validation view.
func NewView(s *styles.Styles, km *keymap.KeyMap, validation driving.ValidationService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	editor := textarea.New()
	editor.Placeholder = "$nomention\n$if[$message==ping]\n  pong\n$endif"
	editor.ShowLineNumbers = true
	editor.CharLimit = 0
	editor.SetWidth(76)
	editor.SetHeight(10)
	editor.Focus()

	intent := textinput.New()
	intent.Placeholder = "What should the script do? (optional)"
	intent.CharLimit = 256
	intent.Width = 60

	return &View{
		styles:     s,
		keymap:     km,
		validation: validation,
		ctx:        context.Background(),
		editor:     editor,
		intent:     intent,
		statusbar:  status.NewBar(s, km),
		width:      80,
		height:     24,
	}
}

// WithContext sets the context used for validation calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages for the validation view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.ValidationCompleted:
		v.handleCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.checking = false
		v.err = msg.Err
		v.statusbar.Fail(msg.Err)
		return v, nil
	}

	return v, v.forward(msg)
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}

	case key.Matches(msg, v.keymap.Validate):
		return v, v.submit()

	case key.Matches(msg, v.keymap.ApplyFix):
		v.applyCorrection()
		return v, nil

	case key.Matches(msg, v.keymap.SwitchFocus):
		return v, v.toggleFocus()
	}

	return v, v.forward(msg)
}

// forward passes a message to whichever field has focus.
func (v *View) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if v.focus == focusIntent {
		v.intent, cmd = v.intent.Update(msg)
		return cmd
	}
	v.editor, cmd = v.editor.Update(msg)
	return cmd
}

func (v *View) toggleFocus() tea.Cmd {
	if v.focus == focusEditor {
		v.focus = focusIntent
		v.editor.Blur()
		return v.intent.Focus()
	}
	v.focus = focusEditor
	v.intent.Blur()
	return v.editor.Focus()
}

// submit returns a command that validates the current script.
func (v *View) submit() tea.Cmd {
	code := v.editor.Value()
	if strings.TrimSpace(code) == "" {
		return nil
	}
	intent := v.intent.Value()

	v.checking = true
	v.err = nil
	v.statusbar.SetState(status.StateChecking)

	return func() tea.Msg {
		if v.validation == nil {
			return messages.ErrorOccurred{Err: ErrNoValidationService}
		}
		result, err := v.validation.Validate(v.ctx, code, intent)
		return messages.ValidationCompleted{Result: result, Err: err}
	}
}

func (v *View) handleCompleted(msg messages.ValidationCompleted) {
	v.checking = false
	if msg.Err != nil {
		v.err = msg.Err
		v.statusbar.Fail(msg.Err)
		return
	}

	v.err = nil
	v.result = msg.Result
	v.statusbar.ShowVerdict(msg.Result)
}

// applyCorrection replaces the script with the repaired version, if any.
func (v *View) applyCorrection() {
	if v.result == nil || v.result.CorrectedSnippet == nil {
		return
	}
	v.editor.SetValue(*v.result.CorrectedSnippet)
	v.result = nil
	v.statusbar.Clear()
}

// View renders the validation view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := []string{
		v.styles.Title.Render("Validate"),
		"",
		v.styles.Subtitle.Render("Intent: ") + v.intent.View(),
		"",
		v.editor.View(),
		"",
	}

	switch {
	case v.checking:
		sections = append(sections, v.styles.Muted.Render("Validating..."))
	case v.err != nil:
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()))
	case v.result != nil:
		sections = append(sections, v.renderResult())
	}

	sections = append(sections,
		"",
		v.styles.Help.Render("[ctrl+s] validate  [ctrl+r] apply correction  [tab] switch field  [esc] back"),
		v.statusbar.View(),
	)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderResult() string {
	r := v.result
	var b strings.Builder

	if r.Valid() {
		b.WriteString(v.styles.Success.Render("No errors found."))
		b.WriteString("\n")
	}
	for _, block := range []string{
		v.styles.Bullets(v.styles.Error, "Errors:", r.Errors),
		v.styles.Bullets(v.styles.Warning, "Warnings:", r.Warnings),
	} {
		if block != "" {
			b.WriteString(block + "\n")
		}
	}

	if len(r.DocumentedFunctions) > 0 {
		b.WriteString(v.styles.Muted.Render("Documented: " + strings.Join(r.DocumentedFunctions, ", ")))
		b.WriteString("\n")
	}
	if len(r.UndocumentedFunctions) > 0 {
		b.WriteString(v.styles.Warning.Render("Undocumented: " + strings.Join(r.UndocumentedFunctions, ", ")))
		b.WriteString("\n")
	}
	b.WriteString(v.styles.Confidence(r.Confidence))

	if corrected := r.Corrected(); corrected != "" {
		b.WriteString("\n\n")
		b.WriteString(v.styles.Subtitle.Render("Corrected:"))
		b.WriteString("\n")
		b.WriteString(v.styles.Code.Render(corrected))
	}

	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	editorWidth := width - 4
	if editorWidth < 20 {
		editorWidth = 20
	}
	editorHeight := height / 3
	if editorHeight < 5 {
		editorHeight = 5
	}
	v.editor.SetWidth(editorWidth)
	v.editor.SetHeight(editorHeight)
	v.statusbar.SetWidth(width)
}

// SetCode replaces the script being edited.
func (v *View) SetCode(code string) {
	v.editor.SetValue(code)
}

// Code returns the script being edited.
func (v *View) Code() string {
	return v.editor.Value()
}

// SetIntent replaces the intent text.
func (v *View) SetIntent(intent string) {
	v.intent.SetValue(intent)
}

// Result returns the last validation result.
func (v *View) Result() *domain.ValidationResult {
	return v.result
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// Checking reports whether a validation is in flight.
func (v *View) Checking() bool {
	return v.checking
}

// IntentFocused reports whether the intent field has focus.
func (v *View) IntentFocused() bool {
	return v.focus == focusIntent
}

// Reset clears the script, intent and last result.
func (v *View) Reset() {
	v.editor.Reset()
	v.intent.Reset()
	v.result = nil
	v.err = nil
	v.checking = false
	v.statusbar.Clear()
	if v.focus == focusIntent {
		v.toggleFocus()
	}
}
