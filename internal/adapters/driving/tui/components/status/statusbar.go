// Package status provides the status line shown under the search and
// validate views.
package status

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/grimoire/internal/core/domain"
)

// State is what the status line is currently reporting.
type State string

const (
	StateReady     State = "ready"
	StateSearching State = "searching"
	StateChecking  State = "checking"
	StateError     State = "error"
	StateResults   State = "results"
	StateVerdict   State = "verdict"
)

// Bar reports search coverage or a validation verdict on the left and key
// hints on the right.
type Bar struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	state  State
	width  int

	message string

	// threshold is the score a passage needs to count as documentation.
	threshold float64
	passages  int
	topScore  float64

	verdict *domain.ValidationResult
}

// NewBar creates a status bar. A nil keymap or styles falls back to the defaults.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{styles: s, keymap: km, state: StateReady, width: 80}
}

// Init implements the component contract; the bar has no startup work.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update is a no-op. The owning view drives the bar through its setters.
func (s *Bar) Update(tea.Msg) (*Bar, tea.Cmd) {
	return s, nil
}

// View renders the bar padded to its width.
func (s *Bar) View() string {
	left := s.summary()
	right := s.hints()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}
	return s.styles.StatusBar.Width(s.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (s *Bar) summary() string {
	switch s.state {
	case StateSearching:
		return s.styles.Muted.Render("Searching...")
	case StateChecking:
		return s.styles.Muted.Render("Validating...")
	case StateError:
		if s.message == "" {
			return s.styles.Error.Render("Error")
		}
		return s.styles.Error.Render("Error: " + s.message)
	case StateResults:
		return s.coverage()
	case StateVerdict:
		return s.verdictSummary()
	case StateReady:
	}
	return s.styles.Muted.Render("Ready")
}

// coverage reports how many passages came back and whether the best one
// clears the similarity threshold.
func (s *Bar) coverage() string {
	if s.passages == 0 {
		return s.styles.Warning.Render("No passages found")
	}
	text := fmt.Sprintf("%d passages, top %.2f", s.passages, s.topScore)
	if s.topScore < s.threshold {
		return s.styles.Warning.Render(fmt.Sprintf("%s below %.2f: not documented", text, s.threshold))
	}
	return s.styles.Success.Render(text + " documented")
}

func (s *Bar) verdictSummary() string {
	r := s.verdict
	if r == nil {
		return s.styles.Muted.Render("Ready")
	}
	confidence := fmt.Sprintf("confidence %.2f", r.Confidence)
	if r.Valid() {
		text := "Valid, " + confidence
		if n := len(r.Warnings); n > 0 {
			text = fmt.Sprintf("Valid with %d warning(s), %s", n, confidence)
		}
		return s.styles.Success.Render(text)
	}
	text := fmt.Sprintf("%d error(s), %s", len(r.Errors), confidence)
	if r.CorrectedSnippet != nil {
		text += ", correction ready"
	}
	return s.styles.Error.Render(text)
}

func (s *Bar) hints() string {
	bindings := s.keymap.ShortHelp()
	switch {
	case s.state == StateResults && s.passages > 0:
		bindings = s.keymap.ResultsHelp()
	case s.state == StateVerdict:
		bindings = s.keymap.ValidateHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, h.Key+": "+h.Desc)
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetThreshold sets the score a passage needs to count as documentation.
func (s *Bar) SetThreshold(threshold float64) {
	s.threshold = threshold
}

// ShowPassages switches the bar to report a completed search.
func (s *Bar) ShowPassages(results []domain.ScoredPassage) {
	s.state = StateResults
	s.message = ""
	s.passages = len(results)
	s.topScore = 0
	if len(results) > 0 {
		s.topScore = results[0].Score
	}
}

// ShowVerdict switches the bar to report a validation result.
func (s *Bar) ShowVerdict(result *domain.ValidationResult) {
	s.state = StateVerdict
	s.message = ""
	s.verdict = result
}

// Fail switches the bar to report err.
func (s *Bar) Fail(err error) {
	s.state = StateError
	s.message = err.Error()
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// Message returns the error message, if any.
func (s *Bar) Message() string {
	return s.message
}

// Passages returns the passage count of the last search.
func (s *Bar) Passages() int {
	return s.passages
}

// TopScore returns the best score of the last search.
func (s *Bar) TopScore() float64 {
	return s.topScore
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the bar to ready. The threshold is kept.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.passages = 0
	s.topScore = 0
	s.verdict = nil
}
