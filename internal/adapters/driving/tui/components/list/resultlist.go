// Package list provides the ranked passage list of the search view.
package list

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/grimoire/internal/core/domain"
)

// rowHeight is the lines one result takes: title, preview and a gap.
const rowHeight = 3

// ResultList shows passages ranked by similarity. Passages that clear the
// threshold count as documentation; the rest sit below a divider.
type ResultList struct {
	results   []domain.ScoredPassage
	selected  int
	threshold float64
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	width     int
	height    int
}

// NewResultList creates an empty result list.
func NewResultList(s *styles.Styles, km *keymap.KeyMap) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &ResultList{
		styles: s,
		keymap: km,
		width:  80,
		height: 10,
	}
}

// Init initialises the result list.
func (r *ResultList) Init() tea.Cmd {
	return nil
}

// Update moves the selection.
func (r *ResultList) Update(msg tea.Msg) (*ResultList, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return r, nil
	}
	switch {
	case key.Matches(keyMsg, r.keymap.Up):
		r.MoveUp()
	case key.Matches(keyMsg, r.keymap.Down):
		r.MoveDown()
	case key.Matches(keyMsg, r.keymap.Top):
		r.SetSelected(0)
	case key.Matches(keyMsg, r.keymap.Bottom):
		r.SetSelected(len(r.results) - 1)
	}
	return r, nil
}

// View renders the visible window of results around the selection.
func (r *ResultList) View() string {
	if len(r.results) == 0 {
		return r.styles.Muted.Render("No results")
	}

	header := fmt.Sprintf("Results (%d)", len(r.results))
	if r.threshold > 0 {
		header = fmt.Sprintf("Results (%d, %d documented)", len(r.results), r.Documented())
	}
	lines := []string{r.styles.Subtitle.Render(header), ""}

	visible := max((r.height-4)/rowHeight, 1)
	start := 0
	if r.selected >= visible {
		start = r.selected - visible + 1
	}
	end := min(start+visible, len(r.results))

	for i := start; i < end; i++ {
		if r.startsUndocumented(i) {
			lines = append(lines, r.styles.Muted.Render(
				fmt.Sprintf("  ── below %.2f: not documentation ──", r.threshold)))
		}
		lines = append(lines, r.renderResult(i))
	}
	return strings.Join(lines, "\n")
}

// startsUndocumented reports whether result i is the first one under the
// threshold. Results arrive sorted by score, best first.
func (r *ResultList) startsUndocumented(i int) bool {
	if r.threshold <= 0 || r.results[i].Score >= r.threshold {
		return false
	}
	return i == 0 || r.results[i-1].Score >= r.threshold
}

func (r *ResultList) renderResult(i int) string {
	result := r.results[i]

	marker := "  "
	if i == r.selected {
		marker = "> "
	}
	title := result.Passage.SourcePath
	if section := result.Passage.Title(); section != "" {
		title += " > " + section
	}
	titleWidth := max(r.width-24, 10)
	title = fmt.Sprintf("%s%2d. %-*s  ", marker, i+1, titleWidth, truncate(title, titleWidth))

	var titleLine string
	if i == r.selected {
		titleLine = r.styles.Selected.Render(title + fmt.Sprintf("%.4f", result.Score))
	} else {
		titleLine = r.styles.Normal.Render(title) + r.styles.Score(result.Score, r.threshold)
	}

	preview := strings.Join(strings.Fields(result.Passage.Content), " ")
	preview = truncate(preview, max(r.width-8, 20))
	return titleLine + "\n" + r.styles.Muted.Render("      "+preview) + "\n"
}

// truncate shortens s to at most n runes, ending with "..." when cut.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// SetResults replaces the results and selects the first.
func (r *ResultList) SetResults(results []domain.ScoredPassage) {
	r.results = results
	r.selected = 0
}

// SetThreshold sets the score a passage needs to count as documentation.
func (r *ResultList) SetThreshold(threshold float64) {
	r.threshold = threshold
}

// Documented counts the results at or above the threshold.
func (r *ResultList) Documented() int {
	n := 0
	for _, res := range r.results {
		if res.Score >= r.threshold {
			n++
		}
	}
	return n
}

// Results returns the current results.
func (r *ResultList) Results() []domain.ScoredPassage {
	return r.results
}

// Selected returns the index of the selected result.
func (r *ResultList) Selected() int {
	return r.selected
}

// SetSelected selects index when it is in range.
func (r *ResultList) SetSelected(index int) {
	if index >= 0 && index < len(r.results) {
		r.selected = index
	}
}

// SelectedResult returns the selected result, or nil when the list is empty.
func (r *ResultList) SelectedResult() *domain.ScoredPassage {
	if r.selected < 0 || r.selected >= len(r.results) {
		return nil
	}
	return &r.results[r.selected]
}

// MoveUp moves the selection up one result.
func (r *ResultList) MoveUp() {
	r.SetSelected(r.selected - 1)
}

// MoveDown moves the selection down one result.
func (r *ResultList) MoveDown() {
	r.SetSelected(r.selected + 1)
}

// SetDimensions sets the component dimensions.
func (r *ResultList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of results.
func (r *ResultList) Count() int {
	return len(r.results)
}
