// Package styles provides the colour palette and lipgloss styles for the TUI.
package styles

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette holds the colours of the TUI. Each colour has a light and a dark
// terminal variant.
type Palette struct {
	Accent    lipgloss.AdaptiveColor // gold: titles, selection
	Secondary lipgloss.AdaptiveColor // teal: subtitles, code
	Text      lipgloss.AdaptiveColor
	Faint     lipgloss.AdaptiveColor
	Good      lipgloss.AdaptiveColor
	Caution   lipgloss.AdaptiveColor
	Bad       lipgloss.AdaptiveColor
	Rule      lipgloss.AdaptiveColor // borders and dividers
	Bar       lipgloss.AdaptiveColor // status bar background
}

// DefaultPalette is ink and parchment with a gold accent.
func DefaultPalette() Palette {
	return Palette{
		Accent:    lipgloss.AdaptiveColor{Light: "#9A7410", Dark: "#D4A017"},
		Secondary: lipgloss.AdaptiveColor{Light: "#3B7A78", Dark: "#8FBCBB"},
		Text:      lipgloss.AdaptiveColor{Light: "#2B2820", Dark: "#E8E3D3"},
		Faint:     lipgloss.AdaptiveColor{Light: "#8A8474", Dark: "#7A7467"},
		Good:      lipgloss.AdaptiveColor{Light: "#4F7A32", Dark: "#A3BE8C"},
		Caution:   lipgloss.AdaptiveColor{Light: "#A66A00", Dark: "#EBCB8B"},
		Bad:       lipgloss.AdaptiveColor{Light: "#A8323E", Dark: "#BF616A"},
		Rule:      lipgloss.AdaptiveColor{Light: "#C9C2AE", Dark: "#4C473D"},
		Bar:       lipgloss.AdaptiveColor{Light: "#EDE8DA", Dark: "#12110F"},
	}
}

// Styles contains the lipgloss styles shared by views and components.
type Styles struct {
	palette Palette

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Help     lipgloss.Style

	// InputField frames the search box.
	InputField lipgloss.Style
	StatusBar  lipgloss.Style

	// Code sets script snippets off with a left rule.
	Code lipgloss.Style
}

// NewStyles builds styles from p.
func NewStyles(p Palette) *Styles {
	return &Styles{
		palette: p,

		Title:    lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		Subtitle: lipgloss.NewStyle().Bold(true).Foreground(p.Secondary),
		Normal:   lipgloss.NewStyle().Foreground(p.Text),
		Muted:    lipgloss.NewStyle().Foreground(p.Faint),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(p.Bar).Background(p.Accent),
		Error:    lipgloss.NewStyle().Foreground(p.Bad),
		Success:  lipgloss.NewStyle().Foreground(p.Good),
		Warning:  lipgloss.NewStyle().Foreground(p.Caution),
		Help:     lipgloss.NewStyle().Foreground(p.Faint),

		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Rule).
			Padding(0, 1),
		StatusBar: lipgloss.NewStyle().
			Foreground(p.Faint).
			Background(p.Bar).
			Padding(0, 1),
		Code: lipgloss.NewStyle().
			Foreground(p.Secondary).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(p.Rule).
			PaddingLeft(1),
	}
}

// DefaultStyles returns styles over DefaultPalette.
func DefaultStyles() *Styles {
	return NewStyles(DefaultPalette())
}

// Palette returns the colours these styles were built from.
func (s *Styles) Palette() Palette {
	return s.palette
}

// Score renders a similarity score, green at or above threshold and muted below.
func (s *Styles) Score(score, threshold float64) string {
	style := s.Muted
	if score >= threshold {
		style = s.Success
	}
	return style.Render(fmt.Sprintf("%.4f", score))
}

// Confidence renders a validation confidence, green from 0.75 and amber
// below that.
func (s *Styles) Confidence(c float64) string {
	style := s.Warning
	if c >= 0.75 {
		style = s.Success
	}
	return style.Render(fmt.Sprintf("Confidence: %.2f", c))
}

// Bullets renders a heading and one "  - item" line per item, all in style.
// It returns "" for no items.
func (s *Styles) Bullets(style lipgloss.Style, heading string, items []string) string {
	if len(items) == 0 {
		return ""
	}
	lines := make([]string, 0, len(items)+1)
	lines = append(lines, style.Render(heading))
	for _, item := range items {
		lines = append(lines, style.Render("  - "+item))
	}
	return strings.Join(lines, "\n")
}
