// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/grimoire/internal/core/domain"
)

// SearchCompleted carries search results back to the model. Function is
// set when the query was a $name lookup answered from function pages.
type SearchCompleted struct {
	Results  []domain.ScoredPassage
	Function string
	Err      error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewSearch is the search input and results view.
	ViewSearch
	// ViewValidate is the script validation view.
	ViewValidate
	// ViewHelp is the help/keybindings view.
	ViewHelp
	// ViewDocContent shows the passages of one document.
	ViewDocContent
	// ViewSettings is the settings configuration view.
	ViewSettings
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewSearch:
		return "search"
	case ViewValidate:
		return "validate"
	case ViewHelp:
		return "help"
	case ViewDocContent:
		return "doc_content"
	case ViewSettings:
		return "settings"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// DocumentSelected signals a document was chosen from a search result.
// PassageID is the result's passage, which the reader scrolls to.
type DocumentSelected struct {
	SourcePath string
	PassageID  string
}

// DocumentContentLoaded carries the stored passages of a document.
type DocumentContentLoaded struct {
	SourcePath string
	Passages   []domain.Passage
	Err        error
}

// ValidationCompleted carries the result of validating a script.
type ValidationCompleted struct {
	Result *domain.ValidationResult
	Err    error
}

// StatsLoaded carries the index statistics.
type StatsLoaded struct {
	Stats *domain.IndexStats
	Err   error
}

// SettingsLoaded carries the application settings.
type SettingsLoaded struct {
	Settings *domain.AppSettings
	Err      error
}

// SettingsSaved signals settings were saved.
type SettingsSaved struct {
	Err error
}
