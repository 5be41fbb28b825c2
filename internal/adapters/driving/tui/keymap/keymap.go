// Package keymap defines keybindings for the TUI. Views match keys with
// key.Matches against these bindings, and the status bar renders the
// per-view help groups.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	Quit key.Binding
	Help key.Binding
	Back key.Binding

	// List and reader navigation.
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Select   key.Binding

	// Menu shortcuts.
	GoSearch   key.Binding
	GoValidate key.Binding
	GoSettings key.Binding

	// Search results.
	NewSearch key.Binding
	Open      key.Binding

	// Validate view.
	Validate    key.Binding
	ApplyFix    key.Binding
	SwitchFocus key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Help: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Back: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),

		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
		Top:      key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
		Bottom:   key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
		Select:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),

		GoSearch:   key.NewBinding(key.WithKeys("/", "s"), key.WithHelp("/", "search docs")),
		GoValidate: key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "validate script")),
		GoSettings: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "settings")),

		NewSearch: key.NewBinding(key.WithKeys("n", "/"), key.WithHelp("n", "new search")),
		Open:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open document")),

		Validate:    key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "validate")),
		ApplyFix:    key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "apply correction")),
		SwitchFocus: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "script/intent")),
	}
}

// ShortHelp is shown when a view has nothing more specific.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Help}
}

// MenuHelp lists the menu shortcuts.
func (k *KeyMap) MenuHelp() []key.Binding {
	return []key.Binding{k.GoSearch, k.GoValidate, k.GoSettings, k.Quit}
}

// ResultsHelp lists the keys for a page of search results.
func (k *KeyMap) ResultsHelp() []key.Binding {
	return []key.Binding{k.NewSearch, k.Up, k.Open, k.Back}
}

// ReaderHelp lists the keys for scrolling a document.
func (k *KeyMap) ReaderHelp() []key.Binding {
	return []key.Binding{k.Up, k.PageDown, k.Top, k.Bottom, k.Back}
}

// ValidateHelp lists the keys of the validate view.
func (k *KeyMap) ValidateHelp() []key.Binding {
	return []key.Binding{k.Validate, k.ApplyFix, k.SwitchFocus, k.Back}
}

// FullHelp returns every binding grouped by view for the help screen.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		k.MenuHelp(),
		{k.Up, k.Down, k.Select},
		k.ResultsHelp(),
		{k.PageUp, k.PageDown, k.Top, k.Bottom},
		k.ValidateHelp(),
		{k.Help, k.Quit},
	}
}
