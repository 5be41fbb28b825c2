// Package settings provides the settings configuration view for the TUI.
package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/grimoire/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/grimoire/internal/core/domain"
	"github.com/custodia-labs/grimoire/internal/core/ports/driving"
)

// ErrNoSettingsService indicates that no settings service was provided.
var ErrNoSettingsService = errors.New("settings service not available")

// Section tracks which settings section is active.
type Section int

const (
	SectionOverview Section = iota
	SectionEmbedding
	SectionLLM
)

const (
	keyDown  = "down"
	keyEnter = "enter"
	keyTab   = "tab"
)

// picker is the provider list and API key input of one AI section.
type picker struct {
	title     string
	providers []domain.AIProvider
	models    map[domain.AIProvider]string
	apiKey    textinput.Model
	current   func(*domain.AppSettings) domain.AIProvider
	save      func(svc driving.SettingsService, p domain.AIProvider, model, apiKey string) error
}

func newPicker(title string, providers []domain.AIProvider, models map[domain.AIProvider]string) *picker {
	input := textinput.New()
	input.Placeholder = "Enter API key"
	input.EchoMode = textinput.EchoPassword
	input.CharLimit = 256

	return &picker{
		title:     title,
		providers: providers,
		models:    models,
		apiKey:    input,
	}
}

// indexOf returns the position of the configured provider, or zero.
func (p *picker) indexOf(settings *domain.AppSettings) int {
	if settings == nil {
		return 0
	}
	cur := p.current(settings)
	for i, candidate := range p.providers {
		if candidate == cur {
			return i
		}
	}
	return 0
}

func (p *picker) reset() {
	p.apiKey.SetValue("")
	p.apiKey.Blur()
}

// View is the settings configuration view.
type View struct {
	styles          *styles.Styles
	settingsService driving.SettingsService

	settings *domain.AppSettings
	err      error

	section      Section
	selected     int // selection within current section
	focusedField int // 1 when the API key input has focus

	embedding *picker
	llm       *picker

	width  int
	height int
	ready  bool
}

// NewView creates a new settings view.
func NewView(s *styles.Styles, settingsService driving.SettingsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	embedding := newPicker("Select Embedding Provider", domain.AllEmbeddingProviders(), domain.DefaultEmbeddingModels())
	embedding.current = func(a *domain.AppSettings) domain.AIProvider { return a.Embedding.Provider }
	embedding.save = func(svc driving.SettingsService, p domain.AIProvider, model, key string) error {
		return svc.SetEmbeddingProvider(p, model, key)
	}

	llm := newPicker("Select LLM Provider", domain.AllLLMProviders(), domain.DefaultLLMModels())
	llm.current = func(a *domain.AppSettings) domain.AIProvider { return a.LLM.Provider }
	llm.save = func(svc driving.SettingsService, p domain.AIProvider, model, key string) error {
		return svc.SetLLMProvider(p, model, key)
	}

	return &View{
		styles:          s,
		settingsService: settingsService,
		section:         SectionOverview,
		embedding:       embedding,
		llm:             llm,
	}
}

// Init initialises the view and loads settings.
func (v *View) Init() tea.Cmd {
	return v.loadSettings()
}

func (v *View) loadSettings() tea.Cmd {
	return func() tea.Msg {
		if v.settingsService == nil {
			return messages.SettingsLoaded{Err: ErrNoSettingsService}
		}
		settings, err := v.settingsService.Get()
		return messages.SettingsLoaded{Settings: settings, Err: err}
	}
}

// Update handles messages for the settings view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.SettingsLoaded:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.settings = msg.Settings
		v.err = nil
		return v, nil

	case messages.SettingsSaved:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.backToOverview()
		return v, v.loadSettings()

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.String() == "esc" {
		if v.section == SectionOverview {
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		}
		v.backToOverview()
		return v, nil
	}

	if v.section == SectionOverview {
		return v.handleOverviewKeys(msg)
	}
	return v.handlePickerKeys(v.activePicker(), msg)
}

func (v *View) handleOverviewKeys(msg tea.KeyMsg) (*View, tea.Cmd) {
	const items = 2

	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case keyDown, "j":
		if v.selected < items-1 {
			v.selected++
		}
	case keyEnter:
		if v.selected == 0 {
			v.section = SectionEmbedding
		} else {
			v.section = SectionLLM
		}
		v.selected = v.activePicker().indexOf(v.settings)
	}
	return v, nil
}

func (v *View) handlePickerKeys(p *picker, msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.focusedField == 1 {
		switch msg.String() {
		case keyTab, "shift+tab":
			v.focusedField = 0
			p.apiKey.Blur()
			return v, nil
		case keyEnter:
			return v, v.saveProvider(p, p.providers[v.selected], p.apiKey.Value())
		default:
			var cmd tea.Cmd
			p.apiKey, cmd = p.apiKey.Update(msg)
			return v, cmd
		}
	}

	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case keyDown, "j":
		if v.selected < len(p.providers)-1 {
			v.selected++
		}
	case keyTab:
		if p.providers[v.selected].RequiresAPIKey() {
			v.focusedField = 1
			return v, p.apiKey.Focus()
		}
	case keyEnter:
		provider := p.providers[v.selected]
		if provider.RequiresAPIKey() {
			v.focusedField = 1
			return v, p.apiKey.Focus()
		}
		return v, v.saveProvider(p, provider, "")
	}
	return v, nil
}

// saveProvider stores the provider with its default model.
func (v *View) saveProvider(p *picker, provider domain.AIProvider, apiKey string) tea.Cmd {
	svc := v.settingsService
	model := p.models[provider]
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsSaved{Err: ErrNoSettingsService}
		}
		return messages.SettingsSaved{Err: p.save(svc, provider, model, apiKey)}
	}
}

func (v *View) activePicker() *picker {
	if v.section == SectionLLM {
		return v.llm
	}
	return v.embedding
}

func (v *View) backToOverview() {
	v.section = SectionOverview
	v.selected = 0
	v.focusedField = 0
	v.embedding.reset()
	v.llm.reset()
}

// View renders the settings view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Settings"))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
	}

	if v.settings == nil {
		b.WriteString(v.styles.Muted.Render("Loading settings..."))
		return b.String()
	}

	if v.section == SectionOverview {
		b.WriteString(v.renderOverview())
	} else {
		b.WriteString(v.renderPicker(v.activePicker()))
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

func (v *View) renderOverview() string {
	var b strings.Builder

	items := []struct {
		label      string
		provider   domain.AIProvider
		model      string
		configured bool
	}{
		{"Embedding Provider", v.settings.Embedding.Provider, v.settings.Embedding.Model, v.settings.Embedding.IsConfigured()},
		{"LLM Provider", v.settings.LLM.Provider, v.settings.LLM.Model, v.settings.LLM.IsConfigured()},
	}

	for i, item := range items {
		value := "Not Set"
		if item.provider != "" {
			value = fmt.Sprintf("%s (%s)", item.provider.Description(), item.model)
		}

		indicator := "  "
		style := v.styles.Normal
		if i == v.selected {
			indicator = "> "
			style = v.styles.Selected
		}

		b.WriteString(style.Render(fmt.Sprintf("%s%s: %s", indicator, item.label, value)))
		b.WriteString(" ")
		if item.configured {
			b.WriteString(v.styles.Success.Render("[configured]"))
		} else {
			b.WriteString(v.styles.Warning.Render("[needs setup]"))
		}
		b.WriteString("\n")
	}

	r := v.settings.Retrieval
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  Similarity threshold: %.2f  Top K: %d  Context chunks: %d",
		r.SimilarityThreshold, r.TopK, r.ContextChunks)))
	b.WriteString("\n\n")

	if v.settingsService != nil {
		if err := v.settingsService.Validate(); err != nil {
			b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Warning: %s", err.Error())))
		} else {
			b.WriteString(v.styles.Success.Render("Configuration is valid"))
		}
	}

	return b.String()
}

func (v *View) renderPicker(p *picker) string {
	var b strings.Builder

	b.WriteString(v.styles.Subtitle.Render(p.title))
	b.WriteString("\n\n")

	current := p.current(v.settings)
	for i, provider := range p.providers {
		highlighted := i == v.selected && v.focusedField == 0

		indicator := "  "
		style := v.styles.Normal
		if highlighted {
			indicator = "> "
			style = v.styles.Selected
		}

		b.WriteString(style.Render(indicator + provider.Description()))
		if provider == current {
			b.WriteString(v.styles.Success.Render(" (current)"))
		}
		b.WriteString("\n")

		if model, ok := p.models[provider]; ok {
			b.WriteString(v.styles.Muted.Render("    Model: " + model))
			b.WriteString("\n")
		}
	}

	if p.providers[v.selected].RequiresAPIKey() {
		b.WriteString("\n")
		b.WriteString(v.styles.Normal.Render("API Key:"))
		b.WriteString("\n")
		b.WriteString(p.apiKey.View())
		b.WriteString("\n")
	}

	return b.String()
}

func (v *View) renderHelp() string {
	switch {
	case v.section == SectionOverview:
		return v.styles.Help.Render("[j/k] navigate  [enter] edit  [esc] back")
	case v.focusedField == 1:
		return v.styles.Help.Render("[tab] back to list  [enter] save  [esc] back")
	default:
		return v.styles.Help.Render("[j/k] navigate  [tab] API key  [enter] select  [esc] back")
	}
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Section returns the active section.
func (v *View) Section() Section {
	return v.section
}

// Reset resets the view to initial state.
func (v *View) Reset() {
	v.err = nil
	v.backToOverview()
}
