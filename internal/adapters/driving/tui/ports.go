// Package tui provides an interactive terminal user interface for grimoire.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/grimoire/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval searches the documentation index.
	Retrieval driving.RetrievalService

	// Validation checks scripts against the documentation.
	Validation driving.ValidationService

	// Stats reports index contents.
	Stats driving.StatsService

	// Settings manages application settings.
	Settings driving.SettingsService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(
	retrieval driving.RetrievalService,
	validation driving.ValidationService,
	settings driving.SettingsService,
) *Ports {
	return &Ports{
		Retrieval:  retrieval,
		Validation: validation,
		Settings:   settings,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
