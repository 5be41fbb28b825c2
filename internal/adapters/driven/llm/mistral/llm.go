// Package mistral configures the OpenAI-compatible chat adapter for Mistral.
package mistral

import (
	"time"

	openaillm "github.com/custodia-labs/grimoire/internal/adapters/driven/llm/openai"
)

// Default configuration values.
const (
	DefaultBaseURL     = "https://api.mistral.ai/v1"
	DefaultLLMModel    = "mistral-small-latest"
	DefaultLLMTimeout  = 120 * time.Second
	DefaultTemperature = 0.2
)

// LLMConfig holds configuration for the Mistral LLM service.
type LLMConfig struct {
	// APIKey is the Mistral API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.mistral.ai/v1).
	BaseURL string

	// Model is the chat model to use (default: mistral-small-latest).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// NewLLMService creates a chat service pointed at Mistral.
func NewLLMService(cfg LLMConfig) (*openaillm.LLMService, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	return openaillm.NewLLMService(openaillm.LLMConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Timeout:     cfg.Timeout,
		Provider:    "mistral",
		Temperature: DefaultTemperature,
	})
}
