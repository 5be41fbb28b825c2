// Package openai provides an LLM service adapter for OpenAI-compatible chat
// APIs. Other providers that speak the same wire format (Mistral, local
// gateways) reuse it with their own base URL and defaults.
package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	gopenai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/grimoire/internal/adapters/driven/openaicompat"
	"github.com/custodia-labs/grimoire/internal/core/domain"
	"github.com/custodia-labs/grimoire/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultLLMModel   = "gpt-4o-mini"
	DefaultLLMTimeout = 120 * time.Second
	DefaultProvider   = "openai"
)

// LLMConfig holds configuration for an OpenAI-compatible LLM service.
type LLMConfig struct {
	// APIKey is the provider API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Model is the chat model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// Provider prefixes error messages (default: openai).
	Provider string

	// Temperature is used when a call does not set one. Zero leaves the
	// provider default in place.
	Temperature float64
}

// LLMService answers prompts through a chat completions endpoint.
type LLMService struct {
	client      *gopenai.Client
	model       string
	provider    string
	temperature float64
}

// NewLLMService creates a new OpenAI-compatible LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.Provider == "" {
		cfg.Provider = DefaultProvider
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: API key is required: %w", cfg.Provider, domain.ErrGenerationUnavailable)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	return &LLMService{
		client:      openaicompat.NewClient(cfg.APIKey, cfg.BaseURL, cfg.Timeout),
		model:       cfg.Model,
		provider:    cfg.Provider,
		temperature: cfg.Temperature,
	}, nil
}

// Generate produces text completion from a prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	req := s.request(
		[]driven.ChatMessage{{Role: gopenai.ChatMessageRoleUser, Content: prompt}},
		opts.MaxTokens,
		opts.Temperature,
	)
	req.Stop = opts.StopWords
	return s.complete(ctx, req)
}

// Chat conducts a multi-turn conversation.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	return s.complete(ctx, s.request(messages, opts.MaxTokens, opts.Temperature))
}

func (s *LLMService) request(messages []driven.ChatMessage, maxTokens int, temperature float64) gopenai.ChatCompletionRequest {
	msgs := make([]gopenai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		msgs[i] = gopenai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	req := gopenai.ChatCompletionRequest{
		Model:    s.model,
		Messages: msgs,
	}

	// Reasoning models take max_completion_tokens and a fixed temperature.
	if openaicompat.ReasoningModel(s.model) {
		req.MaxCompletionTokens = driven.ClampTokens(maxTokens)
		return req
	}

	if temperature <= 0 {
		temperature = s.temperature
	}
	req.MaxTokens = driven.ClampTokens(maxTokens)
	req.Temperature = float32(temperature)
	return req
}

func (s *LLMService) complete(ctx context.Context, req gopenai.ChatCompletionRequest) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s: %s: %w", s.provider, openaicompat.Describe(err), domain.ErrGenerationUnavailable)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: no response choices returned: %w", s.provider, domain.ErrGenerationUnavailable)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the API key by listing models, without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.client.ListModels(ctx); err != nil {
		return fmt.Errorf("%s: ping failed: %s: %w", s.provider, openaicompat.Describe(err), domain.ErrGenerationUnavailable)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
