// Package ollama provides an LLM service adapter using Ollama.
package ollama

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/grimoire/internal/adapters/driven/ollamaapi"
	"github.com/custodia-labs/grimoire/internal/core/domain"
	"github.com/custodia-labs/grimoire/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = ollamaapi.DefaultBaseURL
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig holds configuration for the Ollama LLM service.
type LLMConfig struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the LLM model to use (default: llama3.2).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService answers prompts with a local Ollama model.
type LLMService struct {
	api   *ollamaapi.Client
	model string
}

type generateRequest struct {
	Model   string            `json:"model"`
	Prompt  string            `json:"prompt"`
	Stream  bool              `json:"stream"`
	Options ollamaapi.Options `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
}

type chatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaapi.Message `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  ollamaapi.Options   `json:"options"`
}

type chatResponse struct {
	Message ollamaapi.Message `json:"message"`
}

// NewLLMService creates a new Ollama LLM service.
func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	return &LLMService{
		api:   ollamaapi.New(cfg.BaseURL, cfg.Timeout),
		model: cfg.Model,
	}
}

// Generate produces text completion from a prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	req := generateRequest{
		Model:  s.model,
		Prompt: prompt,
		Options: ollamaapi.Options{
			NumPredict:  driven.ClampTokens(opts.MaxTokens),
			Temperature: opts.Temperature,
			Stop:        opts.StopWords,
		},
	}

	var resp generateResponse
	if err := s.api.Post(ctx, "/api/generate", req, &resp); err != nil {
		return "", fmt.Errorf("ollama: %w: %w", domain.ErrGenerationUnavailable, err)
	}
	return strings.TrimSpace(resp.Response), nil
}

// Chat conducts a multi-turn conversation.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	req := chatRequest{
		Model:    s.model,
		Messages: make([]ollamaapi.Message, len(messages)),
		Options: ollamaapi.Options{
			NumPredict:  driven.ClampTokens(opts.MaxTokens),
			Temperature: opts.Temperature,
		},
	}
	for i, m := range messages {
		req.Messages[i] = ollamaapi.Message{Role: m.Role, Content: m.Content}
	}

	var resp chatResponse
	if err := s.api.Post(ctx, "/api/chat", req, &resp); err != nil {
		return "", fmt.Errorf("ollama: %w: %w", domain.ErrGenerationUnavailable, err)
	}
	return strings.TrimSpace(resp.Message.Content), nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping checks Ollama is reachable and the chat model is pulled.
func (s *LLMService) Ping(ctx context.Context) error {
	if err := s.api.EnsureModel(ctx, s.model); err != nil {
		return fmt.Errorf("ollama: ping failed: %w: %w", domain.ErrGenerationUnavailable, err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
