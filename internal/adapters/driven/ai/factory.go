// Package ai builds the embedding and LLM adapters named in the settings
// and checks that their providers answer.
package ai

import (
	"context"
	"fmt"
	"time"

	geminiembed "github.com/custodia-labs/grimoire/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/custodia-labs/grimoire/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/grimoire/internal/adapters/driven/embedding/openai"
	mistralllm "github.com/custodia-labs/grimoire/internal/adapters/driven/llm/mistral"
	ollamallm "github.com/custodia-labs/grimoire/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/grimoire/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/grimoire/internal/core/domain"
	"github.com/custodia-labs/grimoire/internal/core/ports/driven"
)

// pingTimeout bounds each connectivity check.
const pingTimeout = 5 * time.Second

// InitResult holds the AI services and stores the commands run against.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	VectorIndex      driven.VectorIndex
	PromptStore      driven.PromptStore
	Warnings         []string // non-fatal, e.g. an unreachable LLM
}

// Close releases the services in r.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.VectorIndex != nil {
		r.VectorIndex.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// embedders and generators map each provider to its adapter constructor.
// A provider missing from one map has no adapter for that role.
var embedders = map[domain.AIProvider]func(*domain.EmbeddingSettings) (driven.EmbeddingService, error){
	domain.AIProviderOllama: func(s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{BaseURL: s.BaseURL, Model: s.Model}), nil
	},
	domain.AIProviderOpenAI: func(s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		return openaiembed.NewEmbeddingService(openaiembed.Config{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model})
	},
	domain.AIProviderGemini: func(s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		return geminiembed.NewEmbeddingService(geminiembed.Config{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model})
	},
}

var generators = map[domain.AIProvider]func(*domain.LLMSettings) (driven.LLMService, error){
	domain.AIProviderOllama: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return ollamallm.NewLLMService(ollamallm.LLMConfig{BaseURL: s.BaseURL, Model: s.Model}), nil
	},
	domain.AIProviderOpenAI: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return openaillm.NewLLMService(openaillm.LLMConfig{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model})
	},
	domain.AIProviderMistral: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return mistralllm.NewLLMService(mistralllm.LLMConfig{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model})
	},
}

// CreateEmbeddingService builds the embedding adapter for settings without
// contacting the provider.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, fmt.Errorf("embedding provider not configured: %w", domain.ErrEmbeddingUnavailable)
	}
	build, ok := embedders[settings.Provider]
	if !ok {
		return nil, fmt.Errorf("%q has no embedding adapter (supported: %v): %w",
			settings.Provider, domain.AllEmbeddingProviders(), domain.ErrUnsupportedType)
	}
	return build(settings)
}

// CreateLLMService builds the LLM adapter for settings without contacting
// the provider.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, fmt.Errorf("LLM provider not configured: %w", domain.ErrLLMUnavailable)
	}
	build, ok := generators[settings.Provider]
	if !ok {
		return nil, fmt.Errorf("%q has no generation adapter (supported: %v): %w",
			settings.Provider, domain.AllLLMProviders(), domain.ErrUnsupportedType)
	}
	return build(settings)
}

// CreateAndValidateEmbeddingService builds the embedding adapter and pings
// it. An unconfigured provider gives nil, nil: search then reports that no
// embedding service is available.
func CreateAndValidateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'grimoire settings set embedding.provider' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}
	if err := ping(ctx, svc); err != nil {
		return nil, fmt.Errorf("%w: %s unreachable (%w)", domain.ErrEmbeddingUnavailable, settings.Provider, err)
	}
	return svc, nil
}

// CreateAndValidateLLMService is CreateAndValidateEmbeddingService for the
// generator. Without one, answers and explanations are unavailable.
func CreateAndValidateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'grimoire settings set llm.provider' to fix",
			domain.ErrLLMUnavailable, err)
	}
	if err := ping(ctx, svc); err != nil {
		return nil, fmt.Errorf("%w: %s unreachable (%w)", domain.ErrLLMUnavailable, settings.Provider, err)
	}
	return svc, nil
}

// ValidateEmbeddingConfig checks settings by building a throwaway adapter
// and pinging it.
func ValidateEmbeddingConfig(ctx context.Context, settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	if err := ping(ctx, svc); err != nil {
		return err
	}
	return svc.Close()
}

// ValidateLLMConfig checks settings by building a throwaway adapter and
// pinging it.
func ValidateLLMConfig(ctx context.Context, settings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}
	svc, err := CreateLLMService(settings)
	if err != nil {
		return err
	}
	if err := ping(ctx, svc); err != nil {
		return err
	}
	return svc.Close()
}

type pinger interface {
	Ping(ctx context.Context) error
	Close() error
}

// ping checks svc within pingTimeout and closes it on failure.
func ping(ctx context.Context, svc pinger) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return err
	}
	return nil
}
