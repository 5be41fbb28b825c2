package services

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/custodia-labs/grimoire/internal/core/domain"
	"github.com/custodia-labs/grimoire/internal/core/ports/driven"
	"github.com/custodia-labs/grimoire/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyTopK            = "retrieval.top_k"
	keyThreshold       = "retrieval.similarity_threshold"
	keyContextChunks   = "retrieval.context_chunks"
	keyMaxContextChars = "retrieval.max_context_chars"
	keyFunctionTopK    = "validator.function_top_k"
	keyFunctionKeep    = "validator.function_keep"
	keyIngestInclude   = "ingest.include"
	keyIngestDelay     = "ingest.delay_ms"
	keyChunkerMinChars = "chunker.min_chars"
	keyChunkerMaxChars = "chunker.max_chars"
	keyPipelineProcs   = "pipeline.processors"
)

// Environment overrides.
const (
	envThreshold = "GRIMOIRE_SIMILARITY_THRESHOLD"
	envTopK      = "GRIMOIRE_TOP_K"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// valueKind is how SetValue parses a string for a key.
type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindList
	kindProvider
)

// settableKeys lists the keys SetValue accepts.
var settableKeys = map[string]valueKind{
	keyEmbedProvider:   kindProvider,
	keyEmbedModel:      kindString,
	keyEmbedBaseURL:    kindString,
	keyEmbedAPIKey:     kindString,
	keyLLMProvider:     kindProvider,
	keyLLMModel:        kindString,
	keyLLMBaseURL:      kindString,
	keyLLMAPIKey:       kindString,
	keyTopK:            kindInt,
	keyThreshold:       kindFloat,
	keyContextChunks:   kindInt,
	keyMaxContextChars: kindInt,
	keyFunctionTopK:    kindInt,
	keyFunctionKeep:    kindInt,
	keyIngestInclude:   kindList,
	keyIngestDelay:     kindInt,
	keyChunkerMinChars: kindInt,
	keyChunkerMaxChars: kindInt,
	keyPipelineProcs:   kindList,
}

// SettableKeys returns the keys accepted by SetValue, sorted.
func SettableKeys() []string {
	keys := make([]string, 0, len(settableKeys))
	for k := range settableKeys {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings. Missing API keys fall back
// to the provider's environment variable; GRIMOIRE_* variables override
// the retrieval threshold and top-k.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider),
			Model:    s.configStore.GetString(keyEmbedModel),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL),
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider),
			Model:    s.configStore.GetString(keyLLMModel),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:                s.getInt(keyTopK, defaults.Retrieval.TopK),
			SimilarityThreshold: s.getFloat(keyThreshold, defaults.Retrieval.SimilarityThreshold),
			ContextChunks:       s.getInt(keyContextChunks, defaults.Retrieval.ContextChunks),
			MaxContextChars:     s.getInt(keyMaxContextChars, defaults.Retrieval.MaxContextChars),
		},
		Validator: domain.ValidatorSettings{
			FunctionTopK: s.getInt(keyFunctionTopK, defaults.Validator.FunctionTopK),
			FunctionKeep: s.getInt(keyFunctionKeep, defaults.Validator.FunctionKeep),
		},
		Ingest: domain.IngestSettings{
			Include: s.getStringSlice(keyIngestInclude, defaults.Ingest.Include),
			DelayMs: s.getInt(keyIngestDelay, defaults.Ingest.DelayMs),
		},
	}

	if settings.Embedding.Model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	}
	if settings.LLM.Model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
	}
	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = envKey(settings.Embedding.Provider)
	}
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = envKey(settings.LLM.Provider)
	}

	if v := os.Getenv(envThreshold); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q", domain.ErrInvalidInput, envThreshold, v)
		}
		settings.Retrieval.SimilarityThreshold = f
	}
	if v := os.Getenv(envTopK); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: %s=%q", domain.ErrInvalidInput, envTopK, v)
		}
		settings.Retrieval.TopK = n
	}

	return settings, nil
}

func envKey(p domain.AIProvider) string {
	if name := p.APIKeyEnv(); name != "" {
		return strings.Trim(strings.TrimSpace(os.Getenv(name)), `"'`)
	}
	return ""
}

// Save persists application settings. API keys that came from the
// environment are not written to the config file.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key string
		val any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyTopK, settings.Retrieval.TopK},
		{keyThreshold, settings.Retrieval.SimilarityThreshold},
		{keyContextChunks, settings.Retrieval.ContextChunks},
		{keyMaxContextChars, settings.Retrieval.MaxContextChars},
		{keyFunctionTopK, settings.Validator.FunctionTopK},
		{keyFunctionKeep, settings.Validator.FunctionKeep},
		{keyIngestInclude, settings.Ingest.Include},
		{keyIngestDelay, settings.Ingest.DelayMs},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.val); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if key := settings.Embedding.APIKey; key != "" && key != envKey(settings.Embedding.Provider) {
		if err := s.configStore.Set(keyEmbedAPIKey, key); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedAPIKey, err)
		}
	}
	if key := settings.LLM.APIKey; key != "" && key != envKey(settings.LLM.Provider) {
		if err := s.configStore.Set(keyLLMAPIKey, key); err != nil {
			return fmt.Errorf("save %s: %w", keyLLMAPIKey, err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings: %w", provider, domain.ErrUnsupportedType)
	}
	if apiKey == "" {
		apiKey = envKey(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = model
	if model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}
	if provider.IsLocal() {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = defaultOllamaBaseURL
		}
	} else {
		settings.Embedding.BaseURL = ""
	}
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if !slices.Contains(domain.AllLLMProviders(), provider) {
		return fmt.Errorf("provider %s does not support text generation: %w", provider, domain.ErrUnsupportedType)
	}
	if apiKey == "" {
		apiKey = envKey(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = model
	if model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}
	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = defaultOllamaBaseURL
		}
	} else {
		settings.LLM.BaseURL = ""
	}
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetValue parses value for a known key and stores it.
func (s *SettingsService) SetValue(key, value string) error {
	kind, ok := settableKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	value = strings.TrimSpace(value)

	var parsed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < -1 || f > 1 {
			return fmt.Errorf("%w: %s must be a number between -1 and 1", domain.ErrInvalidInput, key)
		}
		parsed = f
	case kindList:
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		parsed = items
	case kindProvider:
		p := domain.AIProvider(strings.ToLower(value))
		if !p.IsValid() {
			return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, value)
		}
		parsed = p.String()
	default:
		parsed = value
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Validate checks that the settings can drive retrieval: an embedding
// provider is configured and the providers fit their roles.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider is not configured: %w", domain.ErrEmbeddingUnavailable)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), settings.Embedding.Provider) {
		return fmt.Errorf("provider %s does not support embeddings: %w",
			settings.Embedding.Provider, domain.ErrUnsupportedType)
	}
	if settings.LLM.Provider != "" && !slices.Contains(domain.AllLLMProviders(), settings.LLM.Provider) {
		return fmt.Errorf("provider %s does not support text generation: %w",
			settings.LLM.Provider, domain.ErrUnsupportedType)
	}

	r := settings.Retrieval
	if r.SimilarityThreshold < -1 || r.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: similarity threshold %v outside [-1, 1]", domain.ErrInvalidInput, r.SimilarityThreshold)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Keys lists the dotted keys SetValue accepts, sorted.
func (s *SettingsService) Keys() []string {
	return SettableKeys()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(context.Background(), &settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(context.Background(), &settings.LLM)
}

// GetPipelineConfig returns the post-processor pipeline configuration.
// Returns default configuration if nothing is configured.
func (s *SettingsService) GetPipelineConfig() domain.PipelineConfig {
	cfg := domain.DefaultPipelineConfig()

	if processors := s.configStore.GetStringSlice(keyPipelineProcs); len(processors) > 0 {
		cfg.Processors = processors
	}

	chunker := cfg.ProcessorConfigs["chunker"]
	if n := s.configStore.GetInt(keyChunkerMinChars); n > 0 {
		chunker["min_chars"] = n
	}
	if n := s.configStore.GetInt(keyChunkerMaxChars); n > 0 {
		chunker["max_chars"] = n
	}

	return cfg
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getStringSlice(key string, defaultVal []string) []string {
	val := s.configStore.GetStringSlice(key)
	if len(val) == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getProvider(key string) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(key))
	if !provider.IsValid() {
		return ""
	}
	return provider
}
