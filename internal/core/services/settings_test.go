package services

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/grimoire/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/grimoire/internal/core/domain"
)

// clearEnv blanks every variable the settings service reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{envThreshold, envTopK, "OPENAI_API_KEY", "GEMINI_API_KEY", "MISTRAL_API_KEY"} {
		t.Setenv(name, "")
	}
}

type mockAIValidator struct {
	embedding *domain.EmbeddingSettings
	llm       *domain.LLMSettings
	err       error
}

func (m *mockAIValidator) ValidateEmbedding(_ context.Context, cfg *domain.EmbeddingSettings) error {
	m.embedding = cfg
	return m.err
}

func (m *mockAIValidator) ValidateLLM(_ context.Context, cfg *domain.LLMSettings) error {
	m.llm = cfg
	return m.err
}

func TestSettingsService_Get_Defaults(t *testing.T) {
	clearEnv(t)
	svc := NewSettingsService(memory.NewConfigStore(), nil)

	settings, err := svc.Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Retrieval, settings.Retrieval)
	assert.Equal(t, defaults.Validator, settings.Validator)
	assert.Equal(t, defaults.Ingest, settings.Ingest)
	assert.Empty(t, settings.Embedding.Provider)
	assert.Empty(t, settings.LLM.Provider)
	assert.False(t, settings.Embedding.IsConfigured())
}

func TestSettingsService_Get_StoredValues(t *testing.T) {
	clearEnv(t)
	store := memory.NewConfigStore(map[string]any{
		keyEmbedProvider: "ollama",
		keyLLMProvider:   "mistral",
		keyLLMAPIKey:     "stored-key",
		keyTopK:          int64(3),
		keyThreshold:     0.72,
		keyIngestInclude: []string{"docs/**/*.md"},
		keyFunctionKeep:  5,
	})
	svc := NewSettingsService(store, nil)

	settings, err := svc.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
	assert.Equal(t, domain.AIProviderMistral, settings.LLM.Provider)
	assert.Equal(t, "mistral-small-latest", settings.LLM.Model)
	assert.Equal(t, "stored-key", settings.LLM.APIKey)
	assert.Equal(t, 3, settings.Retrieval.TopK)
	assert.InDelta(t, 0.72, settings.Retrieval.SimilarityThreshold, 1e-9)
	assert.Equal(t, []string{"docs/**/*.md"}, settings.Ingest.Include)
	assert.Equal(t, 5, settings.Validator.FunctionKeep)
	assert.Equal(t, 40, settings.Validator.FunctionTopK)
}

func TestSettingsService_Get_InvalidProviderIgnored(t *testing.T) {
	clearEnv(t)
	store := memory.NewConfigStore(map[string]any{keyEmbedProvider: "cohere"})

	settings, err := NewSettingsService(store, nil).Get()

	require.NoError(t, err)
	assert.Empty(t, settings.Embedding.Provider)
}

func TestSettingsService_Get_APIKeyFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", ` "sk-env" `)
	store := memory.NewConfigStore(map[string]any{keyEmbedProvider: "openai"})

	settings, err := NewSettingsService(store, nil).Get()

	require.NoError(t, err)
	assert.Equal(t, "sk-env", settings.Embedding.APIKey)
	assert.Equal(t, "text-embedding-3-small", settings.Embedding.Model)
	assert.True(t, settings.Embedding.IsConfigured())
}

func TestSettingsService_Get_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(envThreshold, "0.7")
	t.Setenv(envTopK, "4")
	store := memory.NewConfigStore(map[string]any{keyThreshold: 0.5, keyTopK: 10})

	settings, err := NewSettingsService(store, nil).Get()

	require.NoError(t, err)
	assert.InDelta(t, 0.7, settings.Retrieval.SimilarityThreshold, 1e-9)
	assert.Equal(t, 4, settings.Retrieval.TopK)
}

func TestSettingsService_Get_ZeroThreshold(t *testing.T) {
	clearEnv(t)
	store := memory.NewConfigStore(map[string]any{keyThreshold: 0.0})

	settings, err := NewSettingsService(store, nil).Get()

	require.NoError(t, err)
	assert.Zero(t, settings.Retrieval.SimilarityThreshold)
	assert.Equal(t, 8, settings.Retrieval.TopK)

	svc := NewRetrievalService(nil, nil, settings.Retrieval, settings.Validator)
	assert.Zero(t, svc.Threshold())
}

func TestSettingsService_Get_InvalidEnvironment(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		value string
	}{
		{name: "threshold not a number", env: envThreshold, value: "high"},
		{name: "top k not a number", env: envTopK, value: "many"},
		{name: "top k zero", env: envTopK, value: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.env, tt.value)

			_, err := NewSettingsService(memory.NewConfigStore(), nil).Get()

			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestSettingsService_Save_SkipsEnvironmentKeys(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")
	store := memory.NewConfigStore()
	svc := NewSettingsService(store, nil)

	settings := domain.DefaultAppSettings()
	settings.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, APIKey: "sk-env"}
	settings.LLM = domain.LLMSettings{Provider: domain.AIProviderMistral, APIKey: "mistral-key"}

	require.NoError(t, svc.Save(&settings))

	_, hasEmbedKey := store.Get(keyEmbedAPIKey)
	assert.False(t, hasEmbedKey)
	assert.Equal(t, "mistral-key", store.GetString(keyLLMAPIKey))
	assert.Equal(t, "openai", store.GetString(keyEmbedProvider))
	assert.Equal(t, 8, store.GetInt(keyTopK))
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	clearEnv(t)

	t.Run("ollama gets local base url", func(t *testing.T) {
		store := memory.NewConfigStore()
		svc := NewSettingsService(store, nil)

		require.NoError(t, svc.SetEmbeddingProvider(domain.AIProviderOllama, "", ""))

		settings, err := svc.Get()
		require.NoError(t, err)
		assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
		assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
		assert.Equal(t, defaultOllamaBaseURL, settings.Embedding.BaseURL)
	})

	t.Run("gemini with key", func(t *testing.T) {
		store := memory.NewConfigStore()
		svc := NewSettingsService(store, nil)

		require.NoError(t, svc.SetEmbeddingProvider(domain.AIProviderGemini, "custom-model", "g-key"))

		settings, err := svc.Get()
		require.NoError(t, err)
		assert.Equal(t, "custom-model", settings.Embedding.Model)
		assert.Equal(t, "g-key", settings.Embedding.APIKey)
		assert.Empty(t, settings.Embedding.BaseURL)
	})

	t.Run("cloud provider without key", func(t *testing.T) {
		svc := NewSettingsService(memory.NewConfigStore(), nil)
		assert.Error(t, svc.SetEmbeddingProvider(domain.AIProviderOpenAI, "", ""))
	})

	t.Run("llm-only provider", func(t *testing.T) {
		svc := NewSettingsService(memory.NewConfigStore(), nil)
		err := svc.SetEmbeddingProvider(domain.AIProviderMistral, "", "k")
		assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	})

	t.Run("unknown provider", func(t *testing.T) {
		svc := NewSettingsService(memory.NewConfigStore(), nil)
		assert.Error(t, svc.SetEmbeddingProvider(domain.AIProvider("cohere"), "", "k"))
	})
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	clearEnv(t)

	t.Run("mistral from environment key", func(t *testing.T) {
		t.Setenv("MISTRAL_API_KEY", "m-env")
		store := memory.NewConfigStore()
		svc := NewSettingsService(store, nil)

		require.NoError(t, svc.SetLLMProvider(domain.AIProviderMistral, "", ""))

		settings, err := svc.Get()
		require.NoError(t, err)
		assert.Equal(t, domain.AIProviderMistral, settings.LLM.Provider)
		assert.Equal(t, "m-env", settings.LLM.APIKey)
		_, stored := store.Get(keyLLMAPIKey)
		assert.False(t, stored)
	})

	t.Run("embedding-only provider", func(t *testing.T) {
		svc := NewSettingsService(memory.NewConfigStore(), nil)
		err := svc.SetLLMProvider(domain.AIProviderGemini, "", "k")
		assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	})
}

func TestSettingsService_SetValue(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		want    any
		wantErr bool
	}{
		{name: "int", key: keyTopK, value: " 12 ", want: 12},
		{name: "negative int", key: keyTopK, value: "-1", wantErr: true},
		{name: "not an int", key: keyIngestDelay, value: "soon", wantErr: true},
		{name: "float", key: keyThreshold, value: "0.55", want: 0.55},
		{name: "float out of range", key: keyThreshold, value: "1.2", wantErr: true},
		{name: "list", key: keyIngestInclude, value: "**/*.md, ,docs/*.mdx", want: []string{"**/*.md", "docs/*.mdx"}},
		{name: "provider", key: keyEmbedProvider, value: "OpenAI", want: "openai"},
		{name: "bad provider", key: keyLLMProvider, value: "cohere", wantErr: true},
		{name: "string", key: keyLLMModel, value: "gpt-4o", want: "gpt-4o"},
		{name: "unknown key", key: "retrieval.magic", value: "1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			svc := NewSettingsService(store, nil)

			err := svc.SetValue(tt.key, tt.value)

			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				_, exists := store.Get(tt.key)
				assert.False(t, exists)
				return
			}
			require.NoError(t, err)
			got, _ := store.Get(tt.key)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSettingsService_Validate(t *testing.T) {
	t.Run("no embedding provider", func(t *testing.T) {
		clearEnv(t)
		err := NewSettingsService(memory.NewConfigStore(), nil).Validate()
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})

	t.Run("ollama is enough", func(t *testing.T) {
		clearEnv(t)
		store := memory.NewConfigStore(map[string]any{keyEmbedProvider: "ollama"})
		assert.NoError(t, NewSettingsService(store, nil).Validate())
	})

	t.Run("embedding provider without embeddings", func(t *testing.T) {
		clearEnv(t)
		store := memory.NewConfigStore(map[string]any{keyEmbedProvider: "mistral", keyEmbedAPIKey: "k"})
		err := NewSettingsService(store, nil).Validate()
		assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	})

	t.Run("llm provider without generation", func(t *testing.T) {
		clearEnv(t)
		store := memory.NewConfigStore(map[string]any{keyEmbedProvider: "ollama", keyLLMProvider: "gemini"})
		err := NewSettingsService(store, nil).Validate()
		assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	})

	t.Run("threshold out of range", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(envThreshold, "1.5")
		store := memory.NewConfigStore(map[string]any{keyEmbedProvider: "ollama"})
		err := NewSettingsService(store, nil).Validate()
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestSettingsService_ValidateProviderConfigs(t *testing.T) {
	clearEnv(t)
	store := memory.NewConfigStore(map[string]any{
		keyEmbedProvider: "ollama",
		keyLLMProvider:   "openai",
		keyLLMAPIKey:     "sk",
	})
	validator := &mockAIValidator{}
	svc := NewSettingsService(store, validator)

	require.NoError(t, svc.ValidateEmbeddingConfig())
	require.NoError(t, svc.ValidateLLMConfig())

	require.NotNil(t, validator.embedding)
	assert.Equal(t, domain.AIProviderOllama, validator.embedding.Provider)
	require.NotNil(t, validator.llm)
	assert.Equal(t, "gpt-4o-mini", validator.llm.Model)

	assert.NoError(t, NewSettingsService(store, nil).ValidateEmbeddingConfig())
}

func TestSettingsService_GetPipelineConfig(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		keyChunkerMinChars: 400,
		keyPipelineProcs:   []string{"chunker", "dedupe"},
	})

	cfg := NewSettingsService(store, nil).GetPipelineConfig()

	assert.Equal(t, []string{"chunker", "dedupe"}, cfg.Processors)
	assert.Equal(t, 400, cfg.GetProcessorConfig("chunker")["min_chars"])
	assert.Equal(t, 3500, cfg.GetProcessorConfig("chunker")["max_chars"])
}

func TestSettableKeys(t *testing.T) {
	keys := SettableKeys()

	assert.True(t, slices.IsSorted(keys))
	assert.Contains(t, keys, keyThreshold)
	assert.Len(t, keys, len(settableKeys))
}
