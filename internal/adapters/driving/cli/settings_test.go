package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/grimoire/internal/core/domain"
)

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func configuredSettings() *domain.AppSettings {
	s := domain.DefaultAppSettings()
	s.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "nomic-embed-text", BaseURL: "http://localhost:11434"}
	s.LLM = domain.LLMSettings{Provider: domain.AIProviderOpenAI, Model: "gpt-4o-mini"}
	return &s
}

func TestSettingsCmd_Show(t *testing.T) {
	cleanup := useServices(&Services{Settings: &MockSettingsService{Settings: configuredSettings()}})
	defer cleanup()

	out, err := execute(t, nil, "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "[Embedding]")
	assert.Contains(t, out, "Provider: Ollama (local)")
	assert.Contains(t, out, "Base URL: http://localhost:11434")
	assert.Contains(t, out, "API Key: (not set, or export OPENAI_API_KEY)")
	assert.Contains(t, out, "Status: not configured")
	assert.Contains(t, out, "Similarity threshold: 0.60")
	assert.Contains(t, out, "Function keep: 12")
	assert.Contains(t, out, "Include: **/*.md, **/*.mdx")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsCmd_ShowWarning(t *testing.T) {
	cleanup := useServices(&Services{Settings: &MockSettingsService{
		Settings:    configuredSettings(),
		ValidateErr: errors.New("LLM provider not configured"),
	}})
	defer cleanup()

	out, err := execute(t, nil, "settings")

	require.NoError(t, err)
	assert.Contains(t, out, "Warning: LLM provider not configured")
	assert.Contains(t, out, "grimoire settings wizard")
}

func TestSettingsCmd_Set(t *testing.T) {
	svc := &MockSettingsService{}
	cleanup := useServices(&Services{Settings: svc})
	defer cleanup()

	out, err := execute(t, nil, "settings", "set", "retrieval.similarity_threshold", "0.55")

	require.NoError(t, err)
	assert.Contains(t, out, "Set retrieval.similarity_threshold")
	assert.Equal(t, "0.55", svc.Values["retrieval.similarity_threshold"])
}

func TestSettingsCmd_SetError(t *testing.T) {
	cleanup := useServices(&Services{Settings: &MockSettingsService{SetValueErr: errors.New("unknown key")}})
	defer cleanup()

	_, err := execute(t, nil, "settings", "set", "bogus", "1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to set bogus: unknown key")
}

func TestSettingsCmd_SetKeyUnknownRole(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, nil, "settings", "set-key", "vector")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider role")
}

func TestSettingsCmd_NotConfigured(t *testing.T) {
	cleanup := useServices(nil)
	defer cleanup()

	for _, args := range [][]string{
		{"settings", "show"},
		{"settings", "set", "a", "b"},
		{"settings", "wizard"},
		{"settings", "embedding"},
		{"settings", "llm"},
	} {
		_, err := execute(t, nil, args...)
		require.Error(t, err, args)
		assert.Contains(t, err.Error(), "settings service not configured")
	}
}

func TestSettingsCmd_EmbeddingLocalProvider(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, strings.NewReader("1\n\n"), "settings", "embedding")

	require.NoError(t, err)
	assert.Contains(t, out, "Validating configuration... OK")
	assert.Contains(t, out, "Embedding provider configured: Ollama (local) (nomic-embed-text)")
}

func TestSettingsCmd_WizardSkipsLLM(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, strings.NewReader("1\ncustom-embed\nn\n"), "settings", "wizard")

	require.NoError(t, err)
	assert.Contains(t, out, "Embedding provider configured: Ollama (local) (custom-embed)")
	assert.Contains(t, out, "Skipped.")
	assert.Contains(t, out, "All settings are valid and saved.")
}

func TestSettingsCmd_Keys(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, nil, "settings", "keys")

	require.NoError(t, err)
	assert.Contains(t, out, "llm.model\nretrieval.similarity_threshold\nretrieval.top_k\n")
}

func TestSettingsCmd_KeysNotConfigured(t *testing.T) {
	cleanup := useServices(nil)
	defer cleanup()

	_, err := execute(t, nil, "settings", "keys")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "settings service not configured")
}

func TestCompleteSettingKeys(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	keys, directive := completeSettingKeys(settingsSetCmd, nil, "retrieval.")
	assert.Equal(t, []string{"retrieval.similarity_threshold", "retrieval.top_k"}, keys)
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)

	keys, _ = completeSettingKeys(settingsSetCmd, []string{"retrieval.top_k"}, "")
	assert.Empty(t, keys)
}

func TestSettingsCmd_SetKeyFromInput(t *testing.T) {
	svc := &MockSettingsService{}
	cleanup := useServices(&Services{Settings: svc})
	defer cleanup()

	out, err := execute(t, strings.NewReader("sk-abcdefghijkl\n"), "settings", "set-key", "llm")

	require.NoError(t, err)
	assert.Contains(t, out, "Stored llm API key: sk-a...ijkl")
	assert.Equal(t, "sk-abcdefghijkl", svc.Values["llm.api_key"])
}

func TestSettingsCmd_SetKeyEmpty(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, strings.NewReader("\n"), "settings", "set-key", "embedding")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}

func TestSettingsCmd_LLMHostedProviderNeedsKey(t *testing.T) {
	t.Setenv("MISTRAL_API_KEY", "")
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, strings.NewReader("3\n\n\n"), "settings", "llm")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs an API key")
}

func TestSettingsCmd_LLMHostedProviderKeyFromInput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, strings.NewReader("2\n\nsk-abcdefghijkl\n"), "settings", "llm")

	require.NoError(t, err)
	assert.Contains(t, out, "LLM provider configured: OpenAI (cloud) (gpt-4o-mini)")
}
