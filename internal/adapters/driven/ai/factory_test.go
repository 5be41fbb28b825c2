package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/custodia-labs/grimoire/internal/core/domain"
)

func TestInitResult_Close(t *testing.T) {
	t.Run("close with nil services", func(t *testing.T) {
		result := &InitResult{}
		// Should not panic
		result.Close()
	})
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name      string
		settings  *domain.EmbeddingSettings
		wantErr   error
		wantModel string
	}{
		{
			name:     "nil settings",
			settings: nil,
			wantErr:  domain.ErrEmbeddingUnavailable,
		},
		{
			name:     "unconfigured settings",
			settings: &domain.EmbeddingSettings{},
			wantErr:  domain.ErrEmbeddingUnavailable,
		},
		{
			name:      "ollama",
			settings:  &domain.EmbeddingSettings{Provider: domain.AIProviderOllama},
			wantModel: "nomic-embed-text",
		},
		{
			name:      "openai",
			settings:  &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, APIKey: "k"},
			wantModel: "text-embedding-3-small",
		},
		{
			name:      "gemini",
			settings:  &domain.EmbeddingSettings{Provider: domain.AIProviderGemini, APIKey: "k"},
			wantModel: "text-embedding-004",
		},
		{
			name:     "mistral has no embedding adapter",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderMistral, APIKey: "k"},
			wantErr:  domain.ErrUnsupportedType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer svc.Close()
			if svc.ModelName() != tt.wantModel {
				t.Errorf("model = %q, want %q", svc.ModelName(), tt.wantModel)
			}
		})
	}
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name      string
		settings  *domain.LLMSettings
		wantErr   error
		wantModel string
	}{
		{
			name:     "unconfigured settings",
			settings: &domain.LLMSettings{Provider: domain.AIProviderOpenAI},
			wantErr:  domain.ErrLLMUnavailable,
		},
		{
			name:      "ollama",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderOllama},
			wantModel: "llama3.2",
		},
		{
			name:      "openai",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "k"},
			wantModel: "gpt-4o-mini",
		},
		{
			name:      "mistral",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderMistral, APIKey: "k", Model: "mistral-large-latest"},
			wantModel: "mistral-large-latest",
		},
		{
			name:     "gemini has no generation adapter",
			settings: &domain.LLMSettings{Provider: domain.AIProviderGemini, APIKey: "k"},
			wantErr:  domain.ErrUnsupportedType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(tt.settings)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer svc.Close()
			if svc.ModelName() != tt.wantModel {
				t.Errorf("model = %q, want %q", svc.ModelName(), tt.wantModel)
			}
		})
	}
}

func TestCreateAndValidateEmbeddingService(t *testing.T) {
	t.Run("unconfigured returns nil", func(t *testing.T) {
		svc, err := CreateAndValidateEmbeddingService(context.Background(), &domain.EmbeddingSettings{})
		if err != nil || svc != nil {
			t.Fatalf("expected nil, nil; got %v, %v", svc, err)
		}
	})

	t.Run("reachable ollama", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"models":[{"name":"nomic-embed-text:latest"}]}`))
		}))
		defer srv.Close()

		svc, err := CreateAndValidateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama,
			BaseURL:  srv.URL,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if svc == nil {
			t.Fatal("expected service")
		}
		svc.Close()
	})

	t.Run("model not pulled", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"models":[{"name":"llama3.2:latest"}]}`))
		}))
		defer srv.Close()

		_, err := CreateAndValidateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama,
			BaseURL:  srv.URL,
		})
		if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
			t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
		}
		if !strings.Contains(err.Error(), "ollama pull nomic-embed-text") {
			t.Errorf("expected a pull hint, got %v", err)
		}
	})

	t.Run("unreachable ollama", func(t *testing.T) {
		_, err := CreateAndValidateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama,
			BaseURL:  "http://127.0.0.1:1",
		})
		if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
			t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
		}
	})
}

func TestCreateAndValidateLLMService(t *testing.T) {
	t.Run("unconfigured returns nil", func(t *testing.T) {
		svc, err := CreateAndValidateLLMService(context.Background(), nil)
		if err != nil || svc != nil {
			t.Fatalf("expected nil, nil; got %v, %v", svc, err)
		}
	})

	t.Run("unsupported provider", func(t *testing.T) {
		_, err := CreateAndValidateLLMService(context.Background(), &domain.LLMSettings{
			Provider: domain.AIProviderGemini,
			APIKey:   "k",
		})
		if !errors.Is(err, domain.ErrLLMUnavailable) || !errors.Is(err, domain.ErrUnsupportedType) {
			t.Fatalf("expected ErrLLMUnavailable wrapping ErrUnsupportedType, got %v", err)
		}
	})

	t.Run("rejected key", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		_, err := CreateAndValidateLLMService(context.Background(), &domain.LLMSettings{
			Provider: domain.AIProviderOpenAI,
			APIKey:   "bad",
			BaseURL:  srv.URL,
		})
		if !errors.Is(err, domain.ErrLLMUnavailable) {
			t.Fatalf("expected ErrLLMUnavailable, got %v", err)
		}
	})
}

func TestValidateConfigs_Unconfigured(t *testing.T) {
	if err := ValidateEmbeddingConfig(context.Background(), nil); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateLLMConfig(context.Background(), &domain.LLMSettings{}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRegistriesCoverDomainProviders(t *testing.T) {
	for _, p := range domain.AllEmbeddingProviders() {
		if _, ok := embedders[p]; !ok {
			t.Errorf("no embedding adapter for %s", p)
		}
	}
	if len(embedders) != len(domain.AllEmbeddingProviders()) {
		t.Errorf("embedders has %d entries, domain lists %d", len(embedders), len(domain.AllEmbeddingProviders()))
	}
	for _, p := range domain.AllLLMProviders() {
		if _, ok := generators[p]; !ok {
			t.Errorf("no generation adapter for %s", p)
		}
	}
	if len(generators) != len(domain.AllLLMProviders()) {
		t.Errorf("generators has %d entries, domain lists %d", len(generators), len(domain.AllLLMProviders()))
	}
}

func TestValidateLLMConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3.2:latest"}]}`))
	}))
	defer srv.Close()

	err := ValidateLLMConfig(context.Background(), &domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = ValidateLLMConfig(context.Background(), &domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  srv.URL,
		Model:    "qwen2.5",
	})
	if err == nil {
		t.Fatal("expected an error for a model that is not pulled")
	}
}
