package ai

import (
	"context"
	"fmt"

	"github.com/custodia-labs/grimoire/internal/core/domain"
	"github.com/custodia-labs/grimoire/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// sampleText is embedded once to check the vector size a model returns.
const sampleText = "$sum[1;2]"

// ConfigValidator checks provider settings for the settings service. A known
// embedding model must return vectors of its listed size: passages indexed
// at one size cannot be searched at another.
type ConfigValidator struct{}

// NewConfigValidator returns a ConfigValidator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateEmbedding pings the provider and embeds a sample. It returns nil
// for unconfigured settings.
func (v *ConfigValidator) ValidateEmbedding(ctx context.Context, settings *domain.EmbeddingSettings) error {
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
	defer svc.Close()

	want, known := domain.EmbeddingDimensions()[svc.ModelName()]
	if !known {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	vec, err := svc.Embed(ctx, sampleText)
	if err != nil {
		return err
	}
	if len(vec) != want {
		return fmt.Errorf("%s returned %d-dimensional vectors, expected %d: %w",
			svc.ModelName(), len(vec), want, domain.ErrEmbeddingMalformed)
	}
	return nil
}

// ValidateLLM pings the provider. It returns nil for unconfigured settings.
func (v *ConfigValidator) ValidateLLM(ctx context.Context, settings *domain.LLMSettings) error {
	return ValidateLLMConfig(ctx, settings)
}
