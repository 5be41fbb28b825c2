package driving

import (
	"context"

	"github.com/custodia-labs/grimoire/internal/core/domain"
)

// ValidationService validates DSL snippets against structural rules and
// documentation coverage.
type ValidationService interface {
	// Validate checks a snippet, optionally wrapped in a code fence.
	// A corrective intent (fix, repair, ...) enables mechanical repair.
	Validate(ctx context.Context, snippet, intent string) (*domain.ValidationResult, error)
}

// CorrectionService asks the LLM to explain validator findings.
type CorrectionService interface {
	// Explain describes the errors in a validation result. When the intent
	// is corrective the explanation includes a proposed snippet.
	Explain(ctx context.Context, result *domain.ValidationResult) (*domain.Explanation, error)
}
