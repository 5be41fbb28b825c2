package driving

import (
	"context"

	"github.com/custodia-labs/grimoire/internal/core/domain"
)

// AskOptions configures a question.
type AskOptions struct {
	// Code requests a code answer. The first fenced block is extracted.
	Code bool

	// MaxTokens bounds the reply. Values above the provider cap are clamped.
	MaxTokens int
}

// AnswerService answers questions using only retrieved documentation.
type AnswerService interface {
	// Ask answers a question or refuses when documentation is insufficient.
	Ask(ctx context.Context, question string, opts AskOptions) (*domain.Answer, error)
}

// FunctionService describes individual DSL functions.
type FunctionService interface {
	// Describe builds a documentation card for a function name, with or
	// without its sigil.
	Describe(ctx context.Context, name string) (*domain.FunctionDoc, error)
}
