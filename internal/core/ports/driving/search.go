package driving

import (
	"context"

	"github.com/custodia-labs/grimoire/internal/core/domain"
)

// RetrievalService provides similarity search over ingested documentation.
type RetrievalService interface {
	// SearchByText embeds the query once and returns the k most similar passages.
	// A non-positive k uses the configured default.
	SearchByText(ctx context.Context, query string, k int) ([]domain.ScoredPassage, error)

	// FilterFunctionResults keeps results that look like the documentation
	// page of the named function. Order is preserved.
	FilterFunctionResults(name string, results []domain.ScoredPassage) []domain.ScoredPassage

	// FunctionPassages retrieves and filters passages for a function name.
	// Returns the kept passages and the best score among them.
	FunctionPassages(ctx context.Context, name string) ([]domain.ScoredPassage, float64, error)

	// PassagesBySource returns passages from one document in insertion order.
	PassagesBySource(ctx context.Context, sourcePath string, limit int) ([]domain.Passage, error)

	// Threshold returns the similarity score at which a match counts as documentation.
	Threshold() float64
}
