package driven

import (
	"context"

	"github.com/custodia-labs/grimoire/internal/core/domain"
)

// DefaultSourceLimit is used by GetBySource when no positive limit is given.
const DefaultSourceLimit = 50

// VectorIndex stores passages with their embeddings and answers
// brute-force cosine similarity queries.
type VectorIndex interface {
	// Upsert inserts the passage unless its fingerprint is already stored.
	// Returns true when a row was inserted. Concurrent upserts of the same
	// fingerprint insert exactly once.
	Upsert(ctx context.Context, p domain.Passage) (bool, error)

	// HasFingerprint reports whether a passage with the fingerprint exists.
	HasFingerprint(ctx context.Context, fingerprint string) (bool, error)

	// GetBySource returns passages for a document in insertion order.
	// A non-positive limit means DefaultSourceLimit.
	GetBySource(ctx context.Context, sourcePath string, limit int) ([]domain.Passage, error)

	// Search returns up to k passages ordered by descending cosine similarity,
	// ties broken by insertion order. Passages whose embedding cannot be
	// compared score 0.
	Search(ctx context.Context, query []float32, k int) ([]domain.ScoredPassage, error)

	// Count returns the number of stored passages.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
