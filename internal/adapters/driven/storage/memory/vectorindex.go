package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/grimoire/internal/core/domain"
	"github.com/custodia-labs/grimoire/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an in-memory driven.VectorIndex. Passages are kept in
// insertion order; fingerprints are unique.
type VectorIndex struct {
	mu       sync.RWMutex
	passages []domain.Passage
	byFP     map[string]int
}

// NewVectorIndex creates an empty in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{byFP: make(map[string]int)}
}

// Upsert inserts the passage unless its fingerprint is already present.
func (v *VectorIndex) Upsert(_ context.Context, p domain.Passage) (bool, error) {
	if p.Fingerprint == "" || len(p.Embedding) == 0 {
		return false, fmt.Errorf("passage needs fingerprint and embedding: %w", domain.ErrInvalidInput)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.byFP[p.Fingerprint]; ok {
		return false, nil
	}
	if len(v.passages) > 0 {
		if dim := len(v.passages[0].Embedding); dim != len(p.Embedding) {
			return false, fmt.Errorf("embedding has %d dimensions, index has %d: %w",
				len(p.Embedding), dim, domain.ErrInvalidInput)
		}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	if p.ID == "" {
		p.ID = p.Fingerprint
	}

	p.Embedding = append([]float32(nil), p.Embedding...)
	v.byFP[p.Fingerprint] = len(v.passages)
	v.passages = append(v.passages, p)
	return true, nil
}

// HasFingerprint reports whether a passage with the fingerprint exists.
func (v *VectorIndex) HasFingerprint(_ context.Context, fingerprint string) (bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.byFP[fingerprint]
	return ok, nil
}

// GetBySource returns passages for a document in insertion order.
func (v *VectorIndex) GetBySource(_ context.Context, sourcePath string, limit int) ([]domain.Passage, error) {
	if limit <= 0 {
		limit = driven.DefaultSourceLimit
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	var out []domain.Passage
	for _, p := range v.passages {
		if p.SourcePath != sourcePath {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Search scores every passage against the query and returns the top k.
func (v *VectorIndex) Search(ctx context.Context, query []float32, k int) ([]domain.ScoredPassage, error) {
	if k <= 0 {
		return nil, nil
	}

	v.mu.RLock()
	results := make([]domain.ScoredPassage, len(v.passages))
	for i, p := range v.passages {
		results[i] = domain.ScoredPassage{Passage: p, Score: domain.CosineSimilarity(query, p.Embedding)}
	}
	v.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Count returns the number of stored passages.
func (v *VectorIndex) Count(_ context.Context) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.passages), nil
}

// Close releases nothing.
func (v *VectorIndex) Close() error {
	return nil
}
