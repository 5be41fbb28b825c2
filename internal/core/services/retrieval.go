package services

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/custodia-labs/grimoire/internal/core/domain"
	"github.com/custodia-labs/grimoire/internal/core/ports/driven"
	"github.com/custodia-labs/grimoire/internal/core/ports/driving"
	"github.com/custodia-labs/grimoire/internal/docmeta"
	"github.com/custodia-labs/grimoire/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// functionsSegment marks documentation pages that describe a single function.
const functionsSegment = "/functions/"

// RetrievalService embeds queries and searches the vector index.
type RetrievalService struct {
	vectorIndex      driven.VectorIndex
	embeddingService driven.EmbeddingService
	retrieval        domain.RetrievalSettings
	validator        domain.ValidatorSettings
}

// NewRetrievalService creates a new retrieval service.
// Zero-valued settings fall back to the defaults. A similarity threshold of
// zero is kept unless the whole retrieval block is unset.
func NewRetrievalService(
	vectorIndex driven.VectorIndex,
	embeddingService driven.EmbeddingService,
	retrieval domain.RetrievalSettings,
	validator domain.ValidatorSettings,
) *RetrievalService {
	defaults := domain.DefaultAppSettings()
	if retrieval == (domain.RetrievalSettings{}) {
		retrieval = defaults.Retrieval
	}
	if retrieval.TopK <= 0 {
		retrieval.TopK = defaults.Retrieval.TopK
	}
	if retrieval.ContextChunks <= 0 {
		retrieval.ContextChunks = defaults.Retrieval.ContextChunks
	}
	if retrieval.MaxContextChars <= 0 {
		retrieval.MaxContextChars = defaults.Retrieval.MaxContextChars
	}
	if validator.FunctionTopK <= 0 {
		validator.FunctionTopK = defaults.Validator.FunctionTopK
	}
	if validator.FunctionKeep <= 0 {
		validator.FunctionKeep = defaults.Validator.FunctionKeep
	}

	return &RetrievalService{
		vectorIndex:      vectorIndex,
		embeddingService: embeddingService,
		retrieval:        retrieval,
		validator:        validator,
	}
}

// Settings returns the effective retrieval settings.
func (s *RetrievalService) Settings() domain.RetrievalSettings {
	return s.retrieval
}

// Threshold returns the similarity score at which a match counts as documentation.
func (s *RetrievalService) Threshold() float64 {
	return s.retrieval.SimilarityThreshold
}

// SearchByText embeds the query once and returns the k most similar passages.
func (s *RetrievalService) SearchByText(ctx context.Context, query string, k int) ([]domain.ScoredPassage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if s.embeddingService == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.vectorIndex == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	if k <= 0 {
		k = s.retrieval.TopK
	}

	logger.Debug("Search %q (k=%d)", query, k)

	vec, err := s.embeddingService.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("embed query: %w", domain.ErrEmbeddingMalformed)
	}

	results, err := s.vectorIndex.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	if len(results) > 0 {
		logger.Debug("Top score %.4f across %d results", results[0].Score, len(results))
	}
	return results, nil
}

// FilterFunctionResults keeps results that look like the documentation page
// of the named function: the path lies under a functions directory, and the
// path, file name or content mentions the function.
func (s *RetrievalService) FilterFunctionResults(name string, results []domain.ScoredPassage) []domain.ScoredPassage {
	name = docmeta.NormalizeName(name)
	if name == "" {
		return nil
	}

	var kept []domain.ScoredPassage
	for _, r := range results {
		if isFunctionPage(name, r.Passage) {
			kept = append(kept, r)
		}
	}
	return kept
}

// isFunctionPage applies the function page heuristic to one passage.
// Paths are relative to the docs root, so a leading slash is assumed.
func isFunctionPage(name string, p domain.Passage) bool {
	lowerPath := strings.ToLower(p.SourcePath)
	if !strings.HasPrefix(lowerPath, "/") {
		lowerPath = "/" + lowerPath
	}
	if !strings.Contains(lowerPath, functionsSegment) {
		return false
	}

	return strings.Contains(lowerPath, name) ||
		strings.Contains(path.Base(lowerPath), name) ||
		strings.Contains(strings.ToLower(p.Content), "$"+name)
}

// FunctionPassages retrieves and filters passages for a function name.
func (s *RetrievalService) FunctionPassages(ctx context.Context, name string) ([]domain.ScoredPassage, float64, error) {
	name = docmeta.NormalizeName(name)
	if name == "" {
		return nil, 0, fmt.Errorf("%w: empty function name", domain.ErrInvalidInput)
	}

	results, err := s.SearchByText(ctx, "$"+name, s.validator.FunctionTopK)
	if err != nil {
		return nil, 0, err
	}

	kept := s.FilterFunctionResults(name, results)
	if len(kept) > s.validator.FunctionKeep {
		kept = kept[:s.validator.FunctionKeep]
	}

	var top float64
	if len(kept) > 0 {
		top = kept[0].Score
	}
	logger.Debug("Function $%s: %d/%d passages kept, top %.4f", name, len(kept), len(results), top)
	return kept, top, nil
}

// PassagesBySource returns passages from one document in insertion order.
func (s *RetrievalService) PassagesBySource(ctx context.Context, sourcePath string, limit int) ([]domain.Passage, error) {
	if s.vectorIndex == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	passages, err := s.vectorIndex.GetBySource(ctx, sourcePath, limit)
	if err != nil {
		return nil, fmt.Errorf("get passages for %s: %w", sourcePath, err)
	}
	return passages, nil
}
