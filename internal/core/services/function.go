package services

import (
	"context"
	"fmt"
	"math"

	"github.com/custodia-labs/grimoire/internal/core/domain"
	"github.com/custodia-labs/grimoire/internal/core/ports/driven"
	"github.com/custodia-labs/grimoire/internal/core/ports/driving"
	"github.com/custodia-labs/grimoire/internal/docmeta"
	"github.com/custodia-labs/grimoire/internal/logger"
)

// Ensure FunctionService implements the interface.
var _ driving.FunctionService = (*FunctionService)(nil)

// FunctionService builds documentation cards for individual functions.
type FunctionService struct {
	retrieval driving.RetrievalService
}

// NewFunctionService creates a new function lookup service.
func NewFunctionService(retrieval driving.RetrievalService) *FunctionService {
	return &FunctionService{retrieval: retrieval}
}

// Describe builds a documentation card for a function name.
// Below the similarity threshold the card is empty apart from its confidence.
func (s *FunctionService) Describe(ctx context.Context, name string) (*domain.FunctionDoc, error) {
	name = docmeta.NormalizeName(name)
	if name == "" {
		return nil, fmt.Errorf("%w: invalid function name", domain.ErrInvalidInput)
	}

	kept, top, err := s.retrieval.FunctionPassages(ctx, name)
	if err != nil {
		return nil, err
	}
	top = math.Round(top*10000) / 10000

	if len(kept) == 0 || top < s.retrieval.Threshold() {
		logger.Debug("No documentation for $%s (top %.4f)", name, top)
		return &domain.FunctionDoc{Function: name, Confidence: top}, nil
	}

	passages := make([]domain.Passage, len(kept))
	for i, sp := range kept {
		passages[i] = sp.Passage
	}

	doc := docmeta.Extract(name, passages)
	if !doc.HasParamDescriptions() {
		if extra := s.sameFilePassages(ctx, passages); len(extra) > 0 {
			doc = docmeta.Extract(name, append(passages, extra...))
		}
	}
	doc.Confidence = top
	return doc, nil
}

// sameFilePassages loads every stored passage of the files the kept
// passages came from. Lookup failures only cost enrichment.
func (s *FunctionService) sameFilePassages(ctx context.Context, passages []domain.Passage) []domain.Passage {
	seen := make(map[string]bool)
	var extra []domain.Passage
	for _, p := range passages {
		if p.SourcePath == "" || seen[p.SourcePath] {
			continue
		}
		seen[p.SourcePath] = true

		rows, err := s.retrieval.PassagesBySource(ctx, p.SourcePath, driven.DefaultSourceLimit)
		if err != nil {
			logger.Debug("Enrichment from %s skipped: %v", p.SourcePath, err)
			continue
		}
		extra = append(extra, rows...)
	}
	return extra
}
