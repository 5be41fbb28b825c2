package services

import (
	"context"
	"fmt"
	"math"

	"github.com/custodia-labs/grimoire/internal/core/domain"
	"github.com/custodia-labs/grimoire/internal/core/ports/driving"
	"github.com/custodia-labs/grimoire/internal/dsl"
	"github.com/custodia-labs/grimoire/internal/logger"
)

// Ensure ValidationService implements the interface.
var _ driving.ValidationService = (*ValidationService)(nil)

// undocumentedPrefix starts the error reported for each function without documentation.
const undocumentedPrefix = "Undocumented function: "

// ValidationService checks snippets with the dsl package and looks up
// documentation coverage for every function they call.
type ValidationService struct {
	retrieval driving.RetrievalService
	dialect   dsl.Dialect
}

// NewValidationService creates a validation service for the default dialect.
func NewValidationService(retrieval driving.RetrievalService) *ValidationService {
	return &ValidationService{
		retrieval: retrieval,
		dialect:   dsl.Default(),
	}
}

// Validate checks a snippet, optionally wrapped in a code fence.
func (s *ValidationService) Validate(ctx context.Context, snippet, intent string) (*domain.ValidationResult, error) {
	logger.Section("Validation")

	code := dsl.Normalize(snippet)
	if code == "" {
		return nil, fmt.Errorf("%w: empty snippet", domain.ErrInvalidInput)
	}
	intent = SanitizeQuestion(intent)

	report := s.dialect.Analyze(code)
	logger.Debug("Parsed %d calls, %d functions", len(report.Calls), len(report.Functions))

	documented, undocumented, err := s.coverage(ctx, report.Functions)
	if err != nil {
		return nil, err
	}

	result := &domain.ValidationResult{
		Errors:                report.Errors,
		Warnings:              report.Warnings,
		DocumentedFunctions:   documented,
		UndocumentedFunctions: undocumented,
		Confidence:            confidence(len(documented), len(report.Functions)),
		NormalizedInput:       code,
		Intent:                intent,
	}
	for _, name := range undocumented {
		result.Errors = append(result.Errors, undocumentedPrefix+name)
	}

	if dsl.IsCorrective(intent) && report.OnlyUnclosedIfs() && len(undocumented) == 0 {
		if fixed, ok := s.dialect.RepairUnclosedIfs(code); ok {
			logger.Debug("Appended %d $endif", report.Flow.Ifs-report.Flow.EndIfs)
			result.CorrectedSnippet = &fixed
		}
	}

	logger.Info("Validation: %d errors, %d warnings, confidence %.4f",
		len(result.Errors), len(result.Warnings), result.Confidence)
	return result, nil
}

// coverage splits function names into documented and undocumented, in
// first-appearance order, rendered with the sigil.
func (s *ValidationService) coverage(ctx context.Context, functions []string) (documented, undocumented []string, err error) {
	if len(functions) == 0 {
		return nil, nil, nil
	}
	if s.retrieval == nil {
		return nil, nil, domain.ErrVectorIndexUnavailable
	}

	threshold := s.retrieval.Threshold()
	for _, name := range functions {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		kept, top, err := s.retrieval.FunctionPassages(ctx, name)
		if err != nil {
			return nil, nil, fmt.Errorf("documentation lookup for %s: %w", s.dialect.Display(name), err)
		}

		if len(kept) > 0 && top >= threshold {
			documented = append(documented, s.dialect.Display(name))
		} else {
			undocumented = append(undocumented, s.dialect.Display(name))
		}
	}
	return documented, undocumented, nil
}

// confidence is 0.5 plus half the documented share, rounded to four places.
func confidence(documented, total int) float64 {
	if total == 0 {
		return 0.5
	}
	c := 0.5 + 0.5*float64(documented)/float64(total)
	return math.Round(c*10000) / 10000
}
