package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/grimoire/internal/core/domain"
	"github.com/custodia-labs/grimoire/internal/core/ports/driven"
	"github.com/custodia-labs/grimoire/internal/core/ports/driving"
	"github.com/custodia-labs/grimoire/internal/dsl"
	"github.com/custodia-labs/grimoire/internal/logger"
)

// Ensure CorrectionService implements the interfaces.
var (
	_ driving.CorrectionService = (*CorrectionService)(nil)
	_ driven.PromptStoreAware   = (*CorrectionService)(nil)
)

// functionContextK is the number of passages fetched per documented function.
const functionContextK = 6

// NoIssues is the explanation given for a result without errors.
const NoIssues = "No issues found."

// CorrectionService asks the LLM to explain validator findings, and to
// propose a corrected snippet when the user's intent asks for one.
type CorrectionService struct {
	promptLoader
	retrieval  driving.RetrievalService
	llmService driven.LLMService
	settings   domain.RetrievalSettings
}

// NewCorrectionService creates a new correction service.
func NewCorrectionService(
	retrieval driving.RetrievalService,
	llmService driven.LLMService,
	settings domain.RetrievalSettings,
) *CorrectionService {
	defaults := domain.DefaultRetrievalSettings()
	if settings.TopK <= 0 {
		settings.TopK = defaults.TopK
	}
	if settings.ContextChunks <= 0 {
		settings.ContextChunks = defaults.ContextChunks
	}
	if settings.MaxContextChars <= 0 {
		settings.MaxContextChars = defaults.MaxContextChars
	}
	return &CorrectionService{
		retrieval:  retrieval,
		llmService: llmService,
		settings:   settings,
	}
}

// Explain describes the errors in a validation result. Without an intent
// the findings themselves are used as the retrieval query.
func (s *CorrectionService) Explain(ctx context.Context, result *domain.ValidationResult) (*domain.Explanation, error) {
	if result == nil {
		return nil, fmt.Errorf("%w: no validation result", domain.ErrInvalidInput)
	}
	if result.Valid() {
		return &domain.Explanation{Text: NoIssues}, nil
	}
	if s.llmService == nil {
		return nil, domain.ErrLLMUnavailable
	}

	logger.Section("Correction")

	query := result.Intent
	if query == "" {
		query = SanitizeQuestion(strings.Join(result.Errors, " "))
	}

	passages, err := s.retrieval.SearchByText(ctx, query, s.settings.TopK)
	if err != nil {
		return nil, fmt.Errorf("retrieve intent context: %w", err)
	}
	for _, fn := range result.DocumentedFunctions {
		if len(passages) >= s.settings.ContextChunks {
			break
		}
		more, err := s.retrieval.SearchByText(ctx, fn, functionContextK)
		if err != nil {
			logger.Debug("Context for %s skipped: %v", fn, err)
			continue
		}
		passages = append(passages, more...)
	}
	if len(passages) > s.settings.ContextChunks {
		passages = passages[:s.settings.ContextChunks]
	}

	findings := make([]string, len(result.Errors))
	for i, e := range result.Errors {
		findings[i] = "- " + e
	}

	prompt := render(s.load(driven.PromptValidateExplain),
		contextBlock(passages, s.settings.MaxContextChars),
		result.NormalizedInput,
		strings.Join(findings, "\n"),
		result.Intent,
	)

	done := logger.Timed("LLM explain")
	text, err := s.llmService.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   driven.MaxGenerationTokens,
		Temperature: 0.2,
	})
	done()
	if err != nil {
		return nil, fmt.Errorf("explain: %w", err)
	}

	explanation := &domain.Explanation{
		Text:    text,
		Sources: sourcesOf(passages),
	}
	if dsl.IsCorrective(result.Intent) {
		explanation.Code = extractCode(text)
	}
	return explanation, nil
}
