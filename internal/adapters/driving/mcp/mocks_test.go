package mcp

import (
	"context"

	"github.com/custodia-labs/grimoire/internal/core/domain"
	"github.com/custodia-labs/grimoire/internal/core/ports/driving"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	results  []domain.ScoredPassage
	passages []domain.Passage
	err      error
	lastK    int
}

func (m *mockRetrievalService) SearchByText(_ context.Context, _ string, k int) ([]domain.ScoredPassage, error) {
	m.lastK = k
	return m.results, m.err
}

func (m *mockRetrievalService) FilterFunctionResults(_ string, results []domain.ScoredPassage) []domain.ScoredPassage {
	return results
}

func (m *mockRetrievalService) FunctionPassages(_ context.Context, _ string) ([]domain.ScoredPassage, float64, error) {
	return m.results, 0, m.err
}

func (m *mockRetrievalService) PassagesBySource(_ context.Context, _ string, _ int) ([]domain.Passage, error) {
	return m.passages, m.err
}

func (m *mockRetrievalService) Threshold() float64 {
	return 0.6
}

// mockValidationService is a mock implementation of driving.ValidationService.
type mockValidationService struct {
	result *domain.ValidationResult
	err    error
}

func (m *mockValidationService) Validate(_ context.Context, _, _ string) (*domain.ValidationResult, error) {
	return m.result, m.err
}

// mockCorrectionService is a mock implementation of driving.CorrectionService.
type mockCorrectionService struct {
	explanation *domain.Explanation
	err         error
	calls       int
}

func (m *mockCorrectionService) Explain(_ context.Context, _ *domain.ValidationResult) (*domain.Explanation, error) {
	m.calls++
	return m.explanation, m.err
}

// mockFunctionService is a mock implementation of driving.FunctionService.
type mockFunctionService struct {
	doc  *domain.FunctionDoc
	err  error
	name string
}

func (m *mockFunctionService) Describe(_ context.Context, name string) (*domain.FunctionDoc, error) {
	m.name = name
	return m.doc, m.err
}

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer *domain.Answer
	err    error
	opts   driving.AskOptions
}

func (m *mockAnswerService) Ask(_ context.Context, _ string, opts driving.AskOptions) (*domain.Answer, error) {
	m.opts = opts
	return m.answer, m.err
}

// mockStatsService is a mock implementation of driving.StatsService.
type mockStatsService struct {
	stats *domain.IndexStats
	err   error
}

func (m *mockStatsService) Stats(_ context.Context) (*domain.IndexStats, error) {
	return m.stats, m.err
}
