package cli

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/grimoire/internal/core/domain"
	"github.com/custodia-labs/grimoire/internal/core/ports/driving"
)

// MockRetrievalService implements driving.RetrievalService for testing.
type MockRetrievalService struct {
	SearchFunc func(ctx context.Context, query string, k int) ([]domain.ScoredPassage, error)
	SourceFunc func(ctx context.Context, path string, limit int) ([]domain.Passage, error)
}

func (m *MockRetrievalService) SearchByText(ctx context.Context, query string, k int) ([]domain.ScoredPassage, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, k)
	}
	return []domain.ScoredPassage{}, nil
}

func (m *MockRetrievalService) FilterFunctionResults(_ string, results []domain.ScoredPassage) []domain.ScoredPassage {
	return results
}

func (m *MockRetrievalService) FunctionPassages(context.Context, string) ([]domain.ScoredPassage, float64, error) {
	return nil, 0, nil
}

func (m *MockRetrievalService) PassagesBySource(ctx context.Context, path string, limit int) ([]domain.Passage, error) {
	if m.SourceFunc != nil {
		return m.SourceFunc(ctx, path, limit)
	}
	return []domain.Passage{}, nil
}

func (m *MockRetrievalService) Threshold() float64 {
	return 0.6
}

// MockValidationService implements driving.ValidationService for testing.
type MockValidationService struct {
	ValidateFunc func(ctx context.Context, snippet, intent string) (*domain.ValidationResult, error)
}

func (m *MockValidationService) Validate(ctx context.Context, snippet, intent string) (*domain.ValidationResult, error) {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, snippet, intent)
	}
	return &domain.ValidationResult{Confidence: 1}, nil
}

// MockCorrectionService implements driving.CorrectionService for testing.
type MockCorrectionService struct {
	ExplainFunc func(ctx context.Context, result *domain.ValidationResult) (*domain.Explanation, error)
}

func (m *MockCorrectionService) Explain(ctx context.Context, result *domain.ValidationResult) (*domain.Explanation, error) {
	if m.ExplainFunc != nil {
		return m.ExplainFunc(ctx, result)
	}
	return &domain.Explanation{Text: "Close the block with $endif."}, nil
}

// MockFunctionService implements driving.FunctionService for testing.
type MockFunctionService struct {
	DescribeFunc func(ctx context.Context, name string) (*domain.FunctionDoc, error)
}

func (m *MockFunctionService) Describe(ctx context.Context, name string) (*domain.FunctionDoc, error) {
	if m.DescribeFunc != nil {
		return m.DescribeFunc(ctx, name)
	}
	return &domain.FunctionDoc{Function: name}, nil
}

// MockAnswerService implements driving.AnswerService for testing.
type MockAnswerService struct {
	AskFunc func(ctx context.Context, question string, opts driving.AskOptions) (*domain.Answer, error)
}

func (m *MockAnswerService) Ask(ctx context.Context, question string, opts driving.AskOptions) (*domain.Answer, error) {
	if m.AskFunc != nil {
		return m.AskFunc(ctx, question, opts)
	}
	return &domain.Answer{Text: "No documentation covers that."}, nil
}

// MockIngestService implements driving.IngestService for testing.
type MockIngestService struct {
	IngestPathFunc func(ctx context.Context, root string) (*domain.IngestReport, error)
	WatchFunc      func(ctx context.Context, root string, onChange func(domain.FileChange)) error
}

func (m *MockIngestService) IngestPath(ctx context.Context, root string) (*domain.IngestReport, error) {
	if m.IngestPathFunc != nil {
		return m.IngestPathFunc(ctx, root)
	}
	return &domain.IngestReport{}, nil
}

func (m *MockIngestService) IngestDocument(context.Context, *domain.RawDocument) (*domain.IngestReport, error) {
	return &domain.IngestReport{}, nil
}

func (m *MockIngestService) Watch(ctx context.Context, root string, onChange func(domain.FileChange)) error {
	if m.WatchFunc != nil {
		return m.WatchFunc(ctx, root, onChange)
	}
	return nil
}

// MockStatsService implements driving.StatsService for testing.
type MockStatsService struct {
	StatsFunc func(ctx context.Context) (*domain.IndexStats, error)
}

func (m *MockStatsService) Stats(ctx context.Context) (*domain.IndexStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return &domain.IndexStats{}, nil
}

// MockSettingsService implements driving.SettingsService for testing.
type MockSettingsService struct {
	Settings    *domain.AppSettings
	ValidateErr error
	SetValueErr error
	Values      map[string]string
}

func (m *MockSettingsService) Get() (*domain.AppSettings, error) {
	if m.Settings != nil {
		return m.Settings, nil
	}
	s := domain.DefaultAppSettings()
	return &s, nil
}

func (m *MockSettingsService) Save(*domain.AppSettings) error { return nil }

func (m *MockSettingsService) SetEmbeddingProvider(domain.AIProvider, string, string) error {
	return nil
}

func (m *MockSettingsService) SetLLMProvider(domain.AIProvider, string, string) error { return nil }

func (m *MockSettingsService) SetValue(key, value string) error {
	if m.SetValueErr != nil {
		return m.SetValueErr
	}
	if m.Values == nil {
		m.Values = make(map[string]string)
	}
	m.Values[key] = value
	return nil
}

func (m *MockSettingsService) Validate() error { return m.ValidateErr }

func (m *MockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *MockSettingsService) Keys() []string {
	return []string{"llm.model", "retrieval.similarity_threshold", "retrieval.top_k"}
}

func (m *MockSettingsService) ValidateEmbeddingConfig() error { return nil }

func (m *MockSettingsService) ValidateLLMConfig() error { return nil }

// newTestServices returns a set of mock services with default behaviour.
func newTestServices() *Services {
	return &Services{
		Retrieval:  &MockRetrievalService{},
		Validation: &MockValidationService{},
		Correction: &MockCorrectionService{},
		Function:   &MockFunctionService{},
		Answer:     &MockAnswerService{},
		Ingest:     &MockIngestService{},
		Stats:      &MockStatsService{},
		Settings:   &MockSettingsService{},
	}
}

// setupTestServices injects default mocks and returns a cleanup that
// clears them and restores flag values.
func setupTestServices() func() {
	return useServices(newTestServices())
}

// useServices injects s and returns a cleanup.
func useServices(s *Services) func() {
	SetServices(s)
	return func() {
		SetServices(nil)
		resetFlags()
	}
}

func resetFlags() {
	searchLimit = 8
	searchJSON = false
	validateIntent = ""
	validateExplain = false
	validateJSON = false
	functionJSON = false
	askCode = false
	askMaxTokens = 0
	ingestWatch = false
	mcpPort = 0
	mcpHost = "127.0.0.1"
}

// execute runs the root command with args and returns its combined output.
func execute(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(stdin)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetHelpFlags(rootCmd)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetHelpFlags clears cobra's --help flag, which otherwise stays set on a
// command after a "--help" run and leaks into later tests.
func resetHelpFlags(cmd *cobra.Command) {
	if f := cmd.Flags().Lookup("help"); f != nil {
		_ = f.Value.Set("false")
		f.Changed = false
	}
	for _, c := range cmd.Commands() {
		resetHelpFlags(c)
	}
}
