package services

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/grimoire/internal/core/domain"
	"github.com/custodia-labs/grimoire/internal/core/ports/driven"
)

// --- Mock implementations ---

// letterEmbedder implements driven.EmbeddingService with a deterministic
// letter-frequency vector. Identical texts embed identically.
type letterEmbedder struct {
	mu      sync.Mutex
	calls   int
	failOn  string
	err     error
	emptyOn string
}

func (e *letterEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	if e.err != nil {
		return nil, e.err
	}
	if e.failOn != "" && strings.Contains(text, e.failOn) {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if e.emptyOn != "" && strings.Contains(text, e.emptyOn) {
		return nil, nil
	}

	vec := make([]float32, 37)
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z':
			vec[r-'a']++
		case r >= '0' && r <= '9':
			vec[26+r-'0']++
		case r == '$':
			vec[36]++
		}
	}
	return vec, nil
}

func (e *letterEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *letterEmbedder) Dimensions() int              { return 37 }
func (e *letterEmbedder) ModelName() string            { return "letters" }
func (e *letterEmbedder) Ping(_ context.Context) error { return nil }
func (e *letterEmbedder) Close() error                 { return nil }

func (e *letterEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// mockLLM implements driven.LLMService and records what it was asked.
type mockLLM struct {
	reply    string
	err      error
	prompt   string
	messages []driven.ChatMessage
	chatOpts driven.ChatOptions
	genOpts  driven.GenerateOptions
}

func (m *mockLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.prompt = prompt
	m.genOpts = opts
	return m.reply, m.err
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.messages = messages
	m.chatOpts = opts
	return m.reply, m.err
}

func (m *mockLLM) ModelName() string            { return "mock" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

// functionHit is a canned FunctionPassages answer.
type functionHit struct {
	kept []domain.ScoredPassage
	top  float64
}

// mockRetrieval implements driving.RetrievalService with canned answers.
type mockRetrieval struct {
	threshold   float64
	functions   map[string]functionHit
	functionErr error
	searches    map[string][]domain.ScoredPassage
	searchErr   error
	bySource    map[string][]domain.Passage
	queries     []string
	lookups     []string
}

func (m *mockRetrieval) SearchByText(_ context.Context, query string, k int) ([]domain.ScoredPassage, error) {
	m.queries = append(m.queries, query)
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	results := m.searches[query]
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (m *mockRetrieval) FilterFunctionResults(_ string, results []domain.ScoredPassage) []domain.ScoredPassage {
	return results
}

func (m *mockRetrieval) FunctionPassages(ctx context.Context, name string) ([]domain.ScoredPassage, float64, error) {
	m.lookups = append(m.lookups, name)
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if m.functionErr != nil {
		return nil, 0, m.functionErr
	}
	hit := m.functions[strings.ToLower(strings.TrimPrefix(name, "$"))]
	return hit.kept, hit.top, nil
}

func (m *mockRetrieval) PassagesBySource(_ context.Context, sourcePath string, _ int) ([]domain.Passage, error) {
	return m.bySource[sourcePath], nil
}

func (m *mockRetrieval) Threshold() float64 {
	return m.threshold
}

// mockPromptStore implements driven.PromptStore.
type mockPromptStore struct {
	prompts map[string]string
	err     error
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.prompts[name], nil
}

func (m *mockPromptStore) Reload() {}

// mockIngestLog implements driven.IngestLog.
type mockIngestLog struct {
	runs   []domain.IngestRun
	pruned int
}

func (m *mockIngestLog) RecordRun(_ context.Context, run *domain.IngestRun) error {
	m.runs = append(m.runs, *run)
	return nil
}

func (m *mockIngestLog) RecentRuns(_ context.Context, limit int) ([]domain.IngestRun, error) {
	if limit > len(m.runs) {
		limit = len(m.runs)
	}
	return m.runs[:limit], nil
}

func (m *mockIngestLog) PruneRuns(_ context.Context, keep int) error {
	m.pruned = keep
	return nil
}

// --- Helpers ---

func scored(source, content string, score float64) domain.ScoredPassage {
	return domain.ScoredPassage{
		Passage: domain.Passage{SourcePath: source, Content: content, Fingerprint: source + content},
		Score:   score,
	}
}

// documentedAt returns a retrieval that documents every named function.
func documentedAt(score float64, names ...string) *mockRetrieval {
	r := &mockRetrieval{threshold: 0.60, functions: make(map[string]functionHit)}
	for _, n := range names {
		r.functions[strings.ToLower(n)] = functionHit{
			kept: []domain.ScoredPassage{scored("functions/"+strings.ToLower(n)+".md", "$"+n+"[]", score)},
			top:  score,
		}
	}
	return r
}
