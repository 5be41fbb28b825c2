package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/grimoire/internal/core/domain"
	"github.com/custodia-labs/grimoire/internal/core/ports/driven"
	"github.com/custodia-labs/grimoire/internal/core/ports/driving"
)

const sendQuestion = "How do I send a message?"

func sendRetrieval() *mockRetrieval {
	return &mockRetrieval{
		threshold: 0.60,
		searches: map[string][]domain.ScoredPassage{
			sendQuestion: {
				scored("/website/docs/functions/sendMessage.md", "$sendMessage[text] sends text.", 0.91234),
				scored("functions/sendMessage.md", "Example: $sendMessage[hi]", 0.8),
				scored("/website/docs/functions/sendMessage.md", "More text.", 0.7),
			},
		},
	}
}

func TestAnswerService_Ask_Documented(t *testing.T) {
	llm := &mockLLM{reply: "Use $sendMessage[text]."}
	svc := NewAnswerService(sendRetrieval(), llm, domain.RetrievalSettings{})

	answer, err := svc.Ask(context.Background(), sendQuestion, driving.AskOptions{})

	require.NoError(t, err)
	assert.True(t, answer.Documented)
	assert.Equal(t, "Use $sendMessage[text].", answer.Text)
	assert.Empty(t, answer.Code)
	assert.InDelta(t, 0.9123, answer.Confidence, 1e-9)
	assert.Equal(t, []string{"docs/functions/sendMessage.md", "functions/sendMessage.md"}, answer.Sources)

	require.Len(t, llm.messages, 2)
	assert.Equal(t, "system", llm.messages[0].Role)
	assert.Contains(t, llm.messages[0].Content, "Source 1 (docs/functions/sendMessage.md):\n$sendMessage[text] sends text.")
	assert.Contains(t, llm.messages[0].Content, "Source 2 (functions/sendMessage.md)")
	assert.Equal(t, "user", llm.messages[1].Role)
	assert.True(t, strings.HasPrefix(llm.messages[1].Content, sendQuestion+"\n\n"))
	assert.Equal(t, 350, llm.chatOpts.MaxTokens)
	assert.InDelta(t, 0.2, llm.chatOpts.Temperature, 1e-9)
}

func TestAnswerService_Ask_Refuses(t *testing.T) {
	tests := []struct {
		name       string
		results    []domain.ScoredPassage
		confidence float64
	}{
		{name: "no results", confidence: 0},
		{
			name:       "below threshold",
			results:    []domain.ScoredPassage{scored("functions/x.md", "x", 0.41239)},
			confidence: 0.4124,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retrieval := &mockRetrieval{
				threshold: 0.60,
				searches:  map[string][]domain.ScoredPassage{"what is x": tt.results},
			}
			llm := &mockLLM{reply: "should not be used"}
			svc := NewAnswerService(retrieval, llm, domain.RetrievalSettings{})

			answer, err := svc.Ask(context.Background(), "what is x", driving.AskOptions{})

			require.NoError(t, err)
			assert.False(t, answer.Documented)
			assert.Equal(t, NotDocumented, answer.Text)
			assert.InDelta(t, tt.confidence, answer.Confidence, 1e-9)
			assert.Empty(t, answer.Sources)
			assert.Nil(t, llm.messages)
		})
	}
}

func TestAnswerService_Ask_RefusesWithoutLLM(t *testing.T) {
	retrieval := &mockRetrieval{threshold: 0.60}
	svc := NewAnswerService(retrieval, nil, domain.RetrievalSettings{})

	answer, err := svc.Ask(context.Background(), "anything", driving.AskOptions{})

	require.NoError(t, err)
	assert.Equal(t, NotDocumented, answer.Text)
}

func TestAnswerService_Ask_CodeMode(t *testing.T) {
	llm := &mockLLM{reply: "Here you go:\n```aoi\n$sendMessage[hi]\n```\nDone."}
	svc := NewAnswerService(sendRetrieval(), llm, domain.RetrievalSettings{})

	answer, err := svc.Ask(context.Background(), sendQuestion, driving.AskOptions{Code: true})

	require.NoError(t, err)
	assert.Equal(t, "```aoi\n$sendMessage[hi]\n```", answer.Code)
	assert.Equal(t, 400, llm.chatOpts.MaxTokens)
	assert.Contains(t, llm.messages[1].Content, "single fenced code block")
}

func TestAnswerService_Ask_CodeModeWithoutFence(t *testing.T) {
	llm := &mockLLM{reply: "$sendMessage[hi]"}
	svc := NewAnswerService(sendRetrieval(), llm, domain.RetrievalSettings{})

	answer, err := svc.Ask(context.Background(), sendQuestion, driving.AskOptions{Code: true})

	require.NoError(t, err)
	assert.Equal(t, "$sendMessage[hi]", answer.Code)
}

func TestAnswerService_Ask_MaxTokens(t *testing.T) {
	tests := []struct {
		requested int
		want      int
	}{
		{requested: 0, want: 350},
		{requested: 120, want: 120},
		{requested: 5000, want: driven.MaxGenerationTokens},
	}

	for _, tt := range tests {
		llm := &mockLLM{reply: "ok"}
		svc := NewAnswerService(sendRetrieval(), llm, domain.RetrievalSettings{})

		_, err := svc.Ask(context.Background(), sendQuestion, driving.AskOptions{MaxTokens: tt.requested})

		require.NoError(t, err)
		assert.Equal(t, tt.want, llm.chatOpts.MaxTokens, "requested %d", tt.requested)
	}
}

func TestAnswerService_Ask_ContextChunks(t *testing.T) {
	llm := &mockLLM{reply: "ok"}
	svc := NewAnswerService(sendRetrieval(), llm, domain.RetrievalSettings{ContextChunks: 1})

	answer, err := svc.Ask(context.Background(), sendQuestion, driving.AskOptions{})

	require.NoError(t, err)
	assert.Equal(t, []string{"docs/functions/sendMessage.md"}, answer.Sources)
	assert.NotContains(t, llm.messages[0].Content, "Source 2")
}

func TestAnswerService_Ask_PromptStore(t *testing.T) {
	llm := &mockLLM{reply: "ok"}
	svc := NewAnswerService(sendRetrieval(), llm, domain.RetrievalSettings{})
	svc.SetPromptStore(&mockPromptStore{prompts: map[string]string{
		driven.PromptAnswerSystem: "DOCS ONLY\n%s",
	}})

	_, err := svc.Ask(context.Background(), sendQuestion, driving.AskOptions{})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(llm.messages[0].Content, "DOCS ONLY\nSource 1"))
}

func TestAnswerService_Ask_PromptStoreFailureFallsBack(t *testing.T) {
	llm := &mockLLM{reply: "ok"}
	svc := NewAnswerService(sendRetrieval(), llm, domain.RetrievalSettings{})
	svc.SetPromptStore(&mockPromptStore{err: errors.New("disk gone")})

	_, err := svc.Ask(context.Background(), sendQuestion, driving.AskOptions{})

	require.NoError(t, err)
	assert.Contains(t, llm.messages[0].Content, "Answer using ONLY the documentation context below.")
	assert.Contains(t, llm.messages[0].Content, "Source 1")
}

func TestAnswerService_Ask_Errors(t *testing.T) {
	t.Run("empty question", func(t *testing.T) {
		svc := NewAnswerService(sendRetrieval(), &mockLLM{}, domain.RetrievalSettings{})
		_, err := svc.Ask(context.Background(), " \n\t ", driving.AskOptions{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("question that sanitises to nothing", func(t *testing.T) {
		svc := NewAnswerService(sendRetrieval(), &mockLLM{}, domain.RetrievalSettings{})
		_, err := svc.Ask(context.Background(), "```rm -rf```", driving.AskOptions{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("retrieval failure", func(t *testing.T) {
		retrieval := sendRetrieval()
		retrieval.searchErr = domain.ErrEmbeddingUnavailable
		svc := NewAnswerService(retrieval, &mockLLM{}, domain.RetrievalSettings{})
		_, err := svc.Ask(context.Background(), sendQuestion, driving.AskOptions{})
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})

	t.Run("no llm", func(t *testing.T) {
		svc := NewAnswerService(sendRetrieval(), nil, domain.RetrievalSettings{})
		_, err := svc.Ask(context.Background(), sendQuestion, driving.AskOptions{})
		assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	})

	t.Run("llm failure", func(t *testing.T) {
		llm := &mockLLM{err: domain.ErrGenerationUnavailable}
		svc := NewAnswerService(sendRetrieval(), llm, domain.RetrievalSettings{})
		_, err := svc.Ask(context.Background(), sendQuestion, driving.AskOptions{})
		assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
	})
}
