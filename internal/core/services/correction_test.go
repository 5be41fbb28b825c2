package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/grimoire/internal/core/domain"
	"github.com/custodia-labs/grimoire/internal/core/ports/driven"
	"github.com/custodia-labs/grimoire/internal/dsl"
)

func failedResult(intent string) *domain.ValidationResult {
	return &domain.ValidationResult{
		Errors:              []string{dsl.MsgMismatchedIf},
		DocumentedFunctions: []string{"$sendMessage"},
		Confidence:          1,
		NormalizedInput:     "$if[1==1]\n$sendMessage[yes]",
		Intent:              intent,
	}
}

func correctionRetrieval() *mockRetrieval {
	return &mockRetrieval{
		threshold: 0.60,
		searches: map[string][]domain.ScoredPassage{
			"fix my if": {scored("guides/conditions.md", "Close every $if with $endif.", 0.8)},
			"$sendMessage": {
				scored("functions/sendMessage.md", "$sendMessage[text]", 0.9),
			},
			dsl.MsgMismatchedIf: {scored("guides/conditions.md", "Balance $if and $endif.", 0.7)},
		},
	}
}

func TestCorrectionService_Explain_WithIntent(t *testing.T) {
	retrieval := correctionRetrieval()
	llm := &mockLLM{reply: "The $if is never closed.\n```\n$if[1==1]\n$sendMessage[yes]\n$endif\n```"}
	svc := NewCorrectionService(retrieval, llm, domain.RetrievalSettings{})

	explanation, err := svc.Explain(context.Background(), failedResult("fix my if"))

	require.NoError(t, err)
	assert.Equal(t, llm.reply, explanation.Text)
	assert.Equal(t, "```\n$if[1==1]\n$sendMessage[yes]\n$endif\n```", explanation.Code)
	assert.Equal(t, []string{"guides/conditions.md", "functions/sendMessage.md"}, explanation.Sources)
	assert.Equal(t, []string{"fix my if", "$sendMessage"}, retrieval.queries)

	assert.Contains(t, llm.prompt, "Close every $if with $endif.")
	assert.Contains(t, llm.prompt, "$if[1==1]\n$sendMessage[yes]")
	assert.Contains(t, llm.prompt, "- "+dsl.MsgMismatchedIf)
	assert.Contains(t, llm.prompt, "Intent:\nfix my if")
	assert.Equal(t, driven.MaxGenerationTokens, llm.genOpts.MaxTokens)
	assert.InDelta(t, 0.2, llm.genOpts.Temperature, 1e-9)
}

func TestCorrectionService_Explain_WithoutIntentUsesFindings(t *testing.T) {
	retrieval := correctionRetrieval()
	llm := &mockLLM{reply: "Add $endif.\n```\n$endif\n```"}
	svc := NewCorrectionService(retrieval, llm, domain.RetrievalSettings{})

	explanation, err := svc.Explain(context.Background(), failedResult(""))

	require.NoError(t, err)
	assert.Equal(t, dsl.MsgMismatchedIf, retrieval.queries[0])
	assert.Empty(t, explanation.Code)
	assert.Contains(t, llm.prompt, "Balance $if and $endif.")
}

func TestCorrectionService_Explain_ContextChunks(t *testing.T) {
	retrieval := correctionRetrieval()
	llm := &mockLLM{reply: "ok"}
	svc := NewCorrectionService(retrieval, llm, domain.RetrievalSettings{ContextChunks: 1})

	explanation, err := svc.Explain(context.Background(), failedResult("fix my if"))

	require.NoError(t, err)
	assert.Equal(t, []string{"fix my if"}, retrieval.queries)
	assert.Equal(t, []string{"guides/conditions.md"}, explanation.Sources)
}

func TestCorrectionService_Explain_ValidResult(t *testing.T) {
	llm := &mockLLM{reply: "unused"}
	svc := NewCorrectionService(correctionRetrieval(), llm, domain.RetrievalSettings{})

	explanation, err := svc.Explain(context.Background(), &domain.ValidationResult{Confidence: 1})

	require.NoError(t, err)
	assert.Equal(t, NoIssues, explanation.Text)
	assert.Empty(t, llm.prompt)
}

func TestCorrectionService_Explain_PromptStore(t *testing.T) {
	llm := &mockLLM{reply: "ok"}
	svc := NewCorrectionService(correctionRetrieval(), llm, domain.RetrievalSettings{})
	svc.SetPromptStore(&mockPromptStore{prompts: map[string]string{
		driven.PromptValidateExplain: "CODE=%s",
	}})

	_, err := svc.Explain(context.Background(), failedResult("fix my if"))

	require.NoError(t, err)
	assert.Contains(t, llm.prompt, "CODE=Source 1 (guides/conditions.md)")
	assert.Contains(t, llm.prompt, "\n\n$if[1==1]\n$sendMessage[yes]")
}

func TestCorrectionService_Explain_Errors(t *testing.T) {
	t.Run("nil result", func(t *testing.T) {
		svc := NewCorrectionService(correctionRetrieval(), &mockLLM{}, domain.RetrievalSettings{})
		_, err := svc.Explain(context.Background(), nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("no llm", func(t *testing.T) {
		svc := NewCorrectionService(correctionRetrieval(), nil, domain.RetrievalSettings{})
		_, err := svc.Explain(context.Background(), failedResult("fix my if"))
		assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	})

	t.Run("retrieval failure", func(t *testing.T) {
		retrieval := correctionRetrieval()
		retrieval.searchErr = domain.ErrEmbeddingUnavailable
		svc := NewCorrectionService(retrieval, &mockLLM{}, domain.RetrievalSettings{})
		_, err := svc.Explain(context.Background(), failedResult("fix my if"))
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})

	t.Run("llm failure", func(t *testing.T) {
		llm := &mockLLM{err: domain.ErrGenerationUnavailable}
		svc := NewCorrectionService(correctionRetrieval(), llm, domain.RetrievalSettings{})
		_, err := svc.Explain(context.Background(), failedResult("fix my if"))
		assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
	})
}
