package services

import (
	"context"
	"fmt"
	"math"

	"github.com/custodia-labs/grimoire/internal/core/domain"
	"github.com/custodia-labs/grimoire/internal/core/ports/driven"
	"github.com/custodia-labs/grimoire/internal/core/ports/driving"
	"github.com/custodia-labs/grimoire/internal/logger"
)

// Ensure AnswerService implements the interfaces.
var (
	_ driving.AnswerService   = (*AnswerService)(nil)
	_ driven.PromptStoreAware = (*AnswerService)(nil)
)

// Default reply lengths by mode.
const (
	defaultAnswerTokens = 350
	defaultCodeTokens   = 400
)

// Instructions appended to the user's question.
const (
	answerInstruction = "Answer strictly using the provided documentation context. " +
		"If something is unknown or not in context, say it is not documented."
	codeInstruction = "Generate minimal code strictly using the provided context. " +
		"Use correct bracket syntax [..] and ';' between arguments. " +
		"Output only code in a single fenced code block."
)

// AnswerService answers questions from retrieved documentation only.
type AnswerService struct {
	promptLoader
	retrieval  driving.RetrievalService
	llmService driven.LLMService
	settings   domain.RetrievalSettings
}

// NewAnswerService creates a new answer service.
// The llmService parameter is optional (can be nil); Ask then fails with
// domain.ErrLLMUnavailable once documentation has been found.
func NewAnswerService(
	retrieval driving.RetrievalService,
	llmService driven.LLMService,
	settings domain.RetrievalSettings,
) *AnswerService {
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
	return &AnswerService{
		retrieval:  retrieval,
		llmService: llmService,
		settings:   settings,
	}
}

// Ask answers a question or refuses when documentation is insufficient.
func (s *AnswerService) Ask(ctx context.Context, question string, opts driving.AskOptions) (*domain.Answer, error) {
	logger.Section("Answer")

	question = SanitizeQuestion(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	results, err := s.retrieval.SearchByText(ctx, question, s.settings.TopK)
	if err != nil {
		return nil, err
	}

	var top float64
	if len(results) > 0 {
		top = results[0].Score
	}
	top = math.Round(top*10000) / 10000

	if len(results) == 0 || top < s.retrieval.Threshold() {
		logger.Info("Top score %.4f below threshold, refusing", top)
		return &domain.Answer{Text: NotDocumented, Confidence: top}, nil
	}

	if s.llmService == nil {
		return nil, domain.ErrLLMUnavailable
	}

	if len(results) > s.settings.ContextChunks {
		results = results[:s.settings.ContextChunks]
	}
	block := contextBlock(results, s.settings.MaxContextChars)

	promptName, instruction, tokens := driven.PromptAnswerSystem, answerInstruction, defaultAnswerTokens
	if opts.Code {
		promptName, instruction, tokens = driven.PromptCodeSystem, codeInstruction, defaultCodeTokens
	}
	if opts.MaxTokens > 0 {
		tokens = opts.MaxTokens
	}

	messages := []driven.ChatMessage{
		{Role: "system", Content: render(s.load(promptName), block)},
		{Role: "user", Content: question + "\n\n" + instruction},
	}

	done := logger.Timed("LLM chat")
	text, err := s.llmService.Chat(ctx, messages, driven.ChatOptions{
		MaxTokens:   driven.ClampTokens(tokens),
		Temperature: 0.2,
	})
	done()
	if err != nil {
		return nil, fmt.Errorf("answer: %w", err)
	}

	answer := &domain.Answer{
		Text:       text,
		Sources:    sourcesOf(results),
		Confidence: top,
		Documented: true,
	}
	if opts.Code {
		answer.Code = extractCode(text)
		if answer.Code == "" {
			answer.Code = text
		}
	}
	return answer, nil
}
