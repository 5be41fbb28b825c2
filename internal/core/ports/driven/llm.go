// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// MaxGenerationTokens caps the tokens any caller may request from an LLM.
const MaxGenerationTokens = 800

// LLMService provides language model operations for grounded answers.
// This is an optional service - when nil, answering and explanation are disabled.
//
// Implementations may include:
//   - OpenAI (gpt-4o-mini)
//   - Mistral (mistral-small-latest)
//   - Ollama (local models)
//
// Failures wrap domain.ErrGenerationUnavailable.
type LLMService interface {
	// Generate produces text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Chat conducts a multi-turn conversation.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}

// ClampTokens bounds a requested token count to (0, MaxGenerationTokens].
// Zero or negative requests get the maximum.
func ClampTokens(n int) int {
	if n <= 0 || n > MaxGenerationTokens {
		return MaxGenerationTokens
	}
	return n
}
