package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptAnswerSystem is the system prompt for grounded question answering.
	// The template expects a %s placeholder for the documentation context.
	PromptAnswerSystem = "answer_system"

	// PromptCodeSystem is the system prompt for grounded code generation.
	// The template expects a %s placeholder for the documentation context.
	PromptCodeSystem = "code_system"

	// PromptValidateExplain asks the model to explain validator findings.
	// The template expects %s placeholders for the context, the snippet,
	// the findings, and the user intent, in that order.
	PromptValidateExplain = "validate_explain"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service should use hardcoded default prompts.
	SetPromptStore(store PromptStore)
}
