package domain

// FunctionParam describes one argument of a DSL function.
type FunctionParam struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// FunctionDoc is structured documentation for a single DSL function,
// extracted from retrieved passages.
type FunctionDoc struct {
	// Function is the lowercase name without the sigil.
	Function string

	// Syntax is the canonical call form, e.g. "$sum[a;b]".
	Syntax string

	Description string
	Parameters  []FunctionParam

	// Examples holds up to three fenced code examples.
	Examples []string

	// Sources are document paths relative to the documentation root.
	Sources []string

	// Confidence is the best similarity score among the retrieved passages.
	Confidence float64
}

// Documented reports whether any documentation was found.
func (f *FunctionDoc) Documented() bool {
	return len(f.Sources) > 0
}

// HasParamDescriptions reports whether any parameter carries a description.
func (f *FunctionDoc) HasParamDescriptions() bool {
	for _, p := range f.Parameters {
		if p.Description != "" {
			return true
		}
	}
	return false
}

// Answer is a documentation-grounded reply to a question.
type Answer struct {
	// Text is the model's reply or the refusal message.
	Text string

	// Code is the first fenced code block in Text, in code mode.
	Code string

	// Sources are the paths of the passages given to the model.
	Sources []string

	// Confidence is the best retrieval score.
	Confidence float64

	// Documented is false when retrieval fell below the similarity threshold.
	Documented bool
}

// Explanation is a model-written account of validator findings.
type Explanation struct {
	Text string

	// Code is a model-proposed corrected snippet, when one was requested.
	Code string

	Sources []string
}
