package domain

// ValidationResult is the outcome of validating a DSL snippet.
type ValidationResult struct {
	// Errors are rule violations. A snippet is valid when there are none.
	Errors []string

	// Warnings are advisory findings that do not affect validity.
	Warnings []string

	// DocumentedFunctions are distinct function names with documentation.
	DocumentedFunctions []string

	// UndocumentedFunctions are distinct function names without documentation.
	UndocumentedFunctions []string

	// Confidence is 0.5 + 0.5 × (documented / total), or 0.5 with no functions.
	Confidence float64

	// CorrectedSnippet is set only when a mechanical repair was applied.
	CorrectedSnippet *string

	// NormalizedInput is the snippet after code fences were stripped.
	NormalizedInput string

	// Intent is the sanitised user intent, if one was supplied.
	Intent string
}

// Valid reports whether the snippet has no errors.
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// Corrected returns the corrected snippet or an empty string.
func (r *ValidationResult) Corrected() string {
	if r.CorrectedSnippet == nil {
		return ""
	}
	return *r.CorrectedSnippet
}
