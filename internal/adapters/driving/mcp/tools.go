package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/grimoire/internal/core/domain"
	"github.com/custodia-labs/grimoire/internal/core/ports/driving"
)

// defaultSearchLimit is the number of passages returned when no limit is given.
const defaultSearchLimit = 8

// SearchInput is the input schema for the search_docs tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"natural language or code query to search the documentation"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of passages to return (default 8)"`
}

// SearchOutput is the output schema for the search_docs tool.
type SearchOutput struct {
	Results []PassageOutput `json:"results"`
	Count   int             `json:"count"`
}

// PassageOutput represents a single scored passage.
type PassageOutput struct {
	SourcePath   string  `json:"source_path"`
	SectionTitle string  `json:"section_title,omitempty"`
	Content      string  `json:"content"`
	Score        float64 `json:"score"`
}

// ValidateInput is the input schema for the validate_dsl tool.
type ValidateInput struct {
	Code    string `json:"code" jsonschema:"the script to validate, optionally in a code fence"`
	Intent  string `json:"intent,omitempty" jsonschema:"what the script should do; words like fix or rewrite enable repair"`
	Explain bool   `json:"explain,omitempty" jsonschema:"ask the language model to explain the findings"`
}

// ValidateOutput is the output schema for the validate_dsl tool.
type ValidateOutput struct {
	Valid                 bool     `json:"valid"`
	Errors                []string `json:"errors"`
	Warnings              []string `json:"warnings"`
	DocumentedFunctions   []string `json:"documented_functions"`
	UndocumentedFunctions []string `json:"undocumented_functions"`
	Confidence            float64  `json:"confidence"`
	CorrectedSnippet      string   `json:"corrected_snippet,omitempty"`
	NormalizedInput       string   `json:"normalized_input"`
	Explanation           string   `json:"explanation,omitempty"`
	ProposedCode          string   `json:"proposed_code,omitempty"`
}

// FunctionInput is the input schema for the lookup_function tool.
type FunctionInput struct {
	Name string `json:"name" jsonschema:"function name, with or without the $ sigil"`
}

// FunctionOutput is the output schema for the lookup_function tool.
type FunctionOutput struct {
	Function    string            `json:"function"`
	Documented  bool              `json:"documented"`
	Syntax      string            `json:"syntax,omitempty"`
	Description string            `json:"description,omitempty"`
	Parameters  []ParameterOutput `json:"parameters"`
	Examples    []string          `json:"examples"`
	Sources     []string          `json:"sources"`
	Confidence  float64           `json:"confidence"`
}

// ParameterOutput describes one function argument.
type ParameterOutput struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

// AskInput is the input schema for the ask_docs tool.
type AskInput struct {
	Question  string `json:"question" jsonschema:"the question to answer from the documentation"`
	Code      bool   `json:"code,omitempty" jsonschema:"answer with a code block only"`
	MaxTokens int    `json:"max_tokens,omitempty" jsonschema:"reply length bound, capped at 800"`
}

// AskOutput is the output schema for the ask_docs tool.
type AskOutput struct {
	Answer     string   `json:"answer"`
	Code       string   `json:"code,omitempty"`
	Sources    []string `json:"sources"`
	Confidence float64  `json:"confidence"`
	Documented bool     `json:"documented"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolSearchDocs,
		Description: "Search the indexed documentation by similarity",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: ToolValidateDSL,
		Description: "Validate a script: flow keyword nesting, guard messages, conditions, " +
			"bracket syntax and documentation coverage of every function",
	}, s.handleValidate)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolLookupFunction,
		Description: "Describe a function from its documentation page: syntax, parameters and examples",
	}, s.handleLookupFunction)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolAskDocs,
		Description: "Answer a question using only the indexed documentation",
	}, s.handleAsk)
}

// handleSearch handles the search_docs tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	results, err := s.ports.Retrieval.SearchByText(ctx, input.Query, limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]PassageOutput, len(results)),
		Count:   len(results),
	}
	for i, r := range results {
		output.Results[i] = PassageOutput{
			SourcePath:   r.Passage.SourcePath,
			SectionTitle: r.Passage.Title(),
			Content:      r.Passage.Content,
			Score:        r.Score,
		}
	}

	return nil, output, nil
}

// handleValidate handles the validate_dsl tool invocation.
func (s *Server) handleValidate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ValidateInput,
) (*mcp.CallToolResult, ValidateOutput, error) {
	if s.ports.Validation == nil {
		return nil, ValidateOutput{}, fmt.Errorf("validate_dsl: %w", errToolUnavailable)
	}

	result, err := s.ports.Validation.Validate(ctx, input.Code, input.Intent)
	if err != nil {
		return nil, ValidateOutput{}, err
	}

	output := ValidateOutput{
		Valid:                 result.Valid(),
		Errors:                nonNil(result.Errors),
		Warnings:              nonNil(result.Warnings),
		DocumentedFunctions:   nonNil(result.DocumentedFunctions),
		UndocumentedFunctions: nonNil(result.UndocumentedFunctions),
		Confidence:            result.Confidence,
		CorrectedSnippet:      result.Corrected(),
		NormalizedInput:       result.NormalizedInput,
	}

	if input.Explain && !result.Valid() {
		explanation, err := explain(ctx, s.ports.Correction, result)
		if err != nil {
			return nil, ValidateOutput{}, err
		}
		output.Explanation = explanation.Text
		output.ProposedCode = explanation.Code
	}

	return nil, output, nil
}

func explain(
	ctx context.Context, correction driving.CorrectionService, result *domain.ValidationResult,
) (*domain.Explanation, error) {
	if correction == nil {
		return nil, fmt.Errorf("explain: %w", errToolUnavailable)
	}
	return correction.Explain(ctx, result)
}

// handleLookupFunction handles the lookup_function tool invocation.
func (s *Server) handleLookupFunction(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FunctionInput,
) (*mcp.CallToolResult, FunctionOutput, error) {
	if s.ports.Function == nil {
		return nil, FunctionOutput{}, fmt.Errorf("lookup_function: %w", errToolUnavailable)
	}

	doc, err := s.ports.Function.Describe(ctx, input.Name)
	if err != nil {
		return nil, FunctionOutput{}, err
	}
	return nil, functionOutput(doc), nil
}

func functionOutput(doc *domain.FunctionDoc) FunctionOutput {
	output := FunctionOutput{
		Function:    doc.Function,
		Documented:  doc.Documented(),
		Syntax:      doc.Syntax,
		Description: doc.Description,
		Parameters:  make([]ParameterOutput, len(doc.Parameters)),
		Examples:    nonNil(doc.Examples),
		Sources:     nonNil(doc.Sources),
		Confidence:  doc.Confidence,
	}
	for i, p := range doc.Parameters {
		output.Parameters[i] = ParameterOutput{
			Name:        p.Name,
			Type:        p.Type,
			Description: p.Description,
			Required:    p.Required,
		}
	}
	return output
}

// handleAsk handles the ask_docs tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if s.ports.Answer == nil {
		return nil, AskOutput{}, fmt.Errorf("ask_docs: %w", errToolUnavailable)
	}

	answer, err := s.ports.Answer.Ask(ctx, input.Question, driving.AskOptions{
		Code:      input.Code,
		MaxTokens: input.MaxTokens,
	})
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:     answer.Text,
		Code:       answer.Code,
		Sources:    nonNil(answer.Sources),
		Confidence: answer.Confidence,
		Documented: answer.Documented,
	}, nil
}

// nonNil keeps JSON output as [] rather than null.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
