package mcp

import (
	"github.com/custodia-labs/grimoire/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval provides similarity search.
	Retrieval driving.RetrievalService

	// Validation checks DSL snippets.
	Validation driving.ValidationService

	// Correction explains validator findings. Requires an LLM.
	Correction driving.CorrectionService

	// Function builds function documentation cards.
	Function driving.FunctionService

	// Answer answers questions from documentation. Requires an LLM.
	Answer driving.AnswerService

	// Stats reports the index state.
	Stats driving.StatsService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	// The remaining ports are optional; their tools report errToolUnavailable.
	return nil
}

// AvailableTools returns the tools whose backing service is wired, in the
// order an assistant should reach for them. The other tools are still
// registered and answer with a tool error.
func (p *Ports) AvailableTools() []string {
	tools := []string{ToolSearchDocs}
	if p.Function != nil {
		tools = append(tools, ToolLookupFunction)
	}
	if p.Validation != nil {
		tools = append(tools, ToolValidateDSL)
	}
	if p.Answer != nil {
		tools = append(tools, ToolAskDocs)
	}
	return tools
}
