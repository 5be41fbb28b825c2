package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/grimoire/internal/core/domain"
)

var functionJSON bool

var functionCmd = &cobra.Command{
	Use:   "function [name]",
	Short: "Look up a function",
	Long: `Builds a documentation card for a function from its indexed documentation
page: call syntax, description, parameters and examples. The name may be given
with or without the $ sigil.`,
	Args: cobra.ExactArgs(1),
	RunE: runFunction,
}

func init() {
	functionCmd.Flags().BoolVar(&functionJSON, "json", false, "output the card as JSON")
	rootCmd.AddCommand(functionCmd)
}

// functionCard is the JSON shape of a function lookup.
type functionCard struct {
	Function    string                 `json:"function"`
	Documented  bool                   `json:"documented"`
	Syntax      string                 `json:"syntax,omitempty"`
	Description string                 `json:"description,omitempty"`
	Parameters  []domain.FunctionParam `json:"parameters"`
	Examples    []string               `json:"examples"`
	Sources     []string               `json:"sources"`
	Confidence  float64                `json:"confidence"`
}

func newFunctionCard(doc *domain.FunctionDoc) functionCard {
	params := doc.Parameters
	if params == nil {
		params = []domain.FunctionParam{}
	}
	return functionCard{
		Function:    doc.Function,
		Documented:  doc.Documented(),
		Syntax:      doc.Syntax,
		Description: doc.Description,
		Parameters:  params,
		Examples:    orEmpty(doc.Examples),
		Sources:     orEmpty(doc.Sources),
		Confidence:  doc.Confidence,
	}
}

func runFunction(cmd *cobra.Command, args []string) error {
	if functionService == nil {
		return errors.New("function service not configured")
	}

	doc, err := functionService.Describe(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}

	if functionJSON {
		data, err := json.MarshalIndent(newFunctionCard(doc), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal function: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	outputFunction(cmd, doc)
	return nil
}

func outputFunction(cmd *cobra.Command, doc *domain.FunctionDoc) {
	if !doc.Documented() {
		cmd.Printf("$%s is not documented.\n", doc.Function)
		return
	}

	cmd.Println(headingStyle.Render("$" + doc.Function))
	if doc.Syntax != "" {
		cmd.Printf("  Syntax: %s\n", doc.Syntax)
	}
	if doc.Description != "" {
		cmd.Printf("  %s\n", doc.Description)
	}

	if len(doc.Parameters) > 0 {
		cmd.Println()
		cmd.Println("Parameters:")
		for _, p := range doc.Parameters {
			line := "  " + p.Name
			if p.Type != "" {
				line += " (" + p.Type + ")"
			}
			if p.Required {
				line += " required"
			}
			if p.Description != "" {
				line += ": " + p.Description
			}
			cmd.Println(line)
		}
	}

	for i, ex := range doc.Examples {
		cmd.Println()
		cmd.Printf("Example %d:\n", i+1)
		cmd.Println(codeStyle.Render(ex))
	}

	cmd.Println()
	cmd.Printf("Sources: %s (%.4f)\n", strings.Join(doc.Sources, ", "), doc.Confidence)
}
