package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/grimoire/internal/core/domain"
)

var (
	validateIntent  string
	validateExplain bool
	validateJSON    bool
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	headingStyle = lipgloss.NewStyle().Bold(true)
	codeStyle    = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			PaddingLeft(1)
)

var validateCmd = &cobra.Command{
	Use:   "validate [code]",
	Short: "Validate a script",
	Long: `Checks a script for flow keyword nesting, guard messages, empty conditions,
bracket syntax and loop arguments, then looks up every function in the indexed
documentation.

The script is read from the argument, or from stdin when no argument is given
or the argument is "-". Code fences are stripped. Passing an intent such as
"fix" or "repair" lets the validator append a missing $endif.

Exits non-zero when the script has errors.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateIntent, "intent", "i", "", "what the script should do")
	validateCmd.Flags().BoolVar(&validateExplain, "explain", false, "ask the LLM to explain the errors")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(validateCmd)
}

// validateResult is the JSON shape of a validation result.
type validateResult struct {
	Valid                 bool     `json:"valid"`
	Errors                []string `json:"errors"`
	Warnings              []string `json:"warnings"`
	DocumentedFunctions   []string `json:"documented_functions"`
	UndocumentedFunctions []string `json:"undocumented_functions"`
	Confidence            float64  `json:"confidence"`
	CorrectedSnippet      *string  `json:"corrected_snippet"`
	NormalizedInput       string   `json:"normalized_input"`
	Explanation           string   `json:"explanation,omitempty"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	if validationService == nil {
		return errors.New("validation service not configured")
	}

	code, err := readCode(cmd, args)
	if err != nil {
		return err
	}

	result, err := validationService.Validate(cmd.Context(), code, validateIntent)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	var explanation *domain.Explanation
	if validateExplain && !result.Valid() {
		if correctionService == nil {
			return errors.New("correction service not configured")
		}
		explanation, err = correctionService.Explain(cmd.Context(), result)
		if err != nil {
			return fmt.Errorf("explain failed: %w", err)
		}
	}

	if validateJSON {
		if err := outputValidateJSON(cmd, result, explanation); err != nil {
			return err
		}
	} else {
		outputValidateText(cmd, result, explanation)
	}

	if !result.Valid() {
		return fmt.Errorf("script has %d error(s)", len(result.Errors))
	}
	return nil
}

func readCode(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", errors.New("no code given")
	}
	return string(data), nil
}

func outputValidateJSON(cmd *cobra.Command, result *domain.ValidationResult, explanation *domain.Explanation) error {
	out := validateResult{
		Valid:                 result.Valid(),
		Errors:                orEmpty(result.Errors),
		Warnings:              orEmpty(result.Warnings),
		DocumentedFunctions:   orEmpty(result.DocumentedFunctions),
		UndocumentedFunctions: orEmpty(result.UndocumentedFunctions),
		Confidence:            result.Confidence,
		CorrectedSnippet:      result.CorrectedSnippet,
		NormalizedInput:       result.NormalizedInput,
	}
	if explanation != nil {
		out.Explanation = explanation.Text
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputValidateText(cmd *cobra.Command, result *domain.ValidationResult, explanation *domain.Explanation) {
	if result.Valid() {
		cmd.Println(okStyle.Render("No errors found."))
	} else {
		cmd.Println(headingStyle.Render("Errors:"))
		for _, e := range result.Errors {
			cmd.Println("  " + errorStyle.Render("✗ "+e))
		}
	}

	if len(result.Warnings) > 0 {
		cmd.Println(headingStyle.Render("Warnings:"))
		for _, w := range result.Warnings {
			cmd.Println("  " + warningStyle.Render("! "+w))
		}
	}

	if len(result.DocumentedFunctions) > 0 {
		cmd.Printf("Documented: %s\n", strings.Join(result.DocumentedFunctions, ", "))
	}
	if len(result.UndocumentedFunctions) > 0 {
		cmd.Printf("Undocumented: %s\n", strings.Join(result.UndocumentedFunctions, ", "))
	}
	cmd.Printf("Confidence: %.2f\n", result.Confidence)

	if result.CorrectedSnippet != nil {
		cmd.Println()
		cmd.Println(headingStyle.Render("Corrected:"))
		cmd.Println(codeStyle.Render(strings.TrimRight(*result.CorrectedSnippet, "\n")))
	}

	if explanation != nil {
		cmd.Println()
		cmd.Println(headingStyle.Render("Explanation:"))
		cmd.Println(explanation.Text)
		if len(explanation.Sources) > 0 {
			cmd.Printf("Sources: %s\n", strings.Join(explanation.Sources, ", "))
		}
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
