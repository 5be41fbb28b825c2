package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/grimoire/internal/core/ports/driving"
)

var (
	askCode      bool
	askMaxTokens int
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the documentation",
	Long: `Retrieves the passages most similar to the question and asks the configured
LLM to answer using only them. When nothing in the index is similar enough the
question is refused instead of guessed.

Use --code to get a script instead of prose.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askCode, "code", false, "answer with a script")
	askCmd.Flags().IntVar(&askMaxTokens, "max-tokens", 0, "reply length bound (0 = default)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	question := strings.Join(args, " ")
	answer, err := answerService.Ask(cmd.Context(), question, driving.AskOptions{
		Code:      askCode,
		MaxTokens: askMaxTokens,
	})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askCode && answer.Code != "" {
		cmd.Println(answer.Code)
	} else {
		cmd.Println(answer.Text)
	}

	if len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Printf("Sources (%.4f):\n", answer.Confidence)
		for _, s := range answer.Sources {
			cmd.Printf("  - %s\n", s)
		}
	}
	return nil
}
