package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/grimoire/internal/core/domain"
)

var (
	searchLimit int
	searchJSON  bool
)

// snippetLen bounds the passage preview in table output.
const snippetLen = 160

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documentation",
	Long: `Embeds the query and ranks every stored passage by cosine similarity.
Scores range from -1 to 1; higher is more similar.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 8, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

// searchResult is the JSON shape of a scored passage.
type searchResult struct {
	SourcePath   string  `json:"source_path"`
	SectionTitle string  `json:"section_title,omitempty"`
	Content      string  `json:"content"`
	Score        float64 `json:"score"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	results, err := retrievalService.SearchByText(cmd.Context(), query, searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}

	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.ScoredPassage) error {
	out := make([]searchResult, len(results))
	for i, r := range results {
		out[i] = searchResult{
			SourcePath:   r.Passage.SourcePath,
			SectionTitle: r.Passage.Title(),
			Content:      r.Passage.Content,
			Score:        r.Score,
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.ScoredPassage) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		// Format: [N] path > section (score)
		heading := results[i].Passage.SourcePath
		if title := results[i].Passage.Title(); title != "" {
			heading += " > " + title
		}

		cmd.Printf("  [%d] %s (%.4f)\n", i+1, heading, results[i].Score)
		cmd.Printf("      %s\n", snippet(results[i].Passage.Content, snippetLen))
		cmd.Println()
	}

	return nil
}

// snippet flattens whitespace and truncates s to at most n runes.
func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
