package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/grimoire/internal/core/domain"
)

func strPtr(s string) *string { return &s }

func scoredPassages() []domain.ScoredPassage {
	return []domain.ScoredPassage{
		{
			Passage: domain.Passage{
				ID:           "p1",
				SourcePath:   "functions/sum.md",
				SectionTitle: strPtr("Usage"),
				Content:      "$sum[1;2]\nreturns   3",
			},
			Score: 0.9134,
		},
		{
			Passage: domain.Passage{ID: "p2", SourcePath: "guide.md", Content: "Getting started"},
			Score:   0.5,
		},
	}
}

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
	assert.Equal(t, "Search indexed documentation", searchCmd.Short)
	assert.Contains(t, searchCmd.Long, "cosine similarity")
}

func TestSearchCmd_RequiresExactlyOneArg(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, nil, "search")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchCmd_HasLimitFlag(t *testing.T) {
	flag := searchCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "limit flag should exist")
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "8", flag.DefValue)
}

func TestSearchCmd_ExecutesWithQuery(t *testing.T) {
	var gotQuery string
	var gotK int
	cleanup := useServices(&Services{Retrieval: &MockRetrievalService{
		SearchFunc: func(_ context.Context, query string, k int) ([]domain.ScoredPassage, error) {
			gotQuery, gotK = query, k
			return scoredPassages(), nil
		},
	}})
	defer cleanup()

	out, err := execute(t, nil, "search", "-n", "5", "how to add numbers")

	require.NoError(t, err)
	assert.Equal(t, "how to add numbers", gotQuery)
	assert.Equal(t, 5, gotK)
	assert.Contains(t, out, "Results:")
	assert.Contains(t, out, "[1] functions/sum.md > Usage (0.9134)")
	assert.Contains(t, out, "[2] guide.md (0.5000)")
	assert.Contains(t, out, "$sum[1;2] returns 3")
}

func TestSearchCmd_NoResults(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, nil, "search", "nothing")

	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	cleanup := useServices(&Services{Retrieval: &MockRetrievalService{
		SearchFunc: func(context.Context, string, int) ([]domain.ScoredPassage, error) {
			return scoredPassages(), nil
		},
	}})
	defer cleanup()

	out, err := execute(t, nil, "search", "--json", "sum")

	require.NoError(t, err)
	var got []searchResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "functions/sum.md", got[0].SourcePath)
	assert.Equal(t, "Usage", got[0].SectionTitle)
	assert.InDelta(t, 0.9134, got[0].Score, 1e-9)
	assert.Contains(t, out, `"source_path"`)
	assert.NotContains(t, out, `"section_title": ""`)
}

func TestSearchCmd_ServiceNotConfigured(t *testing.T) {
	cleanup := useServices(nil)
	defer cleanup()

	_, err := execute(t, nil, "search", "test")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "retrieval service not configured")
}

func TestSearchCmd_ServiceError(t *testing.T) {
	cleanup := useServices(&Services{Retrieval: &MockRetrievalService{
		SearchFunc: func(context.Context, string, int) ([]domain.ScoredPassage, error) {
			return nil, errors.New("embedding unavailable")
		},
	}})
	defer cleanup()

	_, err := execute(t, nil, "search", "test")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "search failed: embedding unavailable")
}

func TestOutputSearchJSON_EmptyResults(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)

	err := outputSearchJSON(rootCmd, []domain.ScoredPassage{})

	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
}

func TestSnippet(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{name: "short", in: "a  b\nc", n: 10, want: "a b c"},
		{name: "exact", in: "abcde", n: 5, want: "abcde"},
		{name: "truncated", in: "abcdef", n: 3, want: "abc..."},
		{name: "runes", in: "ééééé", n: 2, want: "éé..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, snippet(tt.in, tt.n))
		})
	}
}
