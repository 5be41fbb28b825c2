package cli

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/grimoire/internal/core/domain"
)

func sumDoc() *domain.FunctionDoc {
	return &domain.FunctionDoc{
		Function:    "sum",
		Syntax:      "$sum[a;b]",
		Description: "Adds numbers together.",
		Parameters: []domain.FunctionParam{
			{Name: "a", Type: "number", Description: "first operand", Required: true},
			{Name: "b"},
		},
		Examples:   []string{"$sum[1;2]"},
		Sources:    []string{"functions/sum.md"},
		Confidence: 0.8812,
	}
}

func TestFunctionCmd_RequiresName(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, nil, "function")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestFunctionCmd_Card(t *testing.T) {
	var gotName string
	cleanup := useServices(&Services{Function: &MockFunctionService{
		DescribeFunc: func(_ context.Context, name string) (*domain.FunctionDoc, error) {
			gotName = name
			return sumDoc(), nil
		},
	}})
	defer cleanup()

	out, err := execute(t, nil, "function", "$sum")

	require.NoError(t, err)
	assert.Equal(t, "$sum", gotName)
	assert.Contains(t, out, "$sum")
	assert.Contains(t, out, "Syntax: $sum[a;b]")
	assert.Contains(t, out, "Adds numbers together.")
	assert.Contains(t, out, "a (number) required: first operand")
	assert.Contains(t, out, "Example 1:")
	assert.Contains(t, out, "Sources: functions/sum.md (0.8812)")
}

func TestFunctionCmd_Undocumented(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, nil, "function", "frobnicate")

	require.NoError(t, err)
	assert.Contains(t, out, "$frobnicate is not documented.")
}

func TestFunctionCmd_JSON(t *testing.T) {
	cleanup := useServices(&Services{Function: &MockFunctionService{
		DescribeFunc: func(context.Context, string) (*domain.FunctionDoc, error) {
			return sumDoc(), nil
		},
	}})
	defer cleanup()

	out, err := execute(t, nil, "function", "--json", "sum")

	require.NoError(t, err)
	var got functionCard
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "sum", got.Function)
	assert.True(t, got.Documented)
	assert.Len(t, got.Parameters, 2)
	assert.Equal(t, []string{"functions/sum.md"}, got.Sources)
}

func TestNewFunctionCard_Undocumented(t *testing.T) {
	card := newFunctionCard(&domain.FunctionDoc{Function: "frobnicate"})

	assert.False(t, card.Documented)
	assert.NotNil(t, card.Parameters)
	assert.NotNil(t, card.Examples)
	assert.NotNil(t, card.Sources)
}

func TestFunctionCmd_Errors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		cleanup := useServices(nil)
		defer cleanup()

		_, err := execute(t, nil, "function", "sum")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "function service not configured")
	})

	t.Run("lookup failure", func(t *testing.T) {
		cleanup := useServices(&Services{Function: &MockFunctionService{
			DescribeFunc: func(context.Context, string) (*domain.FunctionDoc, error) {
				return nil, errors.New("index offline")
			},
		}})
		defer cleanup()

		_, err := execute(t, nil, "function", "sum")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "lookup failed: index offline")
	})
}
