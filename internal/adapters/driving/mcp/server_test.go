package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil retrieval service returns error", func(t *testing.T) {
		ports := &Ports{}
		server, err := NewServer(ports)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingRetrievalService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		ports := &Ports{
			Retrieval: &mockRetrievalService{},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("nil retrieval service returns error", func(t *testing.T) {
		ports := &Ports{Validation: &mockValidationService{}}
		err := ports.Validate()
		assert.ErrorIs(t, err, ErrMissingRetrievalService)
	})

	t.Run("retrieval only is valid", func(t *testing.T) {
		ports := &Ports{
			Retrieval: &mockRetrievalService{},
		}
		err := ports.Validate()
		assert.NoError(t, err)
	})

	t.Run("all ports is valid", func(t *testing.T) {
		ports := &Ports{
			Retrieval:  &mockRetrievalService{},
			Validation: &mockValidationService{},
			Correction: &mockCorrectionService{},
			Function:   &mockFunctionService{},
			Answer:     &mockAnswerService{},
			Stats:      &mockStatsService{},
		}
		err := ports.Validate()
		assert.NoError(t, err)
	})
}

func TestPorts_AvailableTools(t *testing.T) {
	t.Run("retrieval only", func(t *testing.T) {
		ports := &Ports{Retrieval: &mockRetrievalService{}}
		assert.Equal(t, []string{ToolSearchDocs}, ports.AvailableTools())
	})

	t.Run("all services", func(t *testing.T) {
		ports := &Ports{
			Retrieval:  &mockRetrievalService{},
			Validation: &mockValidationService{},
			Function:   &mockFunctionService{},
			Answer:     &mockAnswerService{},
		}
		assert.Equal(t,
			[]string{ToolSearchDocs, ToolLookupFunction, ToolValidateDSL, ToolAskDocs},
			ports.AvailableTools())
	})
}

func TestInstructions(t *testing.T) {
	t.Run("without a language model", func(t *testing.T) {
		text := Instructions(&Ports{
			Retrieval:  &mockRetrievalService{},
			Validation: &mockValidationService{},
		})

		assert.Contains(t, text, "Available tools: search_docs, validate_dsl.")
		assert.Contains(t, text, "Run validate_dsl on every script")
		assert.Contains(t, text, "ask_docs is unavailable")
		assert.NotContains(t, text, "Set explain")
		assert.NotContains(t, text, "Use lookup_function")
	})

	t.Run("fully wired", func(t *testing.T) {
		text := Instructions(&Ports{
			Retrieval:  &mockRetrievalService{},
			Validation: &mockValidationService{},
			Correction: &mockCorrectionService{},
			Function:   &mockFunctionService{},
			Answer:     &mockAnswerService{},
		})

		assert.Contains(t, text, "Use lookup_function for a single $function")
		assert.Contains(t, text, "Set explain to true")
		assert.NotContains(t, text, "unavailable")
		assert.Contains(t, text, "grimoire://documents/{path}")
	})
}
