package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/grimoire/internal/core/domain"
)

func TestNewEmbeddingService(t *testing.T) {
	_, err := NewEmbeddingService(Config{})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	_, err = NewEmbeddingService(Config{APIKey: `""`})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	svc, err := NewEmbeddingService(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-004", svc.ModelName())
	assert.Equal(t, 768, svc.Dimensions())
	assert.NoError(t, svc.Close())
}

func TestEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/text-embedding-004:embedContent", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Content.Parts, 1)
		assert.Equal(t, "hello", req.Content.Parts[0].Text)

		_, _ = w.Write([]byte(`{"embedding":{"values":[0.5,0.25]}}`))
	}))
	defer srv.Close()

	svc, err := NewEmbeddingService(Config{APIKey: `"secret"`, BaseURL: srv.URL})
	require.NoError(t, err)

	vec, err := svc.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25}, vec)

	batch, err := svc.EmbedBatch(context.Background(), []string{"hello", "hello"})
	require.NoError(t, err)
	assert.Len(t, batch, 2)
}

func TestEmbed_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"bad key", http.StatusBadRequest, `{"error":{"code":400,"message":"API key not valid"}}`, domain.ErrEmbeddingUnavailable},
		{"unregistered", http.StatusForbidden, `{"error":{"code":403,"message":"Requests from unregistered callers are blocked"}}`, domain.ErrEmbeddingUnavailable},
		{"missing embedding", http.StatusOK, `{}`, domain.ErrEmbeddingMalformed},
		{"empty values", http.StatusOK, `{"embedding":{"values":[]}}`, domain.ErrEmbeddingMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			svc, err := NewEmbeddingService(Config{APIKey: "k", BaseURL: srv.URL})
			require.NoError(t, err)

			_, err = svc.Embed(context.Background(), "x")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEmbed_AcceptsSingularValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"embedding":{"value":[1,2,3]}}`))
	}))
	defer srv.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	vec, err := svc.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, vec)
}

func TestEmbed_UnreachableHidesKey(t *testing.T) {
	svc, err := NewEmbeddingService(Config{APIKey: "topsecret", BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	_, err = svc.Embed(context.Background(), "x")
	require.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.NotContains(t, err.Error(), "topsecret")

	assert.ErrorIs(t, svc.Ping(context.Background()), domain.ErrEmbeddingUnavailable)
}
