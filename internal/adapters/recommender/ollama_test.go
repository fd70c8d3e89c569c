package recommender

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaGenerator_Generate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req ollamaRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test prompt", req.Prompt)
		assert.Equal(t, "test-model", req.Model)
		assert.False(t, req.Stream)
		assert.JSONEq(t, string(ollamaFormat), string(req.Format))

		_ = json.NewEncoder(w).Encode(ollamaResponse{Response: `[]`})
	}))
	defer ts.Close()

	g := NewOllamaGenerator(ts.URL, "test-model", ts.Client())
	out, err := g.Generate(context.Background(), "test prompt")
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
	assert.Equal(t, "Ollama (test-model) [Local]", g.Name())
}

func TestOllamaGenerator_ErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("internal error"))
	}))
	defer ts.Close()

	_, err := NewOllamaGenerator(ts.URL, "", ts.Client()).Generate(context.Background(), "p")
	require.Error(t, err)
	assert.Equal(t, "ollama returned error status 500: internal error", err.Error())
}

func TestOllamaGenerator_DecodeError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("invalid json"))
	}))
	defer ts.Close()

	_, err := NewOllamaGenerator(ts.URL, "", ts.Client()).Generate(context.Background(), "p")
	assert.Error(t, err)
}

func TestOllamaGenerator_Defaults(t *testing.T) {
	g := NewOllamaGenerator("", "", nil)
	assert.Equal(t, DefaultOllamaHost, g.host)
	assert.Equal(t, DefaultOllamaModel, g.model)
}

func TestOllamaGenerator_ThroughClient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaResponse{
			Response: `[{"title": "Hyperion", "author": "Dan Simmons", "reason": "Space opera."}]`,
		})
	}))
	defer ts.Close()

	recs, err := NewClient(NewOllamaGenerator(ts.URL, "m", ts.Client()), 3).Recommend(context.Background(), readBooks)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Hyperion", recs[0].Title)
}
