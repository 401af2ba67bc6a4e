package service

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedText(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	var gotTaskType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var req EmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotTaskType = req.TaskType
		assert.Equal(t, 768, req.OutputDimensionality)

		values := make([]float64, 768)
		values[0] = 3.0
		values[1] = 4.0
		json.NewEncoder(w).Encode(EmbeddingResponse{Embedding: EmbeddingData{Values: values}})
	}))
	defer server.Close()

	oldAPI := embeddingAPI
	embeddingAPI = server.URL
	defer func() { embeddingAPI = oldAPI }()

	client := NewGeminiClient()
	embedding, err := client.EmbedText(context.Background(), "processing clause", "RETRIEVAL_QUERY")

	require.NoError(t, err)
	assert.Equal(t, "RETRIEVAL_QUERY", gotTaskType)
	require.Len(t, embedding, 768)

	// Result must be L2-normalized
	norm := 0.0
	for _, v := range embedding {
		norm += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 0.0001)
	assert.InDelta(t, 0.6, embedding[0], 0.0001)
	assert.InDelta(t, 0.8, embedding[1], 0.0001)
}

func TestEmbedTextNoRetryOnBadRequest(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	oldAPI := embeddingAPI
	embeddingAPI = server.URL
	defer func() { embeddingAPI = oldAPI }()

	client := NewGeminiClient()
	_, err := client.EmbedText(context.Background(), "text", "RETRIEVAL_QUERY")

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestEmbedTextMissingAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	client := NewGeminiClient()
	_, err := client.EmbedText(context.Background(), "text", "RETRIEVAL_QUERY")

	assert.Error(t, err)
}

func TestGenerateText(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"candidates": [{
				"content": {"parts": [{"text": "Add a breach notification clause."}]},
				"finishReason": "STOP"
			}]
		}`))
	}))
	defer server.Close()

	oldAPI := generationAPI
	generationAPI = server.URL
	defer func() { generationAPI = oldAPI }()

	client := NewGeminiClient()
	text, err := client.GenerateText(context.Background(), "recommend a fix", 0.3)

	require.NoError(t, err)
	assert.Equal(t, "Add a breach notification clause.", text)
}

func TestGenerateTextBlockedPrompt(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"promptFeedback": {"blockReason": "SAFETY"}}`))
	}))
	defer server.Close()

	oldAPI := generationAPI
	generationAPI = server.URL
	defer func() { generationAPI = oldAPI }()

	client := NewGeminiClient()
	_, err := client.GenerateText(context.Background(), "prompt", 0.3)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SAFETY")
}

func TestGenerateTextNoCandidates(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	oldAPI := generationAPI
	generationAPI = server.URL
	defer func() { generationAPI = oldAPI }()

	client := NewGeminiClient()
	_, err := client.GenerateText(context.Background(), "prompt", 0.3)

	assert.Error(t, err)
}

func TestGenerateTextRetriesServerErrors(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{
			"candidates": [{
				"content": {"parts": [{"text": "Add an audit rights clause."}]},
				"finishReason": "STOP"
			}]
		}`))
	}))
	defer server.Close()

	oldAPI := generationAPI
	generationAPI = server.URL
	defer func() { generationAPI = oldAPI }()

	client := NewGeminiClient()
	text, err := client.GenerateText(context.Background(), "recommend a fix", 0.3)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, "Add an audit rights clause.", text)
}

func TestGenerateTextNoRetryOnBadRequest(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"code": 400, "message": "invalid request"}}`))
	}))
	defer server.Close()

	oldAPI := generationAPI
	generationAPI = server.URL
	defer func() { generationAPI = oldAPI }()

	client := NewGeminiClient()
	_, err := client.GenerateText(context.Background(), "prompt", 0.3)

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
