package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSerperClient() *SerperClient {
	c := NewSerperClient()
	c.apiKey = "test-key"
	return c
}

func TestSerperSearch(t *testing.T) {
	var gotQuery, gotTBS string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-API-KEY"))

		var req serperRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotQuery = req.Query
		gotTBS = req.TBS

		json.NewEncoder(w).Encode(serperResponse{
			Organic: []SearchResult{
				{Title: "GDPR amendment announced", Link: "https://example.eu/a", Snippet: "New rules"},
			},
		})
	}))
	defer server.Close()

	oldAPI := serperAPI
	serperAPI = server.URL
	defer func() { serperAPI = oldAPI }()

	client := newTestSerperClient()
	results, err := client.Search(context.Background(), "GDPR update", 10, "w")

	require.NoError(t, err)
	assert.Equal(t, "GDPR update", gotQuery)
	assert.Equal(t, "qdr:w", gotTBS)
	require.Len(t, results, 1)
	assert.Equal(t, "GDPR amendment announced", results[0].Title)
}

func TestSerperSearchRetriesOnRateLimit(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(serperResponse{
			Organic: []SearchResult{{Title: "ok", Link: "https://example.com"}},
		})
	}))
	defer server.Close()

	oldAPI := serperAPI
	serperAPI = server.URL
	defer func() { serperAPI = oldAPI }()

	client := newTestSerperClient()
	results, err := client.Search(context.Background(), "query", 5, "")

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, results, 1)
}

func TestSerperSearchNoRetryOnUnauthorized(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	oldAPI := serperAPI
	serperAPI = server.URL
	defer func() { serperAPI = oldAPI }()

	client := newTestSerperClient()
	_, err := client.Search(context.Background(), "query", 5, "")

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestSerperSearchWithoutAPIKey(t *testing.T) {
	client := NewSerperClient()
	client.apiKey = ""

	_, err := client.Search(context.Background(), "query", 5, "")

	assert.ErrorIs(t, err, ErrSerperNotConfigured)
}

func TestSearchRegulatoryUpdatesDeduplicates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Every query returns the same link plus a blank one
		json.NewEncoder(w).Encode(serperResponse{
			Organic: []SearchResult{
				{Title: "Same story", Link: "https://example.eu/story"},
				{Title: "No link"},
			},
		})
	}))
	defer server.Close()

	oldAPI := serperAPI
	serperAPI = server.URL
	defer func() { serperAPI = oldAPI }()

	client := newTestSerperClient()
	results, err := client.SearchRegulatoryUpdates(context.Background(), "CCPA", "w")

	require.NoError(t, err)
	// CCPA has two official domains plus the broad query; all return the
	// same link, which must appear once.
	assert.Len(t, results, 1)
}
