package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// serperAPI is a var so tests can point it at an httptest server
var serperAPI = "https://google.serper.dev/search"

var ErrSerperNotConfigured = errors.New("SERPER_API_KEY not configured")

// officialSources lists the regulator domains searched per framework
var officialSources = map[string][]string{
	"GDPR":  {"ec.europa.eu", "edpb.europa.eu", "eur-lex.europa.eu"},
	"HIPAA": {"hhs.gov", "ocr.hhs.gov", "federalregister.gov"},
	"CCPA":  {"oag.ca.gov", "cppa.ca.gov"},
	"SOX":   {"sec.gov", "pcaob.org"},
}

// frameworkKeywords seeds the per-framework search queries
var frameworkKeywords = map[string][]string{
	"GDPR":  {"data protection", "privacy", "EDPB"},
	"HIPAA": {"health information", "PHI", "covered entity"},
	"CCPA":  {"consumer privacy", "personal information", "opt-out"},
	"SOX":   {"financial reporting", "internal controls", "audit"},
}

// SerperClient calls the Serper.dev Google Search API
type SerperClient struct {
	apiKey     string
	httpClient *http.Client
}

// NewSerperClient creates a Serper client reading the API key from the
// SERPER_API_KEY environment variable.
func NewSerperClient() *SerperClient {
	return &SerperClient{
		apiKey: os.Getenv("SERPER_API_KEY"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Configured reports whether an API key is available
func (c *SerperClient) Configured() bool {
	return c.apiKey != ""
}

type serperRequest struct {
	Query string `json:"q"`
	Num   int    `json:"num,omitempty"`
	TBS   string `json:"tbs,omitempty"`
}

// SearchResult is one organic result from a Serper search
type SearchResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Date    string `json:"date,omitempty"`
	Source  string `json:"source,omitempty"`
}

type serperResponse struct {
	Organic []SearchResult `json:"organic"`
	Error   string         `json:"error,omitempty"`
}

// Search performs a Google search via the Serper API. timeRange uses
// Google's qdr codes: "d" (day), "w" (week), "m" (month), "y" (year).
func (c *SerperClient) Search(ctx context.Context, query string, numResults int, timeRange string) ([]SearchResult, error) {
	if c.apiKey == "" {
		return nil, ErrSerperNotConfigured
	}

	reqBody := serperRequest{
		Query: query,
		Num:   numResults,
	}
	if timeRange != "" {
		reqBody.TBS = "qdr:" + timeRange
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	backoff := initialBackoff
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, "POST", serperAPI, bytes.NewBuffer(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-KEY", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("search request failed: %w", err)
			log.Printf("Warning: Serper attempt %d/%d failed: %v", attempt, maxRetries, err)
			time.Sleep(backoff)
			backoff *= 2
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			time.Sleep(backoff)
			backoff *= 2
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = errors.New("search rate limited")
			log.Printf("Warning: Serper rate limited, attempt %d/%d", attempt, maxRetries)
			time.Sleep(backoff)
			backoff *= 2
			continue
		}

		if resp.StatusCode != http.StatusOK {
			// Client errors won't get better on retry
			if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
				return nil, fmt.Errorf("search failed with status %d: %s", resp.StatusCode, string(body))
			}
			lastErr = fmt.Errorf("search failed with status %d", resp.StatusCode)
			time.Sleep(backoff)
			backoff *= 2
			continue
		}

		var searchResp serperResponse
		if err := json.Unmarshal(body, &searchResp); err != nil {
			return nil, fmt.Errorf("failed to decode search response: %w", err)
		}
		if searchResp.Error != "" {
			return nil, fmt.Errorf("search error: %s", searchResp.Error)
		}

		return searchResp.Organic, nil
	}

	return nil, fmt.Errorf("search failed after %d attempts: %w", maxRetries, lastErr)
}

// SearchRegulatoryUpdates searches official sources for recent updates to a
// framework, combining per-domain site-restricted queries.
func (c *SerperClient) SearchRegulatoryUpdates(ctx context.Context, framework, timeRange string) ([]SearchResult, error) {
	domains := officialSources[framework]
	keywords := frameworkKeywords[framework]

	seen := make(map[string]bool)
	var all []SearchResult

	for _, domain := range domains {
		query := fmt.Sprintf("site:%s %s update OR amendment OR guidance", domain, framework)
		results, err := c.Search(ctx, query, 10, timeRange)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			if r.Link == "" || seen[r.Link] {
				continue
			}
			seen[r.Link] = true
			if r.Source == "" {
				r.Source = domain
			}
			all = append(all, r)
		}
	}

	// Broad query catches coverage outside the official domains
	query := framework
	for _, kw := range keywords {
		query += " " + kw
	}
	query += " update OR amendment OR regulation OR compliance"

	results, err := c.Search(ctx, query, 20, timeRange)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if r.Link == "" || seen[r.Link] {
			continue
		}
		seen[r.Link] = true
		all = append(all, r)
	}

	return all, nil
}
