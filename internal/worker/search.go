package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/arthurspriet/hawk-ai-go/internal/domain"
)

// WebSearcher fetches recency-relevant results for a query. It is the
// narrow interface Search depends on — a single outbound call behind an
// interface, so tests inject a stub instead of hitting the network.
type WebSearcher interface {
	Search(ctx context.Context, queryText string) ([]SearchHit, error)
}

// SearchHit is one web search result.
type SearchHit struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Snippet string `json:"snippet"`
}

// Search is the `search` worker: triggered by current/recency cues
// ("today", "latest", "news"). It does not require fused evidence — it
// generates fresh evidence of its own via live web search.
type Search struct {
	Searcher WebSearcher
}

func (s *Search) ID() domain.WorkerID    { return domain.WorkerSearch }
func (s *Search) RequiresEvidence() bool { return false }

func (s *Search) Run(ctx context.Context, queryText string, _ *domain.FusedEvidence, progress ProgressFunc) domain.WorkerResult {
	progress("searching the web")

	hits, err := s.Searcher.Search(ctx, queryText)
	if err != nil {
		return domain.WorkerResult{Status: domain.StatusError, ErrorKind: "search_unavailable", OutputText: err.Error()}
	}
	if len(hits) == 0 {
		return domain.WorkerResult{Status: domain.StatusOK, OutputText: "No current web results found."}
	}

	structured := make(map[string]any, 1)
	resultsAny := make([]any, len(hits))
	var output string
	for i, h := range hits {
		resultsAny[i] = h
		output += fmt.Sprintf("%d. %s (%s)\n   %s\n", i+1, h.Title, h.URL, h.Snippet)
		progress(fmt.Sprintf("found: %s", h.Title))
	}
	structured["results"] = resultsAny

	return domain.WorkerResult{
		Status:           domain.StatusOK,
		OutputText:       output,
		StructuredOutput: structured,
	}
}

// HTTPSearcher implements WebSearcher against a configurable search API
// endpoint (e.g. a self-hosted SearXNG instance). Evidence-source
// ingestion is handled elsewhere; this is the narrow HTTP client
// consuming one.
type HTTPSearcher struct {
	Client   *http.Client
	Endpoint string // e.g. "http://localhost:8080/search"
}

// NewHTTPSearcher builds an HTTPSearcher with a default client.
func NewHTTPSearcher(endpoint string) *HTTPSearcher {
	return &HTTPSearcher{Client: &http.Client{}, Endpoint: endpoint}
}

func (h *HTTPSearcher) Search(ctx context.Context, queryText string) ([]SearchHit, error) {
	u, err := url.Parse(h.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("search: invalid endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", queryText)
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("search: build request: %w", err)
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("search: read body: %w", err)
	}

	var payload struct {
		Results []SearchHit `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("search: decode response: %w", err)
	}
	return payload.Results, nil
}
