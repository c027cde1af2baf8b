package tools

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/firebase/genkit/go/ai"
)

const maxSearchResults = 8

// WebSearchInput is the webSearch tool input.
type WebSearchInput struct {
	Query string `json:"query" jsonschema_description:"The search query"`
}

// SearchResult is a single search hit.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// WebSearchOutput is the webSearch tool output. Operational failures
// are reported in Error so the model can react instead of aborting
// the whole generation turn.
type WebSearchOutput struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Error   string         `json:"error,omitempty"`
}

// searxngResponse mirrors the fields we use from the SearXNG JSON API.
type searxngResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// WebSearch queries the configured SearXNG instance.
func (k *Kit) WebSearch(ctx *ai.ToolContext, input WebSearchInput) (WebSearchOutput, error) {
	out := WebSearchOutput{Query: input.Query, Results: []SearchResult{}}
	if input.Query == "" {
		out.Error = "query must not be empty"
		return out, nil
	}

	k.logger.Info("webSearch called", "query", input.Query)

	endpoint := fmt.Sprintf("%s/search?q=%s&format=json",
		k.searxng.BaseURL, url.QueryEscape(input.Query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		out.Error = fmt.Sprintf("build search request: %v", err)
		return out, nil
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		k.logger.Warn("webSearch request failed", "query", input.Query, "error", err)
		out.Error = fmt.Sprintf("search request failed: %v", err)
		return out, nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		out.Error = fmt.Sprintf("search engine returned status %d", resp.StatusCode)
		return out, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		out.Error = fmt.Sprintf("read search response: %v", err)
		return out, nil
	}

	var parsed searxngResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		out.Error = fmt.Sprintf("decode search response: %v", err)
		return out, nil
	}

	for _, r := range parsed.Results {
		out.Results = append(out.Results, SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Content,
		})
		if len(out.Results) >= maxSearchResults {
			break
		}
	}

	k.logger.Info("webSearch done", "query", input.Query, "result_count", len(out.Results))
	return out, nil
}
