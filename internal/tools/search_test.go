package tools

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steelhand/steelhand/internal/config"
	"github.com/steelhand/steelhand/internal/log"
)

func newSearchKit(t *testing.T, baseURL string) *Kit {
	t.Helper()
	kit, err := NewKit(KitConfig{
		Guard:   noopGuard(t),
		DB:      &stubQuerier{},
		SearXNG: config.SearXNGConfig{BaseURL: baseURL},
		Logger:  log.NewNop(),
	})
	require.NoError(t, err)
	return kit
}

func TestWebSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "kubota svl97-2 specs", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"results": [
				{"title": "Kubota SVL97-2 Specifications", "url": "https://example.com/svl97", "content": "96.4 hp compact track loader"},
				{"title": "SVL97-2 Brochure", "url": "https://example.com/brochure", "content": "Operating specs and dimensions"}
			]
		}`)
	}))
	defer server.Close()

	kit := newSearchKit(t, server.URL)
	out, err := kit.WebSearch(toolCtx(), WebSearchInput{Query: "kubota svl97-2 specs"})
	require.NoError(t, err)

	assert.Empty(t, out.Error)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "Kubota SVL97-2 Specifications", out.Results[0].Title)
	assert.Equal(t, "96.4 hp compact track loader", out.Results[0].Snippet)
}

func TestWebSearch_EmptyQuery(t *testing.T) {
	kit := newSearchKit(t, "http://searxng.invalid")
	out, err := kit.WebSearch(toolCtx(), WebSearchInput{})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Error)
	assert.Empty(t, out.Results)
}

func TestWebSearch_EngineFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	kit := newSearchKit(t, server.URL)
	out, err := kit.WebSearch(toolCtx(), WebSearchInput{Query: "anything"})
	require.NoError(t, err, "engine failures are reported in the output, not as errors")
	assert.Contains(t, out.Error, "502")
}

func TestWebSearch_CapsResultCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"results": [`)
		for i := 0; i < 20; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"title": "r%d", "url": "https://example.com/%d"}`, i, i)
		}
		fmt.Fprint(w, `]}`)
	}))
	defer server.Close()

	kit := newSearchKit(t, server.URL)
	out, err := kit.WebSearch(toolCtx(), WebSearchInput{Query: "many"})
	require.NoError(t, err)
	assert.Len(t, out.Results, maxSearchResults)
}
