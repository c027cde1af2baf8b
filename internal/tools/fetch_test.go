package tools

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steelhand/steelhand/internal/config"
	"github.com/steelhand/steelhand/internal/log"
)

func newFetchKit(t *testing.T) *Kit {
	t.Helper()
	kit, err := NewKit(KitConfig{
		Guard: noopGuard(t),
		DB:    &stubQuerier{},
		Scraper: config.WebScraperConfig{
			Parallelism: 2,
			DelayMs:     10,
			TimeoutMs:   5000,
		},
		Logger: log.NewNop(),
	})
	require.NoError(t, err)
	return kit
}

func TestWebFetch_InputValidation(t *testing.T) {
	kit := newFetchKit(t)

	out, err := kit.WebFetch(toolCtx(), WebFetchInput{})
	require.NoError(t, err)
	assert.Contains(t, out.Error, "at least one URL")

	urls := make([]string, maxFetchURLs+1)
	for i := range urls {
		urls[i] = "https://example.com/page"
	}
	out, err = kit.WebFetch(toolCtx(), WebFetchInput{URLs: urls})
	require.NoError(t, err)
	assert.Contains(t, out.Error, "too many URLs")
}

func TestWebFetch_BlockedURLsFailIndividually(t *testing.T) {
	kit := newFetchKit(t)

	out, err := kit.WebFetch(toolCtx(), WebFetchInput{URLs: []string{
		"http://169.254.169.254/latest/meta-data/",
		"http://localhost:8080/admin",
	}})
	require.NoError(t, err)
	assert.Len(t, out.FailedURLs, 2)
	assert.Contains(t, out.Error, "no fetchable URLs")
}

func TestExtractReadable_Article(t *testing.T) {
	html := `<!DOCTYPE html>
<html>
<head><title>SVL97-2 Hydraulic System</title></head>
<body>
<article>
<h1>SVL97-2 Hydraulic System</h1>
<p>The auxiliary hydraulic circuit delivers up to 40 gpm in high-flow configuration.
Relief pressure is set at 3,185 psi from the factory and should not be adjusted in the field.</p>
<p>Check the case drain filter every 500 hours. A clogged case drain is the most common
cause of slow attachment response.</p>
</article>
<script>analytics();</script>
</body>
</html>`

	pageURL, _ := url.Parse("https://example.com/svl97-hydraulics")
	title, content := extractReadable([]byte(html), pageURL)

	assert.Contains(t, title, "SVL97-2")
	assert.Contains(t, content, "auxiliary hydraulic circuit")
	assert.NotContains(t, content, "analytics()")
}

func TestExtractReadable_FallbackStripsTags(t *testing.T) {
	html := `<html><head><title>Bare Page</title><style>p{color:red}</style></head>
<body><p>plain text body</p><script>var x = 1;</script></body></html>`

	pageURL, _ := url.Parse("https://example.com/bare")
	title, content := extractReadable([]byte(html), pageURL)

	assert.Equal(t, "Bare Page", title)
	assert.Contains(t, content, "plain text body")
	assert.NotContains(t, content, "var x")
	assert.NotContains(t, content, "color:red")
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("a", maxContentChars+100)
	got := truncate(long)
	assert.Len(t, got, maxContentChars+len(" [truncated]"))
	assert.True(t, strings.HasSuffix(got, "[truncated]"))

	assert.Equal(t, "short", truncate("short"))
}
