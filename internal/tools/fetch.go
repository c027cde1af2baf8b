package tools

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/firebase/genkit/go/ai"
	readability "github.com/go-shiori/go-readability"
	"github.com/gocolly/colly/v2"
)

const (
	maxFetchURLs    = 10
	maxContentChars = 8000
)

// WebFetchInput is the webFetch tool input.
type WebFetchInput struct {
	URLs []string `json:"urls" jsonschema_description:"URLs to fetch, at most 10"`
}

// FetchedPage is one successfully fetched and extracted page.
type FetchedPage struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

// WebFetchOutput is the webFetch tool output. Per-URL failures land in
// FailedURLs; Error is set only when the whole call is unusable.
type WebFetchOutput struct {
	Results    []FetchedPage `json:"results"`
	FailedURLs []string      `json:"failed_urls,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// WebFetch downloads the given pages concurrently and extracts their
// readable text. URLs that fail validation or download are reported
// individually without failing the rest of the batch.
func (k *Kit) WebFetch(ctx *ai.ToolContext, input WebFetchInput) (WebFetchOutput, error) {
	out := WebFetchOutput{Results: []FetchedPage{}}

	if len(input.URLs) == 0 {
		out.Error = "at least one URL is required"
		return out, nil
	}
	if len(input.URLs) > maxFetchURLs {
		out.Error = fmt.Sprintf("too many URLs: %d (maximum %d)", len(input.URLs), maxFetchURLs)
		return out, nil
	}

	k.logger.Info("webFetch called", "url_count", len(input.URLs))

	var valid []string
	for _, raw := range input.URLs {
		if err := k.guard.Validate(ctx, raw); err != nil {
			k.logger.Warn("webFetch URL rejected", "url", raw, "error", err)
			out.FailedURLs = append(out.FailedURLs, raw)
			continue
		}
		valid = append(valid, raw)
	}
	if len(valid) == 0 {
		out.Error = "no fetchable URLs after validation"
		return out, nil
	}

	timeout := time.Duration(k.scraper.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	delay := time.Duration(k.scraper.DelayMs) * time.Millisecond
	parallelism := k.scraper.Parallelism
	if parallelism <= 0 {
		parallelism = 2
	}

	c := colly.NewCollector(
		colly.Async(true),
		colly.UserAgent("steelhand/1.0"),
	)
	c.SetClient(k.guard.Client(timeout))
	c.SetRequestTimeout(timeout)
	_ = c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: parallelism,
		Delay:       delay,
	})

	var mu sync.Mutex
	c.OnResponse(func(r *colly.Response) {
		title, content := extractReadable(r.Body, r.Request.URL)
		mu.Lock()
		defer mu.Unlock()
		out.Results = append(out.Results, FetchedPage{
			URL:     r.Request.URL.String(),
			Title:   title,
			Content: content,
		})
	})
	c.OnError(func(r *colly.Response, err error) {
		k.logger.Warn("webFetch download failed", "url", r.Request.URL.String(), "error", err)
		mu.Lock()
		defer mu.Unlock()
		out.FailedURLs = append(out.FailedURLs, r.Request.URL.String())
	})

	for _, u := range valid {
		if err := c.Visit(u); err != nil {
			mu.Lock()
			out.FailedURLs = append(out.FailedURLs, u)
			mu.Unlock()
		}
	}
	c.Wait()

	k.logger.Info("webFetch done",
		"fetched", len(out.Results), "failed", len(out.FailedURLs))
	return out, nil
}

// extractReadable pulls the main article text from an HTML page. When
// readability cannot find an article it falls back to stripping tags
// from the whole document.
func extractReadable(body []byte, pageURL *url.URL) (title, content string) {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return article.Title, truncate(normalizeSpace(article.TextContent))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", ""
	}
	title = doc.Find("title").First().Text()
	doc.Find("script, style, noscript").Remove()
	return title, truncate(normalizeSpace(doc.Text()))
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string) string {
	if len(s) <= maxContentChars {
		return s
	}
	return s[:maxContentChars] + " [truncated]"
}
