// Package scrape extracts clean text from fetched web content for the
// fetch_url_content tool.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/graforest-inc/graforest-mcp/pkg/retry"
)

// MaxContentLength caps extracted text at 500k characters, the same ceiling
// the ingestion workflow enforces.
const MaxContentLength = 500_000

const fetchTimeout = 30 * time.Second

var (
	scriptStylePattern = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	tagPattern         = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
)

// Result holds the extracted text and fetch metadata.
type Result struct {
	Text      string         `json:"text"`
	CharCount int            `json:"char_count"`
	Metadata  map[string]any `json:"metadata"`
	SourceURL string         `json:"source_url"`
}

// Fetcher downloads URLs and extracts readable text.
type Fetcher struct {
	httpClient *http.Client
	retryCfg   *retry.Config
}

// NewFetcher creates a Fetcher with a fixed request timeout and redirect
// following. Transient fetch failures (network drops, 5xx, rate limits) are
// retried with backoff before giving up; GETs against arbitrary URLs are
// idempotent, so the retry is safe.
func NewFetcher() *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: fetchTimeout,
		},
		retryCfg: retry.DefaultConfig(),
	}
}

// Fetch downloads a URL and returns its content as clean text. HTML is
// stripped to text; anything else passes through verbatim. Output is capped
// at MaxContentLength characters.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	var body []byte
	var contentType string
	var statusCode int

	err := retry.DoIfRetryable(ctx, f.retryCfg, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := f.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to fetch URL: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("URL returned status %d", resp.StatusCode)
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}
		contentType = resp.Header.Get("Content-Type")
		statusCode = resp.StatusCode
		return nil
	})
	if err != nil {
		return nil, err
	}

	text := string(body)
	if strings.Contains(contentType, "text/html") {
		text = HTMLToText(text)
	}
	if len(text) > MaxContentLength {
		text = text[:MaxContentLength]
	}

	return &Result{
		Text:      text,
		CharCount: len(text),
		Metadata: map[string]any{
			"content_type": contentType,
			"status_code":  statusCode,
		},
		SourceURL: rawURL,
	}, nil
}

// HTMLToText strips an HTML document down to its readable text: script and
// style blocks removed, tags replaced by spaces, whitespace collapsed.
func HTMLToText(html string) string {
	text := scriptStylePattern.ReplaceAllString(html, "")
	text = tagPattern.ReplaceAllString(text, " ")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
