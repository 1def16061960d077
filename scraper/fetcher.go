// Package scraper fetches candidate product pages and extracts the facts the
// pipeline needs: title, thumbnail, and raw price text.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"arcognition/models"
)

const (
	// maxPageBytes caps how much of a candidate page is read. Product
	// metadata lives near the top; anything past this is noise.
	maxPageBytes = 4 << 20

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Fetcher retrieves the raw content of a candidate page. Payloads are treated
// as opaque bytes: malformed HTML and non-UTF8 encodings are the parser's
// problem, not the fetcher's.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher is the default fetcher: a plain GET with a browser user agent
// and a hard timeout.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates an HTTP fetcher with the given per-request timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads the page body. Any transport error, timeout, or non-2xx
// status maps to models.ErrFetchFailure so the caller can skip the candidate.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrFetchFailure, url, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrFetchFailure, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: status %d", models.ErrFetchFailure, url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrFetchFailure, url, err)
	}
	return body, nil
}
