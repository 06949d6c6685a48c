package scrapers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Strategy is one pluggable source: it knows how to fetch and extract
// raw content for a scraper and how to validate that content against
// the shape the scraper is expected to produce. The pipeline treats
// Scrape as an opaque, possibly slow, possibly flaky operation.
type Strategy interface {
	KnownID() string
	Scrape(ctx context.Context) (any, error)
	Validate(raw any) error
}

// fetch retrieves the body at url, wrapping every failure mode in a
// FetchError. Timeouts come from def.Timeout via the passed context.
func fetch(ctx context.Context, client *http.Client, url, userAgent string, timeout time.Duration) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	return data, nil
}
