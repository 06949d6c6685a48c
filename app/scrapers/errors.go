package scrapers

import (
	"fmt"
)

// FetchError signals that a strategy could not retrieve content
// (network error, timeout, bad HTTP status). Runs triggered by a fetch
// error end in failure and are retried on the next scheduled tick.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ValidationError signals that retrieved content does not match the
// strategy's expected shape. The payload is never persisted.
type ValidationError struct {
	Scraper string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Scraper, e.Reason)
}
