package scrapers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lysyi3m/scrape-comb/app/config"
)

// APIStrategy watches a JSON endpoint. When the definition lists
// fields, only those top-level fields are extracted and compared, so
// volatile fields (request ids, server timestamps) can be left out.
type APIStrategy struct {
	knownID   string
	url       string
	fields    []string
	timeout   time.Duration
	client    *http.Client
	userAgent string
}

var _ Strategy = (*APIStrategy)(nil)

func NewAPIStrategy(def config.Definition, client *http.Client, userAgent string) (Strategy, error) {
	return &APIStrategy{
		knownID:   def.KnownID,
		url:       def.URL,
		fields:    def.Fields,
		timeout:   time.Duration(def.Timeout) * time.Second,
		client:    client,
		userAgent: userAgent,
	}, nil
}

func (s *APIStrategy) KnownID() string {
	return s.knownID
}

func (s *APIStrategy) Scrape(ctx context.Context) (any, error) {
	data, err := fetch(ctx, s.client, s.url, s.userAgent, s.timeout)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &FetchError{URL: s.url, Err: fmt.Errorf("invalid JSON response: %w", err)}
	}

	if len(s.fields) == 0 {
		return payload, nil
	}

	extracted := make(map[string]any, len(s.fields))
	for _, field := range s.fields {
		if value, ok := payload[field]; ok {
			extracted[field] = value
		}
	}

	return extracted, nil
}

func (s *APIStrategy) Validate(raw any) error {
	payload, ok := raw.(map[string]any)
	if !ok {
		return &ValidationError{Scraper: s.knownID, Reason: "content is not a JSON object"}
	}
	if len(payload) == 0 {
		return &ValidationError{Scraper: s.knownID, Reason: "payload is empty"}
	}
	for _, field := range s.fields {
		value, ok := payload[field]
		if !ok || value == nil {
			return &ValidationError{Scraper: s.knownID, Reason: fmt.Sprintf("missing required field %q", field)}
		}
	}
	return nil
}
