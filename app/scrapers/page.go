package scrapers

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/lysyi3m/scrape-comb/app/config"
)

// PageContent is the extracted shape of a watched HTML page: the
// readable article portion, with boilerplate stripped.
type PageContent struct {
	Title   string `json:"title"`
	Excerpt string `json:"excerpt,omitempty"`
	Text    string `json:"text"`
}

// PageStrategy watches an HTML page and extracts its readable text for
// diffing, so navigation and ads do not trigger change detection.
type PageStrategy struct {
	knownID   string
	url       string
	timeout   time.Duration
	client    *http.Client
	userAgent string
}

var _ Strategy = (*PageStrategy)(nil)

func NewPageStrategy(def config.Definition, client *http.Client, userAgent string) (Strategy, error) {
	return &PageStrategy{
		knownID:   def.KnownID,
		url:       def.URL,
		timeout:   time.Duration(def.Timeout) * time.Second,
		client:    client,
		userAgent: userAgent,
	}, nil
}

func (s *PageStrategy) KnownID() string {
	return s.knownID
}

func (s *PageStrategy) Scrape(ctx context.Context) (any, error) {
	data, err := fetch(ctx, s.client, s.url, s.userAgent, s.timeout)
	if err != nil {
		return nil, err
	}

	pageURL, _ := url.Parse(s.url)
	article, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err != nil {
		return nil, &FetchError{URL: s.url, Err: err}
	}

	return PageContent{
		Title:   article.Title,
		Excerpt: article.Excerpt,
		Text:    strings.TrimSpace(article.TextContent),
	}, nil
}

func (s *PageStrategy) Validate(raw any) error {
	content, ok := raw.(PageContent)
	if !ok {
		return &ValidationError{Scraper: s.knownID, Reason: "content is not a page"}
	}
	if content.Text == "" {
		return &ValidationError{Scraper: s.knownID, Reason: "no readable text extracted"}
	}
	return nil
}
