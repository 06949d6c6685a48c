package scrapers

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/lysyi3m/scrape-comb/app/config"
)

// FeedContent is the extracted shape of a watched RSS/Atom feed.
type FeedContent struct {
	Title string     `json:"title"`
	Items []FeedItem `json:"items"`
}

type FeedItem struct {
	GUID        string `json:"guid"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description,omitempty"`
	Published   string `json:"published,omitempty"`
}

// FeedStrategy watches an RSS/Atom feed and extracts a normalized item
// list. Volatile feed metadata (fetch dates, TTLs) is dropped so the
// fingerprint only changes when the items do.
type FeedStrategy struct {
	knownID   string
	url       string
	timeout   time.Duration
	client    *http.Client
	userAgent string
	parser    *gofeed.Parser
}

var _ Strategy = (*FeedStrategy)(nil)

func NewFeedStrategy(def config.Definition, client *http.Client, userAgent string) (Strategy, error) {
	return &FeedStrategy{
		knownID:   def.KnownID,
		url:       def.URL,
		timeout:   time.Duration(def.Timeout) * time.Second,
		client:    client,
		userAgent: userAgent,
		parser:    gofeed.NewParser(),
	}, nil
}

func (s *FeedStrategy) KnownID() string {
	return s.knownID
}

func (s *FeedStrategy) Scrape(ctx context.Context) (any, error) {
	data, err := fetch(ctx, s.client, s.url, s.userAgent, s.timeout)
	if err != nil {
		return nil, err
	}

	parsed, err := s.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &FetchError{URL: s.url, Err: err}
	}

	content := FeedContent{Title: parsed.Title}
	for _, item := range parsed.Items {
		content.Items = append(content.Items, FeedItem{
			GUID:        cmp.Or(item.GUID, item.Link),
			Title:       item.Title,
			Link:        item.Link,
			Description: item.Description,
			Published:   item.Published,
		})
	}

	return content, nil
}

func (s *FeedStrategy) Validate(raw any) error {
	content, ok := raw.(FeedContent)
	if !ok {
		return &ValidationError{Scraper: s.knownID, Reason: "content is not a feed"}
	}
	if len(content.Items) == 0 {
		return &ValidationError{Scraper: s.knownID, Reason: "feed has no items"}
	}
	for i, item := range content.Items {
		if item.GUID == "" {
			return &ValidationError{Scraper: s.knownID, Reason: fmt.Sprintf("item %d has no GUID or link", i)}
		}
		if item.Title == "" && item.Description == "" {
			return &ValidationError{Scraper: s.knownID, Reason: fmt.Sprintf("item %q has no title or description", item.GUID)}
		}
	}
	return nil
}
