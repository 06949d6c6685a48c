package scrapers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lysyi3m/scrape-comb/app/config"
)

const testRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Blog</title>
    <link>https://example.com</link>
    <item>
      <guid>post-1</guid>
      <title>First Post</title>
      <link>https://example.com/1</link>
      <description>Hello world</description>
    </item>
    <item>
      <title>Second Post</title>
      <link>https://example.com/2</link>
    </item>
  </channel>
</rss>`

func feedDefinition(url string) config.Definition {
	return config.Definition{
		KnownID: "blog",
		Name:    "Example Blog",
		Type:    "feed",
		URL:     url,
		Timeout: 5,
	}
}

func TestFeedStrategyScrape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("Expected User-Agent 'test-agent', got '%s'", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testRSS))
	}))
	defer server.Close()

	strategy, err := NewFeedStrategy(feedDefinition(server.URL), server.Client(), "test-agent")
	if err != nil {
		t.Fatal(err)
	}

	raw, err := strategy.Scrape(context.Background())
	if err != nil {
		t.Fatalf("Failed to scrape feed: %v", err)
	}

	content, ok := raw.(FeedContent)
	if !ok {
		t.Fatalf("Expected FeedContent, got %T", raw)
	}
	if content.Title != "Example Blog" {
		t.Errorf("Expected title 'Example Blog', got '%s'", content.Title)
	}
	if len(content.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(content.Items))
	}
	if content.Items[0].GUID != "post-1" {
		t.Errorf("Expected GUID 'post-1', got '%s'", content.Items[0].GUID)
	}
	// An item without a GUID falls back to its link.
	if content.Items[1].GUID != "https://example.com/2" {
		t.Errorf("Expected link fallback GUID, got '%s'", content.Items[1].GUID)
	}

	if err := strategy.Validate(raw); err != nil {
		t.Errorf("Expected valid content, got %v", err)
	}
}

func TestFeedStrategyScrapeInvalidXML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not a feed"))
	}))
	defer server.Close()

	strategy, err := NewFeedStrategy(feedDefinition(server.URL), server.Client(), "test-agent")
	if err != nil {
		t.Fatal(err)
	}

	_, err = strategy.Scrape(context.Background())
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Errorf("Expected FetchError for an unparseable feed, got %v", err)
	}
}

func TestFeedStrategyScrapeHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	strategy, err := NewFeedStrategy(feedDefinition(server.URL), server.Client(), "test-agent")
	if err != nil {
		t.Fatal(err)
	}

	_, err = strategy.Scrape(context.Background())
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected FetchError for HTTP 503, got %v", err)
	}
	if fetchErr.URL != server.URL {
		t.Errorf("Expected error to carry the URL, got '%s'", fetchErr.URL)
	}
}

func TestFeedStrategyValidate(t *testing.T) {
	strategy := &FeedStrategy{knownID: "blog"}

	var validationErr *ValidationError

	err := strategy.Validate("not a feed")
	if !errors.As(err, &validationErr) {
		t.Errorf("Expected ValidationError for wrong type, got %v", err)
	}

	err = strategy.Validate(FeedContent{Title: "Empty"})
	if !errors.As(err, &validationErr) {
		t.Errorf("Expected ValidationError for a feed with no items, got %v", err)
	}

	err = strategy.Validate(FeedContent{Items: []FeedItem{{Title: "No GUID"}}})
	if !errors.As(err, &validationErr) {
		t.Errorf("Expected ValidationError for an item without GUID, got %v", err)
	}

	err = strategy.Validate(FeedContent{Items: []FeedItem{{GUID: "g"}}})
	if !errors.As(err, &validationErr) {
		t.Errorf("Expected ValidationError for an item without title or description, got %v", err)
	}

	err = strategy.Validate(FeedContent{Items: []FeedItem{{GUID: "g", Title: "Fine"}}})
	if err != nil {
		t.Errorf("Expected valid feed content, got %v", err)
	}
}
