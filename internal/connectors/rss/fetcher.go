// Package rss fetches release feeds with conditional GET support,
// so unchanged feeds cost a header exchange instead of a full body.
package rss

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/koyomi/koyomi/internal/core/domain"
	"github.com/koyomi/koyomi/internal/logger"
	"github.com/koyomi/koyomi/internal/ratelimit"
)

// Item is a single entry in a release feed.
type Item struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	Description string `xml:"description"`
	PubDateRaw  string `xml:"pubDate"`

	// PublishedAt is parsed from PubDateRaw; zero when the feed
	// omits the date or uses a format we do not recognise.
	PublishedAt time.Time `xml:"-"`
}

// Feed is a parsed RSS 2.0 channel.
type Feed struct {
	Title       string `xml:"channel>title"`
	Link        string `xml:"channel>link"`
	Description string `xml:"channel>description"`
	Items       []Item `xml:"channel>item"`
}

// cacheEntry holds the validators from the last successful fetch of a URL.
type cacheEntry struct {
	etag         string
	lastModified string
}

// Fetcher retrieves feeds through the registry's rss gate. It remembers
// ETag and Last-Modified validators per URL and sends them on subsequent
// fetches, treating a 304 as "feed unchanged".
type Fetcher struct {
	httpClient *http.Client
	gate       *ratelimit.Limiter

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewFetcher creates a feed fetcher gated by the registry's rss limiter.
func NewFetcher(registry *ratelimit.Registry) (*Fetcher, error) {
	gate, err := registry.Get(domain.APIRSS)
	if err != nil {
		return nil, err
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		gate:       gate,
		cache:      make(map[string]cacheEntry),
	}, nil
}

// Fetch retrieves and parses the feed at feedURL. The second return
// value is false when the server reported the feed unchanged since the
// last fetch, in which case the feed is nil.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) (*Feed, bool, error) {
	f.gate.Gate()

	requestID := uuid.New().String()[:8]
	logger.Debug("[%s] Fetching feed %s", requestID, feedURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("rss: creating request: %w", err)
	}

	f.mu.Lock()
	entry, cached := f.cache[feedURL]
	f.mu.Unlock()
	if cached {
		if entry.etag != "" {
			req.Header.Set("If-None-Match", entry.etag)
		}
		if entry.lastModified != "" {
			req.Header.Set("If-Modified-Since", entry.lastModified)
		}
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("rss: fetching %s: %w", feedURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		logger.Debug("[%s] Feed unchanged (304)", requestID)
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("rss: unexpected status %d from %s", resp.StatusCode, feedURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("rss: reading feed body: %w", err)
	}

	feed, err := parse(body)
	if err != nil {
		return nil, false, err
	}

	f.mu.Lock()
	f.cache[feedURL] = cacheEntry{
		etag:         resp.Header.Get("ETag"),
		lastModified: resp.Header.Get("Last-Modified"),
	}
	f.mu.Unlock()

	logger.Debug("[%s] Parsed %d feed items", requestID, len(feed.Items))
	return feed, true, nil
}

// Forget drops the cached validators for feedURL, forcing the next
// Fetch to retrieve the full feed.
func (f *Fetcher) Forget(feedURL string) {
	f.mu.Lock()
	delete(f.cache, feedURL)
	f.mu.Unlock()
}

// pubDateLayouts covers the date formats seen across release feeds.
var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
}

func parse(body []byte) (*Feed, error) {
	var feed Feed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("rss: parsing feed: %w", err)
	}
	for i := range feed.Items {
		feed.Items[i].PublishedAt = parsePubDate(feed.Items[i].PubDateRaw)
	}
	return &feed, nil
}

func parsePubDate(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
