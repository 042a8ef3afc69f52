package rss

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koyomi/koyomi/internal/core/domain"
	"github.com/koyomi/koyomi/internal/ratelimit"
)

const feedFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Release Feed</title>
    <link>https://releases.example.com</link>
    <description>Latest releases</description>
    <item>
      <title>[Group] Frieren - 12 [1080p]</title>
      <link>https://releases.example.com/view/1</link>
      <guid>https://releases.example.com/view/1</guid>
      <description>New episode</description>
      <pubDate>Sat, 29 Aug 2026 18:00:00 +0000</pubDate>
    </item>
    <item>
      <title>[Group] Frieren - 11 [1080p]</title>
      <link>https://releases.example.com/view/2</link>
      <guid>https://releases.example.com/view/2</guid>
      <description>Previous episode</description>
      <pubDate>not-a-date</pubDate>
    </item>
  </channel>
</rss>`

func newTestFetcher(t *testing.T, handler http.HandlerFunc) (*Fetcher, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	registry := ratelimit.NewRegistry(map[domain.APIName]domain.Quota{
		domain.APIRSS: {Capacity: 100, Window: time.Second},
	})
	fetcher, err := NewFetcher(registry)
	require.NoError(t, err)
	return fetcher, srv
}

func TestFetcher_Fetch(t *testing.T) {
	fetcher, srv := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte(feedFixture))
	})

	feed, changed, err := fetcher.Fetch(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.True(t, changed)
	require.NotNil(t, feed)
	assert.Equal(t, "Release Feed", feed.Title)
	require.Len(t, feed.Items, 2)

	first := feed.Items[0]
	assert.Equal(t, "[Group] Frieren - 12 [1080p]", first.Title)
	assert.Equal(t, time.Date(2026, 8, 29, 18, 0, 0, 0, time.UTC), first.PublishedAt.UTC())

	// Unparseable dates degrade to a zero time, not an error.
	assert.True(t, feed.Items[1].PublishedAt.IsZero())
}

func TestFetcher_ConditionalGet(t *testing.T) {
	var requests int
	fetcher, srv := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		assert.Empty(t, r.Header.Get("If-None-Match"), "first fetch must be unconditional")
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Last-Modified", "Sat, 29 Aug 2026 18:00:00 GMT")
		w.Write([]byte(feedFixture))
	})

	feed, changed, err := fetcher.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.True(t, changed)
	require.NotNil(t, feed)

	feed, changed, err = fetcher.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Nil(t, feed)
	assert.Equal(t, 2, requests)
}

func TestFetcher_ForgetForcesRefetch(t *testing.T) {
	var conditional int
	fetcher, srv := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") != "" {
			conditional++
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte(feedFixture))
	})

	_, _, err := fetcher.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	fetcher.Forget(srv.URL)

	feed, changed, err := fetcher.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.True(t, changed)
	require.NotNil(t, feed)
	assert.Zero(t, conditional)
}

func TestFetcher_ServerError(t *testing.T) {
	fetcher, srv := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})

	_, _, err := fetcher.Fetch(context.Background(), srv.URL)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "410")
}

func TestFetcher_MalformedFeed(t *testing.T) {
	fetcher, srv := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not xml at all <<<"))
	})

	_, _, err := fetcher.Fetch(context.Background(), srv.URL)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing feed")
}
