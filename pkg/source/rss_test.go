package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Town news</title>
  <item>
    <title>Water outage downtown</title>
    <description>Repairs from 9 to 17.</description>
    <pubDate>Mon, 03 Mar 2025 12:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Concert in the park</title>
    <description>Saturday evening.</description>
    <pubDate>Sun, 02 Mar 2025 12:00:00 GMT</pubDate>
  </item>
  <item>
    <title></title>
    <description></description>
    <pubDate>Sat, 01 Mar 2025 12:00:00 GMT</pubDate>
  </item>
</channel>
</rss>`

func serveFeed(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRSSFetch(t *testing.T) {
	srv := serveFeed(t, testFeed)

	r := NewRSS()
	items, err := r.Fetch(context.Background(), srv.URL, 0, 100)
	require.NoError(t, err)

	// Empty entry excluded, newest first.
	require.Len(t, items, 2)
	assert.Equal(t, "Water outage downtown\nRepairs from 9 to 17.", items[0].Text)
	assert.Equal(t, "Concert in the park\nSaturday evening.", items[1].Text)
	assert.Greater(t, items[0].ID, items[1].ID)
	assert.Equal(t, items[0].OccurredAt.Unix(), items[0].ID)
}

func TestRSSFetchAfterID(t *testing.T) {
	srv := serveFeed(t, testFeed)

	r := NewRSS()
	all, err := r.Fetch(context.Background(), srv.URL, 0, 100)
	require.NoError(t, err)
	require.Len(t, all, 2)

	// Strictly-greater boundary: re-fetching from the newest key yields
	// nothing.
	items, err := r.Fetch(context.Background(), srv.URL, all[0].ID, 100)
	require.NoError(t, err)
	assert.Empty(t, items)

	// From the older key, only the newer entry comes back.
	items, err = r.Fetch(context.Background(), srv.URL, all[1].ID, 100)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, all[0].ID, items[0].ID)
}

func TestRSSFetchLimit(t *testing.T) {
	srv := serveFeed(t, testFeed)

	r := NewRSS()
	items, err := r.Fetch(context.Background(), srv.URL, 0, 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestRSSFetchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r := NewRSS()
	_, err := r.Fetch(context.Background(), srv.URL, 0, 100)
	assert.Error(t, err)
}
