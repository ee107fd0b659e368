package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// RSS fetches entries from an RSS/Atom feed. Feeds carry no numeric
// message ID, so the ordering key is the entry publish time in unix
// seconds, which is monotonic enough for a checkpointed feed.
type RSS struct {
	client *http.Client
	parser *gofeed.Parser
}

// NewRSS creates an RSS feed adapter.
func NewRSS() *RSS {
	return &RSS{
		client: &http.Client{Timeout: 30 * time.Second},
		parser: gofeed.NewParser(),
	}
}

func (r *RSS) Kind() Kind { return KindRSS }

// Fetch returns up to limit feed entries published after afterID
// (unix seconds), most-recent-first.
func (r *RSS) Fetch(ctx context.Context, address string, afterID int64, limit int) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, address, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request %s: %w", address, err)
	}
	req.Header.Set("User-Agent", "telescan/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s status %d", address, resp.StatusCode)
	}

	parsed, err := r.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", address, err)
	}

	var items []Item
	for _, entry := range parsed.Items {
		published := entry.PublishedParsed
		if published == nil {
			published = entry.UpdatedParsed
		}
		if published == nil {
			continue
		}

		id := published.Unix()
		if id <= afterID {
			continue
		}

		text := entryText(entry)
		if text == "" {
			continue
		}

		items = append(items, Item{
			ID:         id,
			Text:       text,
			OccurredAt: published.UTC(),
		})
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

// entryText flattens a feed entry into title-first text so the first
// line can serve as the document title downstream.
func entryText(entry *gofeed.Item) string {
	body := entry.Content
	if body == "" {
		body = entry.Description
	}

	title := strings.TrimSpace(entry.Title)
	body = strings.TrimSpace(body)

	switch {
	case title == "":
		return body
	case body == "":
		return title
	default:
		return title + "\n" + body
	}
}
