// Package source provides adapters that fetch candidate items from
// external content origins.
package source

import (
	"context"
	"time"
)

// Kind identifies the type of a content origin.
type Kind string

const (
	KindTelegram Kind = "telegram"
	KindRSS      Kind = "rss"
)

// Item is one unit of content yielded by an origin, not yet classified
// or embedded. ID is the origin-local ordering key: strictly increasing
// for newer items within one source.
type Item struct {
	ID         int64
	Text       string
	OccurredAt time.Time
}

// Fetcher yields items from one external origin. Implementations must
// return only items with ID strictly greater than afterID, at most limit
// of them, most-recent-first as the origin delivers them. Items without
// text are excluded before they leave the adapter.
type Fetcher interface {
	Kind() Kind
	Fetch(ctx context.Context, address string, afterID int64, limit int) ([]Item, error)
}

// AllKinds returns all origin kinds with a built-in adapter.
func AllKinds() []Kind {
	return []Kind{KindTelegram, KindRSS}
}
