package fetch

import (
	"context"
	"time"
)

// FeedEntry is one parsed feed entry. Every field is optional: strings
// default to "" and Published is nil when the feed carries no usable
// timestamp.
type FeedEntry struct {
	Title   string
	Link    string
	Summary string
	// Published is the entry's published time, falling back to its updated time.
	Published *time.Time
}

// FeedFetcher retrieves and parses one feed.
type FeedFetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]FeedEntry, error)
}

// Classifier decides whether an entry is relevant from its lowercased
// "title summary" text.
type Classifier interface {
	Accept(matchText string) bool
}
