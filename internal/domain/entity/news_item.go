package entity

import (
	"strings"
	"time"
)

// DateLayout is the day-granularity layout of NewsItem.Published.
const DateLayout = "2006-01-02"

// NewsItem is one accepted feed entry.
//
// Link is the identity key and is unique within a History. Items are never
// mutated after acceptance; the relevance tier is recomputed from
// ClassificationText whenever it is needed.
type NewsItem struct {
	Title     string
	Link      string
	Source    string
	Language  string
	Published string

	// ClassificationText is the lowercased "title summary" text the item was
	// accepted on. Empty for items persisted before it was recorded.
	ClassificationText string
}

// PublishedDate parses Published as a UTC calendar date.
func (n NewsItem) PublishedDate() (time.Time, error) {
	return time.ParseInLocation(DateLayout, n.Published, time.UTC)
}

// Year returns the four-digit year prefix of Published, or "" when Published
// is too short to carry one.
func (n NewsItem) Year() string {
	if len(n.Published) < 4 {
		return ""
	}
	return n.Published[:4]
}

// MatchText returns the text used to decide the relevance tier.
// Items without stored classification text fall back to title and source.
func (n NewsItem) MatchText() string {
	if n.ClassificationText != "" {
		return n.ClassificationText
	}
	return strings.ToLower(n.Title + " " + n.Source)
}

// FormatDate renders t as a UTC calendar date in DateLayout.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
