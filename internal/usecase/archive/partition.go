// Package archive splits the history into the recent window and the
// per-year archive.
package archive

import (
	"slices"
	"time"

	"suomi-feed/internal/domain/entity"
)

// DefaultWindow is the trailing span of days counted as recent.
const DefaultWindow = 7 * 24 * time.Hour

// Result is the outcome of Partition.
type Result struct {
	// Cutoff is the first calendar day (UTC) that counts as recent.
	Cutoff time.Time

	// Recent holds items published on or after Cutoff, in history order.
	Recent []entity.NewsItem

	// ByYear holds all other dated items keyed by the four-digit year
	// prefix of Published, each group in history order.
	ByYear map[string][]entity.NewsItem

	// Undated holds items whose Published is not a YYYY-MM-DD date. They
	// belong to neither subset.
	Undated []entity.NewsItem
}

// Years returns the archive years, newest first.
func (r Result) Years() []string {
	years := make([]string, 0, len(r.ByYear))
	for y := range r.ByYear {
		years = append(years, y)
	}
	slices.Sort(years)
	slices.Reverse(years)
	return years
}

// ArchivedCount returns the number of items across all archive years.
func (r Result) ArchivedCount() int {
	n := 0
	for _, items := range r.ByYear {
		n += len(items)
	}
	return n
}

// Partition classifies every item as recent, archived or undated relative
// to now. An item is recent when its date is on or after the UTC date of
// now minus window.
func Partition(items []entity.NewsItem, now time.Time, window time.Duration) Result {
	cutoff := startOfDay(now.UTC().Add(-window))
	res := Result{
		Cutoff: cutoff,
		ByYear: make(map[string][]entity.NewsItem),
	}

	for _, it := range items {
		d, err := it.PublishedDate()
		if err != nil {
			res.Undated = append(res.Undated, it)
			continue
		}
		if !d.Before(cutoff) {
			res.Recent = append(res.Recent, it)
			continue
		}
		year := it.Year()
		res.ByYear[year] = append(res.ByYear[year], it)
	}

	return res
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
