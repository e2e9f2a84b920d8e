package entity

import (
	"cmp"
	"slices"
)

const (
	// CurrentHistoryVersion is the on-disk schema version the history store writes.
	CurrentHistoryVersion = 2

	// DefaultHistoryCap is the maximum number of items kept in the history.
	DefaultHistoryCap = 1000
)

// History is the persistent, deduplicated and size-bounded collection of
// accepted items. Items are ordered by Published, newest first.
type History struct {
	// Version is the schema version the history was normalized to.
	Version int

	// Revision counts successful saves. The store compares it on save to
	// detect a concurrent writer.
	Revision int64

	Items []NewsItem
}

// MergeResult summarizes the effect of a History.Merge call.
type MergeResult struct {
	Added      int
	Duplicates int
	Evicted    int
}

// Changed reports whether the merge altered the history contents.
func (r MergeResult) Changed() bool {
	return r.Added > 0 || r.Evicted > 0
}

// NewHistory returns an empty history at the current schema version.
func NewHistory() *History {
	return &History{Version: CurrentHistoryVersion, Items: []NewsItem{}}
}

// Len returns the number of stored items.
func (h *History) Len() int {
	return len(h.Items)
}

// Links returns the set of links currently stored.
func (h *History) Links() map[string]struct{} {
	links := make(map[string]struct{}, len(h.Items))
	for _, it := range h.Items {
		links[it.Link] = struct{}{}
	}
	return links
}

// Merge appends the candidates whose link is not yet known, sorts the whole
// collection by Published descending and truncates it to limit items.
//
// A known link is skipped even if the candidate's other fields differ, and
// a link repeated inside candidates is only taken once. The sort is stable:
// already stored items keep their relative order and new items follow in
// candidate order among equal dates. Eviction therefore drops the oldest
// dates first. Items whose Published is not a valid date sort after every
// dated item and are evicted before any of them. A limit <= 0 disables
// truncation.
func (h *History) Merge(candidates []NewsItem, limit int) MergeResult {
	var res MergeResult
	known := h.Links()

	for _, c := range candidates {
		if c.Link == "" {
			continue
		}
		if _, ok := known[c.Link]; ok {
			res.Duplicates++
			continue
		}
		known[c.Link] = struct{}{}
		h.Items = append(h.Items, c)
		res.Added++
	}

	dated := make(map[string]bool, len(h.Items))
	for _, it := range h.Items {
		if _, ok := dated[it.Published]; !ok {
			_, err := it.PublishedDate()
			dated[it.Published] = err == nil
		}
	}
	slices.SortStableFunc(h.Items, func(a, b NewsItem) int {
		// Undated items sort as the oldest.
		if da, db := dated[a.Published], dated[b.Published]; da != db {
			if da {
				return -1
			}
			return 1
		}
		return cmp.Compare(b.Published, a.Published)
	})

	if limit > 0 && len(h.Items) > limit {
		res.Evicted = len(h.Items) - limit
		h.Items = slices.Clip(h.Items[:limit])
	}

	return res
}
