// Package classify decides which fetched entries belong in the archive and
// which relevance tier an archived item is displayed under.
package classify

import (
	"strings"

	"suomi-feed/internal/domain/entity"
	"suomi-feed/internal/utils/text"
)

// Tier is the relevance tier of an accepted item.
type Tier int

const (
	// TierNone means no keyword matched.
	TierNone Tier = iota
	// TierPrimary marks strong topical matches such as country names.
	TierPrimary
	// TierSecondary marks weaker regional or local matches.
	TierSecondary
)

// String returns the tier label used in logs and metrics.
func (t Tier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	default:
		return "none"
	}
}

// Classifier matches lowercase keywords as substrings of item text.
type Classifier struct {
	primary   []string
	secondary []string
}

// New creates a Classifier from the two keyword tiers. Keywords are
// lowercased and trimmed; blank keywords are ignored.
func New(primary, secondary []string) *Classifier {
	return &Classifier{
		primary:   normalize(primary),
		secondary: normalize(secondary),
	}
}

func normalize(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// MatchText builds the lowercased "title summary" text an entry is
// classified on. Markup in the summary is stripped first.
func MatchText(title, summary string) string {
	return strings.ToLower(strings.TrimSpace(title + " " + text.StripHTML(summary)))
}

// Classify returns the highest tier whose keywords occur in matchText.
// matchText is expected to be lowercase already.
func (c *Classifier) Classify(matchText string) Tier {
	if containsAny(matchText, c.primary) {
		return TierPrimary
	}
	if containsAny(matchText, c.secondary) {
		return TierSecondary
	}
	return TierNone
}

// Accept reports whether matchText contains a keyword from either tier.
func (c *Classifier) Accept(matchText string) bool {
	return c.Classify(matchText) != TierNone
}

// TierOf returns the display tier of a stored item. Items that match only
// secondary keywords, or nothing at all after a keyword change, are shown
// in the secondary group.
func (c *Classifier) TierOf(item entity.NewsItem) Tier {
	if containsAny(item.MatchText(), c.primary) {
		return TierPrimary
	}
	return TierSecondary
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
