package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewsItem_PublishedDate(t *testing.T) {
	it := NewsItem{Published: "2025-03-09"}
	d, err := it.PublishedDate()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), d)

	_, err = NewsItem{Published: "March 9th"}.PublishedDate()
	assert.Error(t, err)
}

func TestNewsItem_Year(t *testing.T) {
	assert.Equal(t, "2024", NewsItem{Published: "2024-11-30"}.Year())
	assert.Equal(t, "", NewsItem{Published: "24"}.Year())
}

func TestNewsItem_MatchText(t *testing.T) {
	stored := NewsItem{Title: "Summit", Source: "Wire", ClassificationText: "summit in helsinki"}
	assert.Equal(t, "summit in helsinki", stored.MatchText())

	legacy := NewsItem{Title: "Lapland Tourism Boom", Source: "BBC World"}
	assert.Equal(t, "lapland tourism boom bbc world", legacy.MatchText())
}

func TestFormatDate(t *testing.T) {
	// 23:30 in Helsinki on the 1st is still the 1st in UTC.
	loc := time.FixedZone("EET", 2*60*60)
	assert.Equal(t, "2025-01-01", FormatDate(time.Date(2025, 1, 1, 23, 30, 0, 0, loc)))
	assert.Equal(t, "2025-01-01", FormatDate(time.Date(2025, 1, 2, 1, 30, 0, 0, loc)))
}
