package archive

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"suomi-feed/internal/domain/entity"
)

func item(link, published string) entity.NewsItem {
	return entity.NewsItem{Title: "Finland " + link, Link: link, Source: "Wire", Language: "en", Published: published}
}

func linksOf(items []entity.NewsItem) []string {
	out := []string{}
	for _, it := range items {
		out = append(out, it.Link)
	}
	return out
}

func TestPartition_WindowBoundary(t *testing.T) {
	// Arrange
	now := time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)
	items := []entity.NewsItem{
		item("today", "2025-06-15"),
		item("edge", "2025-06-08"),
		item("outside", "2025-06-07"),
		item("future", "2025-06-16"),
	}

	// Act
	res := Partition(items, now, DefaultWindow)

	// Assert
	assert.Equal(t, time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC), res.Cutoff)
	assert.Equal(t, []string{"today", "edge", "future"}, linksOf(res.Recent))
	assert.Equal(t, []string{"outside"}, linksOf(res.ByYear["2025"]))
	assert.Empty(t, res.Undated)
}

func TestPartition_UsesUTCDate(t *testing.T) {
	// 01:00 in Helsinki on the 15th is still the 14th in UTC.
	helsinki := time.FixedZone("EEST", 3*60*60)
	now := time.Date(2025, 6, 15, 1, 0, 0, 0, helsinki)

	res := Partition([]entity.NewsItem{item("edge", "2025-06-07")}, now, DefaultWindow)

	assert.Equal(t, "2025-06-07", entity.FormatDate(res.Cutoff))
	assert.Len(t, res.Recent, 1)
}

func TestPartition_FortyDaysOld(t *testing.T) {
	now := time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC)
	old := item("L-old", entity.FormatDate(now.AddDate(0, 0, -40)))

	res := Partition([]entity.NewsItem{old}, now, DefaultWindow)

	assert.Empty(t, res.Recent)
	require.Contains(t, res.ByYear, "2024")
	assert.Equal(t, []string{"L-old"}, linksOf(res.ByYear["2024"]))
	assert.Equal(t, []string{"2024"}, res.Years())
}

func TestPartition_UndatedExcluded(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	items := []entity.NewsItem{
		item("ok", "2023-02-01"),
		item("rfc", "Sun, 09 Mar 2025 08:15:00 GMT"),
		item("empty", ""),
		item("bad-month", "2025-13-01"),
	}

	res := Partition(items, now, DefaultWindow)

	assert.Equal(t, []string{"rfc", "empty", "bad-month"}, linksOf(res.Undated))
	assert.Empty(t, res.Recent)
	assert.Equal(t, 1, res.ArchivedCount())
}

func TestPartition_Completeness(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	var items []entity.NewsItem
	for i := 0; i < 400; i++ {
		d := now.AddDate(0, 0, -i*3)
		items = append(items, item(fmt.Sprintf("L%d", i), entity.FormatDate(d)))
	}

	res := Partition(items, now, DefaultWindow)

	seen := map[string]int{}
	for _, it := range res.Recent {
		seen[it.Link]++
	}
	for year, group := range res.ByYear {
		for _, it := range group {
			seen[it.Link]++
			assert.Equal(t, year, it.Published[:4])
		}
	}
	assert.Len(t, seen, len(items))
	for link, n := range seen {
		assert.Equal(t, 1, n, "link %s appears %d times", link, n)
	}
}

func TestResult_Years(t *testing.T) {
	res := Result{ByYear: map[string][]entity.NewsItem{
		"2023": {item("a", "2023-01-01")},
		"2025": {item("b", "2025-01-01")},
		"2024": {item("c", "2024-01-01")},
	}}

	if diff := cmp.Diff([]string{"2025", "2024", "2023"}, res.Years()); diff != "" {
		t.Errorf("years mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, res.ArchivedCount())
}
