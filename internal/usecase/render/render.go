// Package render turns partitioned history data into the HTML fragments and
// archive pages of the news section. Every function is pure: the same input
// always produces byte-identical output, and nothing touches the filesystem.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"slices"
	"strings"

	"suomi-feed/internal/domain/entity"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// Labels holds the user-facing texts of the generated fragments.
type Labels struct {
	PrimaryHeading   string
	SecondaryHeading string
	// RecentEmpty is a format string receiving the window length in days.
	RecentEmpty  string
	ArchiveEmpty string
	YearEmpty    string
}

// DefaultLabels returns the Finnish texts used on the site.
func DefaultLabels() Labels {
	return Labels{
		PrimaryHeading:   "Suomi maailman uutisissa",
		SecondaryHeading: "Muut maininnat",
		RecentEmpty:      "Ei Suomiaiheisia tai Kurejoki/Alajärvi/Etelä-Pohjanmaa -uutisia viimeisen %d päivän ajalta.",
		ArchiveEmpty:     "Arkistoja ei vielä ole.",
		YearEmpty:        "Ei uutisia tälle vuodelle.",
	}
}

// Renderer renders fragments and pages with a fixed set of labels.
type Renderer struct {
	labels Labels
}

// New creates a Renderer. Empty labels are filled from DefaultLabels.
func New(labels Labels) *Renderer {
	def := DefaultLabels()
	if labels.PrimaryHeading == "" {
		labels.PrimaryHeading = def.PrimaryHeading
	}
	if labels.SecondaryHeading == "" {
		labels.SecondaryHeading = def.SecondaryHeading
	}
	if labels.RecentEmpty == "" {
		labels.RecentEmpty = def.RecentEmpty
	}
	if labels.ArchiveEmpty == "" {
		labels.ArchiveEmpty = def.ArchiveEmpty
	}
	if labels.YearEmpty == "" {
		labels.YearEmpty = def.YearEmpty
	}
	return &Renderer{labels: labels}
}

// RecentGroups is the recent set split by relevance tier.
type RecentGroups struct {
	Primary    []entity.NewsItem
	Secondary  []entity.NewsItem
	WindowDays int
}

// YearSummary describes one generated archive page.
type YearSummary struct {
	Year  string
	Count int
}

// YearPageName returns the file name of the archive page for year.
func YearPageName(year string) string {
	return "uutisiasuomesta-" + year + ".html"
}

type entryView struct {
	Title  string
	Link   string
	Source string
	Lang   string
	Date   string
}

type groupView struct {
	Heading string
	Entries []entryView
}

type recentView struct {
	Groups      []groupView
	Placeholder string
}

type indexYearView struct {
	Year  string
	Page  string
	Count int
}

type indexView struct {
	Years       []indexYearView
	Placeholder string
}

type yearPageView struct {
	Year        string
	Entries     []entryView
	Placeholder string
}

func toEntries(items []entity.NewsItem) []entryView {
	out := make([]entryView, 0, len(items))
	for _, it := range items {
		out = append(out, entryView{
			Title:  strings.TrimSpace(it.Title),
			Link:   strings.TrimSpace(it.Link),
			Source: it.Source,
			Lang:   strings.ToUpper(it.Language),
			Date:   it.Published,
		})
	}
	return out
}

// Recent renders the list rows of the recent section: the primary group
// first, then the secondary group, each under a heading row. Empty groups
// are omitted; with no items at all a single placeholder row is rendered.
func (r *Renderer) Recent(groups RecentGroups) (string, error) {
	view := recentView{
		Placeholder: fmt.Sprintf(r.labels.RecentEmpty, groups.WindowDays),
	}
	if len(groups.Primary) > 0 {
		view.Groups = append(view.Groups, groupView{Heading: r.labels.PrimaryHeading, Entries: toEntries(groups.Primary)})
	}
	if len(groups.Secondary) > 0 {
		view.Groups = append(view.Groups, groupView{Heading: r.labels.SecondaryHeading, Entries: toEntries(groups.Secondary)})
	}
	return execute("recent", view)
}

// ArchiveIndex renders one link row per archive year, newest year first.
func (r *Renderer) ArchiveIndex(summaries []YearSummary) (string, error) {
	sorted := slices.Clone(summaries)
	slices.SortFunc(sorted, func(a, b YearSummary) int {
		return strings.Compare(b.Year, a.Year)
	})

	view := indexView{Placeholder: r.labels.ArchiveEmpty}
	for _, s := range sorted {
		view.Years = append(view.Years, indexYearView{Year: s.Year, Page: YearPageName(s.Year), Count: s.Count})
	}
	return execute("archive-index", view)
}

// YearPage renders the complete archive page for one year.
func (r *Renderer) YearPage(year string, items []entity.NewsItem) (string, error) {
	return execute("year-page", yearPageView{
		Year:        year,
		Entries:     toEntries(items),
		Placeholder: r.labels.YearEmpty,
	})
}

func execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimPrefix(buf.String(), "\n"), nil
}
