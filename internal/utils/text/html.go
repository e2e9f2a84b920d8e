// Package text provides string helpers shared by the collection and
// publishing stages: markup stripping for feed summaries and marker patching
// for generated page fragments.
package text

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StripHTML returns the visible text of an HTML fragment with runs of
// whitespace collapsed to single spaces.
//
// Feed summaries frequently embed markup, images and links; only their text
// should count towards keyword matching. Input that cannot be parsed is
// returned with whitespace collapsed.
//
// Examples:
//
//	StripHTML("<p>Visit <b>Helsinki</b></p>")   // "Visit Helsinki"
//	StripHTML("plain   text")                   // "plain text"
func StripHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return collapseSpace(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return collapseSpace(fragment)
	}
	doc.Find("script, style").Remove()
	return collapseSpace(doc.Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
