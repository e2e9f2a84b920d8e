package repository

import "context"

// Page is one generated file, named relative to the site directory.
type Page struct {
	Name    string
	Content string
}

// HostSections holds the fragments placed between the host page markers.
type HostSections struct {
	Recent   string
	Archives string
}

// PatchResult reports what a host page patch did.
type PatchResult struct {
	// Missing is true when the host page does not exist.
	Missing         bool
	RecentPatched   bool
	ArchivesPatched bool
	// Written is true when the page content changed and was rewritten.
	Written bool
}

// SiteRepository publishes generated output into the static site.
//
// PatchHostPage treats a missing host page or a missing marker pair as a
// skipped section, not as an error.
type SiteRepository interface {
	WriteYearPages(ctx context.Context, pages []Page) error
	PatchHostPage(ctx context.Context, sections HostSections) (PatchResult, error)
}
