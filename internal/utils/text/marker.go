package text

import "strings"

// Marker pairs delimiting the generated sections of the host page.
const (
	RecentStartMarker   = "<!-- AI-NEWS-RECENT-START -->"
	RecentEndMarker     = "<!-- AI-NEWS-RECENT-END -->"
	ArchivesStartMarker = "<!-- AI-NEWS-ARCHIVES-START -->"
	ArchivesEndMarker   = "<!-- AI-NEWS-ARCHIVES-END -->"
)

// PatchBetweenMarkers replaces everything between the first start marker
// and the first end marker following it with "\n" + block + "\n".
//
// The markers themselves are kept. If either marker is missing, or the end
// marker only occurs before the start marker, doc is returned unchanged and
// ok is false.
//
// Example:
//
//	PatchBetweenMarkers("a<!--S-->old<!--E-->b", "<!--S-->", "<!--E-->", "new")
//	// "a<!--S-->\nnew\n<!--E-->b", true
func PatchBetweenMarkers(doc, start, end, block string) (patched string, ok bool) {
	i := strings.Index(doc, start)
	if i < 0 {
		return doc, false
	}
	head := i + len(start)
	j := strings.Index(doc[head:], end)
	if j < 0 {
		return doc, false
	}
	tail := head + j

	var b strings.Builder
	b.Grow(len(doc) - (tail - head) + len(block) + 2)
	b.WriteString(doc[:head])
	b.WriteByte('\n')
	b.WriteString(block)
	b.WriteByte('\n')
	b.WriteString(doc[tail:])
	return b.String(), true
}
