// Package fetch collects candidate news items from the registered feed
// sources. Every source is fetched in isolation: one failing, slow or
// malformed feed never stops the others.
package fetch

import "errors"

// Sentinel errors for fetch use case operations.
var (
	// ErrFeedFetchFailed indicates that fetching a feed from the source URL failed.
	// This can occur due to network issues, HTTP error statuses or timeouts.
	ErrFeedFetchFailed = errors.New("failed to fetch feed from source")

	// ErrInvalidFeedFormat indicates that the feed content could not be parsed.
	// Malformed feeds are skipped as a whole rather than partially consumed.
	ErrInvalidFeedFormat = errors.New("invalid feed format")

	// ErrCircuitOpen indicates that the request was not sent because the
	// breaker for the source host is open.
	ErrCircuitOpen = errors.New("source host circuit open")
)
