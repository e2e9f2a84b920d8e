// Package scraper provides the RSS/Atom feed adapter of the fetch use case.
// It uses the gofeed library to parse feed content with reliability patterns.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"suomi-feed/internal/observability/logging"
	"suomi-feed/internal/resilience/circuitbreaker"
	"suomi-feed/internal/resilience/retry"
	"suomi-feed/internal/usecase/fetch"
)

// DefaultUserAgent identifies the bot to feed hosts.
const DefaultUserAgent = "SuomiFeedBot/1.0"

// RSSFetcher implements fetch.FeedFetcher using the gofeed library.
// Each fetch goes through the breaker of the feed's host, and inside it
// through retry with backoff for transient failures.
type RSSFetcher struct {
	client      *http.Client
	breakers    *circuitbreaker.HostSet
	retryConfig retry.Config
	userAgent   string
}

var _ fetch.FeedFetcher = (*RSSFetcher)(nil)

// Option customises an RSSFetcher.
type Option func(*RSSFetcher)

// WithRetryConfig overrides retry.FeedFetchConfig.
func WithRetryConfig(cfg retry.Config) Option {
	return func(f *RSSFetcher) { f.retryConfig = cfg }
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(f *RSSFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithBreakers shares a breaker set, e.g. across runs in scheduled mode.
func WithBreakers(set *circuitbreaker.HostSet) Option {
	return func(f *RSSFetcher) { f.breakers = set }
}

// NewRSSFetcher creates a new RSSFetcher with the given HTTP client.
// Without options it uses retry.FeedFetchConfig and a fresh per-host
// breaker set.
func NewRSSFetcher(client *http.Client, opts ...Option) *RSSFetcher {
	f := &RSSFetcher{
		client:      client,
		retryConfig: retry.FeedFetchConfig(),
		userAgent:   DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.breakers == nil {
		f.breakers = circuitbreaker.NewHostSet(nil, nil)
	}
	return f
}

// Fetch retrieves and parses an RSS/Atom feed from feedURL.
//
// Errors:
//   - fetch.ErrCircuitOpen: the host breaker is open, nothing was sent
//   - fetch.ErrInvalidFeedFormat: the body is not a well-formed feed
//   - fetch.ErrFeedFetchFailed: network failure or non-2xx status
//     (wrapping *retry.HTTPError), after retries
func (f *RSSFetcher) Fetch(ctx context.Context, feedURL string) ([]fetch.FeedEntry, error) {
	cb := f.breakers.For(feedURL)

	result, err := cb.Execute(func() (interface{}, error) {
		var entries []fetch.FeedEntry
		err := retry.WithBackoff(ctx, f.retryConfig, func() error {
			var err error
			entries, err = f.doFetch(ctx, feedURL)
			return err
		})
		return entries, err
	})
	if err != nil {
		if circuitbreaker.IsRejected(err) {
			logging.FromContext(ctx).Debug("feed fetch circuit breaker open, request rejected",
				slog.String("circuit", cb.Name()),
				slog.String("url", feedURL))
			return nil, fmt.Errorf("%w: %s: %w", fetch.ErrCircuitOpen, cb.Name(), err)
		}
		return nil, err
	}

	return result.([]fetch.FeedEntry), nil
}

// doFetch performs one attempt without retry or circuit breaker.
func (f *RSSFetcher) doFetch(ctx context.Context, feedURL string) ([]fetch.FeedEntry, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = f.userAgent
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, classifyError(err)
	}

	entries := make([]fetch.FeedEntry, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		entries = append(entries, toEntry(it))
	}
	return entries, nil
}

// classifyError maps gofeed errors onto the fetch sentinels. Transport
// errors keep their cause so retry.IsRetryable can inspect them.
func classifyError(err error) error {
	var statusErr gofeed.HTTPError
	if errors.As(err, &statusErr) {
		return fmt.Errorf("%w: %w", fetch.ErrFeedFetchFailed, &retry.HTTPError{
			StatusCode: statusErr.StatusCode,
			Message:    strings.TrimSpace(strings.TrimPrefix(statusErr.Status, fmt.Sprint(statusErr.StatusCode))),
		})
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", fetch.ErrFeedFetchFailed, err)
	}

	return fmt.Errorf("%w: %w", fetch.ErrInvalidFeedFormat, err)
}

// toEntry converts a gofeed item. The summary is the description, falling
// back to the full content; the timestamp is the published time, falling
// back to the updated time.
func toEntry(it *gofeed.Item) fetch.FeedEntry {
	summary := it.Description
	if strings.TrimSpace(summary) == "" {
		summary = it.Content
	}

	published := it.PublishedParsed
	if published == nil {
		published = it.UpdatedParsed
	}

	return fetch.FeedEntry{
		Title:     strings.TrimSpace(it.Title),
		Link:      strings.TrimSpace(it.Link),
		Summary:   summary,
		Published: published,
	}
}
