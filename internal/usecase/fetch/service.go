package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"suomi-feed/internal/domain/entity"
	"suomi-feed/internal/observability/logging"
	"suomi-feed/internal/observability/metrics"
	"suomi-feed/internal/observability/tracing"
	"suomi-feed/internal/usecase/classify"
)

// Config controls the per-source behaviour of CollectAll.
type Config struct {
	// SourceTimeout bounds one source fetch, retries included.
	SourceTimeout time.Duration
	// FetchInterval is the minimum spacing between two source fetches.
	FetchInterval time.Duration
}

// Service collects relevant, not yet known news items from feed sources.
type Service struct {
	fetcher    FeedFetcher
	classifier Classifier
	cfg        Config
	pacer      *Pacer
	metrics    *metrics.PipelineMetrics
	tracer     trace.Tracer
}

// Option customises a Service.
type Option func(*Service)

// WithMetrics records fetch metrics on m.
func WithMetrics(m *metrics.PipelineMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTracer sets the tracer for per-source spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// NewService creates a fetch Service.
//
// Parameters:
//   - fetcher: retrieves and parses one feed
//   - classifier: keyword filter applied to "title summary"
//   - cfg: per-source timeout and pacing
//
// Example:
//
//	svc := fetch.NewService(scraper.NewRSSFetcher(client), classify.New(primary, secondary),
//	    fetch.Config{SourceTimeout: 20 * time.Second, FetchInterval: 500 * time.Millisecond})
func NewService(fetcher FeedFetcher, classifier Classifier, cfg Config, opts ...Option) *Service {
	s := &Service{
		fetcher:    fetcher,
		classifier: classifier,
		cfg:        cfg,
		pacer:      NewPacer(cfg.FetchInterval),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SourceFailure describes one skipped source.
type SourceFailure struct {
	Source string
	URL    string
	Status string
	Err    error
}

// CollectStats contains statistics about a collect operation.
type CollectStats struct {
	Sources       int
	FailedSources int
	FeedEntries   int
	// Incomplete counts entries without a title or a link.
	Incomplete int
	// Irrelevant counts entries matching no keyword.
	Irrelevant int
	// Duplicates counts relevant entries whose link was already known.
	Duplicates int
	// Candidates counts the items returned.
	Candidates int
	Failures   []SourceFailure
	Duration   time.Duration
}

// CollectAll fetches every source in order and returns the relevant entries
// whose link is neither in known nor already collected during this call.
// Entries without a usable timestamp are dated to the UTC day of now.
//
// A failing source is logged at WARN, counted in the stats and skipped.
// The only error returned is the cancellation of ctx, in which case the
// partial result must be discarded.
func (s *Service) CollectAll(ctx context.Context, sources []entity.Source, known map[string]struct{}, now time.Time) ([]entity.NewsItem, CollectStats, error) {
	logger := logging.FromContext(ctx)
	start := time.Now()
	stats := CollectStats{Sources: len(sources)}
	observed := entity.FormatDate(now)

	seen := make(map[string]struct{}, len(known))
	for link := range known {
		seen[link] = struct{}{}
	}

	var items []entity.NewsItem
	for _, src := range sources {
		if err := s.pacer.Wait(ctx); err != nil {
			return nil, stats, fmt.Errorf("CollectAll: %w", err)
		}

		entries, status, err := s.fetchSource(ctx, src)
		if err != nil {
			if ctx.Err() != nil {
				return nil, stats, fmt.Errorf("CollectAll: %w", ctx.Err())
			}
			stats.FailedSources++
			stats.Failures = append(stats.Failures, SourceFailure{
				Source: src.Name,
				URL:    src.URL,
				Status: status,
				Err:    err,
			})
			continue
		}
		stats.FeedEntries += len(entries)

		before := len(items)
		duplicates := 0
		for _, e := range entries {
			item, ok := s.toItem(src, e, observed)
			if !ok {
				stats.Incomplete++
				continue
			}
			if !s.classifier.Accept(item.ClassificationText) {
				stats.Irrelevant++
				continue
			}
			if _, dup := seen[item.Link]; dup {
				duplicates++
				continue
			}
			seen[item.Link] = struct{}{}
			items = append(items, item)
		}
		stats.Duplicates += duplicates
		s.metrics.RecordDuplicates(duplicates)

		logger.Debug("source processed",
			slog.String("source", src.Name),
			slog.Int("entries", len(entries)),
			slog.Int("candidates", len(items)-before),
			slog.Int("duplicates", duplicates))
	}

	stats.Candidates = len(items)
	stats.Duration = time.Since(start)
	logger.Info("all sources collected",
		slog.Int("sources", stats.Sources),
		slog.Int("failed_sources", stats.FailedSources),
		slog.Int("feed_entries", stats.FeedEntries),
		slog.Int("candidates", stats.Candidates),
		slog.Int("duplicates", stats.Duplicates),
		slog.Duration("duration", stats.Duration))

	return items, stats, nil
}

// fetchSource fetches one source under its own timeout and span. It
// returns the metrics status of the attempt along with the result.
func (s *Service) fetchSource(ctx context.Context, src entity.Source) (entries []FeedEntry, status string, err error) {
	logger := logging.FromContext(ctx)
	start := time.Now()

	ctx, span := tracing.StartSpan(ctx, s.tracer, "fetch.source",
		attribute.String("source.name", src.Name),
		attribute.String("source.url", src.URL))
	defer func() {
		span.SetAttributes(attribute.String("fetch.status", status))
		tracing.EndSpan(span, err)
	}()

	srcCtx := ctx
	if s.cfg.SourceTimeout > 0 {
		var cancel context.CancelFunc
		srcCtx, cancel = context.WithTimeout(ctx, s.cfg.SourceTimeout)
		defer cancel()
	}

	entries, err = s.fetcher.Fetch(srcCtx, src.URL)
	if err == nil {
		s.metrics.RecordSourceFetch(metrics.StatusSuccess, time.Since(start))
		s.metrics.RecordFeedEntries(len(entries))
		span.SetAttributes(attribute.Int("fetch.entries", len(entries)))
		return entries, metrics.StatusSuccess, nil
	}

	timedOut := ctx.Err() == nil && errors.Is(srcCtx.Err(), context.DeadlineExceeded)
	switch {
	case timedOut:
		status = metrics.StatusTimeout
		err = fmt.Errorf("%w: timed out after %v: %w", ErrFeedFetchFailed, s.cfg.SourceTimeout, err)
	case errors.Is(err, ErrCircuitOpen):
		status = metrics.StatusRejected
	default:
		status = metrics.StatusFailure
		if !errors.Is(err, ErrFeedFetchFailed) && !errors.Is(err, ErrInvalidFeedFormat) {
			err = fmt.Errorf("%w: %w", ErrFeedFetchFailed, err)
		}
	}

	s.metrics.RecordSourceFetch(status, time.Since(start))
	if ctx.Err() == nil {
		logger.Warn("failed to fetch feed",
			slog.String("source", src.Name),
			slog.String("url", src.URL),
			slog.String("status", status),
			slog.Any("error", err))
	}
	return nil, status, err
}

// toItem converts a feed entry into a candidate item. Entries without a
// title or a link are rejected.
func (s *Service) toItem(src entity.Source, e FeedEntry, observed string) (entity.NewsItem, bool) {
	title := strings.TrimSpace(e.Title)
	link := strings.TrimSpace(e.Link)
	if title == "" || link == "" {
		return entity.NewsItem{}, false
	}

	published := observed
	if e.Published != nil && !e.Published.IsZero() {
		published = entity.FormatDate(*e.Published)
	}

	return entity.NewsItem{
		Title:              title,
		Link:               link,
		Source:             src.Name,
		Language:           src.Language,
		Published:          published,
		ClassificationText: classify.MatchText(title, e.Summary),
	}, true
}
