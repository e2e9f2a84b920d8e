// Package pipeline runs one full aggregation pass: load the history, collect
// new items, merge, partition, render and persist.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"suomi-feed/internal/domain/entity"
	"suomi-feed/internal/observability/logging"
	"suomi-feed/internal/observability/metrics"
	"suomi-feed/internal/observability/tracing"
	"suomi-feed/internal/repository"
	"suomi-feed/internal/usecase/archive"
	"suomi-feed/internal/usecase/classify"
	"suomi-feed/internal/usecase/fetch"
	"suomi-feed/internal/usecase/render"
)

// Collector gathers candidate items whose link is not in known.
type Collector interface {
	CollectAll(ctx context.Context, sources []entity.Source, known map[string]struct{}, now time.Time) ([]entity.NewsItem, fetch.CollectStats, error)
}

// TierClassifier assigns the display tier of an accepted item.
type TierClassifier interface {
	TierOf(item entity.NewsItem) classify.Tier
}

// Config holds the run parameters.
type Config struct {
	Sources      []entity.Source
	HistoryCap   int
	RecentWindow time.Duration
}

// RunStats summarizes one run.
type RunStats struct {
	Collect fetch.CollectStats

	Added       int
	Duplicates  int
	Evicted     int
	HistorySize int

	RecentPrimary   int
	RecentSecondary int
	Archived        int
	Undated         int
	Years           []string

	HostPage repository.PatchResult
	Duration time.Duration
}

// Service orchestrates a pipeline run.
type Service struct {
	collector  Collector
	repo       repository.HistoryRepository
	classifier TierClassifier
	renderer   *render.Renderer
	site       repository.SiteRepository
	cfg        Config
	metrics    *metrics.PipelineMetrics
	tracer     trace.Tracer
}

// Option customises a Service.
type Option func(*Service)

// WithMetrics records run metrics on m.
func WithMetrics(m *metrics.PipelineMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTracer sets the tracer for stage spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// NewService creates a pipeline Service.
func NewService(
	collector Collector,
	repo repository.HistoryRepository,
	classifier TierClassifier,
	renderer *render.Renderer,
	siteRepo repository.SiteRepository,
	cfg Config,
	opts ...Option,
) *Service {
	if cfg.RecentWindow <= 0 {
		cfg.RecentWindow = archive.DefaultWindow
	}
	if cfg.HistoryCap <= 0 {
		cfg.HistoryCap = entity.DefaultHistoryCap
	}
	s := &Service{
		collector:  collector,
		repo:       repo,
		classifier: classifier,
		renderer:   renderer,
		site:       siteRepo,
		cfg:        cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// rendered holds every output of a run before anything is persisted.
type rendered struct {
	recent   string
	archives string
	pages    []repository.Page
}

// Run performs one pass relative to now.
//
// Order: load, collect, merge, partition and render in memory, then save the
// history, write the year pages and patch the host page. Any error before
// the save leaves every output untouched. A cancelled ctx aborts the run
// before persisting.
func (s *Service) Run(ctx context.Context, now time.Time) (stats RunStats, err error) {
	logger := logging.FromContext(ctx)
	start := time.Now()
	defer func() {
		stats.Duration = time.Since(start)
		s.metrics.RecordRun(stats.Duration, err)
	}()

	history, err := s.repo.Load(ctx)
	if err != nil {
		return stats, fmt.Errorf("load history: %w", err)
	}

	candidates, err := s.collect(ctx, history, &stats)
	if err != nil {
		return stats, fmt.Errorf("collect: %w", err)
	}

	s.merge(ctx, history, candidates, &stats)

	out, err := s.render(ctx, history, now, &stats)
	if err != nil {
		return stats, fmt.Errorf("render: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("run aborted before persisting: %w", err)
	}

	if err := s.persist(ctx, history, out, &stats); err != nil {
		return stats, err
	}

	logger.Info("pipeline run completed",
		slog.Int("sources", stats.Collect.Sources),
		slog.Int("failed_sources", stats.Collect.FailedSources),
		slog.Int("feed_entries", stats.Collect.FeedEntries),
		slog.Int("candidates", stats.Collect.Candidates),
		slog.Int("added", stats.Added),
		slog.Int("duplicates", stats.Collect.Duplicates+stats.Duplicates),
		slog.Int("evicted", stats.Evicted),
		slog.Int("history_size", stats.HistorySize),
		slog.Int("recent_primary", stats.RecentPrimary),
		slog.Int("recent_secondary", stats.RecentSecondary),
		slog.Int("archived", stats.Archived),
		slog.Int("undated", stats.Undated),
		slog.Int("archive_years", len(stats.Years)),
		slog.Bool("host_page_written", stats.HostPage.Written),
		slog.Duration("duration", time.Since(start)))

	return stats, nil
}

func (s *Service) collect(ctx context.Context, history *entity.History, stats *RunStats) (items []entity.NewsItem, err error) {
	ctx, span := tracing.StartSpan(ctx, s.tracer, "pipeline.collect",
		attribute.Int("sources", len(s.cfg.Sources)))
	defer func() { tracing.EndSpan(span, err) }()

	items, stats.Collect, err = s.collector.CollectAll(ctx, s.cfg.Sources, history.Links(), now)
	span.SetAttributes(
		attribute.Int("candidates", len(items)),
		attribute.Int("failed_sources", stats.Collect.FailedSources))
	return items, err
}

func (s *Service) merge(ctx context.Context, history *entity.History, candidates []entity.NewsItem, stats *RunStats) {
	_, span := tracing.StartSpan(ctx, s.tracer, "pipeline.merge",
		attribute.Int("candidates", len(candidates)))
	defer span.End()

	res := history.Merge(candidates, s.cfg.HistoryCap)
	stats.Added = res.Added
	stats.Duplicates = res.Duplicates
	stats.Evicted = res.Evicted
	stats.HistorySize = history.Len()
	s.metrics.RecordMerge(res.Added, res.Evicted, history.Len())

	span.SetAttributes(
		attribute.Int("added", res.Added),
		attribute.Int("evicted", res.Evicted),
		attribute.Int("history_size", history.Len()))

	if res.Evicted > 0 {
		logging.FromContext(ctx).Info("history cap reached, oldest items evicted",
			slog.Int("evicted", res.Evicted),
			slog.Int("cap", s.cfg.HistoryCap))
	}
}

func (s *Service) render(ctx context.Context, history *entity.History, now time.Time, stats *RunStats) (out rendered, err error) {
	logger := logging.FromContext(ctx)
	_, span := tracing.StartSpan(ctx, s.tracer, "pipeline.render")
	defer func() { tracing.EndSpan(span, err) }()

	part := archive.Partition(history.Items, now, s.cfg.RecentWindow)
	for _, it := range part.Undated {
		logger.Warn("item has no valid published date, left out of recent and archive",
			slog.String("link", it.Link),
			slog.String("published", it.Published))
	}

	groups := render.RecentGroups{WindowDays: int(s.cfg.RecentWindow / (24 * time.Hour))}
	for _, it := range part.Recent {
		if s.classifier.TierOf(it) == classify.TierPrimary {
			groups.Primary = append(groups.Primary, it)
		} else {
			groups.Secondary = append(groups.Secondary, it)
		}
	}
	stats.RecentPrimary = len(groups.Primary)
	stats.RecentSecondary = len(groups.Secondary)
	stats.Archived = part.ArchivedCount()
	stats.Undated = len(part.Undated)
	stats.Years = part.Years()

	out.recent, err = s.renderer.Recent(groups)
	if err != nil {
		return out, err
	}

	summaries := make([]render.YearSummary, 0, len(stats.Years))
	for _, year := range stats.Years {
		items := part.ByYear[year]
		page, err := s.renderer.YearPage(year, items)
		if err != nil {
			return out, err
		}
		out.pages = append(out.pages, repository.Page{Name: render.YearPageName(year), Content: page})
		summaries = append(summaries, render.YearSummary{Year: year, Count: len(items)})
	}

	out.archives, err = s.renderer.ArchiveIndex(summaries)
	if err != nil {
		return out, err
	}

	span.SetAttributes(
		attribute.Int("recent", len(part.Recent)),
		attribute.Int("archive_years", len(stats.Years)))
	return out, nil
}

func (s *Service) persist(ctx context.Context, history *entity.History, out rendered, stats *RunStats) (err error) {
	ctx, span := tracing.StartSpan(ctx, s.tracer, "pipeline.persist",
		attribute.Int("pages", len(out.pages)))
	defer func() { tracing.EndSpan(span, err) }()

	if err := s.repo.Save(ctx, history); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	if err := s.site.WriteYearPages(ctx, out.pages); err != nil {
		return fmt.Errorf("write year pages: %w", err)
	}
	stats.HostPage, err = s.site.PatchHostPage(ctx, repository.HostSections{
		Recent:   out.recent,
		Archives: out.archives,
	})
	if err != nil {
		return fmt.Errorf("patch host page: %w", err)
	}
	return nil
}
