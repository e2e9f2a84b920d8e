package config

import (
	"fmt"
	"log/slog"
	"time"

	"suomi-feed/internal/domain/entity"
	pkgconfig "suomi-feed/internal/pkg/config"
)

// PipelineConfig is the explicit configuration of one pipeline run. It is
// built once at startup and passed to the pipeline service.
type PipelineConfig struct {
	// HistoryPath is the JSON history file.
	// Default: "data/news_history.json"
	HistoryPath string

	// SiteDir is the static site root where year pages are written.
	// Default: "."
	SiteDir string

	// HostPage is the page carrying the marker pairs, relative to SiteDir
	// unless absolute.
	// Default: "uutisiasuomesta.html"
	HostPage string

	// HistoryCap is the maximum number of items kept in the history.
	// Range: 100-10000
	// Default: 1000
	HistoryCap int

	// RecentWindow is the trailing window of the recent list.
	// Range: 24h-2160h
	// Default: 168h (7 days)
	RecentWindow time.Duration

	// SourceTimeout bounds a single source fetch, retries included.
	// Range: 1s-5m
	// Default: 20s
	SourceTimeout time.Duration

	// FetchInterval is the minimum spacing between two source fetches.
	// Range: 0-1m
	// Default: 500ms
	FetchInterval time.Duration

	// UserAgent is sent with every feed request.
	// Default: "SuomiFeedBot/1.0"
	UserAgent string

	// PrimaryKeywords and SecondaryKeywords are the relevance tiers.
	// Default: the tiers of the embedded registry
	PrimaryKeywords   []string
	SecondaryKeywords []string

	// Sources are the feeds to poll, in order.
	Sources []entity.Source
}

// DefaultPipelineConfig returns the defaults for the given registry.
func DefaultPipelineConfig(reg *Registry) (PipelineConfig, error) {
	sources, err := reg.EntitySources()
	if err != nil {
		return PipelineConfig{}, fmt.Errorf("DefaultPipelineConfig: %w", err)
	}
	return PipelineConfig{
		HistoryPath:       "data/news_history.json",
		SiteDir:           ".",
		HostPage:          "uutisiasuomesta.html",
		HistoryCap:        entity.DefaultHistoryCap,
		RecentWindow:      7 * 24 * time.Hour,
		SourceTimeout:     20 * time.Second,
		FetchInterval:     500 * time.Millisecond,
		UserAgent:         "SuomiFeedBot/1.0",
		PrimaryKeywords:   reg.Keywords.Primary,
		SecondaryKeywords: reg.Keywords.Secondary,
		Sources:           sources,
	}, nil
}

// Validate checks the configuration. All failures are collected.
func (c *PipelineConfig) Validate() error {
	var errs []error

	if c.HistoryPath == "" {
		errs = append(errs, fmt.Errorf("history path: cannot be empty"))
	}
	if c.HostPage == "" {
		errs = append(errs, fmt.Errorf("host page: cannot be empty"))
	}
	if err := pkgconfig.ValidateIntRange(c.HistoryCap, 100, 10000); err != nil {
		errs = append(errs, fmt.Errorf("history cap: %w", err))
	}
	if err := pkgconfig.ValidateDuration(c.RecentWindow, 24*time.Hour, 90*24*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("recent window: %w", err))
	}
	if err := pkgconfig.ValidateDuration(c.SourceTimeout, time.Second, 5*time.Minute); err != nil {
		errs = append(errs, fmt.Errorf("source timeout: %w", err))
	}
	if err := pkgconfig.ValidateDuration(c.FetchInterval, 0, time.Minute); err != nil {
		errs = append(errs, fmt.Errorf("fetch interval: %w", err))
	}
	if len(c.PrimaryKeywords)+len(c.SecondaryKeywords) == 0 {
		errs = append(errs, fmt.Errorf("keywords: at least one keyword is required"))
	}
	if len(c.Sources) == 0 {
		errs = append(errs, fmt.Errorf("sources: at least one source is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// fallbackTracker remembers whether any field fell back to its default.
type fallbackTracker struct {
	logger  *slog.Logger
	metrics *pkgconfig.ConfigMetrics
	active  bool
}

func track[T any](t *fallbackTracker, field string, r pkgconfig.LoadResult[T]) T {
	if r.FallbackApplied {
		t.active = true
	}
	return r.Report(field, t.logger, t.metrics)
}

// LoadPipelineConfig overlays environment variables on the registry
// defaults. Loading is fail-open: an invalid value is logged, counted in
// metrics and replaced by its default. An error is returned only when the
// registry itself is invalid. metrics may be nil.
//
// Environment variables:
//   - HISTORY_PATH, SITE_DIR, HOST_PAGE, USER_AGENT
//   - HISTORY_CAP: integer 100-10000
//   - RECENT_WINDOW: duration 24h-2160h
//   - SOURCE_TIMEOUT: duration 1s-5m
//   - FETCH_INTERVAL: duration 0-1m
//   - PRIMARY_KEYWORDS, SECONDARY_KEYWORDS: comma-separated lists
func LoadPipelineConfig(reg *Registry, logger *slog.Logger, metrics *pkgconfig.ConfigMetrics) (*PipelineConfig, error) {
	cfg, err := DefaultPipelineConfig(reg)
	if err != nil {
		return nil, err
	}
	t := &fallbackTracker{logger: logger, metrics: metrics}

	cfg.HistoryPath = pkgconfig.LoadEnvString("HISTORY_PATH", cfg.HistoryPath)
	cfg.SiteDir = pkgconfig.LoadEnvString("SITE_DIR", cfg.SiteDir)
	cfg.HostPage = pkgconfig.LoadEnvString("HOST_PAGE", cfg.HostPage)
	cfg.UserAgent = pkgconfig.LoadEnvString("USER_AGENT", cfg.UserAgent)

	cfg.HistoryCap = track(t, "history_cap", pkgconfig.LoadEnvInt("HISTORY_CAP", cfg.HistoryCap, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 100, 10000)
	}))
	cfg.RecentWindow = track(t, "recent_window", pkgconfig.LoadEnvDuration("RECENT_WINDOW", cfg.RecentWindow, func(d time.Duration) error {
		return pkgconfig.ValidateDuration(d, 24*time.Hour, 90*24*time.Hour)
	}))
	cfg.SourceTimeout = track(t, "source_timeout", pkgconfig.LoadEnvDuration("SOURCE_TIMEOUT", cfg.SourceTimeout, func(d time.Duration) error {
		return pkgconfig.ValidateDuration(d, time.Second, 5*time.Minute)
	}))
	cfg.FetchInterval = track(t, "fetch_interval", pkgconfig.LoadEnvDuration("FETCH_INTERVAL", cfg.FetchInterval, func(d time.Duration) error {
		return pkgconfig.ValidateDuration(d, 0, time.Minute)
	}))
	cfg.PrimaryKeywords = track(t, "primary_keywords", pkgconfig.LoadEnvList("PRIMARY_KEYWORDS", cfg.PrimaryKeywords))
	cfg.SecondaryKeywords = track(t, "secondary_keywords", pkgconfig.LoadEnvList("SECONDARY_KEYWORDS", cfg.SecondaryKeywords))

	if metrics != nil {
		metrics.SetFallbackActive(t.active)
		metrics.RecordLoadTimestamp()
	}

	return &cfg, nil
}
