// Command diagnose-feeds checks every source of the embedded registry once
// and prints a report: which feeds work, how many entries they carry and
// how many of those the relevance filter would accept.
//
// Environment variables are the same as for the worker (USER_AGENT,
// SOURCE_TIMEOUT, FETCH_INTERVAL, *_KEYWORDS). DIAGNOSE_JSON names an
// optional path for a JSON copy of the report.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"suomi-feed/internal/config"
	"suomi-feed/internal/domain/entity"
	"suomi-feed/internal/infra/scraper"
	"suomi-feed/internal/observability/logging"
	"suomi-feed/internal/pkg/fileutil"
	"suomi-feed/internal/resilience/retry"
	"suomi-feed/internal/usecase/classify"
	"suomi-feed/internal/usecase/fetch"
)

// Diagnostic statuses.
const (
	StatusOK         = "OK"
	StatusEmpty      = "EMPTY"
	StatusHTTPError  = "HTTP_ERROR"
	StatusParseError = "PARSE_ERROR"
	StatusTimeout    = "TIMEOUT"
	StatusNetwork    = "NETWORK_ERROR"
	StatusRejected   = "CIRCUIT_OPEN"
)

// FeedDiagnostic is the result for a single feed.
type FeedDiagnostic struct {
	Name         string `json:"name"`
	URL          string `json:"url"`
	Status       string `json:"status"`
	HTTPCode     int    `json:"http_code,omitempty"`
	EntryCount   int    `json:"entry_count"`
	Relevant     int    `json:"relevant"`
	LatestDate   string `json:"latest_date,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	ResponseTime int64  `json:"response_time_ms"`
}

// Working reports whether the feed can be consumed.
func (d FeedDiagnostic) Working() bool {
	return d.Status == StatusOK || d.Status == StatusEmpty
}

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, err := config.LoadRegistry()
	if err != nil {
		logger.Error("invalid source registry", slog.Any("error", err))
		os.Exit(1)
	}
	cfg, err := config.LoadPipelineConfig(registry, logger, nil)
	if err != nil {
		logger.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// One attempt per feed: the report should show what a single request sees.
	fetcher := scraper.NewRSSFetcher(
		scraper.NewHTTPClient(cfg.SourceTimeout),
		scraper.WithUserAgent(cfg.UserAgent),
		scraper.WithRetryConfig(retry.Config{MaxAttempts: 1}),
	)
	classifier := classify.New(cfg.PrimaryKeywords, cfg.SecondaryKeywords)
	pacer := fetch.NewPacer(cfg.FetchInterval)

	logger.Info("diagnosing feed sources", slog.Int("sources", len(cfg.Sources)))
	diagnostics := make([]FeedDiagnostic, 0, len(cfg.Sources))
	for i, src := range cfg.Sources {
		if err := pacer.Wait(ctx); err != nil {
			logger.Warn("diagnosis interrupted", slog.Any("error", err))
			break
		}
		logger.Info("diagnosing feed",
			slog.Int("n", i+1),
			slog.String("source", src.Name))
		diagnostics = append(diagnostics, diagnoseFeed(ctx, fetcher, classifier, src, cfg.SourceTimeout))
	}

	if err := writeReport(os.Stdout, diagnostics, time.Now()); err != nil {
		logger.Error("failed to write report", slog.Any("error", err))
		os.Exit(1)
	}
	if path := os.Getenv("DIAGNOSE_JSON"); path != "" {
		if err := writeJSONReport(path, diagnostics); err != nil {
			logger.Error("failed to write JSON report", slog.String("path", path), slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("JSON report written", slog.String("path", path))
	}
}

// diagnoseFeed fetches one source and classifies the outcome.
func diagnoseFeed(ctx context.Context, fetcher fetch.FeedFetcher, classifier fetch.Classifier, src entity.Source, timeout time.Duration) FeedDiagnostic {
	diag := FeedDiagnostic{Name: src.Name, URL: src.URL}

	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	entries, err := fetcher.Fetch(fetchCtx, src.URL)
	diag.ResponseTime = time.Since(start).Milliseconds()

	if err != nil {
		diag.ErrorMessage = err.Error()
		var httpErr *retry.HTTPError
		switch {
		case errors.Is(fetchCtx.Err(), context.DeadlineExceeded):
			diag.Status = StatusTimeout
			diag.ErrorMessage = fmt.Sprintf("request timeout after %v", timeout)
		case errors.As(err, &httpErr):
			diag.Status = StatusHTTPError
			diag.HTTPCode = httpErr.StatusCode
		case errors.Is(err, fetch.ErrInvalidFeedFormat):
			diag.Status = StatusParseError
		case errors.Is(err, fetch.ErrCircuitOpen):
			diag.Status = StatusRejected
		default:
			diag.Status = StatusNetwork
		}
		return diag
	}

	diag.EntryCount = len(entries)
	var latest time.Time
	for _, e := range entries {
		if classifier.Accept(classify.MatchText(e.Title, e.Summary)) {
			diag.Relevant++
		}
		if e.Published != nil && e.Published.After(latest) {
			latest = *e.Published
		}
	}
	if !latest.IsZero() {
		diag.LatestDate = entity.FormatDate(latest)
	}

	diag.Status = StatusOK
	if len(entries) == 0 {
		diag.Status = StatusEmpty
		diag.ErrorMessage = "feed has no entries"
	}
	return diag
}

// writeReport prints a human-readable report to w.
func writeReport(w io.Writer, diagnostics []FeedDiagnostic, now time.Time) error {
	var working, broken []FeedDiagnostic
	statusCount := make(map[string]int)
	for _, d := range diagnostics {
		statusCount[d.Status]++
		if d.Working() {
			working = append(working, d)
		} else {
			broken = append(broken, d)
		}
	}

	p := &printer{w: w}
	p.printf("===============================================\n")
	p.printf("Feed Diagnostic Report\n")
	p.printf("Generated: %s\n", now.UTC().Format(time.RFC3339))
	p.printf("Total Sources: %d\n", len(diagnostics))
	p.printf("===============================================\n\n")

	p.printf("SUMMARY:\n")
	p.printf("  Working: %d\n", len(working))
	p.printf("  Broken: %d\n", len(broken))
	p.printf("\nSTATUS BREAKDOWN:\n")
	statuses := make([]string, 0, len(statusCount))
	for s := range statusCount {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)
	for _, s := range statuses {
		p.printf("  %s: %d\n", s, statusCount[s])
	}

	p.printf("\nWORKING FEEDS (%d):\n", len(working))
	p.printf("-------------------------------------------\n")
	for _, d := range working {
		p.printf("Name: %s\n", d.Name)
		p.printf("  URL: %s\n", d.URL)
		p.printf("  Entries: %d | Relevant: %d | Latest: %s\n", d.EntryCount, d.Relevant, d.LatestDate)
		p.printf("  Response: %dms\n\n", d.ResponseTime)
	}

	p.printf("\nBROKEN FEEDS (%d):\n", len(broken))
	p.printf("-------------------------------------------\n")
	for _, d := range broken {
		p.printf("Name: %s\n", d.Name)
		p.printf("  URL: %s\n", d.URL)
		p.printf("  Status: %s | HTTP: %d\n", d.Status, d.HTTPCode)
		p.printf("  Error: %s\n", d.ErrorMessage)
		p.printf("  Response: %dms\n\n", d.ResponseTime)
	}
	return p.err
}

// printer keeps the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// writeJSONReport writes the diagnostics as indented JSON.
func writeJSONReport(path string, diagnostics []FeedDiagnostic) error {
	data, err := json.MarshalIndent(diagnostics, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return fileutil.WriteFileAtomic(path, append(data, '\n'), 0o644)
}
