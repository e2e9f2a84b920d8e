// Command worker runs the suomi-feed pipeline: it polls the configured news
// feeds, updates the JSON history and regenerates the "Uutisia Suomesta"
// pages. By default it performs a single run and exits; RUN_MODE=scheduled
// keeps it running on a cron schedule.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"suomi-feed/internal/config"
	"suomi-feed/internal/infra/adapter/persistence/jsonfile"
	"suomi-feed/internal/infra/scraper"
	"suomi-feed/internal/infra/site"
	workerPkg "suomi-feed/internal/infra/worker"
	"suomi-feed/internal/observability/logging"
	"suomi-feed/internal/observability/metrics"
	"suomi-feed/internal/observability/tracing"
	pkgconfig "suomi-feed/internal/pkg/config"
	"suomi-feed/internal/resilience/circuitbreaker"
	"suomi-feed/internal/usecase/classify"
	fetchUC "suomi-feed/internal/usecase/fetch"
	"suomi-feed/internal/usecase/pipeline"
	"suomi-feed/internal/usecase/render"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	loadDotEnv()
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := tracing.InitProvider("suomi-feed", version)
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("failed to shut down tracer provider", slog.Any("error", err))
		}
	}()

	reg := prometheus.NewRegistry()

	// Load worker configuration (fail-open strategy)
	workerMetrics := workerPkg.NewWorkerMetrics(reg)
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err == nil {
		err = workerConfig.Validate()
	}
	if err != nil {
		logger.Error("invalid worker configuration", slog.Any("error", err))
		return 1
	}

	pipelineConfig, err := loadPipelineConfig(logger, reg)
	if err != nil {
		logger.Error("invalid pipeline configuration", slog.Any("error", err))
		return 1
	}

	logger.Info("worker configuration loaded",
		slog.String("version", version),
		slog.String("run_mode", workerConfig.RunMode),
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Duration("run_timeout", workerConfig.RunTimeout),
		slog.Int("sources", len(pipelineConfig.Sources)),
		slog.String("history_path", pipelineConfig.HistoryPath),
		slog.String("site_dir", pipelineConfig.SiteDir),
		slog.Int("history_cap", pipelineConfig.HistoryCap))

	pipelineMetrics := metrics.NewPipelineMetrics(reg)
	svc := setupPipeline(logger, pipelineConfig, pipelineMetrics)
	job := &job{
		logger:  logger,
		svc:     svc,
		timeout: workerConfig.RunTimeout,
		metrics: workerMetrics,
	}

	if workerConfig.RunMode == workerPkg.RunModeScheduled {
		if err := runScheduled(ctx, logger, job, workerConfig, reg); err != nil {
			logger.Error("scheduled worker failed", slog.Any("error", err))
			return 1
		}
		return 0
	}

	_, runErr := job.run(ctx)
	if workerConfig.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(workerConfig.MetricsTextfile, reg); err != nil {
			logger.Error("failed to write metrics textfile",
				slog.String("path", workerConfig.MetricsTextfile),
				slog.Any("error", err))
		}
	}
	if runErr != nil {
		return 1
	}
	return 0
}

// loadDotEnv loads a .env file from the working directory if there is one.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", slog.Any("error", err))
	}
}

// loadPipelineConfig combines the embedded source registry with the
// environment.
func loadPipelineConfig(logger *slog.Logger, reg prometheus.Registerer) (*config.PipelineConfig, error) {
	registry, err := config.LoadRegistry()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadPipelineConfig(registry, logger, pkgconfig.NewConfigMetrics("pipeline", reg))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupPipeline wires the pipeline service with all dependencies.
// The breaker set lives as long as the process, so in scheduled mode a
// failing host stays skipped across runs until its breaker half-opens.
func setupPipeline(logger *slog.Logger, cfg *config.PipelineConfig, m *metrics.PipelineMetrics) *pipeline.Service {
	feedFetcher := scraper.NewRSSFetcher(
		scraper.NewHTTPClient(cfg.SourceTimeout),
		scraper.WithUserAgent(cfg.UserAgent),
		scraper.WithBreakers(circuitbreaker.NewHostSet(nil, logger)),
	)
	classifier := classify.New(cfg.PrimaryKeywords, cfg.SecondaryKeywords)

	collector := fetchUC.NewService(feedFetcher, classifier,
		fetchUC.Config{
			SourceTimeout: cfg.SourceTimeout,
			FetchInterval: cfg.FetchInterval,
		},
		fetchUC.WithMetrics(m))

	return pipeline.NewService(
		collector,
		jsonfile.NewHistoryRepo(cfg.HistoryPath, logger),
		classifier,
		render.New(render.DefaultLabels()),
		site.NewWriter(cfg.SiteDir, cfg.HostPage),
		pipeline.Config{
			Sources:      cfg.Sources,
			HistoryCap:   cfg.HistoryCap,
			RecentWindow: cfg.RecentWindow,
		},
		pipeline.WithMetrics(m),
	)
}
