package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"

	workerPkg "suomi-feed/internal/infra/worker"
	"suomi-feed/internal/observability/logging"
	"suomi-feed/internal/usecase/pipeline"
)

// pipelineRunner is the part of pipeline.Service the worker drives.
type pipelineRunner interface {
	Run(ctx context.Context, now time.Time) (pipeline.RunStats, error)
}

// job executes pipeline runs with a timeout, a run id and metrics.
// Overlapping runs are skipped.
type job struct {
	logger  *slog.Logger
	svc     pipelineRunner
	timeout time.Duration
	metrics *workerPkg.WorkerMetrics
	health  *workerPkg.HealthServer
	now     func() time.Time

	mu sync.Mutex
}

// run performs one pipeline run.
func (j *job) run(ctx context.Context) (workerPkg.LastRun, error) {
	if !j.mu.TryLock() {
		j.logger.Warn("previous run still in progress, skipping")
		j.metrics.RecordJobRun(workerPkg.JobStatusSkipped)
		return workerPkg.LastRun{Status: workerPkg.JobStatusSkipped}, nil
	}
	defer j.mu.Unlock()

	now := time.Now
	if j.now != nil {
		now = j.now
	}

	logger, runID := logging.WithRunID(j.logger)
	ctx = logging.WithLogger(ctx, logger)
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	startTime := time.Now()
	logger.Info("pipeline run started")

	stats, err := j.svc.Run(ctx, now())

	last := workerPkg.LastRun{
		RunID:         runID,
		Status:        workerPkg.JobStatusSuccess,
		StartedAt:     startTime,
		FinishedAt:    time.Now(),
		Added:         stats.Added,
		HistorySize:   stats.HistorySize,
		FailedSources: stats.Collect.FailedSources,
	}
	j.metrics.RecordJobDuration(time.Since(startTime))

	if err != nil {
		logger.Error("pipeline run failed", slog.Any("error", err))
		last.Status = workerPkg.JobStatusFailure
		last.Error = err.Error()
		j.metrics.RecordJobRun(workerPkg.JobStatusFailure)
	} else {
		j.metrics.RecordJobRun(workerPkg.JobStatusSuccess)
		j.metrics.RecordFeedsProcessed(stats.Collect.Sources - stats.Collect.FailedSources)
		j.metrics.RecordLastSuccess()
	}

	if j.health != nil {
		j.health.RecordRun(last)
	}
	return last, err
}

// runScheduled runs the pipeline on the cron schedule until ctx is done,
// serving health checks and metrics meanwhile.
func runScheduled(ctx context.Context, logger *slog.Logger, j *job, cfg *workerPkg.WorkerConfig, reg *prometheus.Registry) error {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	startMetricsServer(ctx, logger, cfg.MetricsPort, reg)

	healthAddr := fmt.Sprintf(":%d", cfg.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	j.health = healthServer
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	c := cron.New(cron.WithLocation(cfg.Location()))
	if _, err := c.AddFunc(cfg.CronSchedule, func() {
		_, _ = j.run(ctx)
	}); err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}
	c.Start()

	// Mark as ready after cron is set up
	healthServer.SetReady(true)
	logger.Info("worker started",
		slog.String("schedule", cfg.CronSchedule),
		slog.String("timezone", cfg.Timezone))

	<-ctx.Done()
	healthServer.SetReady(false)
	logger.Info("worker stopping, waiting for running job")
	<-c.Stop().Done()
	logger.Info("worker stopped")
	return nil
}
