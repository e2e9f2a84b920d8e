package worker

import (
	"fmt"
	"log/slog"
	"time"

	"suomi-feed/internal/pkg/config"
)

// Run modes of the worker process.
const (
	// RunModeOnce runs the pipeline a single time and exits.
	RunModeOnce = "once"
	// RunModeScheduled keeps the process alive and runs the pipeline on a
	// cron schedule.
	RunModeScheduled = "scheduled"
)

// WorkerConfig holds the configuration of the worker process.
// It controls how and when pipeline runs are triggered, not what a run does;
// see config.PipelineConfig for the latter.
//
// Configuration sources:
//   - Environment variables (loaded via LoadConfigFromEnv)
//   - Default values (provided by DefaultConfig)
//
// Example usage:
//
//	cfg, _ := LoadConfigFromEnv(logger, metrics)
//	if cfg.RunMode == RunModeScheduled {
//	    // start cron, health and metrics servers
//	}
type WorkerConfig struct {
	// RunMode selects single-run or scheduled operation.
	// Validation: "once" or "scheduled"
	// Default: "once"
	RunMode string

	// CronSchedule is the cron expression used in scheduled mode.
	// Format: "minute hour day month weekday"
	// Default: "0 * * * *" (hourly)
	CronSchedule string

	// Timezone is the IANA timezone name the schedule is evaluated in.
	// Default: "Europe/Helsinki"
	Timezone string

	// RunTimeout bounds one complete pipeline run.
	// Range: 1m-4h
	// Default: 15 minutes
	RunTimeout time.Duration

	// HealthPort is the port of the health check server in scheduled mode.
	// Range: 1024-65535
	// Default: 9091
	HealthPort int

	// MetricsPort is the port of the Prometheus /metrics server in
	// scheduled mode.
	// Range: 1024-65535
	// Default: 9090
	MetricsPort int

	// MetricsTextfile, when set, is the path a run-once invocation writes
	// its metrics to, for node_exporter's textfile collector.
	// Default: "" (disabled)
	MetricsTextfile string
}

// DefaultConfig returns a WorkerConfig with default values.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		RunMode:      RunModeOnce,
		CronSchedule: "0 * * * *",       // Every hour
		Timezone:     "Europe/Helsinki", // EET/EEST
		RunTimeout:   15 * time.Minute,
		HealthPort:   9091,
		MetricsPort:  9090,
	}
}

// Validate checks if the configuration values are valid.
// If multiple fields are invalid, all errors are collected and returned together.
//
// Validation rules:
//   - RunMode: "once" or "scheduled"
//   - CronSchedule: valid 5-field cron expression
//   - Timezone: valid IANA timezone name
//   - RunTimeout: between 1m and 4h
//   - HealthPort, MetricsPort: between 1024 and 65535, and distinct
func (c *WorkerConfig) Validate() error {
	var errors []error

	if err := config.ValidateOneOf(RunModeOnce, RunModeScheduled)(c.RunMode); err != nil {
		errors = append(errors, fmt.Errorf("run mode: %w", err))
	}

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errors = append(errors, fmt.Errorf("cron schedule: %w", err))
	}

	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errors = append(errors, fmt.Errorf("timezone: %w", err))
	}

	if err := config.ValidateDuration(c.RunTimeout, time.Minute, 4*time.Hour); err != nil {
		errors = append(errors, fmt.Errorf("run timeout: %w", err))
	}

	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errors = append(errors, fmt.Errorf("health port: %w", err))
	}

	if err := config.ValidateIntRange(c.MetricsPort, 1024, 65535); err != nil {
		errors = append(errors, fmt.Errorf("metrics port: %w", err))
	}

	if c.HealthPort == c.MetricsPort {
		errors = append(errors, fmt.Errorf("metrics port: must differ from health port %d", c.HealthPort))
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}

	return nil
}

// Location returns the schedule timezone, or UTC if it cannot be loaded.
func (c *WorkerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoadConfigFromEnv loads the worker configuration from environment
// variables with automatic fallback to default values on failure.
//
// Fail-open strategy:
//  1. Start with DefaultConfig() as base
//  2. Load and validate each field from its environment variable
//  3. On failure: use the default value, log a warning, increment metrics
//  4. Never return an error: the configuration is always usable
//
// Environment variables:
//   - RUN_MODE: "once" or "scheduled" (default: "once")
//   - CRON_SCHEDULE: cron expression (default: "0 * * * *")
//   - WORKER_TIMEZONE: IANA timezone name (default: "Europe/Helsinki")
//   - RUN_TIMEOUT: duration 1m-4h (default: 15m)
//   - WORKER_HEALTH_PORT: integer 1024-65535 (default: 9091)
//   - METRICS_PORT: integer 1024-65535 (default: 9090)
//   - METRICS_TEXTFILE: path (default: disabled)
//
// metrics may be nil.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()

	var cm *config.ConfigMetrics
	if metrics != nil {
		cm = metrics.ConfigMetrics
	}

	runMode := config.LoadEnvWithFallback("RUN_MODE", cfg.RunMode, config.ValidateOneOf(RunModeOnce, RunModeScheduled))
	cfg.RunMode = runMode.Report("run_mode", logger, cm)

	schedule := config.LoadEnvWithFallback("CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule)
	cfg.CronSchedule = schedule.Report("cron_schedule", logger, cm)

	timezone := config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = timezone.Report("timezone", logger, cm)

	runTimeout := config.LoadEnvDuration("RUN_TIMEOUT", cfg.RunTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, time.Minute, 4*time.Hour)
	})
	cfg.RunTimeout = runTimeout.Report("run_timeout", logger, cm)

	healthPort := config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.HealthPort = healthPort.Report("health_port", logger, cm)

	metricsPort := config.LoadEnvInt("METRICS_PORT", cfg.MetricsPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.MetricsPort = metricsPort.Report("metrics_port", logger, cm)

	cfg.MetricsTextfile = config.LoadEnvString("METRICS_TEXTFILE", cfg.MetricsTextfile)

	fallbackApplied := runMode.FallbackApplied || schedule.FallbackApplied || timezone.FallbackApplied ||
		runTimeout.FallbackApplied || healthPort.FallbackApplied || metricsPort.FallbackApplied

	if cm != nil {
		cm.SetFallbackActive(fallbackApplied)
		cm.RecordLoadTimestamp()
	}

	// Always return valid config (fail-open strategy)
	return &cfg, nil
}
