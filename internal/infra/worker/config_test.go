package worker

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, WorkerConfig{
		RunMode:      RunModeOnce,
		CronSchedule: "0 * * * *",
		Timezone:     "Europe/Helsinki",
		RunTimeout:   15 * time.Minute,
		HealthPort:   9091,
		MetricsPort:  9090,
	}, cfg)
	assert.NoError(t, cfg.Validate())
}

func TestWorkerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*WorkerConfig)
		wantErr string
	}{
		{name: "defaults", modify: func(*WorkerConfig) {}},
		{name: "scheduled mode", modify: func(c *WorkerConfig) { c.RunMode = RunModeScheduled }},
		{name: "unknown run mode", modify: func(c *WorkerConfig) { c.RunMode = "daemon" }, wantErr: "run mode"},
		{name: "invalid cron", modify: func(c *WorkerConfig) { c.CronSchedule = "every hour" }, wantErr: "cron schedule"},
		{name: "empty cron", modify: func(c *WorkerConfig) { c.CronSchedule = "" }, wantErr: "cron schedule"},
		{name: "invalid timezone", modify: func(c *WorkerConfig) { c.Timezone = "Mars/Olympus" }, wantErr: "timezone"},
		{name: "run timeout too short", modify: func(c *WorkerConfig) { c.RunTimeout = 30 * time.Second }, wantErr: "run timeout"},
		{name: "run timeout too long", modify: func(c *WorkerConfig) { c.RunTimeout = 5 * time.Hour }, wantErr: "run timeout"},
		{name: "run timeout lower bound", modify: func(c *WorkerConfig) { c.RunTimeout = time.Minute }},
		{name: "run timeout upper bound", modify: func(c *WorkerConfig) { c.RunTimeout = 4 * time.Hour }},
		{name: "privileged health port", modify: func(c *WorkerConfig) { c.HealthPort = 80 }, wantErr: "health port"},
		{name: "metrics port too high", modify: func(c *WorkerConfig) { c.MetricsPort = 70000 }, wantErr: "metrics port"},
		{name: "same ports", modify: func(c *WorkerConfig) { c.MetricsPort = c.HealthPort }, wantErr: "must differ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)

			err := cfg.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWorkerConfig_Validate_MultipleErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CronSchedule = "invalid"
	cfg.Timezone = "Invalid/Zone"
	cfg.RunTimeout = 0

	err := cfg.Validate()

	require.Error(t, err)
	for _, want := range []string{"validation failed", "cron schedule", "timezone", "run timeout"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestWorkerConfig_Location(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "Europe/Helsinki", cfg.Location().String())

	cfg.Timezone = "Nowhere/Special"
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoadConfigFromEnv_AllEnvVarsValid(t *testing.T) {
	// Arrange
	t.Setenv("RUN_MODE", "scheduled")
	t.Setenv("CRON_SCHEDULE", "*/30 * * * *")
	t.Setenv("WORKER_TIMEZONE", "UTC")
	t.Setenv("RUN_TIMEOUT", "45m")
	t.Setenv("WORKER_HEALTH_PORT", "8081")
	t.Setenv("METRICS_PORT", "8082")
	t.Setenv("METRICS_TEXTFILE", "/var/lib/node_exporter/suomi_feed.prom")
	metrics := NewWorkerMetrics(prometheus.NewRegistry())

	// Act
	cfg, err := LoadConfigFromEnv(discardLogger(), metrics)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, &WorkerConfig{
		RunMode:         RunModeScheduled,
		CronSchedule:    "*/30 * * * *",
		Timezone:        "UTC",
		RunTimeout:      45 * time.Minute,
		HealthPort:      8081,
		MetricsPort:     8082,
		MetricsTextfile: "/var/lib/node_exporter/suomi_feed.prom",
	}, cfg)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.FallbackActive))
	assert.Greater(t, testutil.ToFloat64(metrics.LoadTimestamp), 0.0)
}

func TestLoadConfigFromEnv_MissingEnvVars(t *testing.T) {
	for _, key := range []string{"RUN_MODE", "CRON_SCHEDULE", "WORKER_TIMEZONE", "RUN_TIMEOUT", "WORKER_HEALTH_PORT", "METRICS_PORT", "METRICS_TEXTFILE"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfigFromEnv(discardLogger(), nil)

	require.NoError(t, err)
	want := DefaultConfig()
	assert.Equal(t, &want, cfg)
}

func TestLoadConfigFromEnv_InvalidValuesFallBack(t *testing.T) {
	tests := []struct {
		name   string
		envKey string
		value  string
		field  string
		check  func(t *testing.T, cfg *WorkerConfig)
	}{
		{"run mode", "RUN_MODE", "forever", "run_mode", func(t *testing.T, c *WorkerConfig) {
			assert.Equal(t, RunModeOnce, c.RunMode)
		}},
		{"cron schedule", "CRON_SCHEDULE", "not a cron", "cron_schedule", func(t *testing.T, c *WorkerConfig) {
			assert.Equal(t, "0 * * * *", c.CronSchedule)
		}},
		{"timezone", "WORKER_TIMEZONE", "Atlantis/Capital", "timezone", func(t *testing.T, c *WorkerConfig) {
			assert.Equal(t, "Europe/Helsinki", c.Timezone)
		}},
		{"run timeout out of range", "RUN_TIMEOUT", "10s", "run_timeout", func(t *testing.T, c *WorkerConfig) {
			assert.Equal(t, 15*time.Minute, c.RunTimeout)
		}},
		{"run timeout unparseable", "RUN_TIMEOUT", "soon", "run_timeout", func(t *testing.T, c *WorkerConfig) {
			assert.Equal(t, 15*time.Minute, c.RunTimeout)
		}},
		{"health port", "WORKER_HEALTH_PORT", "80", "health_port", func(t *testing.T, c *WorkerConfig) {
			assert.Equal(t, 9091, c.HealthPort)
		}},
		{"metrics port", "METRICS_PORT", "abc", "metrics_port", func(t *testing.T, c *WorkerConfig) {
			assert.Equal(t, 9090, c.MetricsPort)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			t.Setenv(tt.envKey, tt.value)
			var logs bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&logs, nil))
			metrics := NewWorkerMetrics(prometheus.NewRegistry())

			// Act
			cfg, err := LoadConfigFromEnv(logger, metrics)

			// Assert
			require.NoError(t, err, "fail-open loading never errors")
			tt.check(t, cfg)
			assert.Contains(t, logs.String(), "Configuration fallback applied")
			assert.Contains(t, logs.String(), tt.field)
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ValidationErrorsTotal.WithLabelValues(tt.field)))
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues(tt.field, "default")))
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FallbackActive))
		})
	}
}

func TestLoadConfigFromEnv_PartiallyValid(t *testing.T) {
	t.Setenv("RUN_MODE", "scheduled")
	t.Setenv("CRON_SCHEDULE", "bad")
	t.Setenv("WORKER_TIMEZONE", "Asia/Tokyo")

	cfg, err := LoadConfigFromEnv(discardLogger(), nil)

	require.NoError(t, err)
	assert.Equal(t, RunModeScheduled, cfg.RunMode)
	assert.Equal(t, "0 * * * *", cfg.CronSchedule)
	assert.Equal(t, "Asia/Tokyo", cfg.Timezone)
}
