package config

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

func TestLoadEnvString(t *testing.T) {
	t.Setenv("TEST_HISTORY_PATH", "/srv/site/data/news_history.json")
	assert.Equal(t, "/srv/site/data/news_history.json", LoadEnvString("TEST_HISTORY_PATH", "data/news_history.json"))

	t.Setenv("TEST_HISTORY_PATH", "")
	assert.Equal(t, "data/news_history.json", LoadEnvString("TEST_HISTORY_PATH", "data/news_history.json"))
}

func TestLoadEnvWithFallback(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		wantValue    string
		wantFallback bool
	}{
		{name: "unset uses default silently", value: "", wantValue: "0 * * * *"},
		{name: "valid value", value: "*/30 * * * *", wantValue: "*/30 * * * *"},
		{name: "invalid value falls back", value: "every half hour", wantValue: "0 * * * *", wantFallback: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_CRON_SCHEDULE", tt.value)

			result := LoadEnvWithFallback("TEST_CRON_SCHEDULE", "0 * * * *", ValidateCronSchedule)

			assert.Equal(t, tt.wantValue, result.Value)
			assert.Equal(t, tt.wantFallback, result.FallbackApplied)
			if tt.wantFallback {
				require.Len(t, result.Warnings, 1)
				assert.Contains(t, result.Warnings[0], "TEST_CRON_SCHEDULE")
				assert.Contains(t, result.Warnings[0], "falling back to default '0 * * * *'")
			} else {
				assert.Empty(t, result.Warnings)
			}
		})
	}
}

func TestLoadEnvWithFallback_NoValidator(t *testing.T) {
	t.Setenv("TEST_ANY", "anything goes")

	result := LoadEnvWithFallback("TEST_ANY", "default", nil)

	assert.Equal(t, "anything goes", result.Value)
	assert.False(t, result.FallbackApplied)
}

func TestLoadEnvDuration(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		want         time.Duration
		wantFallback bool
	}{
		{name: "unset", value: "", want: 20 * time.Second},
		{name: "valid", value: "45s", want: 45 * time.Second},
		{name: "compound", value: "1m30s", want: 90 * time.Second},
		{name: "unparseable", value: "twenty seconds", want: 20 * time.Second, wantFallback: true},
		{name: "below range", value: "10ms", want: 20 * time.Second, wantFallback: true},
		{name: "above range", value: "1h", want: 20 * time.Second, wantFallback: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_SOURCE_TIMEOUT", tt.value)

			result := LoadEnvDuration("TEST_SOURCE_TIMEOUT", 20*time.Second, func(d time.Duration) error {
				return ValidateDuration(d, time.Second, 5*time.Minute)
			})

			assert.Equal(t, tt.want, result.Value)
			assert.Equal(t, tt.wantFallback, result.FallbackApplied)
		})
	}
}

func TestLoadEnvInt(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		want         int
		wantFallback bool
	}{
		{name: "unset", value: "", want: 1000},
		{name: "valid", value: "2000", want: 2000},
		{name: "decimal", value: "1000.5", want: 1000, wantFallback: true},
		{name: "spaces", value: " 1500 ", want: 1000, wantFallback: true},
		{name: "trailing garbage", value: "1500items", want: 1000, wantFallback: true},
		{name: "below minimum", value: "10", want: 1000, wantFallback: true},
		{name: "above maximum", value: "50000", want: 1000, wantFallback: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_HISTORY_CAP", tt.value)

			result := LoadEnvInt("TEST_HISTORY_CAP", 1000, func(v int) error {
				return ValidateIntRange(v, 100, 10000)
			})

			assert.Equal(t, tt.want, result.Value)
			assert.Equal(t, tt.wantFallback, result.FallbackApplied)
		})
	}
}

func TestLoadEnvList(t *testing.T) {
	defaults := []string{"finland", "suomi"}

	t.Setenv("TEST_KEYWORDS", "")
	assert.Equal(t, defaults, LoadEnvList("TEST_KEYWORDS", defaults).Value)

	t.Setenv("TEST_KEYWORDS", " helsinki, ,Lappi ,")
	result := LoadEnvList("TEST_KEYWORDS", defaults)
	assert.Equal(t, []string{"helsinki", "Lappi"}, result.Value)
	assert.False(t, result.FallbackApplied)

	t.Setenv("TEST_KEYWORDS", " , ,")
	result = LoadEnvList("TEST_KEYWORDS", defaults)
	assert.Equal(t, defaults, result.Value)
	assert.True(t, result.FallbackApplied)
}

func TestLoadResult_Report(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	metrics := NewConfigMetrics("test_report", prometheus.NewRegistry())

	t.Setenv("TEST_RUN_MODE", "sometimes")
	mode := LoadEnvWithFallback("TEST_RUN_MODE", "once", ValidateOneOf("once", "scheduled")).
		Report("run_mode", logger, metrics)

	assert.Equal(t, "once", mode)
	assert.Contains(t, buf.String(), "Configuration fallback applied")
	assert.Contains(t, buf.String(), `"field":"run_mode"`)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.ValidationErrorsTotal.WithLabelValues("run_mode")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues("run_mode", "default")))
}

func TestLoadResult_Report_NoFallback(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	t.Setenv("TEST_RUN_MODE", "scheduled")
	mode := LoadEnvWithFallback("TEST_RUN_MODE", "once", ValidateOneOf("once", "scheduled")).
		Report("run_mode", logger, nil)

	assert.Equal(t, "scheduled", mode)
	assert.Empty(t, buf.String())
}
