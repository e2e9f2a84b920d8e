package config

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigMetrics_RegistersWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewConfigMetrics("pipeline", reg)

	metrics.RecordLoadTimestamp()
	metrics.RecordValidationError("history_cap")
	metrics.RecordFallback("history_cap", "default")
	metrics.SetFallbackActive(true)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.ElementsMatch(t, []string{
		"pipeline_config_load_timestamp",
		"pipeline_config_validation_errors_total",
		"pipeline_config_fallbacks_total",
		"pipeline_config_fallback_active",
	}, names)
	assert.Equal(t, "pipeline", metrics.Component())
}

func TestNewConfigMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewConfigMetrics("worker", reg)

	assert.Panics(t, func() { NewConfigMetrics("worker", reg) })
	assert.NotPanics(t, func() { NewConfigMetrics("worker", prometheus.NewRegistry()) })
}

func TestConfigMetrics_Values(t *testing.T) {
	metrics := NewConfigMetrics("test_values", nil)

	metrics.RecordLoadTimestamp()
	assert.Greater(t, testutil.ToFloat64(metrics.LoadTimestamp), float64(0))

	metrics.RecordValidationError("timezone")
	metrics.RecordValidationError("timezone")
	metrics.RecordValidationError("cron_schedule")
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.ValidationErrorsTotal.WithLabelValues("timezone")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.ValidationErrorsTotal.WithLabelValues("cron_schedule")))

	metrics.SetFallbackActive(true)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FallbackActive))
	metrics.SetFallbackActive(false)
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.FallbackActive))
}
