// Package config provides fail-open loading of configuration values from
// environment variables. A malformed or out-of-range value never stops the
// process: the default is used instead and the fallback is reported through
// warnings and ConfigMetrics.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadResult is the outcome of loading one configuration value.
//
// Fields:
//   - Value: the loaded value, or the default when a fallback was applied
//   - Warnings: one human-readable message per fallback
//   - FallbackApplied: true if the environment value was rejected
type LoadResult[T any] struct {
	Value           T
	Warnings        []string
	FallbackApplied bool
}

// Report logs the warnings of a fallback, records it in metrics and returns
// the loaded value. field is the metric label, e.g. "cron_schedule".
// Either logger or metrics may be nil.
//
// Example:
//
//	cfg.CronSchedule = config.LoadEnvWithFallback("CRON_SCHEDULE", def, config.ValidateCronSchedule).
//	    Report("cron_schedule", logger, metrics)
func (r LoadResult[T]) Report(field string, logger *slog.Logger, metrics *ConfigMetrics) T {
	if !r.FallbackApplied {
		return r.Value
	}
	if metrics != nil {
		metrics.RecordValidationError(field)
		metrics.RecordFallback(field, "default")
	}
	if logger != nil {
		for _, warning := range r.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}
	return r.Value
}

// loadEnv is the shared fail-open pipeline: read, parse, validate, fall back.
// An unset or empty variable yields the default without a warning.
func loadEnv[T any](envKey string, defaultValue T, parse func(string) (T, error), validator func(T) error) LoadResult[T] {
	raw := os.Getenv(envKey)
	if raw == "" {
		return LoadResult[T]{Value: defaultValue}
	}

	fallback := func(reason error) LoadResult[T] {
		return LoadResult[T]{
			Value: defaultValue,
			Warnings: []string{fmt.Sprintf(
				"Invalid %s='%s': %v, falling back to default '%v'",
				envKey, raw, reason, defaultValue,
			)},
			FallbackApplied: true,
		}
	}

	value, err := parse(raw)
	if err != nil {
		return fallback(err)
	}
	if validator != nil {
		if err := validator(value); err != nil {
			return fallback(err)
		}
	}
	return LoadResult[T]{Value: value}
}

// LoadEnvString returns the environment value of envKey, or defaultValue if
// it is unset or empty. No validation is performed.
func LoadEnvString(envKey, defaultValue string) string {
	if value := os.Getenv(envKey); value != "" {
		return value
	}
	return defaultValue
}

// LoadEnvWithFallback loads a string and validates it.
//
// Example:
//
//	result := LoadEnvWithFallback("WORKER_TIMEZONE", "Europe/Helsinki", ValidateTimezone)
//	tz := result.Value
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) LoadResult[string] {
	return loadEnv(envKey, defaultValue, func(s string) (string, error) { return s, nil }, validator)
}

// LoadEnvDuration loads a Go duration string such as "30s" or "1h30m".
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) LoadResult[time.Duration] {
	return loadEnv(envKey, defaultValue, time.ParseDuration, validator)
}

// LoadEnvInt loads a base-10 integer. Surrounding spaces, decimals and
// trailing characters are rejected.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) LoadResult[int] {
	return loadEnv(envKey, defaultValue, func(s string) (int, error) {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("invalid integer format")
		}
		return v, nil
	}, validator)
}

// LoadEnvList loads a comma-separated list. Entries are trimmed and empty
// entries dropped; a list that ends up empty falls back to the default.
//
// Example:
//
//	// PRIMARY_KEYWORDS="finland, suomi ,helsinki"
//	result := LoadEnvList("PRIMARY_KEYWORDS", defaults)
//	// result.Value == []string{"finland", "suomi", "helsinki"}
func LoadEnvList(envKey string, defaultValue []string) LoadResult[[]string] {
	return loadEnv(envKey, defaultValue, func(s string) ([]string, error) {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("list has no entries")
		}
		return out, nil
	}, nil)
}
