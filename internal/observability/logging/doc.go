// Package logging provides structured logging utilities with context propagation.
//
// Key features:
//   - JSON and text output formats
//   - Run ID tagging for batch runs
//   - Context-aware logging
//   - Configurable log levels
//
// Example usage:
//
//	logger := logging.NewLogger()
//	runLogger, runID := logging.WithRunID(logger)
//	ctx = logging.WithLogger(ctx, runLogger)
//
//	logging.FromContext(ctx).Info("run started", slog.String("run_id", runID))
package logging
