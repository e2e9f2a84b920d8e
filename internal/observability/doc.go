// Package observability groups the logging, metrics and tracing support of
// the pipeline.
//
// Subpackages:
//   - logging: slog loggers with run ids and context propagation
//   - metrics: Prometheus collectors for pipeline runs
//   - tracing: OpenTelemetry provider setup and stage spans
package observability
