// Package tracing provides OpenTelemetry tracing integration.
//
// Each pipeline stage opens a span (pipeline.collect, pipeline.merge,
// pipeline.render, pipeline.persist) and every source fetch opens a child
// span of pipeline.collect. Errors are recorded on the span that saw them.
//
// Example usage:
//
//	shutdown := tracing.InitProvider("suomi-feed", version)
//	defer shutdown(context.Background())
//
//	ctx, span := tracing.StartSpan(ctx, nil, "pipeline.merge")
//	err := merge(ctx)
//	tracing.EndSpan(span, err)
package tracing
