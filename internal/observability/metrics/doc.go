// Package metrics provides the Prometheus collectors of the pipeline.
//
// Collectors are registered on an injected prometheus.Registerer so that
// tests can use private registries, and a run-once invocation can dump its
// registry to a textfile instead of serving /metrics.
//
// Example usage:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.NewPipelineMetrics(reg)
//	m.RecordSourceFetch(metrics.StatusSuccess, 350*time.Millisecond)
//	_ = metrics.WriteTextfile("/var/lib/node_exporter/suomi_feed.prom", reg)
package metrics
