// Package metrics provides the Prometheus metrics of a pipeline run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Source fetch outcomes used as the status label.
const (
	StatusSuccess  = "success"
	StatusFailure  = "failure"
	StatusTimeout  = "timeout"
	StatusRejected = "rejected"
)

// PipelineMetrics groups the collectors updated by a pipeline run.
// All Record methods are no-ops on a nil receiver, so services can run
// without metrics in tests.
type PipelineMetrics struct {
	// SourcesFetchedTotal counts source fetches by status
	// (success, failure, timeout, rejected).
	SourcesFetchedTotal *prometheus.CounterVec

	// FeedEntriesTotal counts feed entries parsed from successful fetches.
	FeedEntriesTotal prometheus.Counter

	// ItemsAcceptedTotal counts items added to the history.
	ItemsAcceptedTotal prometheus.Counter

	// ItemsDuplicateTotal counts relevant entries whose link was already known.
	ItemsDuplicateTotal prometheus.Counter

	// ItemsEvictedTotal counts items dropped by the history cap.
	ItemsEvictedTotal prometheus.Counter

	// HistoryItems is the history size after the last merge.
	HistoryItems prometheus.Gauge

	// SourceFetchDuration measures single source fetches, retries included.
	SourceFetchDuration prometheus.Histogram

	// RunDuration measures whole runs by status (success, failure).
	RunDuration *prometheus.HistogramVec

	// LastSuccessTimestamp is the Unix time of the last successful run.
	LastSuccessTimestamp prometheus.Gauge
}

// NewPipelineMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	factory := promauto.With(reg)

	return &PipelineMetrics{
		SourcesFetchedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "suomifeed_sources_fetched_total",
			Help: "Total number of source fetches by status",
		}, []string{"status"}),

		FeedEntriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "suomifeed_feed_entries_total",
			Help: "Total number of feed entries parsed",
		}),

		ItemsAcceptedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "suomifeed_items_accepted_total",
			Help: "Total number of items added to the history",
		}),

		ItemsDuplicateTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "suomifeed_items_duplicate_total",
			Help: "Total number of relevant entries skipped as already known",
		}),

		ItemsEvictedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "suomifeed_items_evicted_total",
			Help: "Total number of items evicted by the history cap",
		}),

		HistoryItems: factory.NewGauge(prometheus.GaugeOpts{
			Name: "suomifeed_history_items",
			Help: "Number of items in the history after the last merge",
		}),

		SourceFetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "suomifeed_source_fetch_duration_seconds",
			Help:    "Time taken to fetch and parse one source",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),

		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "suomifeed_run_duration_seconds",
			Help:    "Duration of pipeline runs",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 900},
		}, []string{"status"}),

		LastSuccessTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "suomifeed_last_success_timestamp",
			Help: "Unix timestamp of the last successful pipeline run",
		}),
	}
}

// RecordSourceFetch records one source fetch.
func (m *PipelineMetrics) RecordSourceFetch(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.SourcesFetchedTotal.WithLabelValues(status).Inc()
	m.SourceFetchDuration.Observe(duration.Seconds())
}

// RecordFeedEntries adds n parsed feed entries.
func (m *PipelineMetrics) RecordFeedEntries(n int) {
	if m == nil {
		return
	}
	m.FeedEntriesTotal.Add(float64(n))
}

// RecordDuplicates adds n entries skipped as already known.
func (m *PipelineMetrics) RecordDuplicates(n int) {
	if m == nil {
		return
	}
	m.ItemsDuplicateTotal.Add(float64(n))
}

// RecordMerge records the outcome of a history merge.
func (m *PipelineMetrics) RecordMerge(added, evicted, historySize int) {
	if m == nil {
		return
	}
	m.ItemsAcceptedTotal.Add(float64(added))
	m.ItemsEvictedTotal.Add(float64(evicted))
	m.HistoryItems.Set(float64(historySize))
}

// RecordRun records a finished run. A successful run also updates the last
// success timestamp.
func (m *PipelineMetrics) RecordRun(duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	m.RunDuration.WithLabelValues(status).Observe(duration.Seconds())
	if err == nil {
		m.LastSuccessTimestamp.SetToCurrentTime()
	}
}
