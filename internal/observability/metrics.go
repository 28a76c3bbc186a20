package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingest service.
type Metrics struct {
	RebuildsTotal   *prometheus.CounterVec   // labels: source, status={complete,empty,skipped,error}
	RebuildDuration *prometheus.HistogramVec // labels: source
	RebuildRunning  *prometheus.GaugeVec     // labels: source

	// Per-rebuild record flow.
	RecordsIngested   *prometheus.CounterVec // labels: source, kind
	RowsRejected      *prometheus.CounterVec // labels: source, kind
	PartitionsRetried *prometheus.CounterVec // labels: source
	PartitionsFailed  *prometheus.CounterVec // labels: source

	// Upstream fetch metrics.
	FetchPages  *prometheus.CounterVec // labels: source
	FetchErrors *prometheus.CounterVec // labels: source, class={transport,upstream,parse}

	// Published snapshot state.
	SnapshotCells   *prometheus.GaugeVec // labels: source
	SnapshotRecords *prometheus.GaugeVec // labels: source, kind
	SnapshotBuiltAt *prometheus.GaugeVec // labels: source; unix seconds

	// Post-publish hooks.
	AlertsEmitted    prometheus.Counter
	ReadingsArchived prometheus.Counter
	HookFailures     *prometheus.CounterVec // labels: hook

	CellCacheLookups *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all ingest metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RebuildsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pearl_ingest",
			Name:      "rebuilds_total",
			Help:      "Cache rebuild attempts by source and terminal status.",
		}, []string{"source", "status"}),
		RebuildDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pearl_ingest",
			Name:      "rebuild_duration_seconds",
			Help:      "Duration of a complete fetch-normalize-publish cycle.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"source"}),
		RebuildRunning: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "pearl_ingest",
			Name:      "rebuild_running",
			Help:      "1 while a rebuild holds the source's build slot.",
		}, []string{"source"}),
		RecordsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pearl_ingest",
			Name:      "records_ingested_total",
			Help:      "Canonical records produced by rebuilds, after dedupe.",
		}, []string{"source", "kind"}),
		RowsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pearl_ingest",
			Name:      "rows_rejected_total",
			Help:      "Upstream rows dropped during normalization.",
		}, []string{"source", "kind"}),
		PartitionsRetried: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pearl_ingest",
			Name:      "partitions_retried_total",
			Help:      "Partition fetches that entered the retry pass.",
		}, []string{"source"}),
		PartitionsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pearl_ingest",
			Name:      "partitions_failed_total",
			Help:      "Partition fetches dropped after the retry pass failed.",
		}, []string{"source"}),
		FetchPages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pearl_ingest",
			Name:      "fetch_pages_total",
			Help:      "Upstream pages fetched successfully.",
		}, []string{"source"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pearl_ingest",
			Name:      "fetch_errors_total",
			Help:      "Upstream fetch failures by error class.",
		}, []string{"source", "class"}),
		SnapshotCells: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "pearl_ingest",
			Name:      "snapshot_cells",
			Help:      "Grid cells in the published snapshot.",
		}, []string{"source"}),
		SnapshotRecords: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "pearl_ingest",
			Name:      "snapshot_records",
			Help:      "Records in the published snapshot by kind.",
		}, []string{"source", "kind"}),
		SnapshotBuiltAt: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "pearl_ingest",
			Name:      "snapshot_built_at_seconds",
			Help:      "Unix timestamp of the published snapshot.",
		}, []string{"source"}),
		AlertsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pearl_ingest",
			Name:      "alerts_emitted_total",
			Help:      "Threshold-exceedance alerts published to the alert topic.",
		}),
		ReadingsArchived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pearl_ingest",
			Name:      "readings_archived_total",
			Help:      "Reading samples written to the long-term archive.",
		}),
		HookFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pearl_ingest",
			Name:      "hook_failures_total",
			Help:      "Post-publish hook failures. Hooks never fail a rebuild.",
		}, []string{"hook"}),
		CellCacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pearl_ingest",
			Name:      "cell_cache_lookups_total",
			Help:      "Marshaled-cell cache lookups by result.",
		}, []string{"result"}),
	}

	prometheus.MustRegister(
		m.RebuildsTotal,
		m.RebuildDuration,
		m.RebuildRunning,
		m.RecordsIngested,
		m.RowsRejected,
		m.PartitionsRetried,
		m.PartitionsFailed,
		m.FetchPages,
		m.FetchErrors,
		m.SnapshotCells,
		m.SnapshotRecords,
		m.SnapshotBuiltAt,
		m.AlertsEmitted,
		m.ReadingsArchived,
		m.HookFailures,
		m.CellCacheLookups,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RebuildsTotal:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "pearl_ingest", Name: "rebuilds_total"}, []string{"source", "status"}),
		RebuildDuration:   prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "pearl_ingest", Name: "rebuild_duration_seconds"}, []string{"source"}),
		RebuildRunning:    prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "pearl_ingest", Name: "rebuild_running"}, []string{"source"}),
		RecordsIngested:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "pearl_ingest", Name: "records_ingested_total"}, []string{"source", "kind"}),
		RowsRejected:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "pearl_ingest", Name: "rows_rejected_total"}, []string{"source", "kind"}),
		PartitionsRetried: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "pearl_ingest", Name: "partitions_retried_total"}, []string{"source"}),
		PartitionsFailed:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "pearl_ingest", Name: "partitions_failed_total"}, []string{"source"}),
		FetchPages:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "pearl_ingest", Name: "fetch_pages_total"}, []string{"source"}),
		FetchErrors:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "pearl_ingest", Name: "fetch_errors_total"}, []string{"source", "class"}),
		SnapshotCells:     prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "pearl_ingest", Name: "snapshot_cells"}, []string{"source"}),
		SnapshotRecords:   prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "pearl_ingest", Name: "snapshot_records"}, []string{"source", "kind"}),
		SnapshotBuiltAt:   prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "pearl_ingest", Name: "snapshot_built_at_seconds"}, []string{"source"}),
		AlertsEmitted:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "pearl_ingest", Name: "alerts_emitted_total"}),
		ReadingsArchived:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "pearl_ingest", Name: "readings_archived_total"}),
		HookFailures:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "pearl_ingest", Name: "hook_failures_total"}, []string{"hook"}),
		CellCacheLookups:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "pearl_ingest", Name: "cell_cache_lookups_total"}, []string{"result"}),
	}
}
