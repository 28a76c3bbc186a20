// Package pipeline turns upstream partition fetches into published cache
// snapshots: a bounded worker pool per rebuild, one retry pass for failed
// partitions, a merge that preserves unprocessed partitions, and
// best-effort post-publish hooks.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/project-pearl/Dashboard-sub014/internal/cache"
	"github.com/project-pearl/Dashboard-sub014/internal/domain"
	"github.com/project-pearl/Dashboard-sub014/internal/observability"
	"github.com/project-pearl/Dashboard-sub014/internal/upstream"
)

// Status is the terminal state of one rebuild invocation.
type Status string

const (
	// StatusComplete means a snapshot was published.
	StatusComplete Status = "complete"
	// StatusEmpty means the build produced zero records and the previous
	// snapshot was kept.
	StatusEmpty Status = "empty"
	// StatusSkipped means another rebuild already held the build slot.
	StatusSkipped Status = "skipped"
	// StatusError means the rebuild died; the previous snapshot stands.
	StatusError Status = "error"
)

// Result reports the outcome of one rebuild invocation. Counts cover the
// records this run placed in the grid; failed partitions appear in
// PartitionCounts with zero.
type Result struct {
	Source          string                    `json:"source"`
	Status          Status                    `json:"status"`
	Counts          map[domain.RecordKind]int `json:"counts,omitempty"`
	PartitionCounts map[string]int            `json:"partition_counts,omitempty"`
	CellCount       int                       `json:"cell_count,omitempty"`
	Retried         []string                  `json:"retried,omitempty"`
	Failed          []string                  `json:"failed,omitempty"`
	ElapsedSeconds  float64                   `json:"elapsed_seconds"`
	Error           string                    `json:"error,omitempty"`
}

// Rebuilder coordinates full cache rebuilds for one source.
type Rebuilder struct {
	source       Source
	store        *cache.Store
	fetcher      Fetcher
	retryFetcher Fetcher
	workers      int
	retryBackoff time.Duration
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// New assembles a Rebuilder. retryFetcher is used for the second pass and
// normally carries longer timeouts than fetcher.
func New(source Source, store *cache.Store, fetcher, retryFetcher Fetcher, workers int, retryBackoff time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Rebuilder {
	if workers < 1 {
		workers = 1
	}
	return &Rebuilder{
		source:       source,
		store:        store,
		fetcher:      fetcher,
		retryFetcher: retryFetcher,
		workers:      workers,
		retryBackoff: retryBackoff,
		logger:       logger,
		metrics:      metrics,
	}
}

// Source returns the name of the source this Rebuilder serves.
func (r *Rebuilder) Source() string { return r.source.Name }

// Rebuild runs one full fetch-normalize-publish cycle. It never returns an
// error: every outcome, including a panic somewhere in the build, lands in
// the Result and leaves the previously published snapshot intact. The
// build slot is released on every exit path.
func (r *Rebuilder) Rebuild(ctx context.Context) (result Result) {
	if !r.store.TryAcquireBuild() {
		r.logger.Warn("rebuild already in flight, skipping", "source", r.source.Name)
		r.metrics.RebuildsTotal.WithLabelValues(r.source.Name, string(StatusSkipped)).Inc()
		return Result{Source: r.source.Name, Status: StatusSkipped}
	}
	defer r.store.ReleaseBuild()

	r.metrics.RebuildRunning.WithLabelValues(r.source.Name).Set(1)
	defer r.metrics.RebuildRunning.WithLabelValues(r.source.Name).Set(0)

	start := domain.Clock().Now()
	finish := func(res Result) Result {
		res.Source = r.source.Name
		res.ElapsedSeconds = domain.Clock().Now().Sub(start).Seconds()
		r.metrics.RebuildsTotal.WithLabelValues(r.source.Name, string(res.Status)).Inc()
		r.metrics.RebuildDuration.WithLabelValues(r.source.Name).Observe(res.ElapsedSeconds)
		return res
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("rebuild panicked", "source", r.source.Name, "panic", rec)
			result = finish(Result{Status: StatusError, Error: fmt.Sprintf("panic: %v", rec)})
		}
	}()

	r.logger.Info("rebuild starting",
		"source", r.source.Name, "partitions", len(r.source.Partitions), "workers", r.workers)

	results := r.runPool(ctx, r.fetcher, r.source.Partitions)
	retried := failedPartitions(results, r.source.Partitions)
	failed := r.retryFailed(ctx, results, retried)

	processed := make(map[string]bool, len(r.source.Partitions))
	for _, partition := range r.source.Partitions {
		if results[partition].err == nil {
			processed[partition] = true
		}
	}

	all, readings := r.collectRecords(results)
	next := cache.BuildGrid(all)

	counts := make(map[domain.RecordKind]int)
	partitionCounts := make(map[string]int, len(r.source.Partitions))
	for _, partition := range r.source.Partitions {
		partitionCounts[partition] = 0
	}
	total := 0
	for _, cell := range next {
		cell.Visit(func(rec domain.Record) {
			counts[rec.Kind()]++
			partitionCounts[rec.Partition()]++
			total++
		})
	}

	if total == 0 {
		r.logger.Warn("rebuild produced no records, keeping previous snapshot",
			"source", r.source.Name, "failed_partitions", len(failed))
		return finish(Result{
			Status:          StatusEmpty,
			PartitionCounts: partitionCounts,
			Retried:         retried,
			Failed:          failed,
		})
	}

	var prevGrid cache.Grid
	var prevFreshness map[string]time.Time
	if prev := r.store.Current(); prev != nil {
		prevGrid = prev.Grid
		prevFreshness = prev.Meta.Freshness
	}
	grid := cache.MergeGrids(prevGrid, next, processed)
	freshness := cache.MergeFreshness(prevFreshness, processed, domain.Clock().Now().UTC())
	snap := cache.NewSnapshot(grid, freshness)
	r.store.Publish(snap)

	r.metrics.SnapshotCells.WithLabelValues(r.source.Name).Set(float64(snap.Meta.CellCount))
	for kind, n := range snap.Meta.Counts {
		r.metrics.SnapshotRecords.WithLabelValues(r.source.Name, string(kind)).Set(float64(n))
	}
	r.metrics.SnapshotBuiltAt.WithLabelValues(r.source.Name).Set(float64(snap.Meta.BuiltAt.Unix()))

	r.runHooks(ctx, readings)

	r.logger.Info("rebuild complete",
		"source", r.source.Name, "records", total, "cells", snap.Meta.CellCount,
		"partitions_processed", len(processed), "partitions_failed", len(failed))
	return finish(Result{
		Status:          StatusComplete,
		Counts:          counts,
		PartitionCounts: partitionCounts,
		CellCount:       snap.Meta.CellCount,
		Retried:         retried,
		Failed:          failed,
	})
}

// retryFailed gives failed partitions exactly one more chance after the
// backoff, using the longer-timeout fetcher. Partitions that fail again
// are dropped from this rebuild; their previous contribution survives the
// merge. Returns the permanently failed set.
func (r *Rebuilder) retryFailed(ctx context.Context, results map[string]partitionResult, retried []string) []string {
	if len(retried) == 0 {
		return nil
	}
	r.metrics.PartitionsRetried.WithLabelValues(r.source.Name).Add(float64(len(retried)))
	for _, partition := range retried {
		r.logger.Warn("partition fetch failed, will retry",
			"source", r.source.Name, "partition", partition,
			"class", string(upstream.ClassOf(results[partition].err)),
			"error", results[partition].err)
	}

	if !sleepWithClock(ctx, r.retryBackoff) {
		r.markFailed(retried)
		return retried
	}

	second := r.runPool(ctx, r.retryFetcher, retried)
	var failed []string
	for _, partition := range retried {
		res := second[partition]
		if res.err == nil {
			results[partition] = res
			continue
		}
		failed = append(failed, partition)
	}
	sort.Strings(failed)
	r.markFailed(failed)
	return failed
}

func (r *Rebuilder) markFailed(partitions []string) {
	for _, partition := range partitions {
		r.logger.Error("partition dropped after retry",
			"source", r.source.Name, "partition", partition)
		r.metrics.PartitionsFailed.WithLabelValues(r.source.Name).Inc()
	}
}

// collectRecords concatenates processed partitions in stable order and
// applies each kind's collision policy across the union, so the survivor
// of a cross-partition duplicate does not depend on worker timing.
func (r *Rebuilder) collectRecords(results map[string]partitionResult) ([]domain.Record, []domain.Reading) {
	byKind := make(map[domain.RecordKind][]domain.Record)
	for _, partition := range r.source.Partitions {
		res := results[partition]
		if res.err != nil {
			continue
		}
		for _, ep := range r.source.Endpoints {
			byKind[ep.Kind] = append(byKind[ep.Kind], res.records[ep.Kind]...)
		}
	}

	var all []domain.Record
	var readings []domain.Reading
	for _, ep := range r.source.Endpoints {
		records := domain.DedupeKind(ep.Kind, byKind[ep.Kind])
		r.metrics.RecordsIngested.WithLabelValues(r.source.Name, string(ep.Kind)).Add(float64(len(records)))
		all = append(all, records...)
		if ep.Kind == domain.KindReading {
			for _, rec := range records {
				if reading, ok := rec.(domain.Reading); ok {
					readings = append(readings, reading)
				}
			}
		}
	}
	return all, readings
}

func failedPartitions(results map[string]partitionResult, partitions []string) []string {
	var failed []string
	for _, partition := range partitions {
		if results[partition].err != nil {
			failed = append(failed, partition)
		}
	}
	sort.Strings(failed)
	return failed
}
