package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/project-pearl/Dashboard-sub014/internal/domain"
)

// partitionResult carries one partition's normalized records or its
// failure. A partition fails as a unit; records and err never coexist.
type partitionResult struct {
	partition string
	records   map[domain.RecordKind][]domain.Record
	count     int
	err       error
}

// runPool processes every partition with at most r.workers fetches in
// flight. Each worker owns its partition end to end, so one slow or
// failing jurisdiction cannot stall or corrupt the others. Results come
// back keyed by partition.
func (r *Rebuilder) runPool(ctx context.Context, fetcher Fetcher, partitions []string) map[string]partitionResult {
	jobs := make(chan string)
	results := make(chan partitionResult)

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for partition := range jobs {
				results <- r.processPartition(ctx, fetcher, partition)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, partition := range partitions {
			select {
			case jobs <- partition:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make(map[string]partitionResult, len(partitions))
	for res := range results {
		out[res.partition] = res
	}

	// Partitions the feeder never handed out (context ended early) must
	// read as failed, not as processed-and-empty.
	for _, partition := range partitions {
		if _, ok := out[partition]; !ok {
			cause := ctx.Err()
			if cause == nil {
				cause = errors.New("worker pool closed early")
			}
			out[partition] = partitionResult{
				partition: partition,
				err:       fmt.Errorf("partition %s not processed: %w", partition, cause),
			}
		}
	}
	return out
}

// processPartition fetches, normalizes, and dedupes every endpoint of one
// partition.
func (r *Rebuilder) processPartition(ctx context.Context, fetcher Fetcher, partition string) partitionResult {
	res := partitionResult{
		partition: partition,
		records:   make(map[domain.RecordKind][]domain.Record, len(r.source.Endpoints)),
	}
	value := r.source.partitionValue(partition)
	for _, ep := range r.source.Endpoints {
		rows, err := fetcher.FetchPartition(ctx, ep.Path, value, r.source.PageSize)
		if err != nil {
			if !r.source.KeepPartials || len(rows) == 0 {
				res.err = fmt.Errorf("partition %s endpoint %s: %w", partition, ep.Path, err)
				res.records = nil
				res.count = 0
				return res
			}
			r.logger.Warn("keeping partial rows after fetch failure",
				"source", r.source.Name, "partition", partition, "endpoint", ep.Path,
				"rows", len(rows), "error", err)
		}
		records := make([]domain.Record, 0, len(rows))
		for _, row := range rows {
			rec, ok := domain.NormalizeRow(row, ep.Kind, partition)
			if !ok {
				r.metrics.RowsRejected.WithLabelValues(r.source.Name, string(ep.Kind)).Inc()
				continue
			}
			records = append(records, rec)
		}
		records = domain.DedupeKind(ep.Kind, records)
		res.records[ep.Kind] = records
		res.count += len(records)
	}
	return res
}

// sleepWithClock pauses for d on the shared clock, returning false when
// the context ends first.
func sleepWithClock(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := domain.Clock().NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
