package cache

import (
	"time"

	"github.com/project-pearl/Dashboard-sub014/internal/domain"
)

// MergeGrids combines the previous published grid with a freshly built
// one. Cells holding any record from a processed partition are replaced
// wholesale by the new build; cells populated entirely by partitions that
// failed this round carry forward unchanged, so one bad upstream region
// never wipes another region's data.
func MergeGrids(prev, next Grid, processed map[string]bool) Grid {
	if len(prev) == 0 {
		return next
	}
	merged := make(Grid, len(prev)+len(next))
	for key, cell := range prev {
		if !touchesProcessed(cell, processed) {
			merged[key] = cell
		}
	}
	for key, cell := range next {
		merged[key] = cell
	}
	return merged
}

func touchesProcessed(cell *Cell, processed map[string]bool) bool {
	touched := false
	cell.Visit(func(rec domain.Record) {
		if processed[rec.Partition()] {
			touched = true
		}
	})
	return touched
}

// MergeFreshness stamps processed partitions with the build time and
// carries previous stamps forward for everything else.
func MergeFreshness(prev map[string]time.Time, processed map[string]bool, builtAt time.Time) map[string]time.Time {
	merged := make(map[string]time.Time, len(prev)+len(processed))
	for partition, at := range prev {
		merged[partition] = at
	}
	for partition, ok := range processed {
		if ok {
			merged[partition] = builtAt
		}
	}
	return merged
}
