package domain

import "sort"

// Dedupe collapses records to one per dedupe key, keeping the first
// occurrence. It runs in a single pass over the input and preserves the
// relative order of survivors. The input slice is not modified.
func Dedupe(records []Record) []Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		key := rec.DedupeKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return out
}

// DedupeKind applies the kind's collision policy. First-seen wins by
// default; kinds marked keep-latest are pre-sorted newest-first so the
// same first-wins pass retains the most recent record per key.
func DedupeKind(kind RecordKind, records []Record) []Record {
	if kindSpecs[kind].keepLatest {
		SortLatestFirst(records)
	}
	return Dedupe(records)
}

// SortLatestFirst orders records newest-first by sample date. Dates are
// normalized ISO calendar dates, so plain string comparison orders them
// chronologically. The sort is stable: records sharing a date keep their
// ingest order, and records without a sample date sink to the end.
func SortLatestFirst(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return sampleDate(records[i]) > sampleDate(records[j])
	})
}

func sampleDate(rec Record) string {
	switch r := rec.(type) {
	case Reading:
		return r.SampleDate
	case MonitoringValue:
		return r.Period
	default:
		return ""
	}
}
