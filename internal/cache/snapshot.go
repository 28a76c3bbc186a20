// Package cache holds the published snapshot state served to readers: an
// immutable spatial grid per source, swapped atomically by rebuilds.
package cache

import (
	"sort"
	"time"

	"github.com/project-pearl/Dashboard-sub014/internal/domain"
)

// Cell groups the records of one grid cell by kind. Slices hold concrete
// record values so cells marshal to stable JSON without type tags.
type Cell struct {
	Permits     []domain.Permit          `json:"permits,omitempty"`
	Violations  []domain.Violation       `json:"violations,omitempty"`
	Monitoring  []domain.MonitoringValue `json:"monitoring,omitempty"`
	Enforcement []domain.Enforcement     `json:"enforcement,omitempty"`
	Sites       []domain.Site            `json:"sites,omitempty"`
	Readings    []domain.Reading         `json:"readings,omitempty"`
}

func (c *Cell) add(rec domain.Record) {
	switch r := rec.(type) {
	case domain.Permit:
		c.Permits = append(c.Permits, r)
	case domain.Violation:
		c.Violations = append(c.Violations, r)
	case domain.MonitoringValue:
		c.Monitoring = append(c.Monitoring, r)
	case domain.Enforcement:
		c.Enforcement = append(c.Enforcement, r)
	case domain.Site:
		c.Sites = append(c.Sites, r)
	case domain.Reading:
		c.Readings = append(c.Readings, r)
	}
}

// Visit calls fn for every record in the cell, in kind order.
func (c *Cell) Visit(fn func(domain.Record)) {
	for _, r := range c.Permits {
		fn(r)
	}
	for _, r := range c.Violations {
		fn(r)
	}
	for _, r := range c.Monitoring {
		fn(r)
	}
	for _, r := range c.Enforcement {
		fn(r)
	}
	for _, r := range c.Sites {
		fn(r)
	}
	for _, r := range c.Readings {
		fn(r)
	}
}

// Count returns the number of records in the cell across all kinds.
func (c *Cell) Count() int {
	return len(c.Permits) + len(c.Violations) + len(c.Monitoring) +
		len(c.Enforcement) + len(c.Sites) + len(c.Readings)
}

// Grid maps cell keys to cells.
type Grid map[string]*Cell

// BuildGrid buckets records into cells by their quantized coordinates.
// Records that are not gridable are dropped here; this is the single
// place spatial placement happens.
func BuildGrid(records []domain.Record) Grid {
	grid := make(Grid)
	for _, rec := range records {
		if !domain.Gridable(rec) {
			continue
		}
		key := domain.GridKeyFor(rec)
		cell := grid[key]
		if cell == nil {
			cell = &Cell{}
			grid[key] = cell
		}
		cell.add(rec)
	}
	return grid
}

// Meta summarizes a published snapshot without its grid.
type Meta struct {
	BuiltAt    time.Time                 `json:"built_at"`
	CellCount  int                       `json:"cell_count"`
	Counts     map[domain.RecordKind]int `json:"counts"`
	Partitions []string                  `json:"partitions"`
	// Freshness records when each partition's data last came from a
	// successful fetch, surviving merges that carry stale partitions
	// forward.
	Freshness map[string]time.Time `json:"freshness,omitempty"`
}

// Snapshot is one complete, immutable cache state. Readers get the whole
// thing by pointer and never see a half-built grid; rebuilds construct a
// fresh snapshot and publish it in one store.
type Snapshot struct {
	Meta Meta
	Grid Grid

	byPartition map[string]*Cell
	byRef       map[string]*Cell
}

// NewSnapshot computes metadata and lookup indexes over a finished grid.
// The grid must not be mutated afterwards.
func NewSnapshot(grid Grid, freshness map[string]time.Time) *Snapshot {
	snap := &Snapshot{
		Meta: Meta{
			BuiltAt:   domain.Clock().Now().UTC(),
			CellCount: len(grid),
			Counts:    make(map[domain.RecordKind]int),
			Freshness: freshness,
		},
		Grid:        grid,
		byPartition: make(map[string]*Cell),
		byRef:       make(map[string]*Cell),
	}
	for _, cell := range grid {
		cell.Visit(func(rec domain.Record) {
			snap.Meta.Counts[rec.Kind()]++
			addIndexed(snap.byPartition, rec.Partition(), rec)
			if ref := rec.RefKey(); ref != "" {
				addIndexed(snap.byRef, ref, rec)
			}
		})
	}
	for partition := range snap.byPartition {
		snap.Meta.Partitions = append(snap.Meta.Partitions, partition)
	}
	sort.Strings(snap.Meta.Partitions)
	return snap
}

func addIndexed(index map[string]*Cell, key string, rec domain.Record) {
	if key == "" {
		return
	}
	cell := index[key]
	if cell == nil {
		cell = &Cell{}
		index[key] = cell
	}
	cell.add(rec)
}

// Cell returns the grid cell for a key, or nil when the key is unoccupied.
func (s *Snapshot) Cell(key string) *Cell {
	return s.Grid[key]
}

// Partition returns every record belonging to one jurisdiction, grouped
// like a cell, or nil when the partition holds nothing.
func (s *Snapshot) Partition(code string) *Cell {
	return s.byPartition[code]
}

// Ref returns every record sharing a business identifier (permit number,
// site ID), grouped like a cell, or nil when unknown.
func (s *Snapshot) Ref(id string) *Cell {
	return s.byRef[id]
}
