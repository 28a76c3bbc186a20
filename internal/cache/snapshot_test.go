package cache

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/project-pearl/Dashboard-sub014/internal/domain"
)

const (
	cellBaltimore = "39.2_-76.7"
	cellNorfolk   = "36.9_-76.4"
)

func baltimoreReading(site, param string) domain.Reading {
	return domain.Reading{
		SiteID: site, Parameter: param, Value: 7.1,
		SampleDate: "2025-06-15", State: "MD",
		Lat: 39.2894, Lng: -76.6122,
	}
}

func TestBuildGrid(t *testing.T) {
	records := []domain.Record{
		baltimoreReading("USGS-01", "ph"),
		baltimoreReading("USGS-02", "do"),
		domain.Site{SiteID: "USGS-01", State: "MD", Lat: 39.2894, Lng: -76.6122},
		domain.Reading{SiteID: "USGS-03", Parameter: "do", SampleDate: "2025-06-15", State: "VA", Lat: 36.9889, Lng: -76.3161},
		domain.Permit{PermitNumber: "MD0021601", State: "MD"},
		domain.Violation{PermitNumber: "VA0001", ViolationCode: "E90", ViolationDate: "2024-01-15", State: "VA"},
	}
	grid := BuildGrid(records)

	// The unlocated violation is dropped; the unlocated permit parks in
	// the placeholder cell.
	require.Len(t, grid, 3)

	baltimore := grid[cellBaltimore]
	require.NotNil(t, baltimore)
	assert.Len(t, baltimore.Readings, 2)
	assert.Len(t, baltimore.Sites, 1)
	assert.Equal(t, 3, baltimore.Count())

	norfolk := grid[cellNorfolk]
	require.NotNil(t, norfolk)
	assert.Equal(t, 1, norfolk.Count())

	placeholder := grid[domain.PlaceholderCellKey]
	require.NotNil(t, placeholder)
	require.Len(t, placeholder.Permits, 1)
	assert.Empty(t, placeholder.Violations)
}

func TestCell_VisitKindOrder(t *testing.T) {
	grid := BuildGrid([]domain.Record{
		baltimoreReading("USGS-01", "ph"),
		domain.Site{SiteID: "USGS-01", State: "MD", Lat: 39.2894, Lng: -76.6122},
	})
	cell := grid[cellBaltimore]
	require.NotNil(t, cell)

	var kinds []domain.RecordKind
	cell.Visit(func(rec domain.Record) {
		kinds = append(kinds, rec.Kind())
	})
	assert.Equal(t, []domain.RecordKind{domain.KindSite, domain.KindReading}, kinds)
}

func TestNewSnapshot(t *testing.T) {
	builtAt := time.Date(2025, 6, 2, 6, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(builtAt))
	defer domain.SetClock(nil)

	grid := BuildGrid([]domain.Record{
		baltimoreReading("USGS-01", "ph"),
		domain.Reading{SiteID: "USGS-03", Parameter: "do", SampleDate: "2025-06-15", State: "VA", Lat: 36.9889, Lng: -76.3161},
		domain.Permit{PermitNumber: "MD0021601", State: "MD", Lat: 39.2894, Lng: -76.6122},
		domain.Violation{PermitNumber: "MD0021601", ViolationCode: "E90", ViolationDate: "2024-01-15", State: "MD", Lat: 39.2894, Lng: -76.6122},
	})
	freshness := map[string]time.Time{"MD": builtAt, "VA": builtAt}
	snap := NewSnapshot(grid, freshness)

	assert.Equal(t, builtAt, snap.Meta.BuiltAt)
	assert.Equal(t, 2, snap.Meta.CellCount)
	assert.Equal(t, map[domain.RecordKind]int{
		domain.KindReading:   2,
		domain.KindPermit:    1,
		domain.KindViolation: 1,
	}, snap.Meta.Counts)
	assert.Equal(t, []string{"MD", "VA"}, snap.Meta.Partitions)
	assert.Equal(t, freshness, snap.Meta.Freshness)
}

func TestSnapshot_Lookups(t *testing.T) {
	grid := BuildGrid([]domain.Record{
		baltimoreReading("USGS-01", "ph"),
		domain.Permit{PermitNumber: "MD0021601", State: "MD", Lat: 39.2894, Lng: -76.6122},
		domain.Violation{PermitNumber: "MD0021601", ViolationCode: "E90", ViolationDate: "2024-01-15", State: "MD", Lat: 39.2894, Lng: -76.6122},
	})
	snap := NewSnapshot(grid, nil)

	t.Run("cell lookup", func(t *testing.T) {
		cell := snap.Cell(cellBaltimore)
		require.NotNil(t, cell)
		assert.Equal(t, 3, cell.Count())
		assert.Nil(t, snap.Cell("41_-75"))
	})

	t.Run("partition lookup groups a jurisdiction", func(t *testing.T) {
		md := snap.Partition("MD")
		require.NotNil(t, md)
		assert.Equal(t, 3, md.Count())
		assert.Nil(t, snap.Partition("WV"))
	})

	t.Run("ref lookup groups by business identifier", func(t *testing.T) {
		permit := snap.Ref("MD0021601")
		require.NotNil(t, permit)
		assert.Len(t, permit.Permits, 1)
		assert.Len(t, permit.Violations, 1)

		site := snap.Ref("USGS-01")
		require.NotNil(t, site)
		assert.Len(t, site.Readings, 1)

		assert.Nil(t, snap.Ref("nope"))
	})
}

func TestNewSnapshot_EmptyGrid(t *testing.T) {
	snap := NewSnapshot(Grid{}, nil)

	assert.Equal(t, 0, snap.Meta.CellCount)
	assert.Empty(t, snap.Meta.Counts)
	assert.Empty(t, snap.Meta.Partitions)
	assert.Nil(t, snap.Cell(domain.PlaceholderCellKey))
}
