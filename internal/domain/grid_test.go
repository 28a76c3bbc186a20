package domain

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellKey(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng float64
		expected string
	}{
		{"Baltimore harbor", 39.2894, -76.6122, "39.2_-76.7"},
		{"south-west corner maps to itself", 39.2, -76.7, "39.2_-76.7"},
		{"whole-degree coordinates drop the decimal", 40.0, -75.0, "40_-75"},
		{"Norfolk", 36.9889, -76.3161, "36.9_-76.4"},
		{"Pittsburgh", 40.4406, -79.9959, "40.4_-80"},
		{"DC monument grounds", 38.8895, -77.0353, "38.8_-77.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CellKey(tt.lat, tt.lng))
		})
	}
}

func TestCellKey_StableAcrossCalls(t *testing.T) {
	assert.Equal(t, CellKey(39.2894, -76.6122), CellKey(39.2894, -76.6122))
}

func TestParseCellKey(t *testing.T) {
	t.Run("roundtrips a produced key", func(t *testing.T) {
		key := CellKey(39.2894, -76.6122)
		lat, lng, err := ParseCellKey(key)

		require.NoError(t, err)
		assert.Equal(t, 39.2, lat)
		assert.Equal(t, -76.7, lng)
		assert.Equal(t, key, CellKey(lat, lng))
	})

	t.Run("roundtrips whole-degree keys", func(t *testing.T) {
		lat, lng, err := ParseCellKey("40_-75")

		require.NoError(t, err)
		assert.Equal(t, 40.0, lat)
		assert.Equal(t, -75.0, lng)
		assert.Equal(t, "40_-75", CellKey(lat, lng))
	})

	t.Run("rejects keys without a separator", func(t *testing.T) {
		_, _, err := ParseCellKey("39.2-76.7")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "malformed cell key")
	})

	t.Run("rejects non-numeric parts", func(t *testing.T) {
		_, _, err := ParseCellKey("39.2_east")
		require.Error(t, err)
	})
}

func TestCellBound(t *testing.T) {
	bound := CellBound(39.2894, -76.6122)

	assert.Equal(t, orb.Point{-76.7, 39.2}, bound.Min)
	assert.Equal(t, orb.Point{-76.6, 39.3}, bound.Max)
	assert.True(t, bound.Contains(orb.Point{-76.6122, 39.2894}))
}

func TestValidCoords(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng float64
		expected bool
	}{
		{"Baltimore", 39.2894, -76.6122, true},
		{"Pittsburgh", 40.4406, -79.9959, true},
		{"Norfolk tidewater", 36.9889, -76.3161, true},
		{"null island", 0, 0, false},
		{"Seattle is out of region", 47.6062, -122.3321, false},
		{"Atlanta is south of the region", 33.7490, -84.3880, false},
		{"NaN latitude", math.NaN(), -76.6, false},
		{"infinite longitude", 39.3, math.Inf(1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidCoords(tt.lat, tt.lng))
		})
	}
}

func TestGridable(t *testing.T) {
	t.Run("permit without coordinates is gridable", func(t *testing.T) {
		assert.True(t, Gridable(Permit{PermitNumber: "MD0021601", State: "MD"}))
	})

	t.Run("violation without coordinates is not", func(t *testing.T) {
		v := Violation{PermitNumber: "MD0021601", ViolationCode: "E90", ViolationDate: "2024-01-15", State: "MD"}
		assert.False(t, Gridable(v))
	})

	t.Run("reading with valid coordinates is gridable", func(t *testing.T) {
		r := Reading{SiteID: "s1", Parameter: "do", Lat: 39.2894, Lng: -76.6122}
		assert.True(t, Gridable(r))
	})

	t.Run("site out of region is not", func(t *testing.T) {
		s := Site{SiteID: "s1", Lat: 47.6062, Lng: -122.3321}
		assert.False(t, Gridable(s))
	})
}

func TestGridKeyFor(t *testing.T) {
	t.Run("located record lands in its cell", func(t *testing.T) {
		r := Reading{SiteID: "s1", Parameter: "do", Lat: 39.2894, Lng: -76.6122}
		assert.Equal(t, "39.2_-76.7", GridKeyFor(r))
	})

	t.Run("unlocated permit parks in the placeholder cell", func(t *testing.T) {
		p := Permit{PermitNumber: "MD0021601", State: "MD"}
		assert.Equal(t, PlaceholderCellKey, GridKeyFor(p))
	})
}
