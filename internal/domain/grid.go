package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// GridResolution is the grid cell edge length in decimal degrees. At
// Mid-Atlantic latitudes one cell covers roughly 11km x 8.5km.
const GridResolution = 0.1

// PlaceholderCellKey is the cell that collects records which are allowed to
// exist without usable coordinates (permits, chiefly).
const PlaceholderCellKey = "0_0"

// regionBound covers the six served jurisdictions with a half-degree pad so
// borderline stations on tidal boundaries are not rejected.
var regionBound = orb.Bound{
	Min: orb.Point{-84.0, 36.3},
	Max: orb.Point{-74.5, 42.5},
}.Pad(0.5)

// ValidCoords reports whether a latitude/longitude pair is usable for grid
// placement: finite, not the null island origin, and inside the served
// region.
func ValidCoords(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lng) || math.IsInf(lng, 0) {
		return false
	}
	if lat == 0 && lng == 0 {
		return false
	}
	return regionBound.Contains(orb.Point{lng, lat})
}

// CellKey returns the grid cell identifier for a coordinate pair. Cells are
// addressed by their south-west corner, floor-quantized to the grid
// resolution: CellKey(39.2894, -76.6122) == "39.2_-76.7". The same
// coordinates always produce the same key, so cell membership is stable
// across rebuilds.
func CellKey(lat, lng float64) string {
	return fmt.Sprintf("%g_%g", quantize(lat), quantize(lng))
}

// quantize floors a coordinate to its grid line. The final two-decimal
// rounding strips float noise from the multiply so that formatted keys are
// exact ("39.2", never "39.199999999999996").
func quantize(v float64) float64 {
	return round2(math.Floor(v/GridResolution) * GridResolution)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ParseCellKey splits a cell key back into its south-west corner
// coordinates.
func ParseCellKey(key string) (lat, lng float64, err error) {
	rawLat, rawLng, ok := strings.Cut(key, "_")
	if !ok {
		return 0, 0, fmt.Errorf("malformed cell key %q", key)
	}
	lat, err = strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed cell key %q: %w", key, err)
	}
	lng, err = strconv.ParseFloat(rawLng, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed cell key %q: %w", key, err)
	}
	return lat, lng, nil
}

// CellBound returns the geographic bounding box of the cell containing the
// given coordinates.
func CellBound(lat, lng float64) orb.Bound {
	west := quantize(lng)
	south := quantize(lat)
	return orb.Bound{
		Min: orb.Point{west, south},
		Max: orb.Point{round2(west + GridResolution), round2(south + GridResolution)},
	}
}

// Gridable reports whether a record may be placed in the spatial grid.
// Kinds that tolerate missing coordinates go to the placeholder cell;
// everything else requires valid in-region coordinates.
func Gridable(rec Record) bool {
	if kindSpecs[rec.Kind()].allowPlaceholder {
		return true
	}
	lat, lng := rec.Coords()
	return ValidCoords(lat, lng)
}

// GridKeyFor returns the cell key a record lands in. Records without valid
// coordinates that are still gridable use the placeholder cell.
func GridKeyFor(rec Record) string {
	lat, lng := rec.Coords()
	if !ValidCoords(lat, lng) {
		return PlaceholderCellKey
	}
	return CellKey(lat, lng)
}
