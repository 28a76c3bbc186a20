package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveAlerts(t *testing.T) {
	detectedAt := time.Date(2025, 6, 2, 6, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(detectedAt))
	defer SetClock(nil)

	readings := []Reading{
		{SiteID: "WQX-CB01", Parameter: "ph", Value: 9.2, Unit: "std units", SampleDate: "2025-06-15", State: "MD", Lat: 39.2894, Lng: -76.6122},
		{SiteID: "WQX-CB02", Parameter: "do", Value: 8.4, Unit: "mg/l", SampleDate: "2025-06-15", State: "MD", Lat: 39.3, Lng: -76.5},
		{SiteID: "WQX-CB03", Parameter: "temperature", Value: 31.0, SampleDate: "2025-06-15", State: "VA"},
		{SiteID: "WQX-CB04", Parameter: "tp", Value: 0.15, Unit: "mg/l", SampleDate: "2025-06-14", State: "VA", Lat: 37.5, Lng: -76.4},
	}
	alerts := DeriveAlerts(readings)

	require.Len(t, alerts, 2)

	ph := alerts[0]
	assert.Equal(t, "alert-d8e3f834", ph.ID)
	assert.Equal(t, "WQX-CB01", ph.SiteID)
	assert.Equal(t, "ph", ph.Parameter)
	assert.Equal(t, 9.2, ph.Value)
	assert.Equal(t, 8.5, ph.Limit) // the violated high edge of the band
	assert.Equal(t, 8.2, ph.PctOver)
	assert.Equal(t, "2025-06-15", ph.SampleDate)
	assert.Equal(t, "MD", ph.State)
	assert.Equal(t, "39.2_-76.7", ph.CellKey)
	assert.Equal(t, detectedAt, ph.DetectedAt)

	tp := alerts[1]
	assert.Equal(t, "WQX-CB04", tp.SiteID)
	assert.Equal(t, 0.1, tp.Limit)
	assert.Equal(t, 50.0, tp.PctOver)
}

func TestDeriveAlerts_RangeLowEdge(t *testing.T) {
	alerts := DeriveAlerts([]Reading{
		{SiteID: "WQX-CB05", Parameter: "ph", Value: 6.0, SampleDate: "2025-06-15", State: "PA"},
	})

	require.Len(t, alerts, 1)
	assert.Equal(t, 6.5, alerts[0].Limit)
}

func TestDeriveAlerts_UnlocatedReadingUsesPlaceholderCell(t *testing.T) {
	alerts := DeriveAlerts([]Reading{
		{SiteID: "WQX-CB06", Parameter: "do", Value: 3.1, SampleDate: "2025-06-15", State: "WV"},
	})

	require.Len(t, alerts, 1)
	assert.Equal(t, PlaceholderCellKey, alerts[0].CellKey)
}

func TestDeriveAlerts_NoExceedances(t *testing.T) {
	alerts := DeriveAlerts([]Reading{
		{SiteID: "WQX-CB07", Parameter: "do", Value: 8.0, SampleDate: "2025-06-15", State: "MD"},
	})
	assert.Empty(t, alerts)
}

func TestDeriveAlerts_DeterministicIDs(t *testing.T) {
	reading := Reading{SiteID: "WQX-CB01", Parameter: "ph", Value: 9.2, SampleDate: "2025-06-15", State: "MD"}

	first := DeriveAlerts([]Reading{reading})
	second := DeriveAlerts([]Reading{reading})
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)

	// Any identity field change yields a different ID.
	reading.Value = 9.3
	third := DeriveAlerts([]Reading{reading})
	require.Len(t, third, 1)
	assert.NotEqual(t, first[0].ID, third[0].ID)
}
