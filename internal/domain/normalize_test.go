package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPermitNumber = "MD0021601"
	testSiteID       = "USGS-01589035"
	testLat          = "39.2894"
	testLng          = "-76.6122"
)

func TestNormalizeRow_Permit(t *testing.T) {
	t.Run("full ICIS row", func(t *testing.T) {
		row := RawRow{
			"EXTERNAL_PERMIT_NMBR": testPermitNumber,
			"FACILITY_NAME":        "Patapsco WWTP",
			"PERMIT_TYPE_CODE":     "NPD",
			"PERMIT_STATUS_CODE":   "EFF",
			"ISSUE_DATE":           "2021-03-15T00:00:00",
			"EXPIRATION_DATE":      "2026-03-14",
			"PERM_STATE":           "MD",
			"GEOCODE_LATITUDE":     testLat,
			"GEOCODE_LONGITUDE":    testLng,
		}
		rec, ok := NormalizeRow(row, KindPermit, "MD")

		require.True(t, ok)
		permit, isPermit := rec.(Permit)
		require.True(t, isPermit)
		assert.Equal(t, testPermitNumber, permit.PermitNumber)
		assert.Equal(t, "Patapsco WWTP", permit.FacilityName)
		assert.Equal(t, "NPD", permit.PermitType)
		assert.Equal(t, "EFF", permit.PermitStatus)
		assert.Equal(t, "2021-03-15", permit.IssueDate)
		assert.Equal(t, "2026-03-14", permit.ExpirationDate)
		assert.Equal(t, "MD", permit.State)
		assert.Equal(t, 39.2894, permit.Lat)
		assert.Equal(t, -76.6122, permit.Lng)
	})

	t.Run("missing permit number rejects the row", func(t *testing.T) {
		row := RawRow{"FACILITY_NAME": "Orphan Facility", "PERM_STATE": "MD"}
		_, ok := NormalizeRow(row, KindPermit, "MD")
		assert.False(t, ok)
	})

	t.Run("missing coordinates collapse to origin", func(t *testing.T) {
		row := RawRow{"EXTERNAL_PERMIT_NMBR": testPermitNumber}
		rec, ok := NormalizeRow(row, KindPermit, "MD")

		require.True(t, ok)
		lat, lng := rec.Coords()
		assert.Equal(t, 0.0, lat)
		assert.Equal(t, 0.0, lng)
	})

	t.Run("out-of-region coordinates collapse to origin", func(t *testing.T) {
		row := RawRow{
			"EXTERNAL_PERMIT_NMBR": testPermitNumber,
			"GEOCODE_LATITUDE":     "47.60620",
			"GEOCODE_LONGITUDE":    "-122.33210",
		}
		rec, ok := NormalizeRow(row, KindPermit, "MD")

		require.True(t, ok)
		lat, lng := rec.Coords()
		assert.Equal(t, 0.0, lat)
		assert.Equal(t, 0.0, lng)
	})

	t.Run("coordinates round to five decimals", func(t *testing.T) {
		row := RawRow{
			"EXTERNAL_PERMIT_NMBR": testPermitNumber,
			"GEOCODE_LATITUDE":     "39.123456789",
			"GEOCODE_LONGITUDE":    "-76.987654321",
		}
		rec, ok := NormalizeRow(row, KindPermit, "MD")

		require.True(t, ok)
		lat, lng := rec.Coords()
		assert.Equal(t, 39.12346, lat)
		assert.Equal(t, -76.98765, lng)
	})
}

func TestNormalizeRow_Violation(t *testing.T) {
	base := RawRow{
		"EXTERNAL_PERMIT_NMBR":        testPermitNumber,
		"VIOLATION_CODE":              "E90",
		"SINGLE_EVENT_VIOLATION_DATE": "01/15/2024",
		"VIOLATION_DESC":              "Effluent limit exceedance",
		"FacLat":                      testLat,
		"FacLong":                     testLng,
	}

	t.Run("full row with US date format", func(t *testing.T) {
		rec, ok := NormalizeRow(base, KindViolation, "MD")

		require.True(t, ok)
		violation, isViolation := rec.(Violation)
		require.True(t, isViolation)
		assert.Equal(t, testPermitNumber, violation.PermitNumber)
		assert.Equal(t, "E90", violation.ViolationCode)
		assert.Equal(t, "2024-01-15", violation.ViolationDate)
		assert.Equal(t, "Effluent limit exceedance", violation.Description)
		assert.Equal(t, testPermitNumber+"|E90|2024-01-15", violation.DedupeKey())
	})

	t.Run("missing violation code rejects the row", func(t *testing.T) {
		row := RawRow{
			"EXTERNAL_PERMIT_NMBR":        testPermitNumber,
			"SINGLE_EVENT_VIOLATION_DATE": "2024-01-15",
		}
		_, ok := NormalizeRow(row, KindViolation, "MD")
		assert.False(t, ok)
	})

	t.Run("missing date rejects the row", func(t *testing.T) {
		row := RawRow{
			"EXTERNAL_PERMIT_NMBR": testPermitNumber,
			"VIOLATION_CODE":       "E90",
		}
		_, ok := NormalizeRow(row, KindViolation, "MD")
		assert.False(t, ok)
	})
}

func TestNormalizeRow_Monitoring(t *testing.T) {
	t.Run("value rounds to four decimals", func(t *testing.T) {
		row := RawRow{
			"EXTERNAL_PERMIT_NMBR":       testPermitNumber,
			"PARAMETER_DESC":             "Nitrogen, total",
			"MONITORING_PERIOD_END_DATE": "2024-06-30",
			"DMR_VALUE_NMBR":             "12.34567",
			"UNIT_DESC":                  "mg/L",
		}
		rec, ok := NormalizeRow(row, KindMonitoring, "MD")

		require.True(t, ok)
		monitoring, isMonitoring := rec.(MonitoringValue)
		require.True(t, isMonitoring)
		assert.Equal(t, 12.3457, monitoring.Value)
		assert.Equal(t, "mg/L", monitoring.Unit)
		assert.Equal(t, testPermitNumber+"|Nitrogen, total|2024-06-30", monitoring.DedupeKey())
	})

	t.Run("missing value rejects the row", func(t *testing.T) {
		row := RawRow{
			"EXTERNAL_PERMIT_NMBR":       testPermitNumber,
			"PARAMETER_DESC":             "Nitrogen, total",
			"MONITORING_PERIOD_END_DATE": "2024-06-30",
		}
		_, ok := NormalizeRow(row, KindMonitoring, "MD")
		assert.False(t, ok)
	})
}

func TestNormalizeRow_Enforcement(t *testing.T) {
	t.Run("case number is the identity", func(t *testing.T) {
		row := RawRow{
			"CASE_NUMBER":              "06-2024-0042",
			"EXTERNAL_PERMIT_NMBR":     testPermitNumber,
			"ENF_TYPE_DESC":            "Administrative Penalty Order",
			"SETTLEMENT_ENTERED_DATE":  "2024-02-20",
			"FED_PENALTY_ASSESSED_AMT": "15000.50",
		}
		rec, ok := NormalizeRow(row, KindEnforcement, "MD")

		require.True(t, ok)
		enforcement, isEnforcement := rec.(Enforcement)
		require.True(t, isEnforcement)
		assert.Equal(t, "06-2024-0042", enforcement.CaseNumber)
		assert.Equal(t, "06-2024-0042", enforcement.DedupeKey())
		assert.Equal(t, testPermitNumber, enforcement.RefKey())
		assert.Equal(t, 15000.5, enforcement.PenaltyAmount)
	})

	t.Run("missing case number rejects the row", func(t *testing.T) {
		row := RawRow{"EXTERNAL_PERMIT_NMBR": testPermitNumber}
		_, ok := NormalizeRow(row, KindEnforcement, "MD")
		assert.False(t, ok)
	})
}

func TestNormalizeRow_Site(t *testing.T) {
	row := RawRow{
		"MonitoringLocationIdentifier": testSiteID,
		"MonitoringLocationName":       "Gwynns Falls at Villa Nova",
		"OrganizationIdentifier":       "USGS-MD",
		"MonitoringLocationTypeName":   "Stream",
		"StateCode":                    "US:24",
		"LatitudeMeasure":              testLat,
		"LongitudeMeasure":             testLng,
	}
	rec, ok := NormalizeRow(row, KindSite, "MD")

	require.True(t, ok)
	site, isSite := rec.(Site)
	require.True(t, isSite)
	assert.Equal(t, testSiteID, site.SiteID)
	assert.Equal(t, "Gwynns Falls at Villa Nova", site.Name)
	assert.Equal(t, "USGS-MD", site.Organization)
	assert.Equal(t, "Stream", site.SiteType)
	assert.Equal(t, "MD", site.State)
	assert.Equal(t, 39.2894, site.Lat)
}

func TestNormalizeRow_Reading(t *testing.T) {
	base := RawRow{
		"MonitoringLocationIdentifier":  testSiteID,
		"CharacteristicName":            "Dissolved oxygen (DO)",
		"ActivityStartDate":             "2025-06-15",
		"ResultMeasureValue":            "7.8512",
		"ResultMeasure/MeasureUnitCode": "mg/l",
		"StateCode":                     "US:24",
		"LatitudeMeasure":               testLat,
		"LongitudeMeasure":              testLng,
	}

	t.Run("characteristic maps to canonical parameter", func(t *testing.T) {
		rec, ok := NormalizeRow(base, KindReading, "MD")

		require.True(t, ok)
		reading, isReading := rec.(Reading)
		require.True(t, isReading)
		assert.Equal(t, "do", reading.Parameter)
		assert.Equal(t, "Dissolved oxygen (DO)", reading.Characteristic)
		assert.Equal(t, 7.8512, reading.Value)
		assert.Equal(t, "mg/l", reading.Unit)
		assert.Equal(t, "2025-06-15", reading.SampleDate)
		assert.Equal(t, "MD", reading.State)
		assert.Equal(t, testSiteID+"|do", reading.DedupeKey())
	})

	t.Run("missing result value rejects the row", func(t *testing.T) {
		row := RawRow{
			"MonitoringLocationIdentifier": testSiteID,
			"CharacteristicName":           "pH",
			"ActivityStartDate":            "2025-06-15",
		}
		_, ok := NormalizeRow(row, KindReading, "MD")
		assert.False(t, ok)
	})

	t.Run("dedupe key excludes the sample date", func(t *testing.T) {
		newer := base
		older := RawRow{}
		for k, v := range base {
			older[k] = v
		}
		older["ActivityStartDate"] = "2024-01-01"

		recNewer, ok := NormalizeRow(newer, KindReading, "MD")
		require.True(t, ok)
		recOlder, ok := NormalizeRow(older, KindReading, "MD")
		require.True(t, ok)
		assert.Equal(t, recNewer.DedupeKey(), recOlder.DedupeKey())
	})
}

func TestNormalizeRow_UnknownKind(t *testing.T) {
	_, ok := NormalizeRow(RawRow{"X": "1"}, RecordKind("bogus"), "MD")
	assert.False(t, ok)
}

func TestKeepLatest(t *testing.T) {
	assert.True(t, KeepLatest(KindReading))
	assert.False(t, KeepLatest(KindPermit))
	assert.False(t, KeepLatest(KindViolation))
	assert.False(t, KeepLatest(KindMonitoring))
	assert.False(t, KeepLatest(KindEnforcement))
	assert.False(t, KeepLatest(KindSite))
}

func TestResolveState(t *testing.T) {
	tests := []struct {
		name      string
		row       RawRow
		partition string
		expected  string
	}{
		{"postal code passes through", RawRow{"PERM_STATE": "MD"}, "VA", "MD"},
		{"lowercase postal code upcases", RawRow{"State": "md"}, "VA", "MD"},
		{"prefixed FIPS resolves to postal", RawRow{"StateCode": "US:24"}, "VA", "MD"},
		{"bare FIPS resolves to postal", RawRow{"StateCode": "42"}, "VA", "PA"},
		{"missing state inherits the partition", RawRow{}, "WV", "WV"},
		{"unknown code falls back to the partition", RawRow{"StateCode": "US:06"}, "MD", "MD"},
		{"unknown code without partition passes through", RawRow{"StateCode": "XX"}, "", "XX"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, resolveState(tt.row, tt.partition))
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"ISO date passes through", "2024-06-30", "2024-06-30"},
		{"RFC3339 reduces to date", "2024-06-30T14:22:05Z", "2024-06-30"},
		{"bare timestamp reduces to date", "2024-06-30T14:22:05", "2024-06-30"},
		{"space-separated timestamp reduces to date", "2024-06-30 14:22:05", "2024-06-30"},
		{"US slash format converts", "06/30/2024", "2024-06-30"},
		{"surrounding whitespace is trimmed", "  2024-06-30  ", "2024-06-30"},
		{"unparseable value passes through verbatim", "last Tuesday", "last Tuesday"},
		{"empty stays empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeDate(tt.raw))
		})
	}
}

func TestParseCoords_AliasOrder(t *testing.T) {
	// LatitudeMeasure outranks the bare Lat spelling when both appear.
	row := RawRow{
		"LatitudeMeasure":  "39.0000",
		"Lat":              "38.0000",
		"LongitudeMeasure": "-77.0000",
	}
	lat, lng := parseCoords(row)
	assert.Equal(t, 39.0, lat)
	assert.Equal(t, -77.0, lng)
}
