package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// RawRow is one untyped upstream row keyed by source column name. JSON
// sources produce it from object keys, CSV sources from header columns;
// values are always carried as strings and parsed here.
type RawRow map[string]string

// kindSpec describes how one record kind is produced from raw rows and
// which collision policy applies when duplicates collide.
type kindSpec struct {
	normalize        func(row RawRow, state string) (Record, bool)
	keepLatest       bool
	allowPlaceholder bool
}

var kindSpecs = map[RecordKind]kindSpec{
	KindPermit:      {normalize: normalizePermit, allowPlaceholder: true},
	KindViolation:   {normalize: normalizeViolation},
	KindMonitoring:  {normalize: normalizeMonitoring},
	KindEnforcement: {normalize: normalizeEnforcement},
	KindSite:        {normalize: normalizeSite},
	KindReading:     {normalize: normalizeReading, keepLatest: true},
}

// Upstream systems disagree on column names for the same concept, and the
// same endpoint has shipped different spellings across schema revisions.
// Extraction takes the first non-empty value in alias order.
var (
	latAliases   = []string{"LatitudeMeasure", "GEOCODE_LATITUDE", "FacLat", "Latitude", "Lat"}
	lngAliases   = []string{"LongitudeMeasure", "GEOCODE_LONGITUDE", "FacLong", "Longitude", "Long", "Lng"}
	stateAliases = []string{"StateCode", "PERM_STATE", "STATE_CODE", "FacState", "State"}
)

// NormalizeRow converts one raw upstream row into a canonical record.
// partition is the jurisdiction the row was fetched for and backfills the
// record's state when the row itself carries none. Rows missing identity
// fields are rejected, never guessed at.
func NormalizeRow(row RawRow, kind RecordKind, partition string) (Record, bool) {
	spec, ok := kindSpecs[kind]
	if !ok {
		return nil, false
	}
	return spec.normalize(row, resolveState(row, partition))
}

// KeepLatest reports whether the kind's collision policy prefers the most
// recent record over the first seen.
func KeepLatest(kind RecordKind) bool {
	return kindSpecs[kind].keepLatest
}

func normalizePermit(row RawRow, state string) (Record, bool) {
	number := firstNonEmpty(row, "EXTERNAL_PERMIT_NMBR", "NPDES_ID", "PermitNumber")
	if number == "" {
		return nil, false
	}
	lat, lng := parseCoords(row)
	return Permit{
		PermitNumber:   number,
		FacilityName:   firstNonEmpty(row, "FACILITY_NAME", "FacName", "FacilityName"),
		PermitType:     firstNonEmpty(row, "PERMIT_TYPE_CODE", "PermitType"),
		PermitStatus:   firstNonEmpty(row, "PERMIT_STATUS_CODE", "PermitStatus"),
		IssueDate:      normalizeDate(firstNonEmpty(row, "ISSUE_DATE", "EffectiveDate", "IssueDate")),
		ExpirationDate: normalizeDate(firstNonEmpty(row, "EXPIRATION_DATE", "ExpirationDate")),
		State:          state,
		Lat:            lat,
		Lng:            lng,
	}, true
}

func normalizeViolation(row RawRow, state string) (Record, bool) {
	number := firstNonEmpty(row, "EXTERNAL_PERMIT_NMBR", "NPDES_ID", "PermitNumber")
	code := firstNonEmpty(row, "VIOLATION_CODE", "ViolationCode")
	date := normalizeDate(firstNonEmpty(row, "SINGLE_EVENT_VIOLATION_DATE", "VIOLATION_DATE", "ViolationDate"))
	if number == "" || code == "" || date == "" {
		return nil, false
	}
	lat, lng := parseCoords(row)
	return Violation{
		PermitNumber:  number,
		FacilityName:  firstNonEmpty(row, "FACILITY_NAME", "FacName", "FacilityName"),
		ViolationCode: code,
		Description:   firstNonEmpty(row, "VIOLATION_DESC", "ViolationDesc", "Description"),
		ViolationDate: date,
		State:         state,
		Lat:           lat,
		Lng:           lng,
	}, true
}

func normalizeMonitoring(row RawRow, state string) (Record, bool) {
	number := firstNonEmpty(row, "EXTERNAL_PERMIT_NMBR", "NPDES_ID", "PermitNumber")
	param := firstNonEmpty(row, "PARAMETER_DESC", "ParameterDesc", "Parameter")
	period := normalizeDate(firstNonEmpty(row, "MONITORING_PERIOD_END_DATE", "MonitoringPeriodEndDate", "Period"))
	value := firstNonEmpty(row, "DMR_VALUE_NMBR", "DMRValue", "Value")
	if number == "" || param == "" || period == "" || value == "" {
		return nil, false
	}
	lat, lng := parseCoords(row)
	return MonitoringValue{
		PermitNumber: number,
		Parameter:    param,
		Value:        roundTo(parseFloatOrZero(value), 4),
		Unit:         firstNonEmpty(row, "UNIT_DESC", "UnitDesc", "Unit"),
		Period:       period,
		State:        state,
		Lat:          lat,
		Lng:          lng,
	}, true
}

func normalizeEnforcement(row RawRow, state string) (Record, bool) {
	caseNumber := firstNonEmpty(row, "CASE_NUMBER", "CaseNumber")
	if caseNumber == "" {
		return nil, false
	}
	lat, lng := parseCoords(row)
	return Enforcement{
		CaseNumber:     caseNumber,
		PermitNumber:   firstNonEmpty(row, "EXTERNAL_PERMIT_NMBR", "NPDES_ID", "PermitNumber"),
		ActionType:     firstNonEmpty(row, "ENF_TYPE_DESC", "EnfTypeDesc", "ActionType"),
		SettlementDate: normalizeDate(firstNonEmpty(row, "SETTLEMENT_ENTERED_DATE", "SettlementDate")),
		PenaltyAmount:  roundTo(parseFloatOrZero(firstNonEmpty(row, "FED_PENALTY_ASSESSED_AMT", "PenaltyAmount", "Penalty")), 4),
		State:          state,
		Lat:            lat,
		Lng:            lng,
	}, true
}

func normalizeSite(row RawRow, state string) (Record, bool) {
	siteID := firstNonEmpty(row, "MonitoringLocationIdentifier", "SiteID", "StationID")
	if siteID == "" {
		return nil, false
	}
	lat, lng := parseCoords(row)
	return Site{
		SiteID:       siteID,
		Name:         firstNonEmpty(row, "MonitoringLocationName", "SiteName", "StationName"),
		Organization: firstNonEmpty(row, "OrganizationIdentifier", "OrganizationFormalName", "Organization"),
		SiteType:     firstNonEmpty(row, "MonitoringLocationTypeName", "SiteType"),
		State:        state,
		Lat:          lat,
		Lng:          lng,
	}, true
}

func normalizeReading(row RawRow, state string) (Record, bool) {
	siteID := firstNonEmpty(row, "MonitoringLocationIdentifier", "SiteID", "StationID")
	characteristic := firstNonEmpty(row, "CharacteristicName", "Characteristic")
	date := normalizeDate(firstNonEmpty(row, "ActivityStartDate", "SampleDate"))
	value := firstNonEmpty(row, "ResultMeasureValue", "ResultValue", "Value")
	if siteID == "" || characteristic == "" || date == "" || value == "" {
		return nil, false
	}
	lat, lng := parseCoords(row)
	return Reading{
		SiteID:         siteID,
		Parameter:      ParameterCategory(characteristic),
		Characteristic: characteristic,
		Value:          roundTo(parseFloatOrZero(value), 4),
		Unit:           firstNonEmpty(row, "ResultMeasure/MeasureUnitCode", "ResultUnit", "Unit"),
		SampleDate:     date,
		State:          state,
		Lat:            lat,
		Lng:            lng,
	}, true
}

// resolveState canonicalizes the jurisdiction code on a row. The
// water-quality upstream reports FIPS identifiers ("US:24" or bare "24")
// where the compliance upstream reports postal codes; rows with neither
// inherit the partition being fetched.
func resolveState(row RawRow, partition string) string {
	raw := strings.ToUpper(firstNonEmpty(row, stateAliases...))
	raw = strings.TrimPrefix(raw, "US:")
	if _, ok := JurisdictionFIPS[raw]; ok {
		return raw
	}
	if code, ok := jurisdictionByFIPS[raw]; ok {
		return code
	}
	if partition != "" {
		return partition
	}
	return raw
}

// firstNonEmpty returns the first trimmed non-empty value among the named
// columns.
func firstNonEmpty(row RawRow, keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(row[key]); v != "" {
			return v
		}
	}
	return ""
}

// parseCoords extracts the coordinate pair, rounded to five decimals
// (~1m). Pairs that fail validity collapse to (0,0) so downstream grid
// placement can rely on the origin meaning "no usable location".
func parseCoords(row RawRow) (float64, float64) {
	lat := parseFloatOrZero(firstNonEmpty(row, latAliases...))
	lng := parseFloatOrZero(firstNonEmpty(row, lngAliases...))
	if !ValidCoords(lat, lng) {
		return 0, 0
	}
	return roundTo(lat, 5), roundTo(lng, 5)
}

// parseFloatOrZero converts a string to float64, returning 0 on failure.
func parseFloatOrZero(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

// dateLayouts are tried in order; upstream extracts have shipped all of
// these over time.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006",
}

// normalizeDate reduces a timestamp-ish string to an ISO calendar date.
// ISO dates order lexicographically, which the keep-latest collision
// policy depends on. Unparseable values pass through verbatim.
func normalizeDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return raw
}
