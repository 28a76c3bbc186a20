// Command genmock synthesizes upstream fixture files for the ingest test
// suites: compliance JSON pages and water-quality CSV exports, one file per
// jurisdiction and endpoint. Every row is then run through the actual domain
// package so the printed stats match real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock \
//	  -partitions MD,VA \
//	  -seed 1
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/project-pearl/Dashboard-sub014/internal/domain"
)

// detectedAt pins the domain clock so alert IDs and detection timestamps in
// the stats output are reproducible run to run.
var detectedAt = time.Date(2025, time.June, 2, 6, 0, 0, 0, time.UTC)

// stateSeeds anchor synthesized coordinates near each jurisdiction's capital
// region so every generated point lands inside the served bound.
var stateSeeds = map[string][2]float64{
	"DC": {38.9072, -77.0369},
	"DE": {39.1582, -75.5244},
	"MD": {39.2904, -76.6122},
	"PA": {40.2732, -76.8867},
	"VA": {37.5407, -77.4360},
	"WV": {38.3498, -81.6326},
}

// characteristics drive reading synthesis. The value ranges straddle the
// screening thresholds so a predictable share of readings alerts.
var characteristics = []struct {
	name string
	unit string
	min  float64
	max  float64
}{
	{name: "Dissolved oxygen (DO)", unit: "mg/l", min: 3.0, max: 10.0},
	{name: "pH", unit: "std units", min: 6.0, max: 9.0},
	{name: "Total Nitrogen, mixed forms", unit: "mg/l", min: 0.5, max: 5.0},
	{name: "Total Phosphorus, mixed forms", unit: "mg/l", min: 0.02, max: 0.3},
	{name: "Escherichia coli", unit: "cfu/100ml", min: 10, max: 800},
	{name: "Turbidity", unit: "ntu", min: 2, max: 90},
	{name: "Temperature, water", unit: "deg C", min: 4, max: 30},
}

var (
	permitTypes      = []string{"NPD", "GPC", "SIN"}
	permitStatuses   = []string{"EFF", "ADC", "EXP"}
	violationCodes   = []string{"E90", "D80", "C20", "B10"}
	dmrParameters    = []string{"BOD, 5-day, 20 deg. C", "Solids, total suspended", "Nitrogen, total (as N)", "Phosphorus, total (as P)", "Flow, in conduit or thru treatment plant"}
	enforcementTypes = []string{"Administrative Penalty Order", "Consent Decree", "Notice of Violation"}
	stationTypes     = []string{"River/Stream", "Lake, Reservoir, Impoundment", "Estuary", "Well"}
)

// Column order for the CSV fixtures; the station and result exports use the
// portal's header vocabulary.
var (
	stationColumns = []string{
		"OrganizationIdentifier", "MonitoringLocationIdentifier", "MonitoringLocationName",
		"MonitoringLocationTypeName", "StateCode", "LatitudeMeasure", "LongitudeMeasure",
	}
	resultColumns = []string{
		"OrganizationIdentifier", "MonitoringLocationIdentifier", "ActivityStartDate",
		"CharacteristicName", "ResultMeasureValue", "ResultMeasure/MeasureUnitCode",
		"StateCode", "LatitudeMeasure", "LongitudeMeasure",
	}
)

const (
	permitsPerState     = 12
	violationsPerState  = 10
	monitoringPerState  = 15
	enforcementPerState = 4
	stationsPerState    = 8
	readingsPerStation  = 5
)

// rawBatch keeps synthesized rows tied to their kind and partition for the
// stats pass.
type rawBatch struct {
	kind      domain.RecordKind
	partition string
	rows      []domain.RawRow
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output directory for fixture files")
	partitionsFlag := flag.String("partitions", "MD,VA", "comma-separated jurisdiction codes")
	seed := flag.Int64("seed", 1, "random seed for reproducible fixtures")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	partitions, err := parsePartitions(*partitionsFlag)
	if err != nil {
		return err
	}

	// Fixed clock for reproducible alert timestamps in the stats pass.
	domain.SetClock(clockwork.NewFakeClockAt(detectedAt))
	defer domain.SetClock(nil)

	rng := rand.New(rand.NewSource(*seed))

	var batches []rawBatch //nolint:prealloc // six files per partition
	for _, st := range partitions {
		permits := genPermits(rng, st)
		stations := genStations(rng, st)
		files := []fixtureFile{
			{dir: "compliance", name: st + "_permits.json", kind: domain.KindPermit, rows: permits},
			{dir: "compliance", name: st + "_violations.json", kind: domain.KindViolation, rows: genViolations(rng, st, permits)},
			{dir: "compliance", name: st + "_monitoring.json", kind: domain.KindMonitoring, rows: genMonitoring(rng, st, permits)},
			{dir: "compliance", name: st + "_enforcement.json", kind: domain.KindEnforcement, rows: genEnforcement(rng, st, permits)},
			{dir: "waterquality", name: st + "_stations.csv", kind: domain.KindSite, rows: stations, columns: stationColumns},
			{dir: "waterquality", name: st + "_results.csv", kind: domain.KindReading, rows: genResults(rng, st, stations), columns: resultColumns},
		}

		for _, f := range files {
			path := filepath.Join(*out, f.dir, f.name)
			if f.columns == nil {
				err = writeJSON(path, f.rows)
			} else {
				err = writeCSV(path, f.columns, f.rows)
			}
			if err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			batches = append(batches, rawBatch{kind: f.kind, partition: st, rows: f.rows})
			log.Printf("%s: %d rows", path, len(f.rows))
		}
	}

	printStats(batches)
	return nil
}

// fixtureFile describes one output file; a nil columns slice writes JSON.
type fixtureFile struct {
	dir     string
	name    string
	kind    domain.RecordKind
	rows    []domain.RawRow
	columns []string
}

func parsePartitions(raw string) ([]string, error) {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		code := strings.ToUpper(strings.TrimSpace(part))
		if code == "" {
			continue
		}
		if _, ok := stateSeeds[code]; !ok {
			return nil, fmt.Errorf("unknown partition %q", code)
		}
		out = append(out, code)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no partitions in %q", raw)
	}
	return out, nil
}

// genPermits synthesizes one page of the compliance permit table. Most rows
// lack coordinates, matching the upstream facility export, and the first
// permit appears twice to simulate a page-boundary overlap.
func genPermits(rng *rand.Rand, st string) []domain.RawRow {
	rows := make([]domain.RawRow, 0, permitsPerState+1)
	for i := 0; i < permitsPerState; i++ {
		row := domain.RawRow{
			"EXTERNAL_PERMIT_NMBR": permitNumber(st, i),
			"FACILITY_NAME":        fmt.Sprintf("%s Water Reclamation Facility %d", st, i+1),
			"PERMIT_TYPE_CODE":     pick(rng, permitTypes),
			"PERMIT_STATUS_CODE":   pick(rng, permitStatuses),
			"ISSUE_DATE":           randDate(rng, 2018, 2023),
			"EXPIRATION_DATE":      randDate(rng, 2025, 2029),
			"PERM_STATE":           st,
		}
		if i%3 == 0 {
			lat, lng := jitterCoords(rng, st)
			row["GEOCODE_LATITUDE"] = formatCoord(lat)
			row["GEOCODE_LONGITUDE"] = formatCoord(lng)
		}
		rows = append(rows, row)
	}
	return append(rows, rows[0])
}

// genViolations attaches violations to existing permits. One row carries no
// violation code and one is an exact duplicate; the pipeline must reject the
// first and collapse the second.
func genViolations(rng *rand.Rand, st string, permits []domain.RawRow) []domain.RawRow {
	rows := make([]domain.RawRow, 0, violationsPerState+2)
	for i := 0; i < violationsPerState; i++ {
		p := permits[i%permitsPerState]
		lat, lng := jitterCoords(rng, st)
		rows = append(rows, domain.RawRow{
			"EXTERNAL_PERMIT_NMBR":        p["EXTERNAL_PERMIT_NMBR"],
			"FACILITY_NAME":               p["FACILITY_NAME"],
			"VIOLATION_CODE":              pick(rng, violationCodes),
			"VIOLATION_DESC":              "Effluent limit exceedance",
			"SINGLE_EVENT_VIOLATION_DATE": randDate(rng, 2024, 2025),
			"PERM_STATE":                  st,
			"GEOCODE_LATITUDE":            formatCoord(lat),
			"GEOCODE_LONGITUDE":           formatCoord(lng),
		})
	}
	rows = append(rows, domain.RawRow{
		"EXTERNAL_PERMIT_NMBR":        permits[0]["EXTERNAL_PERMIT_NMBR"],
		"SINGLE_EVENT_VIOLATION_DATE": randDate(rng, 2024, 2025),
		"PERM_STATE":                  st,
	})
	return append(rows, rows[0])
}

func genMonitoring(rng *rand.Rand, st string, permits []domain.RawRow) []domain.RawRow {
	rows := make([]domain.RawRow, 0, monitoringPerState)
	for i := 0; i < monitoringPerState; i++ {
		p := permits[i%permitsPerState]
		lat, lng := jitterCoords(rng, st)
		rows = append(rows, domain.RawRow{
			"EXTERNAL_PERMIT_NMBR":       p["EXTERNAL_PERMIT_NMBR"],
			"PARAMETER_DESC":             pick(rng, dmrParameters),
			"DMR_VALUE_NMBR":             formatValue(rng.Float64() * 40),
			"UNIT_DESC":                  "mg/L",
			"MONITORING_PERIOD_END_DATE": randDate(rng, 2024, 2025),
			"PERM_STATE":                 st,
			"GEOCODE_LATITUDE":           formatCoord(lat),
			"GEOCODE_LONGITUDE":          formatCoord(lng),
		})
	}
	return rows
}

func genEnforcement(rng *rand.Rand, st string, permits []domain.RawRow) []domain.RawRow {
	rows := make([]domain.RawRow, 0, enforcementPerState)
	for i := 0; i < enforcementPerState; i++ {
		p := permits[i%permitsPerState]
		lat, lng := jitterCoords(rng, st)
		rows = append(rows, domain.RawRow{
			"CASE_NUMBER":              fmt.Sprintf("%s-2025-%04d", st, 100+i),
			"EXTERNAL_PERMIT_NMBR":     p["EXTERNAL_PERMIT_NMBR"],
			"ENF_TYPE_DESC":            pick(rng, enforcementTypes),
			"SETTLEMENT_ENTERED_DATE":  randDate(rng, 2023, 2025),
			"FED_PENALTY_ASSESSED_AMT": formatValue(float64(rng.Intn(200)) * 500),
			"PERM_STATE":               st,
			"GEOCODE_LATITUDE":         formatCoord(lat),
			"GEOCODE_LONGITUDE":        formatCoord(lng),
		})
	}
	return rows
}

// genStations synthesizes the station export. StateCode uses the portal's
// FIPS form ("US:24"), which the normalizer must resolve back to a postal
// code.
func genStations(rng *rand.Rand, st string) []domain.RawRow {
	org := "21" + st + "WQ"
	rows := make([]domain.RawRow, 0, stationsPerState)
	for i := 0; i < stationsPerState; i++ {
		lat, lng := jitterCoords(rng, st)
		rows = append(rows, domain.RawRow{
			"OrganizationIdentifier":       org,
			"MonitoringLocationIdentifier": fmt.Sprintf("%s-%04d", org, 1000+i),
			"MonitoringLocationName":       fmt.Sprintf("%s Monitoring Station %d", st, i+1),
			"MonitoringLocationTypeName":   pick(rng, stationTypes),
			"StateCode":                    "US:" + domain.JurisdictionFIPS[st],
			"LatitudeMeasure":              formatCoord(lat),
			"LongitudeMeasure":             formatCoord(lng),
		})
	}
	return rows
}

// genResults synthesizes sample events for each station, plus three edge
// rows tied to the first station: a pH pair on different dates so
// keep-latest dedup has work to do, a row outside the served region, and a
// row with no measured value.
func genResults(rng *rand.Rand, st string, stations []domain.RawRow) []domain.RawRow {
	rows := make([]domain.RawRow, 0, stationsPerState*readingsPerStation+4)
	for i, stn := range stations {
		for j := 0; j < readingsPerStation; j++ {
			c := characteristics[(i+j)%len(characteristics)]
			rows = append(rows, resultRow(stn, c.name, c.unit,
				formatValue(c.min+rng.Float64()*(c.max-c.min)),
				randDate(rng, 2024, 2025)))
		}
	}

	first := stations[0]
	rows = append(rows,
		resultRow(first, "pH", "std units", "9.2", "2025-02-01"),
		resultRow(first, "pH", "std units", "7.1", "2025-06-15"),
	)

	outside := resultRow(first, "Turbidity", "ntu", "63.0", "2025-04-10")
	outside["MonitoringLocationIdentifier"] = first["MonitoringLocationIdentifier"] + "-X"
	outside["LatitudeMeasure"] = "47.60620"
	outside["LongitudeMeasure"] = "-122.33210"
	rows = append(rows, outside)

	missing := resultRow(first, "Dissolved oxygen (DO)", "mg/l", "", "2025-04-11")
	return append(rows, missing)
}

func resultRow(station domain.RawRow, characteristic, unit, value, date string) domain.RawRow {
	return domain.RawRow{
		"OrganizationIdentifier":        station["OrganizationIdentifier"],
		"MonitoringLocationIdentifier":  station["MonitoringLocationIdentifier"],
		"ActivityStartDate":             date,
		"CharacteristicName":            characteristic,
		"ResultMeasureValue":            value,
		"ResultMeasure/MeasureUnitCode": unit,
		"StateCode":                     station["StateCode"],
		"LatitudeMeasure":               station["LatitudeMeasure"],
		"LongitudeMeasure":              station["LongitudeMeasure"],
	}
}

func permitNumber(st string, i int) string {
	return fmt.Sprintf("%s%07d", st, 21600+i)
}

func pick(rng *rand.Rand, opts []string) string {
	return opts[rng.Intn(len(opts))]
}

func randDate(rng *rand.Rand, firstYear, lastYear int) string {
	start := time.Date(firstYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(lastYear, time.December, 31, 0, 0, 0, 0, time.UTC)
	days := int(end.Sub(start).Hours() / 24)
	return start.AddDate(0, 0, rng.Intn(days+1)).Format("2006-01-02")
}

func jitterCoords(rng *rand.Rand, st string) (float64, float64) {
	seed := stateSeeds[st]
	return seed[0] + (rng.Float64()-0.5)*0.8, seed[1] + (rng.Float64()-0.5)*0.8
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 5, 64)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func writeCSV(path string, columns []string, rows []domain.RawRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return err
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = row[col]
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// statsResult holds aggregated counts for printStats reporting.
type statsResult struct {
	normalized  map[domain.RecordKind]int
	rejected    map[domain.RecordKind]int
	deduped     map[domain.RecordKind]int
	stateCounts map[string]int
	cells       map[string]int
	placeholder int
	ungridable  int
	readings    []domain.Reading
}

var kindOrder = []domain.RecordKind{
	domain.KindPermit, domain.KindViolation, domain.KindMonitoring,
	domain.KindEnforcement, domain.KindSite, domain.KindReading,
}

// collectStats pushes every row through normalization and the per-kind
// collision policy, the same path the pipeline takes.
func collectStats(batches []rawBatch) statsResult {
	s := statsResult{
		normalized:  map[domain.RecordKind]int{},
		rejected:    map[domain.RecordKind]int{},
		deduped:     map[domain.RecordKind]int{},
		stateCounts: map[string]int{},
		cells:       map[string]int{},
	}

	byKind := map[domain.RecordKind][]domain.Record{}
	for _, b := range batches {
		for _, row := range b.rows {
			rec, ok := domain.NormalizeRow(row, b.kind, b.partition)
			if !ok {
				s.rejected[b.kind]++
				continue
			}
			s.normalized[b.kind]++
			byKind[b.kind] = append(byKind[b.kind], rec)
		}
	}

	for _, kind := range kindOrder {
		records := domain.DedupeKind(kind, byKind[kind])
		s.deduped[kind] = len(records)
		for _, rec := range records {
			s.stateCounts[rec.Partition()]++
			if reading, ok := rec.(domain.Reading); ok {
				s.readings = append(s.readings, reading)
			}
			if !domain.Gridable(rec) {
				s.ungridable++
				continue
			}
			key := domain.GridKeyFor(rec)
			s.cells[key]++
			if key == domain.PlaceholderCellKey {
				s.placeholder++
			}
		}
	}
	return s
}

func printStats(batches []rawBatch) {
	stats := collectStats(batches)

	fmt.Println("\n=== Stats for updating test assertions ===")
	for _, kind := range kindOrder {
		fmt.Printf("%s: normalized=%d rejected=%d deduped=%d\n",
			kind, stats.normalized[kind], stats.rejected[kind], stats.deduped[kind])
	}
	fmt.Printf("Cells: %d (placeholder records: %d, ungridable dropped: %d)\n",
		len(stats.cells), stats.placeholder, stats.ungridable)

	printPartitionBreakdown(stats)
	printAlerts(stats.readings)
}

type keyCount struct {
	key   string
	count int
}

func printPartitionBreakdown(stats statsResult) {
	pc := make([]keyCount, 0, len(stats.stateCounts))
	for code, count := range stats.stateCounts {
		pc = append(pc, keyCount{code, count})
	}
	sort.Slice(pc, func(i, j int) bool { return pc[i].count > pc[j].count })
	fmt.Printf("Partitions (%d): ", len(pc))
	for _, p := range pc {
		fmt.Printf("%s=%d ", p.key, p.count)
	}
	fmt.Println()

	// Busiest cells, for cell endpoint assertions.
	cells := make([]keyCount, 0, len(stats.cells))
	for key, count := range stats.cells {
		cells = append(cells, keyCount{key, count})
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].count != cells[j].count {
			return cells[i].count > cells[j].count
		}
		return cells[i].key < cells[j].key
	})
	fmt.Print("Top cells:")
	for _, c := range cells[:min(5, len(cells))] {
		fmt.Printf(" %s=%d", c.key, c.count)
	}
	fmt.Println()
}

func printAlerts(readings []domain.Reading) {
	alerts := domain.DeriveAlerts(readings)
	byParam := map[string]int{}
	for _, a := range alerts {
		byParam[a.Parameter]++
	}
	params := make([]string, 0, len(byParam))
	for p := range byParam {
		params = append(params, p)
	}
	sort.Strings(params)

	fmt.Printf("\nAlerts: %d\n", len(alerts))
	for _, p := range params {
		fmt.Printf("  %s: %d\n", p, byParam[p])
	}
	if len(alerts) == 0 {
		return
	}
	a := alerts[0]
	fmt.Println("First alert:")
	fmt.Printf("  ID: %s\n", a.ID)
	fmt.Printf("  Site: %s  Parameter: %s\n", a.SiteID, a.Parameter)
	fmt.Printf("  Value: %g %s (limit %g, %.1f%% past)\n", a.Value, a.Unit, a.Limit, a.PctOver)
	fmt.Printf("  Cell: %s  Detected: %s\n", a.CellKey, a.DetectedAt.Format(time.RFC3339))
}
