// Command validate performs integrity checks over generated fixture files:
// compliance JSON pages and water-quality CSV exports. It verifies fixture
// shape, normalization coverage, collision-policy uniqueness, and grid
// placement, using the actual domain package throughout so the checks track
// real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -fixtures data/mock \
//	  -partitions MD,VA
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/project-pearl/Dashboard-sub014/internal/domain"
)

// fixtureSpec maps one record kind to its fixture file. The layout matches
// what genmock writes: <fixtures>/<dir>/<partition><suffix>.
type fixtureSpec struct {
	dir    string
	suffix string
	kind   domain.RecordKind
	csv    bool
}

var specs = []fixtureSpec{
	{dir: "compliance", suffix: "_permits.json", kind: domain.KindPermit},
	{dir: "compliance", suffix: "_violations.json", kind: domain.KindViolation},
	{dir: "compliance", suffix: "_monitoring.json", kind: domain.KindMonitoring},
	{dir: "compliance", suffix: "_enforcement.json", kind: domain.KindEnforcement},
	{dir: "waterquality", suffix: "_stations.csv", kind: domain.KindSite, csv: true},
	{dir: "waterquality", suffix: "_results.csv", kind: domain.KindReading, csv: true},
}

// requiredColumns lists the identity-bearing columns every fixture row must
// populate. Columns a deliberate edge-case row omits (violation codes,
// measured values) are not listed.
var requiredColumns = map[domain.RecordKind][]string{
	domain.KindPermit:      {"EXTERNAL_PERMIT_NMBR", "PERM_STATE"},
	domain.KindViolation:   {"EXTERNAL_PERMIT_NMBR", "SINGLE_EVENT_VIOLATION_DATE"},
	domain.KindMonitoring:  {"EXTERNAL_PERMIT_NMBR", "PARAMETER_DESC", "MONITORING_PERIOD_END_DATE"},
	domain.KindEnforcement: {"CASE_NUMBER"},
	domain.KindSite:        {"MonitoringLocationIdentifier", "StateCode", "LatitudeMeasure", "LongitudeMeasure"},
	domain.KindReading:     {"MonitoringLocationIdentifier", "CharacteristicName", "ActivityStartDate"},
}

var kindOrder = []domain.RecordKind{
	domain.KindPermit, domain.KindViolation, domain.KindMonitoring,
	domain.KindEnforcement, domain.KindSite, domain.KindReading,
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	fixtures := flag.String("fixtures", "", "directory containing generated fixture files")
	partitionsFlag := flag.String("partitions", "MD,VA", "comma-separated jurisdiction codes")
	flag.Parse()

	if *fixtures == "" {
		flag.Usage()
		os.Exit(1)
	}

	partitions, err := parsePartitions(*partitionsFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	if code := run(*fixtures, partitions); code != 0 {
		os.Exit(code)
	}
}

func run(fixturesDir string, partitions []string) int {
	fmt.Println("=== Fixture Integrity Validation ===")
	fmt.Println()

	sets, err := loadFixtures(fixturesDir, partitions)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load fixtures: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateFixtureShape(sets),
		validateNormalization(sets),
		validateCollisionPolicy(sets),
		validateGridPlacement(sets),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-46s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d compliance JSON, %d water-quality CSV across %d partitions\n",
		countRows(sets, "compliance"), countRows(sets, "waterquality"), len(partitions))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func parsePartitions(raw string) ([]string, error) {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		code := strings.ToUpper(strings.TrimSpace(part))
		if code == "" {
			continue
		}
		if _, ok := domain.JurisdictionFIPS[code]; !ok {
			return nil, fmt.Errorf("unknown partition %q", code)
		}
		out = append(out, code)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no partitions in %q", raw)
	}
	return out, nil
}

// ── Data loading ──

// fixtureRow is one parsed row with its position for error reporting; JSON
// fixtures count array indexes, CSV fixtures count file lines.
type fixtureRow struct {
	lineNum int
	row     domain.RawRow
}

// fixtureSet is every row of one fixture file.
type fixtureSet struct {
	spec      fixtureSpec
	partition string
	path      string
	rows      []fixtureRow
}

func loadFixtures(dir string, partitions []string) ([]fixtureSet, error) {
	var sets []fixtureSet
	for _, partition := range partitions {
		for _, s := range specs {
			path := filepath.Join(dir, s.dir, partition+s.suffix)
			var rows []fixtureRow
			var err error
			if s.csv {
				rows, err = loadCSVRows(path)
			} else {
				rows, err = loadJSONRows(path)
			}
			if err != nil {
				return nil, fmt.Errorf("%s %s: %w", partition, s.kind, err)
			}
			sets = append(sets, fixtureSet{spec: s, partition: partition, path: path, rows: rows})
		}
	}
	return sets, nil
}

func loadJSONRows(path string) ([]fixtureRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw []domain.RawRow
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	rows := make([]fixtureRow, len(raw))
	for i, r := range raw {
		rows[i] = fixtureRow{lineNum: i, row: r}
	}
	return rows, nil
}

func loadCSVRows(path string) ([]fixtureRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	all, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) < 2 {
		return nil, fmt.Errorf("no data rows in %s", path)
	}

	header := all[0]
	var rows []fixtureRow
	for i, record := range all[1:] {
		row := make(domain.RawRow, len(header))
		for j, h := range header {
			if j < len(record) {
				row[h] = strings.TrimSpace(record[j])
			}
		}
		rows = append(rows, fixtureRow{lineNum: i + 2, row: row})
	}
	return rows, nil
}

func countRows(sets []fixtureSet, dir string) int {
	n := 0
	for _, set := range sets {
		if set.spec.dir == dir {
			n += len(set.rows)
		}
	}
	return n
}

// normalizeAll runs every row through the normalizer, grouped by kind, the
// same way the pipeline assembles a build.
func normalizeAll(sets []fixtureSet) map[domain.RecordKind][]domain.Record {
	byKind := map[domain.RecordKind][]domain.Record{}
	for _, set := range sets {
		for _, fr := range set.rows {
			if rec, ok := domain.NormalizeRow(fr.row, set.spec.kind, set.partition); ok {
				byKind[set.spec.kind] = append(byKind[set.spec.kind], rec)
			}
		}
	}
	return byKind
}

// ── Phase 1: Fixture Shape ──
// Every fixture file parses, has rows, and populates its identity columns.

func validateFixtureShape(sets []fixtureSet) *phase {
	p := &phase{name: "Phase 1: Fixture Shape (files)"}

	for _, set := range sets {
		if len(set.rows) == 0 {
			p.errorf("%s: no rows", set.path)
			continue
		}
		for _, fr := range set.rows {
			for _, col := range requiredColumns[set.spec.kind] {
				if fr.row[col] == "" {
					p.errorf("%s row %d: column %q is empty", set.path, fr.lineNum, col)
				}
			}
		}
	}
	return p
}

// ── Phase 2: Normalization Coverage ──
// Rows normalize at a healthy rate, resolve to the fetched partition, and
// carry ISO dates.

func validateNormalization(sets []fixtureSet) *phase {
	p := &phase{name: "Phase 2: Normalization Coverage"}

	for _, set := range sets {
		normalized := 0
		for _, fr := range set.rows {
			rec, ok := domain.NormalizeRow(fr.row, set.spec.kind, set.partition)
			if !ok {
				continue
			}
			normalized++
			if rec.Partition() != set.partition {
				p.errorf("%s row %d: partition %q, fetched for %q",
					set.path, fr.lineNum, rec.Partition(), set.partition)
			}
			if rec.DedupeKey() == "" {
				p.errorf("%s row %d: empty dedupe key", set.path, fr.lineNum)
			}
		}
		if normalized == 0 {
			p.errorf("%s: no row normalized", set.path)
		} else if rejected := len(set.rows) - normalized; rejected*10 > len(set.rows) {
			p.errorf("%s: %d of %d rows rejected", set.path, rejected, len(set.rows))
		}
	}

	checkDates(p, normalizeAll(sets))
	return p
}

func checkDates(p *phase, byKind map[domain.RecordKind][]domain.Record) {
	for _, rec := range byKind[domain.KindViolation] {
		v := rec.(domain.Violation)
		if !isISODate(v.ViolationDate) {
			p.errorf("violation %s: date %q is not ISO", v.DedupeKey(), v.ViolationDate)
		}
	}
	for _, rec := range byKind[domain.KindMonitoring] {
		m := rec.(domain.MonitoringValue)
		if !isISODate(m.Period) {
			p.errorf("monitoring %s: period %q is not ISO", m.DedupeKey(), m.Period)
		}
	}
	for _, rec := range byKind[domain.KindReading] {
		r := rec.(domain.Reading)
		if !isISODate(r.SampleDate) {
			p.errorf("reading %s: sample date %q is not ISO", r.DedupeKey(), r.SampleDate)
		}
		if r.Parameter == "" {
			p.errorf("reading %s: empty parameter key", r.SiteID)
		}
	}
}

func isISODate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// ── Phase 3: Collision Policy ──
// After dedup no key appears twice, and surviving readings carry their
// key's newest sample date.

func validateCollisionPolicy(sets []fixtureSet) *phase {
	p := &phase{name: "Phase 3: Collision Policy (dedup)"}
	byKind := normalizeAll(sets)

	for _, kind := range kindOrder {
		records := domain.DedupeKind(kind, byKind[kind])
		seen := map[string]int{}
		for i, rec := range records {
			key := rec.DedupeKey()
			if prev, dup := seen[key]; dup {
				p.errorf("%s: key %q survives at positions %d and %d", kind, key, prev, i)
			}
			seen[key] = i
		}
		if len(records) > len(byKind[kind]) {
			p.errorf("%s: dedup grew the set: %d -> %d", kind, len(byKind[kind]), len(records))
		}
	}

	// Keep-latest: the survivor for each reading key is its newest sample.
	latest := map[string]string{}
	for _, rec := range byKind[domain.KindReading] {
		r := rec.(domain.Reading)
		if r.SampleDate > latest[r.DedupeKey()] {
			latest[r.DedupeKey()] = r.SampleDate
		}
	}
	for _, rec := range domain.DedupeKind(domain.KindReading, byKind[domain.KindReading]) {
		r := rec.(domain.Reading)
		if r.SampleDate != latest[r.DedupeKey()] {
			p.errorf("reading %s: survivor dated %s, newest is %s",
				r.DedupeKey(), r.SampleDate, latest[r.DedupeKey()])
		}
	}
	return p
}

// ── Phase 4: Grid Placement ──
// Every gridable record lands in a cell that contains its coordinates; the
// placeholder cell holds only permits.

func validateGridPlacement(sets []fixtureSet) *phase {
	p := &phase{name: "Phase 4: Grid Placement (spatial index)"}
	byKind := normalizeAll(sets)

	cells := map[string]int{}
	for _, kind := range kindOrder {
		for _, rec := range domain.DedupeKind(kind, byKind[kind]) {
			lat, lng := rec.Coords()
			if !domain.Gridable(rec) {
				if domain.ValidCoords(lat, lng) {
					p.errorf("%s %s: valid coords (%g, %g) but not gridable",
						kind, rec.DedupeKey(), lat, lng)
				}
				continue
			}

			key := domain.GridKeyFor(rec)
			cells[key]++
			if key == domain.PlaceholderCellKey {
				if kind != domain.KindPermit {
					p.errorf("%s %s: non-permit in placeholder cell", kind, rec.DedupeKey())
				}
				continue
			}

			cellLat, cellLng, err := domain.ParseCellKey(key)
			if err != nil {
				p.errorf("%s %s: %v", kind, rec.DedupeKey(), err)
				continue
			}
			if domain.CellKey(cellLat, cellLng) != key {
				p.errorf("cell %q: not stable under re-quantization", key)
			}
			if !domain.CellBound(lat, lng).Contains(orb.Point{lng, lat}) {
				p.errorf("%s %s: coords (%g, %g) outside cell %q bound",
					kind, rec.DedupeKey(), lat, lng, key)
			}
		}
	}

	if len(cells) < 2 {
		p.errorf("only %d occupied cells; fixture spread is too narrow", len(cells))
	}
	return p
}
