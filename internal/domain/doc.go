// Package domain models the compliance and water-quality records served by
// the dashboard cache.
//
// # Data Sources
//
// Two upstream systems feed the cache, fetched per jurisdiction (DC, DE,
// MD, PA, VA, WV):
//
//	compliance    — discharge permits, violations, self-reported monitoring
//	                values, and enforcement actions, exported as JSON arrays
//	                in the federal ICIS column vocabulary.
//	waterquality  — monitoring stations and sampled readings, exported as
//	                CSV in the Water Quality Portal column vocabulary, which
//	                addresses states by FIPS identifier ("US:24" = MD).
//
// Both systems have shipped several column spellings for the same concept
// over time, so normalization extracts each field through an ordered alias
// list and takes the first non-empty value. Rows missing the fields that
// make up a record's identity are dropped rather than guessed at.
//
// # Conventions
//
// Coordinates:
//
//	WGS-84, rounded to five decimals (~1m). Pairs that are non-finite, at
//	the (0,0) origin, or outside the served region are treated as absent.
//	Permits are the one kind kept without coordinates; they park in the
//	"0_0" placeholder cell so permit-number lookups never lose them.
//
// Dates:
//
//	Reduced to ISO calendar dates ("2006-01-02"). ISO dates compare
//	lexicographically in chronological order, which the keep-latest
//	collision policy for readings relies on.
//
// Numeric values:
//
//	Measurements round to four decimals. Unparseable numbers become zero,
//	matching the upstream convention of blank-means-unmeasured.
//
// Parameter categories:
//
//	Free-text characteristic names ("Dissolved oxygen (DO)") map to stable
//	keys ("do") via exact match, then case-insensitive substring, then the
//	"other" catch-all. See [ParameterCategory].
//
// # Record Identity
//
// Every kind defines a dedupe key from its natural identity fields (permit
// number, case number, site|parameter|date, ...). Collisions keep the
// first record seen, except readings, which keep the most recent sample.
// Alert IDs are deterministic SHA-256 short hashes of the reading identity
// so replayed ingests produce identical IDs downstream.
//
// # Spatial Grid
//
// Records are bucketed into 0.1-degree cells addressed by their south-west
// corner: CellKey(39.2894, -76.6122) == "39.2_-76.7". Cell membership is a
// pure function of coordinates, so the same record always lands in the
// same cell across rebuilds. See [CellKey].
package domain
