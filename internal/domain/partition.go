package domain

import "strings"

// DefaultPartitions is the served jurisdiction set in stable order: the
// Chesapeake Bay watershed states plus the District.
var DefaultPartitions = []string{"DC", "DE", "MD", "PA", "VA", "WV"}

// JurisdictionFIPS maps jurisdiction postal codes to census FIPS
// identifiers. The water-quality upstream addresses states by FIPS in both
// queries and result rows.
var JurisdictionFIPS = map[string]string{
	"DC": "11",
	"DE": "10",
	"MD": "24",
	"PA": "42",
	"VA": "51",
	"WV": "54",
}

var jurisdictionByFIPS = map[string]string{
	"10": "DE",
	"11": "DC",
	"24": "MD",
	"42": "PA",
	"51": "VA",
	"54": "WV",
}

// FIPSQueryValue returns the water-quality upstream's query encoding for a
// jurisdiction ("US:24" for MD). Unknown codes pass through unchanged so a
// misconfigured partition fails visibly upstream instead of silently here.
func FIPSQueryValue(code string) string {
	if fips, ok := JurisdictionFIPS[strings.ToUpper(code)]; ok {
		return "US:" + fips
	}
	return code
}
