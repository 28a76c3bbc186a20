package domain

import "strings"

// ParamOther is the catch-all category for characteristics the dashboard
// has no dedicated layer for. They are retained, not dropped, so a cell's
// reading history stays complete.
const ParamOther = "other"

// paramByName maps exact upstream characteristic names to canonical
// parameter keys. These are the spellings the water-quality upstream
// actually emits; the substring pass below catches close variants.
var paramByName = map[string]string{
	"Dissolved oxygen (DO)":                   "do",
	"Dissolved oxygen":                        "do",
	"Temperature, water":                      "temperature",
	"pH":                                      "ph",
	"Turbidity":                               "turbidity",
	"Total suspended solids":                  "tss",
	"Total Nitrogen, mixed forms":             "tn",
	"Nitrogen":                                "tn",
	"Total Phosphorus, mixed forms":           "tp",
	"Phosphorus":                              "tp",
	"Escherichia coli":                        "ecoli",
	"Enterococcus":                            "enterococcus",
	"Fecal Coliform":                          "fecal_coliform",
	"Chlorophyll a":                           "chlorophyll",
	"Chlorophyll a, corrected for pheophytin": "chlorophyll",
	"Specific conductance":                    "conductivity",
	"Salinity":                                "salinity",
	"Depth, Secchi disk depth":                "secchi",
}

// paramSubstrings is consulted in order when no exact name matches. Order
// matters: "chlorophyll" and "phosphorus" both contain "ph", so the bare
// "ph" probe must come last.
var paramSubstrings = []struct {
	substr string
	key    string
}{
	{"dissolved oxygen", "do"},
	{"temperature", "temperature"},
	{"turbidity", "turbidity"},
	{"suspended solids", "tss"},
	{"nitrogen", "tn"},
	{"phosphorus", "tp"},
	{"escherichia", "ecoli"},
	{"e. coli", "ecoli"},
	{"enterococc", "enterococcus"},
	{"fecal", "fecal_coliform"},
	{"chlorophyll", "chlorophyll"},
	{"conductance", "conductivity"},
	{"conductivity", "conductivity"},
	{"salinity", "salinity"},
	{"secchi", "secchi"},
	{"ph", "ph"},
}

// ParameterCategory maps a free-text characteristic name to its canonical
// parameter key: exact match first, then case-insensitive substring, then
// the catch-all.
func ParameterCategory(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ParamOther
	}
	if key, ok := paramByName[name]; ok {
		return key
	}
	lower := strings.ToLower(name)
	for _, probe := range paramSubstrings {
		if strings.Contains(lower, probe.substr) {
			return probe.key
		}
	}
	return ParamOther
}
