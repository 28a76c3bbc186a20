package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParameterCategory(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"exact DO spelling", "Dissolved oxygen (DO)", "do"},
		{"exact pH spelling", "pH", "ph"},
		{"exact nitrogen spelling", "Total Nitrogen, mixed forms", "tn"},
		{"exact chlorophyll variant", "Chlorophyll a, corrected for pheophytin", "chlorophyll"},
		{"substring match is case-insensitive", "DISSOLVED OXYGEN SATURATION", "do"},
		{"phosphorus wins over the bare ph probe", "Orthophosphorus", "tp"},
		{"chlorophyll wins over the bare ph probe", "Chlorophyll b", "chlorophyll"},
		{"e. coli spelled out", "E. coli count", "ecoli"},
		{"fecal indicator", "Fecal streptococcus", "fecal_coliform"},
		{"secchi depth", "Secchi depth reading", "secchi"},
		{"unmatched characteristic falls through", "Dieldrin", ParamOther},
		{"blank characteristic falls through", "   ", ParamOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParameterCategory(tt.input))
		})
	}
}
