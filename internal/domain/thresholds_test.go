package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThresholdFor(t *testing.T) {
	th, ok := ThresholdFor("do")
	require.True(t, ok)
	assert.Equal(t, ThresholdBelow, th.Kind)
	assert.Equal(t, 5.0, th.Limit)

	_, ok = ThresholdFor("temperature")
	assert.False(t, ok)
}

func TestEvaluateThreshold(t *testing.T) {
	tests := []struct {
		name     string
		param    string
		value    float64
		exceeded bool
		pct      float64
	}{
		{"dissolved oxygen under the floor", "do", 4.0, true, 20.0},
		{"dissolved oxygen just under", "do", 4.9, true, 2.0},
		{"dissolved oxygen at the floor", "do", 5.0, false, 0},
		{"dissolved oxygen healthy", "do", 8.4, false, 0},
		{"pH above the band", "ph", 9.2, true, 8.2},
		{"pH below the band", "ph", 6.0, true, 7.7},
		{"pH at the low edge", "ph", 6.5, false, 0},
		{"pH at the high edge", "ph", 8.5, false, 0},
		{"total nitrogen over", "tn", 4.5, true, 50.0},
		{"total nitrogen at the limit", "tn", 3.0, false, 0},
		{"total phosphorus over", "tp", 0.15, true, 50.0},
		{"suspended solids over", "tss", 30.0, true, 20.0},
		{"e. coli over", "ecoli", 500.0, true, 22.0},
		{"enterococcus over", "enterococcus", 131.0, true, 0.8},
		{"fecal coliform over", "fecal_coliform", 800.0, true, 100.0},
		{"turbidity over", "turbidity", 75.0, true, 50.0},
		{"parameter without a threshold never exceeds", "temperature", 900.0, false, 0},
		{"catch-all parameter never exceeds", ParamOther, 1.0, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, pct, exceeded := EvaluateThreshold(tt.param, tt.value)
			assert.Equal(t, tt.exceeded, exceeded)
			assert.Equal(t, tt.pct, pct)
		})
	}
}

func TestEvaluateThreshold_ReturnsThreshold(t *testing.T) {
	th, _, exceeded := EvaluateThreshold("ph", 9.2)
	require.True(t, exceeded)
	assert.Equal(t, ThresholdRange, th.Kind)
	assert.Equal(t, 6.5, th.Low)
	assert.Equal(t, 8.5, th.High)
}
