package domain

// ThresholdKind says which side of the limit is unhealthy.
type ThresholdKind string

const (
	// ThresholdAbove flags values over the limit (nutrients, bacteria).
	ThresholdAbove ThresholdKind = "above"
	// ThresholdBelow flags values under the limit (dissolved oxygen).
	ThresholdBelow ThresholdKind = "below"
	// ThresholdRange flags values outside a low/high band (pH).
	ThresholdRange ThresholdKind = "range"
)

// Threshold is the exceedance rule for one canonical parameter.
type Threshold struct {
	Param string        `json:"param"`
	Kind  ThresholdKind `json:"kind"`
	Limit float64       `json:"limit,omitempty"`
	Low   float64       `json:"low,omitempty"`
	High  float64       `json:"high,omitempty"`
	Unit  string        `json:"unit,omitempty"`
}

// thresholds holds the screening limits used to derive alerts. These are
// screening values for dashboard triage, not regulatory determinations;
// parameters without an entry never alert.
var thresholds = map[string]Threshold{
	"do":             {Param: "do", Kind: ThresholdBelow, Limit: 5.0, Unit: "mg/l"},
	"ph":             {Param: "ph", Kind: ThresholdRange, Low: 6.5, High: 8.5, Unit: "std units"},
	"tn":             {Param: "tn", Kind: ThresholdAbove, Limit: 3.0, Unit: "mg/l"},
	"tp":             {Param: "tp", Kind: ThresholdAbove, Limit: 0.1, Unit: "mg/l"},
	"tss":            {Param: "tss", Kind: ThresholdAbove, Limit: 25.0, Unit: "mg/l"},
	"ecoli":          {Param: "ecoli", Kind: ThresholdAbove, Limit: 410.0, Unit: "cfu/100ml"},
	"enterococcus":   {Param: "enterococcus", Kind: ThresholdAbove, Limit: 130.0, Unit: "cfu/100ml"},
	"fecal_coliform": {Param: "fecal_coliform", Kind: ThresholdAbove, Limit: 400.0, Unit: "cfu/100ml"},
	"turbidity":      {Param: "turbidity", Kind: ThresholdAbove, Limit: 50.0, Unit: "ntu"},
}

// ThresholdFor returns the screening threshold for a canonical parameter
// key, if one is defined.
func ThresholdFor(param string) (Threshold, bool) {
	th, ok := thresholds[param]
	return th, ok
}

// EvaluateThreshold checks a value against its parameter's screening limit.
// It returns the threshold, the percent past the limit (one decimal), and
// whether the value exceeds. Parameters without a threshold never exceed.
func EvaluateThreshold(param string, value float64) (Threshold, float64, bool) {
	th, ok := thresholds[param]
	if !ok {
		return Threshold{}, 0, false
	}
	switch th.Kind {
	case ThresholdBelow:
		if value < th.Limit {
			return th, pctPast(th.Limit-value, th.Limit), true
		}
	case ThresholdAbove:
		if value > th.Limit {
			return th, pctPast(value-th.Limit, th.Limit), true
		}
	case ThresholdRange:
		if value < th.Low {
			return th, pctPast(th.Low-value, th.Low), true
		}
		if value > th.High {
			return th, pctPast(value-th.High, th.High), true
		}
	}
	return th, 0, false
}

func pctPast(delta, limit float64) float64 {
	if limit == 0 {
		return 0
	}
	return roundTo(delta/limit*100, 1)
}
