package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Alert is a threshold crossing derived from a freshly ingested reading.
// Alerts are advisory fan-out, not cache contents: they are published to
// the alert topic and never stored in a snapshot.
type Alert struct {
	ID         string    `json:"id"`
	SiteID     string    `json:"site_id"`
	Parameter  string    `json:"parameter"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit,omitempty"`
	Limit      float64   `json:"limit"`
	PctOver    float64   `json:"pct_over"`
	SampleDate string    `json:"sample_date"`
	State      string    `json:"state"`
	CellKey    string    `json:"cell_key"`
	DetectedAt time.Time `json:"detected_at"`
}

// DeriveAlerts screens readings against the threshold table and returns one
// alert per exceeding reading. Input order is preserved.
func DeriveAlerts(readings []Reading) []Alert {
	var alerts []Alert
	for _, r := range readings {
		th, pct, exceeded := EvaluateThreshold(r.Parameter, r.Value)
		if !exceeded {
			continue
		}
		limit := th.Limit
		if th.Kind == ThresholdRange {
			// Report the violated edge of the band.
			limit = th.Low
			if r.Value > th.High {
				limit = th.High
			}
		}
		alerts = append(alerts, Alert{
			ID:         alertID(r.SiteID, r.Parameter, r.SampleDate, r.Value),
			SiteID:     r.SiteID,
			Parameter:  r.Parameter,
			Value:      r.Value,
			Unit:       r.Unit,
			Limit:      limit,
			PctOver:    pct,
			SampleDate: r.SampleDate,
			State:      r.State,
			CellKey:    GridKeyFor(r),
			DetectedAt: clock.Now().UTC(),
		})
	}
	return alerts
}

// alertID produces a deterministic short identifier from the reading
// identity fields, so re-ingesting the same exceedance yields the same
// alert ID and consumers can dedupe.
func alertID(siteID, param, sampleDate string, value float64) string {
	seed := fmt.Sprintf("%s|%s|%s|%g", siteID, param, sampleDate, value)
	sum := sha256.Sum256([]byte(seed))
	return "alert-" + hex.EncodeToString(sum[:])[:8]
}
