package domain

// RecordKind identifies one of the canonical record families produced by
// normalization. The set is closed: every upstream endpoint maps to exactly
// one kind, and the cache groups cell contents by it.
type RecordKind string

const (
	KindPermit      RecordKind = "permit"
	KindViolation   RecordKind = "violation"
	KindMonitoring  RecordKind = "monitoring"
	KindEnforcement RecordKind = "enforcement"
	KindSite        RecordKind = "site"
	KindReading     RecordKind = "reading"
)

// ComplianceKinds lists the record kinds produced by the compliance source,
// in endpoint order.
var ComplianceKinds = []RecordKind{KindPermit, KindViolation, KindMonitoring, KindEnforcement}

// WaterQualityKinds lists the record kinds produced by the water-quality
// source, in endpoint order.
var WaterQualityKinds = []RecordKind{KindSite, KindReading}

// Record is implemented by every canonical record kind. DedupeKey is the
// collision identity used to collapse duplicates, RefKey the business
// identifier used for cross-record lookups (permit number, site ID), and
// Partition the jurisdiction code the record belongs to.
type Record interface {
	Kind() RecordKind
	DedupeKey() string
	RefKey() string
	Partition() string
	Coords() (lat, lng float64)
}

// Permit is an individual discharge permit. Permits frequently arrive
// without coordinates; they are still kept and parked in the placeholder
// grid cell so permit lookups never lose them.
type Permit struct {
	PermitNumber   string  `json:"permit_number"`
	FacilityName   string  `json:"facility_name,omitempty"`
	PermitType     string  `json:"permit_type,omitempty"`
	PermitStatus   string  `json:"permit_status,omitempty"`
	IssueDate      string  `json:"issue_date,omitempty"`
	ExpirationDate string  `json:"expiration_date,omitempty"`
	State          string  `json:"state"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
}

func (p Permit) Kind() RecordKind { return KindPermit }

func (p Permit) DedupeKey() string { return p.PermitNumber }

func (p Permit) RefKey() string { return p.PermitNumber }

func (p Permit) Partition() string { return p.State }

func (p Permit) Coords() (float64, float64) { return p.Lat, p.Lng }

// Violation is a single recorded permit violation event.
type Violation struct {
	PermitNumber  string  `json:"permit_number"`
	FacilityName  string  `json:"facility_name,omitempty"`
	ViolationCode string  `json:"violation_code"`
	Description   string  `json:"description,omitempty"`
	ViolationDate string  `json:"violation_date"`
	State         string  `json:"state"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
}

func (v Violation) Kind() RecordKind { return KindViolation }

func (v Violation) DedupeKey() string {
	return v.PermitNumber + "|" + v.ViolationCode + "|" + v.ViolationDate
}

func (v Violation) RefKey() string { return v.PermitNumber }

func (v Violation) Partition() string { return v.State }

func (v Violation) Coords() (float64, float64) { return v.Lat, v.Lng }

// MonitoringValue is one self-reported discharge measurement for a permit
// over a reporting period.
type MonitoringValue struct {
	PermitNumber string  `json:"permit_number"`
	Parameter    string  `json:"parameter"`
	Value        float64 `json:"value"`
	Unit         string  `json:"unit,omitempty"`
	Period       string  `json:"period"`
	State        string  `json:"state"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
}

func (m MonitoringValue) Kind() RecordKind { return KindMonitoring }

func (m MonitoringValue) DedupeKey() string {
	return m.PermitNumber + "|" + m.Parameter + "|" + m.Period
}

func (m MonitoringValue) RefKey() string { return m.PermitNumber }

func (m MonitoringValue) Partition() string { return m.State }

func (m MonitoringValue) Coords() (float64, float64) { return m.Lat, m.Lng }

// Enforcement is a formal enforcement action taken against a permit holder.
type Enforcement struct {
	CaseNumber     string  `json:"case_number"`
	PermitNumber   string  `json:"permit_number,omitempty"`
	ActionType     string  `json:"action_type,omitempty"`
	SettlementDate string  `json:"settlement_date,omitempty"`
	PenaltyAmount  float64 `json:"penalty_amount,omitempty"`
	State          string  `json:"state"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
}

func (e Enforcement) Kind() RecordKind { return KindEnforcement }

func (e Enforcement) DedupeKey() string { return e.CaseNumber }

func (e Enforcement) RefKey() string { return e.PermitNumber }

func (e Enforcement) Partition() string { return e.State }

func (e Enforcement) Coords() (float64, float64) { return e.Lat, e.Lng }

// Site is a water-quality monitoring station.
type Site struct {
	SiteID       string  `json:"site_id"`
	Name         string  `json:"name,omitempty"`
	Organization string  `json:"organization,omitempty"`
	SiteType     string  `json:"site_type,omitempty"`
	State        string  `json:"state"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
}

func (s Site) Kind() RecordKind { return KindSite }

func (s Site) DedupeKey() string { return s.SiteID }

func (s Site) RefKey() string { return s.SiteID }

func (s Site) Partition() string { return s.State }

func (s Site) Coords() (float64, float64) { return s.Lat, s.Lng }

// Reading is one sampled measurement at a monitoring site. Parameter is the
// canonical parameter key (see ParameterCategory); Characteristic preserves
// the upstream free-text name.
type Reading struct {
	SiteID         string  `json:"site_id"`
	Parameter      string  `json:"parameter"`
	Characteristic string  `json:"characteristic,omitempty"`
	Value          float64 `json:"value"`
	Unit           string  `json:"unit,omitempty"`
	SampleDate     string  `json:"sample_date"`
	State          string  `json:"state"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
}

func (r Reading) Kind() RecordKind { return KindReading }

// DedupeKey deliberately excludes the sample date: the cache keeps only the
// most recent measurement per site and parameter, selected by the
// latest-first pre-sort in DedupeKind.
func (r Reading) DedupeKey() string {
	return r.SiteID + "|" + r.Parameter
}

func (r Reading) RefKey() string { return r.SiteID }

func (r Reading) Partition() string { return r.State }

func (r Reading) Coords() (float64, float64) { return r.Lat, r.Lng }
