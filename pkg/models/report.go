package models

import "strings"

// Severity classifies the risk level of a flagged clause.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
)

// ParseSeverity maps a model-provided severity onto the enumeration.
// Unrecognized values fall back to MEDIUM; ok reports whether the input was
// recognized as-is (ignoring case and surrounding whitespace).
func ParseSeverity(s string) (sev Severity, ok bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(SeverityHigh):
		return SeverityHigh, true
	case string(SeverityMedium):
		return SeverityMedium, true
	default:
		return SeverityMedium, false
	}
}

// rank orders severities for display: lower ranks first.
func (s Severity) rank() int {
	if s == SeverityHigh {
		return 0
	}
	return 1
}

// Alert is one flagged clause of the analysed contract.
type Alert struct {
	ClauseText      string   `json:"clause_text"`
	RiskExplanation string   `json:"risk_explanation"`
	Severity        Severity `json:"severity"`
	LegalTerm       string   `json:"legal_term"`
	Suggestion      string   `json:"suggestion"`
}

const (
	MinRiskScore = 0
	MaxRiskScore = 100

	// UnknownValue is used for descriptive fields the model left out.
	UnknownValue = "unknown"
)

// Report is the validated outcome of one contract analysis.
// It is built once by report.Parse and not modified afterwards.
type Report struct {
	Summary      string `json:"summary"`
	ContractType string `json:"contract_type"`
	// RiskScore is in [0, 100]; 100 is the safest contract.
	RiskScore      int      `json:"risk_score"`
	Parties        []string `json:"parties"`
	Duration       string   `json:"duration"`
	CriticalAlerts []Alert  `json:"critical_alerts"`
	// MissingClauses holds unique entries in first-seen order.
	MissingClauses []string `json:"missing_clauses"`
}

// RiskBand is a coarse grouping of RiskScore for renderers.
type RiskBand string

const (
	BandSafe    RiskBand = "safe"
	BandCaution RiskBand = "caution"
	BandDanger  RiskBand = "danger"
)

// Band returns the display band for the report's risk score.
func (r Report) Band() RiskBand {
	switch {
	case r.RiskScore >= 80:
		return BandSafe
	case r.RiskScore >= 50:
		return BandCaution
	default:
		return BandDanger
	}
}

// AlertsBySeverity returns the alerts with HIGH before MEDIUM. Alerts of equal
// severity keep model output order. The receiver is not modified.
func (r Report) AlertsBySeverity() []Alert {
	out := make([]Alert, 0, len(r.CriticalAlerts))
	for _, want := range []Severity{SeverityHigh, SeverityMedium} {
		for _, a := range r.CriticalAlerts {
			if a.Severity.rank() == want.rank() {
				out = append(out, a)
			}
		}
	}
	return out
}

// Quality lists the non-fatal repairs applied while building a Report.
// A zero Quality means the model output was used as-is.
type Quality struct {
	ScoreClamped  bool    `json:"score_clamped"`
	OriginalScore float64 `json:"original_score,omitempty"`
	// DefaultedFields names optional fields that were absent or of the wrong type.
	DefaultedFields []string `json:"defaulted_fields,omitempty"`
	// The index lists below are positions in the model's critical_alerts array.
	NormalizedSeverities []int `json:"normalized_severities,omitempty"` // coerced to MEDIUM
	IncompleteAlerts     []int `json:"incomplete_alerts,omitempty"`     // no clause text or explanation
	SkippedAlerts        []int `json:"skipped_alerts,omitempty"`        // not an object
}

// Clean reports whether no repair was needed.
func (q Quality) Clean() bool {
	return !q.ScoreClamped &&
		len(q.DefaultedFields) == 0 &&
		len(q.NormalizedSeverities) == 0 &&
		len(q.IncompleteAlerts) == 0 &&
		len(q.SkippedAlerts) == 0
}
