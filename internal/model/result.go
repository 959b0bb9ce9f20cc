package model

import "time"

// FieldComparison is the per-field outcome of one reconciliation.
type FieldComparison struct {
	Manual any  `json:"manual,omitempty"`
	Parsed any  `json:"parsed,omitempty"`
	Match  bool `json:"match"`
	// Difference is |manual - parsed|, set for numeric fields regardless
	// of match outcome.
	Difference *float64 `json:"difference,omitempty"`
}

// ReconciliationResult is the output of reconciling one report pair.
// Both-absent fields are excluded entirely: they appear in neither Fields
// nor any denominator.
type ReconciliationResult struct {
	Fields         map[string]FieldComparison `json:"fields"`
	DifferedFields []string                   `json:"differed_fields,omitempty"`
	// UserCorrections holds the manual value for every differed field where
	// the manual side was present; manual entry is ground truth on
	// disagreement.
	UserCorrections map[string]any `json:"user_corrections,omitempty"`
	FieldsCompared  int            `json:"fields_compared"`
	MatchingFields  int            `json:"matching_fields"`
	// OverallMatchPercent is in [0,100], rounded to 2 decimals. Zero with
	// FieldsCompared == 0 means no validation signal was available, which
	// callers must distinguish from a genuine zero score.
	OverallMatchPercent float64 `json:"overall_match_percentage"`
}

// NoSignal reports whether the reconciliation had nothing to compare
// (e.g. extraction failed upstream and every parsed field was absent).
func (r *ReconciliationResult) NoSignal() bool {
	return r.FieldsCompared == 0
}

// ReconciliationRecord is the persisted form of a reconciliation, keyed by
// caller-supplied identifiers.
type ReconciliationRecord struct {
	ID            string                `json:"id"`
	ReportID      string                `json:"report_id"`
	ContributorID string                `json:"contributor_id"`
	Guild         string                `json:"guild,omitempty"`
	Result        *ReconciliationResult `json:"result"`
	CreatedAt     time.Time             `json:"created_at"`
}
