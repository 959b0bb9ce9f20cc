package model

import "time"

// ReliabilityTier is a contributor's derived trust classification. It is
// always recomputed from (accuracy, total entries), never stored on its own.
type ReliabilityTier string

const (
	TierNew              ReliabilityTier = "new"
	TierNeedsImprovement ReliabilityTier = "needs_improvement"
	TierGood             ReliabilityTier = "good"
	TierReliable         ReliabilityTier = "reliable"
	TierExpert           ReliabilityTier = "expert"
)

// FieldStat holds the lifetime match counters for one field. Raw counts are
// persisted so the ratio never drifts across updates.
type FieldStat struct {
	Matches int `json:"matches"`
	Total   int `json:"total"`
}

// Ratio returns matches/total in [0,1], 0 when total is 0.
func (s FieldStat) Ratio() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Matches) / float64(s.Total)
}

// CredibilityProfile is a contributor's running accuracy history, optionally
// scoped to a guild. An empty Guild means the global profile.
type CredibilityProfile struct {
	ID               string               `json:"id"`
	ContributorID    string               `json:"contributor_id"`
	Guild            string               `json:"guild,omitempty"`
	TotalEntries     int                  `json:"total_entries"`
	AccurateEntries  int                  `json:"accurate_entries"`
	AccuracyPercent  float64              `json:"accuracy_percentage"`
	Tier             ReliabilityTier      `json:"reliability_tier"`
	FieldAccuracy    map[string]FieldStat `json:"field_accuracy,omitempty"`
	LastCalculatedAt time.Time            `json:"last_calculated_at"`
}

// FieldRatios derives the per-field ratio map from the stored raw counts.
func (p *CredibilityProfile) FieldRatios() map[string]float64 {
	if len(p.FieldAccuracy) == 0 {
		return nil
	}
	ratios := make(map[string]float64, len(p.FieldAccuracy))
	for name, stat := range p.FieldAccuracy {
		ratios[name] = stat.Ratio()
	}
	return ratios
}
