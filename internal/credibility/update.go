// Package credibility maintains per-contributor trust profiles from
// reconciliation results: lifetime accuracy counters, per-field match ratios,
// and a derived reliability tier.
package credibility

import (
	"time"

	"github.com/fullstackslife/guild-scout-reports/internal/model"
)

// UpdateProfile folds one reconciliation result into a profile and returns
// the updated copy. The input is not mutated; all effectful work (the read
// and the persist) stays at the Accumulator boundary so this function is the
// whole of the profile math.
func UpdateProfile(old model.CredibilityProfile, result *model.ReconciliationResult, accuracyThreshold float64, now time.Time) model.CredibilityProfile {
	updated := old

	updated.TotalEntries = old.TotalEntries + 1
	if result.OverallMatchPercent >= accuracyThreshold {
		updated.AccurateEntries = old.AccurateEntries + 1
	}
	updated.Derive()
	updated.FieldAccuracy = mergeFieldAccuracy(old.FieldAccuracy, result)
	updated.LastCalculatedAt = now

	return updated
}

// mergeFieldAccuracy advances the lifetime (matches, total) counters for
// every field the reconciliation compared. Counters are raw counts, not a
// decayed average: the stored ratio is always matches/total over the full
// history. The input map is copied, never mutated.
func mergeFieldAccuracy(old map[string]model.FieldStat, result *model.ReconciliationResult) map[string]model.FieldStat {
	if len(old) == 0 && len(result.Fields) == 0 {
		return nil
	}

	merged := make(map[string]model.FieldStat, len(old)+len(result.Fields))
	for name, stat := range old {
		merged[name] = stat
	}
	for name, cmp := range result.Fields {
		stat := merged[name]
		stat.Total++
		if cmp.Match {
			stat.Matches++
		}
		merged[name] = stat
	}
	return merged
}
