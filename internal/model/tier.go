package model

// Entry-count gates for the tier ladder.
const (
	minEntriesRated    = 5  // below this a contributor is always "new"
	minEntriesReliable = 10 // sample size required for "reliable"
	minEntriesExpert   = 20 // sample size required for "expert"
)

// TierFor derives a contributor's reliability tier from lifetime accuracy and
// entry count. The ladder is an ordered predicate chain evaluated top to
// bottom; the first predicate that holds wins. In particular, a contributor
// under five entries is "new" no matter how accurate, and 96% accuracy over
// 15 entries resolves to "reliable", not "expert".
func TierFor(accuracyPercent float64, totalEntries int) ReliabilityTier {
	switch {
	case totalEntries < minEntriesRated:
		return TierNew
	case accuracyPercent >= 95 && totalEntries >= minEntriesExpert:
		return TierExpert
	case accuracyPercent >= 85 && totalEntries >= minEntriesReliable:
		return TierReliable
	case accuracyPercent >= 70:
		return TierGood
	default:
		return TierNeedsImprovement
	}
}

// Derive recomputes the accuracy percentage and reliability tier from the
// raw counters. Both are pure functions of (accurate, total) and are never
// trusted from storage.
func (p *CredibilityProfile) Derive() {
	if p.TotalEntries == 0 {
		p.AccuracyPercent = 0
	} else {
		p.AccuracyPercent = float64(p.AccurateEntries) / float64(p.TotalEntries) * 100
	}
	p.Tier = TierFor(p.AccuracyPercent, p.TotalEntries)
}
