package credibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fullstackslife/guild-scout-reports/internal/model"
)

func resultWithPercent(pct float64, fields map[string]bool) *model.ReconciliationResult {
	r := &model.ReconciliationResult{
		Fields:              make(map[string]model.FieldComparison),
		OverallMatchPercent: pct,
	}
	for name, match := range fields {
		r.Fields[name] = model.FieldComparison{Match: match}
		r.FieldsCompared++
		if match {
			r.MatchingFields++
		}
	}
	return r
}

func TestUpdateProfile_FirstObservation(t *testing.T) {
	now := time.Now().UTC()
	result := resultWithPercent(100, map[string]bool{"might": true})

	updated := UpdateProfile(model.CredibilityProfile{}, result, 80, now)
	assert.Equal(t, 1, updated.TotalEntries)
	assert.Equal(t, 1, updated.AccurateEntries)
	assert.Equal(t, 100.0, updated.AccuracyPercent)
	assert.Equal(t, model.TierNew, updated.Tier)
	assert.Equal(t, now, updated.LastCalculatedAt)
	assert.Equal(t, model.FieldStat{Matches: 1, Total: 1}, updated.FieldAccuracy["might"])
}

func TestUpdateProfile_AccuracyThreshold(t *testing.T) {
	now := time.Now().UTC()

	atThreshold := UpdateProfile(model.CredibilityProfile{}, resultWithPercent(80, nil), 80, now)
	assert.Equal(t, 1, atThreshold.AccurateEntries, "80 percent is accurate")

	below := UpdateProfile(model.CredibilityProfile{}, resultWithPercent(79.99, nil), 80, now)
	assert.Equal(t, 0, below.AccurateEntries)
}

func TestUpdateProfile_InvariantAccurateNeverExceedsTotal(t *testing.T) {
	now := time.Now().UTC()
	p := model.CredibilityProfile{}
	for i := 0; i < 50; i++ {
		pct := float64(i * 2)
		p = UpdateProfile(p, resultWithPercent(pct, nil), 80, now)
		assert.LessOrEqual(t, p.AccurateEntries, p.TotalEntries)
	}
	assert.Equal(t, 50, p.TotalEntries)
}

func TestUpdateProfile_ScenarioC_TierProgression(t *testing.T) {
	now := time.Now().UTC()
	p := model.CredibilityProfile{}

	// Four submissions: tier stays "new" regardless of scores.
	for i := 0; i < 4; i++ {
		p = UpdateProfile(p, resultWithPercent(100, nil), 80, now)
		assert.Equal(t, model.TierNew, p.Tier)
	}

	// 21st submission at ~96% lifetime accuracy lands on expert: run the
	// contributor to 20 accurate of 21 total.
	for i := 4; i < 21; i++ {
		pct := 100.0
		if i == 10 {
			pct = 20 // one bad submission keeps accuracy at 20/21 = 95.2%
		}
		p = UpdateProfile(p, resultWithPercent(pct, nil), 80, now)
	}
	assert.Equal(t, 21, p.TotalEntries)
	assert.Equal(t, 20, p.AccurateEntries)
	assert.InDelta(t, 95.24, p.AccuracyPercent, 0.01)
	assert.Equal(t, model.TierExpert, p.Tier)
}

func TestUpdateProfile_DoesNotMutateInput(t *testing.T) {
	now := time.Now().UTC()
	old := model.CredibilityProfile{
		TotalEntries:    5,
		AccurateEntries: 4,
		FieldAccuracy:   map[string]model.FieldStat{"might": {Matches: 3, Total: 5}},
	}

	updated := UpdateProfile(old, resultWithPercent(100, map[string]bool{"might": true}), 80, now)

	assert.Equal(t, 5, old.TotalEntries)
	assert.Equal(t, model.FieldStat{Matches: 3, Total: 5}, old.FieldAccuracy["might"])
	assert.Equal(t, 6, updated.TotalEntries)
	assert.Equal(t, model.FieldStat{Matches: 4, Total: 6}, updated.FieldAccuracy["might"])
}

func TestMergeFieldAccuracy_LifetimeCounts(t *testing.T) {
	now := time.Now().UTC()
	p := model.CredibilityProfile{}

	// might matches 3 of 4 times; wall_hp matches once and is then absent.
	outcomes := []map[string]bool{
		{"might": true, "wall_hp": true},
		{"might": true},
		{"might": false},
		{"might": true},
	}
	for _, fields := range outcomes {
		p = UpdateProfile(p, resultWithPercent(100, fields), 80, now)
	}

	require.Contains(t, p.FieldAccuracy, "might")
	assert.Equal(t, model.FieldStat{Matches: 3, Total: 4}, p.FieldAccuracy["might"])
	assert.Equal(t, model.FieldStat{Matches: 1, Total: 1}, p.FieldAccuracy["wall_hp"])
	assert.InDelta(t, 0.75, p.FieldAccuracy["might"].Ratio(), 1e-9)
}
