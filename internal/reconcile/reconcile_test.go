package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fullstackslife/guild-scout-reports/internal/model"
)

func TestReconcile_AllFieldsAbsent(t *testing.T) {
	e := NewEngine()

	result := e.Reconcile(&model.ScoutReport{}, &model.ScoutReport{})
	assert.Equal(t, 0, result.FieldsCompared)
	assert.Equal(t, 0.0, result.OverallMatchPercent)
	assert.True(t, result.NoSignal())
	assert.Empty(t, result.Fields)
}

func TestReconcile_ParsedEntirelyAbsent(t *testing.T) {
	e := NewEngine()

	manual := &model.ScoutReport{
		Might:         model.Num(5_000_000),
		LeaderPresent: model.Flag(true),
	}

	// Extraction failed upstream: every parsed field is nil. Fields present
	// on the manual side alone still count as compared (and differed).
	result := e.Reconcile(manual, &model.ScoutReport{})
	assert.Equal(t, 2, result.FieldsCompared)
	assert.Equal(t, 0, result.MatchingFields)
	assert.Equal(t, 0.0, result.OverallMatchPercent)
	assert.False(t, result.NoSignal())
	assert.ElementsMatch(t, []string{"might", "leader_present"}, result.DifferedFields)
}

func TestReconcile_ScenarioA_AllMatch(t *testing.T) {
	e := NewEngine()

	manual := &model.ScoutReport{
		Might:         model.Num(5_000_000),
		LeaderPresent: model.Flag(true),
	}
	parsed := &model.ScoutReport{
		Might:         model.Num(5_010_000), // 0.2% delta, under the 1% band
		LeaderPresent: model.Flag(true),
	}

	result := e.Reconcile(manual, parsed)
	assert.Equal(t, 2, result.FieldsCompared)
	assert.Equal(t, 2, result.MatchingFields)
	assert.Equal(t, 100.00, result.OverallMatchPercent)
	assert.Empty(t, result.DifferedFields)
	assert.Empty(t, result.UserCorrections)

	cmp := result.Fields["might"]
	assert.True(t, cmp.Match)
	require.NotNil(t, cmp.Difference)
	assert.Equal(t, float64(10_000), *cmp.Difference)
}

func TestReconcile_ScenarioB_SingleMismatch(t *testing.T) {
	e := NewEngine()

	manual := &model.ScoutReport{WallHP: model.Num(200_000)}
	parsed := &model.ScoutReport{WallHP: model.Num(150_000)}

	result := e.Reconcile(manual, parsed)
	assert.Equal(t, 1, result.FieldsCompared)
	assert.Equal(t, 0.00, result.OverallMatchPercent)
	assert.Equal(t, []string{"wall_hp"}, result.DifferedFields)
}

func TestReconcile_UserCorrections(t *testing.T) {
	e := NewEngine()

	manual := &model.ScoutReport{
		TargetName: model.Text("IronKeep"),
		WallHP:     model.Num(200_000),
		TrapCount:  nil, // absent on manual side
	}
	parsed := &model.ScoutReport{
		TargetName: model.Text("lronKeep"), // OCR confused I with l
		WallHP:     model.Num(150_000),
		TrapCount:  model.Num(40),
	}

	result := e.Reconcile(manual, parsed)
	assert.Equal(t, 3, result.FieldsCompared)

	// The manual value is ground truth on disagreement, but only fields the
	// contributor actually filled in become corrections.
	require.Len(t, result.UserCorrections, 2)
	assert.Equal(t, "IronKeep", result.UserCorrections["target_name"])
	assert.Equal(t, float64(200_000), result.UserCorrections["wall_hp"])
	assert.NotContains(t, result.UserCorrections, "trap_count")

	assert.Equal(t, []string{"target_name", "trap_count", "wall_hp"}, result.DifferedFields)
}

func TestReconcile_BothAbsentExcludedFromDenominator(t *testing.T) {
	e := NewEngine()

	manual := &model.ScoutReport{Might: model.Num(1_000_000)}
	parsed := &model.ScoutReport{Might: model.Num(1_000_000)}

	result := e.Reconcile(manual, parsed)
	assert.Equal(t, 1, result.FieldsCompared, "the other ~30 both-absent fields must not count")
	assert.NotContains(t, result.Fields, "wall_hp")
	assert.Equal(t, 100.00, result.OverallMatchPercent)
}

func TestReconcile_PercentageRounding(t *testing.T) {
	e := NewEngine()

	// 2 of 3 fields match: 66.666... rounds to 66.67.
	manual := &model.ScoutReport{
		Might:         model.Num(1_000_000),
		LeaderPresent: model.Flag(true),
		WallHP:        model.Num(200_000),
	}
	parsed := &model.ScoutReport{
		Might:         model.Num(1_000_000),
		LeaderPresent: model.Flag(true),
		WallHP:        model.Num(150_000),
	}

	result := e.Reconcile(manual, parsed)
	assert.Equal(t, 3, result.FieldsCompared)
	assert.Equal(t, 66.67, result.OverallMatchPercent)
}

func TestReconcile_Deterministic(t *testing.T) {
	e := NewEngine()

	manual := &model.ScoutReport{
		TargetName:     model.Text("IronKeep"),
		Might:          model.Num(3_000_000),
		TroopBreakdown: model.Text(`{"infantry": 10000}`),
		Food:           model.Num(250_000),
		WorthRaiding:   model.Flag(true),
	}
	parsed := &model.ScoutReport{
		TargetName:     model.Text("ironkeep"),
		Might:          model.Num(3_100_000),
		TroopBreakdown: model.Text(`{"infantry": 10000}`),
		Food:           model.Num(251_000),
		WorthRaiding:   model.Flag(false),
	}

	first := e.Reconcile(manual, parsed)
	second := e.Reconcile(manual, parsed)
	assert.Equal(t, first.OverallMatchPercent, second.OverallMatchPercent)
	assert.Equal(t, first.DifferedFields, second.DifferedFields)
	assert.Equal(t, first.Fields, second.Fields)
}

func TestReconcile_NilRecords(t *testing.T) {
	e := NewEngine()

	result := e.Reconcile(nil, nil)
	assert.True(t, result.NoSignal())

	manual := &model.ScoutReport{Might: model.Num(1_000_000)}
	result = e.Reconcile(manual, nil)
	assert.Equal(t, 1, result.FieldsCompared)
	assert.Equal(t, 0.0, result.OverallMatchPercent)
}
