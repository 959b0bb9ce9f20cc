// Package reconcile runs the field comparator across the fixed scout report
// contract, producing one ReconciliationResult per report pair.
package reconcile

import (
	"math"
	"sort"

	"github.com/fullstackslife/guild-scout-reports/internal/compare"
	"github.com/fullstackslife/guild-scout-reports/internal/model"
	"github.com/fullstackslife/guild-scout-reports/internal/policy"
)

// Engine reconciles report pairs. Reconciliation is deterministic and
// side-effect free; an Engine is safe for concurrent use.
type Engine struct {
	registry   *model.FieldRegistry
	comparator *compare.Comparator
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry replaces the default field contract.
func WithRegistry(r *model.FieldRegistry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithPolicy sets the tolerance policy.
func WithPolicy(p policy.Policy) Option {
	return func(e *Engine) { e.comparator = compare.New(p) }
}

// NewEngine creates an Engine over the fixed scout report contract with the
// canonical tolerance policy.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		registry:   model.Contract(),
		comparator: compare.New(policy.Default()),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reconcile compares a manual report against its parsed counterpart.
//
// Fields absent on both sides are skipped entirely. A parsed report with
// every field absent is valid input and yields FieldsCompared == 0 with an
// overall percentage of 0; callers must treat that as "no validation signal",
// not a zero score.
func (e *Engine) Reconcile(manual, parsed *model.ScoutReport) *model.ReconciliationResult {
	result := &model.ReconciliationResult{
		Fields: make(map[string]model.FieldComparison),
	}

	for _, spec := range e.registry.Fields {
		manualVal := spec.Value(manual)
		parsedVal := spec.Value(parsed)
		if manualVal == nil && parsedVal == nil {
			continue
		}

		outcome := e.comparator.Compare(spec, manualVal, parsedVal)
		result.Fields[spec.Name] = model.FieldComparison{
			Manual:     manualVal,
			Parsed:     parsedVal,
			Match:      outcome.Match,
			Difference: outcome.Difference,
		}
		result.FieldsCompared++

		if outcome.Match {
			result.MatchingFields++
			continue
		}

		result.DifferedFields = append(result.DifferedFields, spec.Name)
		if manualVal != nil {
			if result.UserCorrections == nil {
				result.UserCorrections = make(map[string]any)
			}
			result.UserCorrections[spec.Name] = manualVal
		}
	}

	if result.FieldsCompared > 0 {
		pct := float64(result.MatchingFields) / float64(result.FieldsCompared) * 100
		result.OverallMatchPercent = math.Round(pct*100) / 100
	}

	sort.Strings(result.DifferedFields)

	return result
}
