// Package compare implements the per-field comparator for scout report
// reconciliation. Comparison is pure: no I/O, no errors, identical inputs
// always produce identical outcomes.
package compare

import (
	"math"
	"reflect"

	"github.com/fullstackslife/guild-scout-reports/internal/model"
	"github.com/fullstackslife/guild-scout-reports/internal/policy"
)

// Outcome is the result of comparing one field's two values.
type Outcome struct {
	Match bool
	// Difference is |manual - parsed|, set whenever both sides carried a
	// numeric value, whether or not they matched.
	Difference *float64
}

// Comparator compares field values under a tolerance policy.
type Comparator struct {
	policy policy.Policy
}

// New creates a Comparator. A zero-valued policy is replaced with the
// canonical defaults.
func New(p policy.Policy) *Comparator {
	if p.Tolerances == (policy.Tolerances{}) {
		p = policy.Default()
	}
	return &Comparator{policy: p}
}

// Compare evaluates one field. Absence handling comes first: both absent is a
// match the caller must exclude from totals; exactly one absent is a mismatch.
func (c *Comparator) Compare(spec model.FieldSpec, manual, parsed any) Outcome {
	if manual == nil && parsed == nil {
		return Outcome{Match: true}
	}
	if manual == nil || parsed == nil {
		return Outcome{Match: false}
	}

	switch spec.Kind {
	case model.KindNumeric:
		m, mok := manual.(float64)
		p, pok := parsed.(float64)
		if mok && pok {
			return c.compareNumeric(spec, m, p)
		}
	case model.KindBool:
		m, mok := manual.(bool)
		p, pok := parsed.(bool)
		if mok && pok {
			return Outcome{Match: m == p}
		}
	case model.KindText:
		m, mok := manual.(string)
		p, pok := parsed.(string)
		if mok && pok {
			return Outcome{Match: normalizeText(m) == normalizeText(p)}
		}
	case model.KindStructuredText:
		m, mok := manual.(string)
		p, pok := parsed.(string)
		if mok && pok {
			return Outcome{Match: compareStructured(m, p)}
		}
	}

	// Unrecognized type pairing: strict equality.
	return Outcome{Match: reflect.DeepEqual(manual, parsed)}
}

func (c *Comparator) compareNumeric(spec model.FieldSpec, manual, parsed float64) Outcome {
	diff := math.Abs(manual - parsed)

	relPct, absFloor := c.policy.ForField(spec)
	// Large-magnitude fields measure against the larger side; the default
	// tier measures against the manual entry.
	base := math.Abs(manual)
	if spec.LargeMagnitude {
		base = math.Max(math.Abs(manual), math.Abs(parsed))
	}
	tolerance := math.Max(relPct/100*base, absFloor)

	return Outcome{Match: diff <= tolerance, Difference: &diff}
}

// compareStructured deep-compares two serialized values when both parse;
// any parse failure degrades to normalized text comparison.
func compareStructured(manual, parsed string) bool {
	m := ParseText(manual)
	p := ParseText(parsed)
	if m.IsStructured() && p.IsStructured() {
		return reflect.DeepEqual(m.Structured, p.Structured)
	}
	return m.Normalized() == p.Normalized()
}
