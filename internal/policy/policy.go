// Package policy holds the tolerance parameters the field comparator runs
// under. Defaults reproduce the scout-report comparison rules exactly; a YAML
// file can override them per deployment or per field.
package policy

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/fullstackslife/guild-scout-reports/internal/model"
)

// Tolerances holds the two-tier numeric tolerance parameters.
type Tolerances struct {
	// LargeMagnitudePct is the relative tolerance (percent) for
	// large-magnitude fields, applied to max(|manual|, |parsed|).
	LargeMagnitudePct float64 `yaml:"large_magnitude_pct" mapstructure:"large_magnitude_pct"`
	// DefaultPct is the relative tolerance (percent) for all other numeric
	// fields, applied to |manual|.
	DefaultPct float64 `yaml:"default_pct" mapstructure:"default_pct"`
	// AbsoluteFloor keeps small numbers from being over-strict: the default
	// tier's tolerance is never below this.
	AbsoluteFloor float64 `yaml:"absolute_floor" mapstructure:"absolute_floor"`
}

// FieldOverride overrides tolerance parameters for one named field.
type FieldOverride struct {
	RelativePct   *float64 `yaml:"relative_pct,omitempty"`
	AbsoluteFloor *float64 `yaml:"absolute_floor,omitempty"`
}

// Policy is the full comparison and accuracy policy.
type Policy struct {
	// AccuracyThreshold is the overall match percentage at or above which a
	// submission counts as accurate for credibility purposes.
	AccuracyThreshold float64                  `yaml:"accuracy_threshold" mapstructure:"accuracy_threshold"`
	Tolerances        Tolerances               `yaml:"tolerances" mapstructure:"tolerances"`
	Fields            map[string]FieldOverride `yaml:"fields,omitempty" mapstructure:"fields"`
}

// Default returns the canonical policy: 1% relative tolerance on
// large-magnitude fields, max(5%, 100) on other numerics, 80% accuracy
// threshold.
func Default() Policy {
	return Policy{
		AccuracyThreshold: 80,
		Tolerances: Tolerances{
			LargeMagnitudePct: 1,
			DefaultPct:        5,
			AbsoluteFloor:     100,
		},
	}
}

// Load reads a policy file and applies defaults for anything unset. An empty
// path returns Default().
func Load(path string) (Policy, error) {
	p := Default()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return p, eris.Wrapf(err, "policy: read %s", path)
	}

	var wrapper struct {
		Policy Policy `yaml:"policy"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return p, eris.Wrap(err, "policy: parse")
	}

	loaded := wrapper.Policy
	if loaded.AccuracyThreshold > 0 {
		p.AccuracyThreshold = loaded.AccuracyThreshold
	}
	if loaded.Tolerances.LargeMagnitudePct > 0 {
		p.Tolerances.LargeMagnitudePct = loaded.Tolerances.LargeMagnitudePct
	}
	if loaded.Tolerances.DefaultPct > 0 {
		p.Tolerances.DefaultPct = loaded.Tolerances.DefaultPct
	}
	if loaded.Tolerances.AbsoluteFloor > 0 {
		p.Tolerances.AbsoluteFloor = loaded.Tolerances.AbsoluteFloor
	}
	p.Fields = loaded.Fields

	return p, nil
}

// ForField resolves the relative percentage and absolute floor for a field.
// Large-magnitude fields have no floor unless a per-field override sets one.
func (p Policy) ForField(spec model.FieldSpec) (relPct, absFloor float64) {
	if spec.LargeMagnitude {
		relPct, absFloor = p.Tolerances.LargeMagnitudePct, 0
	} else {
		relPct, absFloor = p.Tolerances.DefaultPct, p.Tolerances.AbsoluteFloor
	}
	if ov, ok := p.Fields[spec.Name]; ok {
		if ov.RelativePct != nil {
			relPct = *ov.RelativePct
		}
		if ov.AbsoluteFloor != nil {
			absFloor = *ov.AbsoluteFloor
		}
	}
	return relPct, absFloor
}
