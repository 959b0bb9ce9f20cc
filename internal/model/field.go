package model

// FieldKind classifies how a field's two values are compared.
type FieldKind string

const (
	KindNumeric        FieldKind = "numeric"
	KindBool           FieldKind = "bool"
	KindText           FieldKind = "text"
	KindStructuredText FieldKind = "structured_text"
)

// FieldCategory groups fields on the scout report form.
type FieldCategory string

const (
	CategoryIdentity FieldCategory = "identity"
	CategoryDefense  FieldCategory = "defense"
	CategoryArmy     FieldCategory = "army"
	CategoryDamage   FieldCategory = "damage"
	CategoryEconomy  FieldCategory = "economy"
)

// FieldSpec describes one field of the fixed report contract.
type FieldSpec struct {
	Name     string        `json:"name"`
	Kind     FieldKind     `json:"kind"`
	Category FieldCategory `json:"category"`
	// LargeMagnitude marks numeric fields that use the tight relative
	// tolerance (power rating, structure health, total troop count).
	LargeMagnitude bool `json:"large_magnitude,omitempty"`

	get func(*ScoutReport) any
}

// Value extracts this field's value from a report. Returns nil when the
// report is nil or the field is unset.
func (f FieldSpec) Value(r *ScoutReport) any {
	if r == nil || f.get == nil {
		return nil
	}
	return f.get(r)
}

// FieldRegistry is the fixed, ordered field contract shared by manual and
// parsed reports, with keyed lookup.
type FieldRegistry struct {
	Fields []FieldSpec
	byName map[string]*FieldSpec
}

// NewFieldRegistry indexes the given specs by name.
func NewFieldRegistry(fields []FieldSpec) *FieldRegistry {
	r := &FieldRegistry{
		Fields: fields,
		byName: make(map[string]*FieldSpec, len(fields)),
	}
	for i := range r.Fields {
		r.byName[r.Fields[i].Name] = &r.Fields[i]
	}
	return r
}

// ByName returns the spec for the given field name, or nil.
func (r *FieldRegistry) ByName(name string) *FieldSpec {
	return r.byName[name]
}

// Len returns the number of fields in the contract.
func (r *FieldRegistry) Len() int { return len(r.Fields) }

func numField(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func boolField(v *bool) any {
	if v == nil {
		return nil
	}
	return *v
}

func textField(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

// Contract returns the fixed scout report field contract.
func Contract() *FieldRegistry {
	return NewFieldRegistry([]FieldSpec{
		// Identity
		{Name: "target_name", Kind: KindText, Category: CategoryIdentity,
			get: func(r *ScoutReport) any { return textField(r.TargetName) }},
		{Name: "target_guild", Kind: KindText, Category: CategoryIdentity,
			get: func(r *ScoutReport) any { return textField(r.TargetGuild) }},
		{Name: "coordinates", Kind: KindText, Category: CategoryIdentity,
			get: func(r *ScoutReport) any { return textField(r.Coordinates) }},
		{Name: "might", Kind: KindNumeric, Category: CategoryIdentity, LargeMagnitude: true,
			get: func(r *ScoutReport) any { return numField(r.Might) }},
		{Name: "leader_present", Kind: KindBool, Category: CategoryIdentity,
			get: func(r *ScoutReport) any { return boolField(r.LeaderPresent) }},
		{Name: "anti_scout_active", Kind: KindBool, Category: CategoryIdentity,
			get: func(r *ScoutReport) any { return boolField(r.AntiScoutActive) }},

		// Defense
		{Name: "wall_hp", Kind: KindNumeric, Category: CategoryDefense, LargeMagnitude: true,
			get: func(r *ScoutReport) any { return numField(r.WallHP) }},
		{Name: "trap_count", Kind: KindNumeric, Category: CategoryDefense,
			get: func(r *ScoutReport) any { return numField(r.TrapCount) }},
		{Name: "trap_types", Kind: KindStructuredText, Category: CategoryDefense,
			get: func(r *ScoutReport) any { return textField(r.TrapTypes) }},
		{Name: "defending_hero_count", Kind: KindNumeric, Category: CategoryDefense,
			get: func(r *ScoutReport) any { return numField(r.DefendingHeroCount) }},
		{Name: "defending_hero_details", Kind: KindStructuredText, Category: CategoryDefense,
			get: func(r *ScoutReport) any { return textField(r.DefendingHeroDetails) }},
		{Name: "familiar_info", Kind: KindStructuredText, Category: CategoryDefense,
			get: func(r *ScoutReport) any { return textField(r.FamiliarInfo) }},
		{Name: "active_boosts", Kind: KindStructuredText, Category: CategoryDefense,
			get: func(r *ScoutReport) any { return textField(r.ActiveBoosts) }},

		// Army
		{Name: "total_troops", Kind: KindNumeric, Category: CategoryArmy, LargeMagnitude: true,
			get: func(r *ScoutReport) any { return numField(r.TotalTroops) }},
		{Name: "troop_breakdown", Kind: KindStructuredText, Category: CategoryArmy,
			get: func(r *ScoutReport) any { return textField(r.TroopBreakdown) }},
		{Name: "reinforcement_count", Kind: KindNumeric, Category: CategoryArmy,
			get: func(r *ScoutReport) any { return numField(r.ReinforcementCount) }},
		{Name: "reinforcement_details", Kind: KindStructuredText, Category: CategoryArmy,
			get: func(r *ScoutReport) any { return textField(r.ReinforcementDetails) }},
		{Name: "garrison_count", Kind: KindNumeric, Category: CategoryArmy,
			get: func(r *ScoutReport) any { return numField(r.GarrisonCount) }},
		{Name: "garrison_details", Kind: KindStructuredText, Category: CategoryArmy,
			get: func(r *ScoutReport) any { return textField(r.GarrisonDetails) }},
		{Name: "coalition_present", Kind: KindBool, Category: CategoryArmy,
			get: func(r *ScoutReport) any { return boolField(r.CoalitionPresent) }},
		{Name: "coalition_details", Kind: KindStructuredText, Category: CategoryArmy,
			get: func(r *ScoutReport) any { return textField(r.CoalitionDetails) }},

		// Recent damage
		{Name: "wounded_count", Kind: KindNumeric, Category: CategoryDamage,
			get: func(r *ScoutReport) any { return numField(r.WoundedCount) }},
		{Name: "damaged_trap_count", Kind: KindNumeric, Category: CategoryDamage,
			get: func(r *ScoutReport) any { return numField(r.DamagedTrapCount) }},
		{Name: "retrievable_traps", Kind: KindStructuredText, Category: CategoryDamage,
			get: func(r *ScoutReport) any { return textField(r.RetrievableTraps) }},

		// Economy
		{Name: "food", Kind: KindNumeric, Category: CategoryEconomy,
			get: func(r *ScoutReport) any { return numField(r.Food) }},
		{Name: "stone", Kind: KindNumeric, Category: CategoryEconomy,
			get: func(r *ScoutReport) any { return numField(r.Stone) }},
		{Name: "wood", Kind: KindNumeric, Category: CategoryEconomy,
			get: func(r *ScoutReport) any { return numField(r.Wood) }},
		{Name: "ore", Kind: KindNumeric, Category: CategoryEconomy,
			get: func(r *ScoutReport) any { return numField(r.Ore) }},
		{Name: "gold", Kind: KindNumeric, Category: CategoryEconomy,
			get: func(r *ScoutReport) any { return numField(r.Gold) }},
		{Name: "above_vault_note", Kind: KindText, Category: CategoryEconomy,
			get: func(r *ScoutReport) any { return textField(r.AboveVaultNote) }},
		{Name: "worth_raiding", Kind: KindBool, Category: CategoryEconomy,
			get: func(r *ScoutReport) any { return boolField(r.WorthRaiding) }},
		{Name: "worth_raiding_resources", Kind: KindBool, Category: CategoryEconomy,
			get: func(r *ScoutReport) any { return boolField(r.WorthRaidingResources) }},
	})
}
