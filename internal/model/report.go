package model

import "time"

// ReportSource identifies which side of a reconciliation a record came from.
type ReportSource string

const (
	SourceManual ReportSource = "manual" // human-entered scout report
	SourceParsed ReportSource = "parsed" // machine-extracted counterpart
)

// ScoutReport is a structured snapshot of one scouted enemy base. The same
// shape is used for both the human-entered report and the machine-extracted
// counterpart; nil fields mean the value is unknown on that side.
type ScoutReport struct {
	// Identity
	TargetName      *string  `json:"target_name,omitempty"`
	TargetGuild     *string  `json:"target_guild,omitempty"`
	Coordinates     *string  `json:"coordinates,omitempty"`
	Might           *float64 `json:"might,omitempty"`
	LeaderPresent   *bool    `json:"leader_present,omitempty"`
	AntiScoutActive *bool    `json:"anti_scout_active,omitempty"`

	// Defense
	WallHP               *float64 `json:"wall_hp,omitempty"`
	TrapCount            *float64 `json:"trap_count,omitempty"`
	TrapTypes            *string  `json:"trap_types,omitempty"`
	DefendingHeroCount   *float64 `json:"defending_hero_count,omitempty"`
	DefendingHeroDetails *string  `json:"defending_hero_details,omitempty"`
	FamiliarInfo         *string  `json:"familiar_info,omitempty"`
	ActiveBoosts         *string  `json:"active_boosts,omitempty"`

	// Army
	TotalTroops          *float64 `json:"total_troops,omitempty"`
	TroopBreakdown       *string  `json:"troop_breakdown,omitempty"`
	ReinforcementCount   *float64 `json:"reinforcement_count,omitempty"`
	ReinforcementDetails *string  `json:"reinforcement_details,omitempty"`
	GarrisonCount        *float64 `json:"garrison_count,omitempty"`
	GarrisonDetails      *string  `json:"garrison_details,omitempty"`
	CoalitionPresent     *bool    `json:"coalition_present,omitempty"`
	CoalitionDetails     *string  `json:"coalition_details,omitempty"`

	// Recent damage
	WoundedCount     *float64 `json:"wounded_count,omitempty"`
	DamagedTrapCount *float64 `json:"damaged_trap_count,omitempty"`
	RetrievableTraps *string  `json:"retrievable_traps,omitempty"`

	// Economy
	Food                  *float64 `json:"food,omitempty"`
	Stone                 *float64 `json:"stone,omitempty"`
	Wood                  *float64 `json:"wood,omitempty"`
	Ore                   *float64 `json:"ore,omitempty"`
	Gold                  *float64 `json:"gold,omitempty"`
	AboveVaultNote        *string  `json:"above_vault_note,omitempty"`
	WorthRaiding          *bool    `json:"worth_raiding,omitempty"`
	WorthRaidingResources *bool    `json:"worth_raiding_resources,omitempty"`
}

// ReportPair is one reconciliation input: a manual report and its parsed
// counterpart, plus the caller-supplied identifiers used for persistence.
type ReportPair struct {
	ReportID      string       `json:"report_id"`
	ContributorID string       `json:"contributor_id"`
	Guild         string       `json:"guild,omitempty"` // empty = global scope
	Manual        *ScoutReport `json:"manual"`
	Parsed        *ScoutReport `json:"parsed"`
	ObservedAt    time.Time    `json:"observed_at,omitempty"`
}

// Num returns a pointer to v, for building report literals.
func Num(v float64) *float64 { return &v }

// Flag returns a pointer to v, for building report literals.
func Flag(v bool) *bool { return &v }

// Text returns a pointer to v, for building report literals.
func Text(v string) *string { return &v }
