package model

// AbilityCategory classifies what an ability does to its target.
type AbilityCategory int32

const (
	AbilityDamage AbilityCategory = iota
	AbilityHeal
	AbilityBuff
	AbilityDebuff
	AbilityControl
	AbilityExecute
)

// AbilityTarget names who an ability resolves against.
type AbilityTarget int32

const (
	TargetOpponent AbilityTarget = iota
	TargetSelf
)

// ScalingStat names the derived stat an ability's magnitude scales from.
type ScalingStat int32

const (
	ScaleAttackPower ScalingStat = iota
	ScaleSpellPower
	ScaleDefense
	ScaleNone
)

// Ability is a static catalog entry. Every numeric parameter — including
// the execute threshold and shield-reduction magnitude — lives here as
// data, never as a literal inside the resolution pipeline.
type Ability struct {
	ID            string
	Name          string
	Category      AbilityCategory
	Cooldown      int32
	ScalingStat   ScalingStat
	BaseMagnitude float64
	Target        AbilityTarget

	// Duration is the number of turns an induced StatusEffect lasts.
	// Zero for instant-effect abilities (plain damage/heal).
	Duration int32
	// InducesStatus is the StatusEffectKind applied on hit, or
	// StatusNone if the ability induces nothing.
	InducesStatus StatusEffectKind

	// ExecuteThreshold: for AbilityExecute, instant-kill if target's
	// HP ratio is at or below this value; otherwise falls through to
	// normal scaled damage. Unused by other categories.
	ExecuteThreshold float64

	// Conditional predicates gating whether the ability may be used.
	RequiresInvisible      bool
	RequiresTargetDebuffed bool
}

// Abilities is the compiled catalog: 6 abilities per faction, 18 total.
var Abilities = map[string]Ability{
	// Ironwardens — defensive bulwark kit.
	"shield_bash": {
		ID: "shield_bash", Name: "Shield Bash", Category: AbilityDamage,
		Cooldown: 1, ScalingStat: ScaleAttackPower, BaseMagnitude: 1.1, Target: TargetOpponent,
	},
	"bulwark_stance": {
		ID: "bulwark_stance", Name: "Bulwark Stance", Category: AbilityBuff,
		Cooldown: 4, ScalingStat: ScaleNone, BaseMagnitude: 0.30, Target: TargetSelf,
		Duration: 3, InducesStatus: StatusShield,
	},
	"taunting_roar": {
		ID: "taunting_roar", Name: "Taunting Roar", Category: AbilityDebuff,
		Cooldown: 3, ScalingStat: ScaleNone, BaseMagnitude: 0.20, Target: TargetOpponent,
		Duration: 2, InducesStatus: StatusSlow,
	},
	"iron_skin": {
		ID: "iron_skin", Name: "Iron Skin", Category: AbilityBuff,
		Cooldown: 5, ScalingStat: ScaleDefense, BaseMagnitude: 0.25, Target: TargetSelf,
		Duration: 3, InducesStatus: StatusRegen,
	},
	"last_stand": {
		ID: "last_stand", Name: "Last Stand", Category: AbilityExecute,
		Cooldown: 6, ScalingStat: ScaleAttackPower, BaseMagnitude: 1.4, Target: TargetOpponent,
		ExecuteThreshold: 0.15,
	},
	"guardians_mercy": {
		ID: "guardians_mercy", Name: "Guardian's Mercy", Category: AbilityHeal,
		Cooldown: 5, ScalingStat: ScaleDefense, BaseMagnitude: 0.35, Target: TargetSelf,
	},

	// Duskveil — burst and control kit.
	"shadow_strike": {
		ID: "shadow_strike", Name: "Shadow Strike", Category: AbilityDamage,
		Cooldown: 1, ScalingStat: ScaleAttackPower, BaseMagnitude: 1.2, Target: TargetOpponent,
	},
	"vanish": {
		ID: "vanish", Name: "Vanish", Category: AbilityBuff,
		Cooldown: 6, ScalingStat: ScaleNone, BaseMagnitude: 0, Target: TargetSelf,
		Duration: 1, InducesStatus: StatusInvisible,
	},
	"poison_edge": {
		ID: "poison_edge", Name: "Poison Edge", Category: AbilityDebuff,
		Cooldown: 2, ScalingStat: ScaleAttackPower, BaseMagnitude: 0.18, Target: TargetOpponent,
		Duration: 3, InducesStatus: StatusPoison,
	},
	"assassinate": {
		ID: "assassinate", Name: "Assassinate", Category: AbilityExecute,
		Cooldown: 7, ScalingStat: ScaleAttackPower, BaseMagnitude: 1.8, Target: TargetOpponent,
		ExecuteThreshold: 0.20, RequiresInvisible: true,
	},
	"crippling_slash": {
		ID: "crippling_slash", Name: "Crippling Slash", Category: AbilityDamage,
		Cooldown: 3, ScalingStat: ScaleAttackPower, BaseMagnitude: 0.9, Target: TargetOpponent,
		Duration: 2, InducesStatus: StatusBleed, RequiresTargetDebuffed: false,
	},
	"nightveil": {
		ID: "nightveil", Name: "Nightveil", Category: AbilityDamage,
		Cooldown: 4, ScalingStat: ScaleAttackPower, BaseMagnitude: 1.5, Target: TargetOpponent,
		RequiresTargetDebuffed: true,
	},

	// Emberfane — spellcasting and control-of-battlefield kit.
	"divine_strike": {
		ID: "divine_strike", Name: "Divine Strike", Category: AbilityDamage,
		Cooldown: 1, ScalingStat: ScaleSpellPower, BaseMagnitude: 1.15, Target: TargetOpponent,
	},
	"searing_bolt": {
		ID: "searing_bolt", Name: "Searing Bolt", Category: AbilityDamage,
		Cooldown: 2, ScalingStat: ScaleSpellPower, BaseMagnitude: 1.4, Target: TargetOpponent,
		Duration: 2, InducesStatus: StatusBleed,
	},
	"phoenix_renewal": {
		ID: "phoenix_renewal", Name: "Phoenix Renewal", Category: AbilityHeal,
		Cooldown: 5, ScalingStat: ScaleSpellPower, BaseMagnitude: 0.40, Target: TargetSelf,
	},
	"arcane_shield": {
		ID: "arcane_shield", Name: "Arcane Shield", Category: AbilityBuff,
		Cooldown: 4, ScalingStat: ScaleSpellPower, BaseMagnitude: 0.35, Target: TargetSelf,
		Duration: 2, InducesStatus: StatusShield,
	},
	"infernal_chains": {
		ID: "infernal_chains", Name: "Infernal Chains", Category: AbilityControl,
		Cooldown: 5, ScalingStat: ScaleNone, BaseMagnitude: 0, Target: TargetOpponent,
		Duration: 1, InducesStatus: StatusRoot,
	},
	"meteor_call": {
		ID: "meteor_call", Name: "Meteor Call", Category: AbilityExecute,
		Cooldown: 7, ScalingStat: ScaleSpellPower, BaseMagnitude: 1.9, Target: TargetOpponent,
		ExecuteThreshold: 0.18,
	},
}

// AbilityByID looks up a catalog entry, reporting ok=false if unknown.
func AbilityByID(id string) (Ability, bool) {
	a, ok := Abilities[id]
	return a, ok
}
