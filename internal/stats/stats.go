// Package stats derives combat-ready stats from a Character's base
// allocation, level, equipped items, and faction. Derivation is a pure
// function: identical inputs always produce identical output, no I/O.
package stats

import (
	"math"

	"github.com/idleduelist/server/internal/model"
)

// Percentage and magnitude caps, per spec §4.4(d). Kept as named
// constants rather than inline literals so the ceilings are visible in
// one place.
const (
	MaxDodgeChance            = 0.40
	MaxParryChance            = 0.30
	MaxCooldownReductionPct   = 0.50
	MaxHPRegenPct             = 0.08
	MaxLifestealPct           = 0.20
	MaxCritChance             = 0.60
	MaxArmorPen               = 0.50
	MaxAccuracy               = 0.99
)

// Breakpoint thresholds that flip on a named passive flag in PassiveFlags.
var breakpoints = [4]int32{50, 100, 200, 300}

// PassiveFlags is a bitset of stat/breakpoint combinations a Character
// has crossed. Bit layout: stat index (0-5, matching BaseStats field
// order) * 4 + breakpoint index (0-3, matching the breakpoints table).
type PassiveFlags uint32

// Crossed reports whether the flag for the given base-stat index and
// breakpoint index is set.
func (f PassiveFlags) Crossed(statIdx, breakpointIdx int) bool {
	bit := uint(statIdx*4 + breakpointIdx)
	return f&(1<<bit) != 0
}

func flagsFor(b model.BaseStats) PassiveFlags {
	values := [6]int32{b.Might, b.Finesse, b.Fortitude, b.Arcana, b.Insight, b.Presence}
	var flags PassiveFlags
	for statIdx, v := range values {
		for bpIdx, threshold := range breakpoints {
			if v >= threshold {
				flags |= 1 << uint(statIdx*4+bpIdx)
			}
		}
	}
	return flags
}

// DerivedStats is the full output of Derive: every combat-facing number
// the simulator (C5) reads. Percentages are fractions in [0,1], not
// whole-number percents.
type DerivedStats struct {
	MaxHP                 int32
	AttackPower           int32
	SpellPower            int32
	Defense               int32
	CritChance            float64
	CritMultiplier        float64
	DodgeChance           float64
	ParryChance           float64
	ArmorPen              float64
	Accuracy              float64
	Speed                 int32
	HPRegenPct            float64
	LifestealPct          float64
	CooldownReductionPct  float64
	TurnMeterBonus        int32

	Passives PassiveFlags
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Derive computes DerivedStats from a base stat vector, level, equipped
// items, and faction. Intermediates are carried in int64/float64 and are
// overflow-safe for level ≤100, any single base stat ≤300 — per spec
// §4.4(c).
func Derive(base model.BaseStats, level int32, equipped map[model.EquipSlot]*model.Equipment, faction model.FactionID) DerivedStats {
	total := base
	for _, item := range equipped {
		if item == nil {
			continue
		}
		total = total.Add(item.StatModifiers)
	}

	lvl := int64(level)
	might := int64(total.Might)
	finesse := int64(total.Finesse)
	fortitude := int64(total.Fortitude)
	arcana := int64(total.Arcana)
	insight := int64(total.Insight)
	presence := int64(total.Presence)

	flags := flagsFor(total)

	d := DerivedStats{
		MaxHP:       int32(100 + fortitude*12 + lvl*8),
		AttackPower: int32(10 + might*3 + lvl*2),
		SpellPower:  int32(10 + arcana*3 + lvl*2),
		Defense:     int32(5 + fortitude*2 + lvl),
		Speed:       int32(10 + (finesse*3)/2 + lvl/2),

		CritChance:     clamp(0.05+float64(insight)*0.002, 0, MaxCritChance),
		CritMultiplier: 1.5 + 0.1*float64(countCrossed(flags, 4)), // Insight is stat index 4
		DodgeChance:    clamp(0.02+float64(finesse)*0.0025, 0, MaxDodgeChance),
		ParryChance:    clamp(0.01+float64(might)*0.0015, 0, MaxParryChance),
		ArmorPen:       clamp(float64(presence)*0.0015, 0, MaxArmorPen),
		Accuracy:       clamp(0.75+float64(presence)*0.002, 0, MaxAccuracy),

		HPRegenPct:           clamp(float64(fortitude)*0.0005, 0, MaxHPRegenPct),
		LifestealPct:         clamp(float64(might)*0.0002, 0, MaxLifestealPct),
		CooldownReductionPct: clamp(float64(presence)*0.003, 0, MaxCooldownReductionPct),
		TurnMeterBonus:       int32(math.Round(float64(presence) * 0.1)),

		Passives: flags,
	}
	applyFactionPassive(&d, faction)
	return d
}

// countCrossed returns how many of the four breakpoints the given
// stat index has crossed, used to scale CritMultiplier in steps rather
// than continuously.
func countCrossed(flags PassiveFlags, statIdx int) int {
	n := 0
	for bp := 0; bp < len(breakpoints); bp++ {
		if flags.Crossed(statIdx, bp) {
			n++
		}
	}
	return n
}

// applyFactionPassive layers each faction's identity trait onto the
// derived stats: Ironwardens trade offense for durability, Duskveil
// trade durability for burst and evasion, Emberfane trade durability
// for sustained magic damage.
func applyFactionPassive(d *DerivedStats, faction model.FactionID) {
	switch faction {
	case model.FactionIronwardens:
		d.MaxHP = int32(float64(d.MaxHP) * 1.10)
		d.Defense = int32(float64(d.Defense) * 1.10)
	case model.FactionDuskveil:
		d.DodgeChance = clamp(d.DodgeChance+0.05, 0, MaxDodgeChance)
		d.CritChance = clamp(d.CritChance+0.03, 0, MaxCritChance)
	case model.FactionEmberfane:
		d.SpellPower = int32(float64(d.SpellPower) * 1.10)
		d.LifestealPct = clamp(d.LifestealPct+0.02, 0, MaxLifestealPct)
	}
}
