package combat

import (
	"math/rand"

	"github.com/idleduelist/server/internal/model"
)

// tickStatuses applies the pre-action status tick for actor: poison and
// bleed damage, regen healing. Shield status does not decay here — its
// pool is only spent when it actually absorbs a hit, in applyShield.
func tickStatuses(actor *Participant) (damageTaken, healed int32) {
	for _, s := range actor.Statuses {
		switch s.Kind {
		case model.StatusPoison, model.StatusBleed:
			d := int32(float64(actor.MaxHP) * s.Magnitude)
			if d < 1 {
				d = 1
			}
			damageTaken += d
		case model.StatusRegen:
			h := int32(float64(actor.MaxHP) * s.Magnitude)
			healed += h
		}
	}
	if damageTaken > 0 {
		actor.CurrentHP -= damageTaken
		if actor.CurrentHP < 0 {
			actor.CurrentHP = 0
		}
	}
	if healed > 0 {
		actor.CurrentHP += healed
		if actor.CurrentHP > actor.MaxHP {
			actor.CurrentHP = actor.MaxHP
		}
	}
	return damageTaken, healed
}

// dodgeChance returns target's effective dodge chance: Root sets it to
// zero for its duration regardless of the stat-derived value.
func dodgeChance(target *Participant) float64 {
	if _, rooted := target.HasStatus(model.StatusRoot); rooted {
		return 0
	}
	return target.Stats.DodgeChance
}

// rollHit performs the hit/dodge roll: hit iff roll >= dodgeChance -
// accuracy*0.5, per spec §4.5's numeric semantics.
func rollHit(rng *rand.Rand, attacker, target *Participant) bool {
	roll := rng.Float64()
	threshold := dodgeChance(target) - attacker.Stats.Accuracy*0.5
	return roll >= threshold
}

// rollParry reports whether an armed defender parries, halving the
// incoming hit. "Armed" is approximated as having a non-zero parry
// chance; unarmed defenders (ParryChance==0) never reach the roll.
func rollParry(rng *rand.Rand, target *Participant) bool {
	if target.Stats.ParryChance <= 0 {
		return false
	}
	return rng.Float64() < target.Stats.ParryChance
}

// rollCrit reports whether attacker's action crits.
func rollCrit(rng *rand.Rand, attacker *Participant) bool {
	return rng.Float64() < attacker.Stats.CritChance
}

// power selects the scaling stat an ability/attack draws its magnitude
// from.
func power(p *Participant, scaling model.ScalingStat) int32 {
	switch scaling {
	case model.ScaleAttackPower:
		return p.Stats.AttackPower
	case model.ScaleSpellPower:
		return p.Stats.SpellPower
	case model.ScaleDefense:
		return p.Stats.Defense
	default:
		return p.Stats.AttackPower
	}
}

// rawDamage computes base = max(1, power - max(0, defense*(1-armorPen))),
// then applies crit and parry multipliers, per spec §4.5.
func rawDamage(atkPower int32, magnitude float64, crit, parried bool, critMult, armorPen float64, defense int32) int32 {
	mitigated := float64(defense) * (1 - armorPen)
	if mitigated < 0 {
		mitigated = 0
	}
	base := float64(atkPower)*magnitude - mitigated
	if base < 1 {
		base = 1
	}
	if crit {
		base *= critMult
	}
	if parried {
		base *= 0.5
	}
	return int32(base)
}

// situationalFactionModifier applies the one faction passive that is
// not already baked into the static C4 snapshot: Ironwardens shrug off
// 20% of incoming damage while below 30% HP, reflecting their identity
// as the durability faction even at the edge of defeat.
func situationalFactionModifier(defender *Participant, damage int32) int32 {
	if defender.Faction == model.FactionIronwardens && defender.HPRatio() <= 0.30 {
		return int32(float64(damage) * 0.80)
	}
	return damage
}

// applyShield absorbs damage out of any active shield pool, returning
// the damage remaining after absorption and the shield's updated
// magnitude (spent capacity, as a fraction of max HP).
func applyShield(defender *Participant, damage int32) int32 {
	for i := range defender.Statuses {
		s := &defender.Statuses[i]
		if s.Kind != model.StatusShield {
			continue
		}
		pool := int32(s.Magnitude * float64(defender.MaxHP))
		if pool <= 0 {
			continue
		}
		absorbed := damage
		if absorbed > pool {
			absorbed = pool
		}
		pool -= absorbed
		s.Magnitude = float64(pool) / float64(defender.MaxHP)
		return damage - absorbed
	}
	return damage
}

func applyStatus(target *Participant, kind model.StatusEffectKind, duration int32, magnitude float64, source string) {
	if kind == model.StatusNone {
		return
	}
	for i, s := range target.Statuses {
		if s.Kind == kind {
			target.Statuses[i].RemainingDuration = duration
			target.Statuses[i].Magnitude = magnitude
			return
		}
	}
	target.Statuses = append(target.Statuses, model.StatusEffect{
		Kind:              kind,
		RemainingDuration: duration,
		Magnitude:         magnitude,
		SourceParticipant: source,
	})
}
