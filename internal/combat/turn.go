package combat

import (
	"math"
	"math/rand"

	"github.com/idleduelist/server/internal/apperr"
	"github.com/idleduelist/server/internal/model"
)

// isDebuffed reports whether target carries a status a RequiresTargetDebuffed
// ability can exploit.
func isDebuffed(target *Participant) bool {
	for _, k := range []model.StatusEffectKind{model.StatusPoison, model.StatusBleed, model.StatusSlow, model.StatusRoot} {
		if _, ok := target.HasStatus(k); ok {
			return true
		}
	}
	return false
}

// validateAction checks SubmitAction's preconditions without mutating
// state: actor turn ownership, ability availability/cooldown, and the
// disabling-status rules (stun/root block attacks and abilities; slow
// blocks abilities only).
func validateAction(s *CombatState, actorID string, action Action) (*Participant, model.Ability, error) {
	if s.Terminal {
		return nil, model.Ability{}, apperr.New(apperr.KindConflict, "COMBAT_TERMINAL", "combat has already ended")
	}
	actor := s.CurrentActor()
	if actor == nil || actor.ID != actorID {
		return nil, model.Ability{}, apperr.New(apperr.KindValidation, "NOT_YOUR_TURN", "it is not this participant's turn")
	}

	switch action.Type {
	case ActionDefend:
		return actor, model.Ability{}, nil
	case ActionAttack:
		if actor.HasDisablingStatus() {
			return nil, model.Ability{}, apperr.New(apperr.KindValidation, "ACTOR_DISABLED", "actor is stunned or rooted")
		}
		return actor, model.Ability{}, nil
	case ActionAbility:
		ability, ok := model.AbilityByID(action.AbilityID)
		if !ok {
			return nil, model.Ability{}, apperr.New(apperr.KindValidation, "UNKNOWN_ABILITY", "ability does not exist")
		}
		known := false
		for _, id := range actor.Loadout {
			if id == ability.ID {
				known = true
				break
			}
		}
		if !known {
			return nil, model.Ability{}, apperr.New(apperr.KindValidation, "ABILITY_NOT_EQUIPPED", "ability is not in actor's loadout")
		}
		if actor.Cooldowns[ability.ID] > 0 {
			return nil, model.Ability{}, apperr.New(apperr.KindValidation, "ABILITY_ON_COOLDOWN", "ability is on cooldown")
		}
		if !actor.canUseAbility(actor.isSlowed()) {
			return nil, model.Ability{}, apperr.New(apperr.KindValidation, "ACTOR_DISABLED", "actor cannot use abilities right now")
		}
		if ability.RequiresInvisible && !actor.IsInvisible() {
			return nil, model.Ability{}, apperr.New(apperr.KindValidation, "REQUIRES_INVISIBLE", "ability requires actor to be invisible")
		}
		opponent := s.Opponent(actorID)
		if ability.RequiresTargetDebuffed && !isDebuffed(opponent) {
			return nil, model.Ability{}, apperr.New(apperr.KindValidation, "REQUIRES_TARGET_DEBUFFED", "ability requires a debuffed target")
		}
		return actor, ability, nil
	default:
		return nil, model.Ability{}, apperr.New(apperr.KindValidation, "UNKNOWN_ACTION", "unrecognized action type")
	}
}

// resolveAction runs the full pipeline of spec §4.5 step 3 for one
// validated action, mutating s in place and returning the log entry
// appended for it. Callers must call validateAction first.
func resolveAction(s *CombatState, actor *Participant, ability model.Ability, action Action) ActionLogEvent {
	opponent := s.Opponent(actor.ID)
	rng := turnRNG(s.Seed, s.Turn)

	// 3a. Pre-action status tick.
	tickStatuses(actor)

	ev := ActionLogEvent{Turn: s.Turn, Actor: actor.ID, Target: opponent.ID}

	switch action.Type {
	case ActionDefend:
		ev.Kind = "defend"
		ev.Hit = true
		applyStatus(actor, model.StatusShield, 1, 0.15, actor.ID)
		ev.StatusApplied = model.StatusShield

	case ActionAttack:
		ev.Kind = "attack"
		resolveDamageAction(s, rng, actor, opponent, power(actor, model.ScaleAttackPower), 1.0, actor.Stats.CritMultiplier, &ev)

	case ActionAbility:
		ev.Kind = "ability"
		ev.AbilityID = ability.ID
		resolveAbility(s, rng, actor, opponent, ability, &ev)
		cd := ability.Cooldown
		reduced := int32(math.Round(float64(cd) * (1 - actor.Stats.CooldownReductionPct)))
		if reduced < 0 {
			reduced = 0
		}
		if actor.Cooldowns == nil {
			actor.Cooldowns = make(map[string]int32)
		}
		actor.Cooldowns[ability.ID] = reduced
		ev.CooldownSet = reduced
	}

	if opponent.CurrentHP <= 0 {
		s.Terminal = true
		s.Winner = actor.ID
		s.Reason = model.ReasonKill
	}

	justTriggered := ""
	if action.Type == ActionAbility {
		justTriggered = ability.ID
	}
	advanceTurn(s, actor, justTriggered)
	return ev
}

// resolveAbility dispatches on ability category, per spec's
// strongly-typed-per-category design note.
func resolveAbility(s *CombatState, rng *rand.Rand, actor, opponent *Participant, ability model.Ability, ev *ActionLogEvent) {
	switch ability.Category {
	case model.AbilityDamage:
		resolveDamageAction(s, rng, actor, opponent, power(actor, ability.ScalingStat), ability.BaseMagnitude, actor.Stats.CritMultiplier, ev)
		if ability.InducesStatus != model.StatusNone && ev.Hit {
			applyStatus(opponent, ability.InducesStatus, ability.Duration, ability.BaseMagnitude, actor.ID)
			ev.StatusApplied = ability.InducesStatus
		}

	case model.AbilityHeal:
		heal := int32(float64(power(actor, ability.ScalingStat)) * ability.BaseMagnitude)
		actor.CurrentHP += heal
		if actor.CurrentHP > actor.MaxHP {
			actor.CurrentHP = actor.MaxHP
		}
		ev.Hit = true
		ev.Healed = heal
		ev.Target = actor.ID

	case model.AbilityBuff:
		applyStatus(actor, ability.InducesStatus, ability.Duration, ability.BaseMagnitude, actor.ID)
		ev.Hit = true
		ev.Target = actor.ID
		ev.StatusApplied = ability.InducesStatus

	case model.AbilityDebuff:
		hit := rollHit(rng, actor, opponent)
		ev.Hit = hit
		if hit {
			applyStatus(opponent, ability.InducesStatus, ability.Duration, ability.BaseMagnitude, actor.ID)
			ev.StatusApplied = ability.InducesStatus
		}

	case model.AbilityControl:
		hit := rollHit(rng, actor, opponent)
		ev.Hit = hit
		if hit {
			applyStatus(opponent, ability.InducesStatus, ability.Duration, ability.BaseMagnitude, actor.ID)
			ev.StatusApplied = ability.InducesStatus
		}

	case model.AbilityExecute:
		if opponent.HPRatio() <= ability.ExecuteThreshold {
			ev.Hit = true
			ev.Damage = opponent.CurrentHP
			opponent.CurrentHP = 0
			s.Terminal = true
			s.Winner = actor.ID
			s.Reason = model.ReasonExecute
			return
		}
		resolveDamageAction(s, rng, actor, opponent, power(actor, ability.ScalingStat), ability.BaseMagnitude, actor.Stats.CritMultiplier, ev)
	}
}

// resolveDamageAction runs the shared hit/parry/crit/damage/shield/
// lifesteal pipeline used by plain attacks, Damage-category abilities,
// and the Execute category's fallthrough branch.
func resolveDamageAction(s *CombatState, rng *rand.Rand, actor, target *Participant, atkPower int32, magnitude, critMult float64, ev *ActionLogEvent) {
	hit := rollHit(rng, actor, target)
	ev.Hit = hit
	if !hit {
		return
	}
	parried := rollParry(rng, target)
	crit := rollCrit(rng, actor)
	ev.Crit = crit

	dmg := rawDamage(atkPower, magnitude, crit, parried, critMult, actor.Stats.ArmorPen, target.Stats.Defense)
	dmg = situationalFactionModifier(target, dmg)
	dmg = applyShield(target, dmg)

	target.CurrentHP -= dmg
	if target.CurrentHP < 0 {
		target.CurrentHP = 0
	}
	ev.Damage = dmg

	if actor.Stats.LifestealPct > 0 {
		heal := int32(float64(dmg) * actor.Stats.LifestealPct)
		if heal > 0 {
			actor.CurrentHP += heal
			if actor.CurrentHP > actor.MaxHP {
				actor.CurrentHP = actor.MaxHP
			}
		}
	}
}

// advanceTurn implements step 4: turn++, switch current participant,
// and decrement the outgoing actor's own cooldowns/statuses by one —
// the reading of spec §4.5(3c) that durations/cooldowns tick down at
// the end of their owner's own turn, not on every global turn.
// justTriggered is the ability id resolveAction just set a fresh
// cooldown for this turn, if any; it is excluded from the decrement so
// a cooldown is strictly decreasing only in turns after the one that
// set it, per invariant I2.
func advanceTurn(s *CombatState, actor *Participant, justTriggered string) {
	if actor.Cooldowns != nil {
		for id, turns := range actor.Cooldowns {
			if id == justTriggered {
				continue
			}
			if turns > 0 {
				actor.Cooldowns[id] = turns - 1
			}
		}
	}
	kept := actor.Statuses[:0]
	for _, st := range actor.Statuses {
		st.RemainingDuration--
		if !st.Expired() {
			kept = append(kept, st)
		}
	}
	actor.Statuses = kept

	s.Turn++
	if s.Terminal {
		return
	}
	if s.Turn > MaxTurns {
		finishByTurnCap(s)
		return
	}
	s.CurrentIndex = 1 - s.CurrentIndex
}

// finishByTurnCap implements step 5: exceeding MaxTurns without a kill
// ends the combat by higher-HP% tiebreak, attacker first on a tie.
func finishByTurnCap(s *CombatState) {
	s.Terminal = true
	s.Reason = model.ReasonTurnCap
	a := s.Participants[s.Order[0]]
	b := s.Participants[s.Order[1]]
	if a.HPRatio() >= b.HPRatio() {
		s.Winner = a.ID
	} else {
		s.Winner = b.ID
	}
}
