// Package pve implements the PvE encounter engine (C6): a static enemy
// catalog, single-fight StartPvE, and the checkpointed AutoFight loop.
// Reward computation is grounded on the teacher's combat/experience.go
// (base XP/SP plus level-up check) and combat/drop.go (chance-rolled
// drop table), simplified to IdleDuelist's solo, partyless model.
package pve

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/idleduelist/server/internal/apperr"
	"github.com/idleduelist/server/internal/cache"
	"github.com/idleduelist/server/internal/combat"
	"github.com/idleduelist/server/internal/db"
	"github.com/idleduelist/server/internal/model"
	"github.com/idleduelist/server/internal/stats"
)

// Engine coordinates PvE encounters on top of the shared combat.Manager.
type Engine struct {
	combatMgr *combat.Manager
	cache     cache.Cache
	store     db.Store
	checkTTL  time.Duration
}

// NewEngine builds a PvE Engine over the shared combat manager, store,
// and cache.
func NewEngine(combatMgr *combat.Manager, c cache.Cache, store db.Store, checkpointTTL time.Duration) *Engine {
	return &Engine{combatMgr: combatMgr, cache: c, store: store, checkTTL: checkpointTTL}
}

// xpForLevel is the cumulative XP required to reach level, a fixed
// quadratic curve (not named by spec, which leaves the leveling curve
// to the implementation).
func xpForLevel(level int32) int64 {
	return 100 * int64(level) * int64(level)
}

// levelUpsFor returns how many levels a Character gains once totalXP
// (current XP plus the new award) is applied, capped at MaxLevel.
func levelUpsFor(currentLevel int32, totalXP int64) int32 {
	lvl := currentLevel
	for lvl < model.MaxLevel && totalXP >= xpForLevel(lvl+1) {
		lvl++
	}
	return lvl - currentLevel
}

// StartPvE instantiates a combat between character and the named
// catalog enemy, with the enemy as defender (attacker is always the
// player character, per spec §4.6).
func (e *Engine) StartPvE(ctx context.Context, combatID string, character *model.Character, enemyID string, serverEpoch int64) (*combat.CombatState, error) {
	enemy, ok := EnemyByID(enemyID)
	if !ok {
		return nil, apperr.NotFound("enemy", enemyID)
	}

	player := combat.NewParticipantFromCharacter(character)
	enemyDerived := stats.Derive(enemy.Base, enemy.Level, nil, enemy.Faction)
	opponent := combat.NewParticipant(enemy.EnemyID, enemy.Name, enemy.Faction, enemyDerived, enemy.AbilityIDs)

	return e.combatMgr.StartCombat(ctx, combatID, combat.ModePvE, player, opponent, serverEpoch)
}

// Reward is the outcome of a victorious PvE combat, applied atomically
// to the Character by ApplyReward.
type Reward struct {
	XP       int64
	Gold     int64
	Item     *model.Equipment
	LevelUps int32
}

// ComputeReward rolls the enemy's reward table: guaranteed XP/gold,
// plus a chance-gated equipment drop, mirroring CalculateDrops' two-roll
// shape (group chance, then item chance) collapsed to a single roll
// since IdleDuelist enemies carry one drop slot each, not drop groups.
func ComputeReward(enemy EnemyDef, character *model.Character, rng *rand.Rand) Reward {
	r := Reward{XP: enemy.RewardXP, Gold: enemy.RewardGold}
	r.LevelUps = levelUpsFor(character.Level, character.XP+r.XP)

	if rng.Float64() < enemy.DropChance {
		mods := model.BaseStats{}
		switch rng.Intn(6) {
		case 0:
			mods.Might = 2 + int32(enemy.DropRarity)*2
		case 1:
			mods.Finesse = 2 + int32(enemy.DropRarity)*2
		case 2:
			mods.Fortitude = 2 + int32(enemy.DropRarity)*2
		case 3:
			mods.Arcana = 2 + int32(enemy.DropRarity)*2
		case 4:
			mods.Insight = 2 + int32(enemy.DropRarity)*2
		case 5:
			mods.Presence = 2 + int32(enemy.DropRarity)*2
		}
		item, err := model.NewEquipment(
			fmt.Sprintf("drop-%s-%d", enemy.EnemyID, rng.Int63()),
			character.CharacterID,
			enemy.Name+"'s Trophy",
			model.EquipSlot(rng.Intn(7)),
			enemy.DropRarity,
			mods,
		)
		if err == nil {
			r.Item = item
		}
	}
	return r
}

// ApplyReward atomically applies a Reward to the Character and
// persists it, per spec §4.6's "rewards are applied atomically" rule.
// On defeat, callers restore HP instead — combat carries no durability
// cost, so there is no separate "apply loss" path.
func (e *Engine) ApplyReward(ctx context.Context, character *model.Character, r Reward) error {
	if err := character.GainXP(r.XP, r.LevelUps); err != nil {
		return apperr.Wrap(apperr.KindInternal, "XP_APPLY_FAILED", "applying xp reward", err)
	}
	character.Gold += r.Gold
	if r.Item != nil {
		character.Inventory = append(character.Inventory, r.Item)
	}
	if err := e.store.UpsertCharacter(ctx, character); err != nil {
		return apperr.Unavailable("persisting pve reward", err)
	}
	return nil
}

// RestoreAfterDefeat resets HP to full, since PvE combat carries no
// durability cost on loss.
func (e *Engine) RestoreAfterDefeat(ctx context.Context, character *model.Character, maxHP int32) error {
	character.SetHP(maxHP)
	if err := e.store.UpsertCharacter(ctx, character); err != nil {
		return apperr.Unavailable("restoring hp after pve defeat", err)
	}
	return nil
}

func autoFightKey(combatID string) string { return cache.PrefixAutoFight + combatID }

// checkpoint records the wall-clock time of the last processed turn,
// enforcing the ≤1 turn/200ms cap across repeated client polls without
// any server-side sleep (Design Note: "ad-hoc per-turn sleeps for
// pacing" is explicitly removed).
type checkpoint struct {
	LastTurnAt time.Time `json:"last_turn_at"`
	Cancelled  bool      `json:"cancelled"`
}

const autoFightTurnInterval = 200 * time.Millisecond

// AdvanceAutoFight processes at most one turn of an AutoFight combat
// if the checkpoint interval has elapsed, using a simple always-attack
// policy for both sides. It is safe to call on every client poll: most
// calls are no-ops because the checkpoint blocks them.
func (e *Engine) AdvanceAutoFight(ctx context.Context, combatID, characterID string) (*combat.CombatState, bool, error) {
	raw, ok, err := e.cache.Get(ctx, autoFightKey(combatID))
	if err != nil {
		return nil, false, apperr.Unavailable("loading autofight checkpoint", err)
	}
	var cp checkpoint
	if ok {
		if err := json.Unmarshal(raw, &cp); err != nil {
			return nil, false, apperr.Wrap(apperr.KindInternal, "DECODE_FAILED", "decoding autofight checkpoint", err)
		}
	}
	if cp.Cancelled {
		return nil, false, apperr.New(apperr.KindConflict, "AUTOFIGHT_CANCELLED", "auto-fight was cancelled")
	}

	state, err := e.combatMgr.GetCombat(ctx, combatID)
	if err != nil {
		return nil, false, err
	}
	if _, owned := state.Participants[characterID]; !owned {
		return nil, false, apperr.New(apperr.KindForbidden, "NOT_PARTICIPANT", "character is not a participant in this combat")
	}
	if state.Terminal {
		return state, false, nil
	}
	if time.Since(cp.LastTurnAt) < autoFightTurnInterval {
		return state, false, nil
	}

	next, err := e.combatMgr.SubmitAction(ctx, combatID, state.CurrentActor().ID, combat.Action{Type: combat.ActionAttack})
	if err != nil {
		return nil, false, err
	}

	cp.LastTurnAt = time.Now()
	if err := e.saveCheckpoint(ctx, combatID, cp); err != nil {
		return nil, false, err
	}
	return next, true, nil
}

// CancelAutoFight idempotently marks the checkpoint cancelled; a
// repeated cancel of an already-cancelled auto-fight is a no-op.
func (e *Engine) CancelAutoFight(ctx context.Context, combatID string) error {
	raw, ok, err := e.cache.Get(ctx, autoFightKey(combatID))
	if err != nil {
		return apperr.Unavailable("loading autofight checkpoint", err)
	}
	var cp checkpoint
	if ok {
		if err := json.Unmarshal(raw, &cp); err != nil {
			return apperr.Wrap(apperr.KindInternal, "DECODE_FAILED", "decoding autofight checkpoint", err)
		}
	}
	cp.Cancelled = true
	return e.saveCheckpoint(ctx, combatID, cp)
}

func (e *Engine) saveCheckpoint(ctx context.Context, combatID string, cp checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "ENCODE_FAILED", "encoding autofight checkpoint", err)
	}
	if err := e.cache.SetWithTTL(ctx, autoFightKey(combatID), data, e.checkTTL); err != nil {
		return apperr.Unavailable("saving autofight checkpoint", err)
	}
	return nil
}
