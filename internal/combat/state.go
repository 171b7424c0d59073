// Package combat implements the combat simulator (C5): the state
// machine, resolution pipeline, and CAS-guarded persistence that drive
// both PvE and PvP fights. It unifies what the teacher's game package
// split into a "regular combat" CombatManager and a separate "duel"
// package into one CombatState whose Mode field selects the variant —
// see DESIGN.md for why the split was not kept as two code paths.
package combat

import (
	"time"

	"github.com/idleduelist/server/internal/model"
	"github.com/idleduelist/server/internal/stats"
)

// Mode selects which rules flavor a combat runs under. All three share
// the same state machine and resolution pipeline; only the opponent
// source and post-terminal side effects differ (C6/C7 apply those).
type Mode int32

const (
	ModePvE Mode = iota
	ModePvP
	ModeAutoFight
)

func (m Mode) String() string {
	switch m {
	case ModePvE:
		return "pve"
	case ModePvP:
		return "pvp"
	case ModeAutoFight:
		return "autofight"
	default:
		return "unknown"
	}
}

// ActionType names what a participant does on their turn.
type ActionType int32

const (
	ActionAttack ActionType = iota
	ActionAbility
	ActionDefend
)

// Action is what SubmitAction accepts: a plain attack, a named
// ability, or a defensive pass.
type Action struct {
	Type      ActionType
	AbilityID string
}

// Participant is a snapshot of one side of a combat, frozen at
// StartCombat and mutated only by the resolution pipeline thereafter.
// Re-deriving stats mid-combat would break determinism, so Stats is
// copied once and never recomputed from the owning Character.
type Participant struct {
	ID      string
	Name    string
	Faction model.FactionID

	Stats stats.DerivedStats

	CurrentHP int32
	MaxHP     int32

	// Cooldowns maps ability_id to turns remaining before it may be
	// used again. Absent or zero means ready.
	Cooldowns map[string]int32

	Statuses []model.StatusEffect

	// Loadout is the up-to-4 ability ids active for this combat,
	// per spec's Open Question resolution (4 active, up to 6 learned).
	Loadout []string
}

// HasDisablingStatus reports whether any carried status blocks actions
// outright (stun/root).
func (p *Participant) HasDisablingStatus() bool {
	for _, s := range p.Statuses {
		if s.Kind.Disables() {
			return true
		}
	}
	return false
}

// HasStatus reports whether the participant currently carries a status
// of the given kind, and returns it.
func (p *Participant) HasStatus(kind model.StatusEffectKind) (model.StatusEffect, bool) {
	for _, s := range p.Statuses {
		if s.Kind == kind {
			return s, true
		}
	}
	return model.StatusEffect{}, false
}

// IsInvisible reports whether the participant currently carries
// StatusInvisible, used by abilities with RequiresInvisible.
func (p *Participant) IsInvisible() bool {
	_, ok := p.HasStatus(model.StatusInvisible)
	return ok
}

// HPRatio returns CurrentHP/MaxHP, used by the execute branch and the
// turn-cap tiebreak.
func (p *Participant) HPRatio() float64 {
	if p.MaxHP <= 0 {
		return 0
	}
	return float64(p.CurrentHP) / float64(p.MaxHP)
}

func (p *Participant) canUseAbility(slowed bool) bool {
	if p.HasDisablingStatus() {
		return false
	}
	if slowed {
		return false
	}
	return true
}

func (p *Participant) isSlowed() bool {
	_, ok := p.HasStatus(model.StatusSlow)
	return ok
}

// ActionLogEvent records one resolved action, matching spec §6's
// action-log event schema. It is appended to CombatState.Log in turn
// order and never mutated afterward.
type ActionLogEvent struct {
	Turn          int32                   `json:"turn"`
	Actor         string                  `json:"actor"`
	Kind          string                  `json:"kind"`
	AbilityID     string                  `json:"ability_id,omitempty"`
	Target        string                  `json:"target"`
	Hit           bool                    `json:"hit"`
	Crit          bool                    `json:"crit"`
	Damage        int32                   `json:"damage,omitempty"`
	Healed        int32                   `json:"healed,omitempty"`
	StatusApplied model.StatusEffectKind  `json:"status_applied,omitempty"`
	CooldownSet   int32                   `json:"cooldown_set,omitempty"`
}

// CombatState is the complete, persisted state of one combat. It is
// the unit of CAS: every mutation reads one version and CASes the
// next, keyed by combat:{id} in C2.
type CombatState struct {
	CombatID string    `json:"combat_id"`
	Mode     Mode      `json:"mode"`
	Version  int64     `json:"version"`
	Seed     uint64    `json:"seed"`
	StartedAt time.Time `json:"started_at"`

	Turn         int32                    `json:"turn"`
	Order        [2]string                `json:"order"`
	CurrentIndex int                      `json:"current_index"`
	Participants map[string]*Participant  `json:"participants"`

	Log []ActionLogEvent `json:"log"`

	Terminal bool                     `json:"terminal"`
	Winner   string                   `json:"winner,omitempty"`
	Reason   model.TerminationReason  `json:"reason,omitempty"`
}

// CurrentActor returns the participant whose turn it is.
func (s *CombatState) CurrentActor() *Participant {
	return s.Participants[s.Order[s.CurrentIndex]]
}

// Opponent returns the participant who is not id.
func (s *CombatState) Opponent(id string) *Participant {
	if s.Order[0] == id {
		return s.Participants[s.Order[1]]
	}
	return s.Participants[s.Order[0]]
}

// Status reports the public-facing "ongoing|terminal" string spec §6's
// combat state payload uses.
func (s *CombatState) Status() string {
	if s.Terminal {
		return "terminal"
	}
	return "ongoing"
}

// MaxTurns is the hard cap spec §4.5 sets; exceeding it without a kill
// ends the combat by higher-HP% tiebreak.
const MaxTurns = 200
