package httpapi

import (
	"github.com/idleduelist/server/internal/combat"
	"github.com/idleduelist/server/internal/model"
)

// combatStatePayload matches spec §6's combat-state wire shape exactly;
// combat.CombatState itself is keyed by participant id map + fixed-size
// Order array, which is the right shape for CAS storage but not for a
// client that wants an ordered participant list.
type combatStatePayload struct {
	CombatID     string                 `json:"combat_id"`
	Turn         int32                  `json:"turn"`
	CurrentActor string                 `json:"current_actor"`
	Participants []participantPayload   `json:"participants"`
	Log          []combat.ActionLogEvent `json:"log"`
	Status       string                 `json:"status"`
	Winner       string                 `json:"winner,omitempty"`
}

type participantPayload struct {
	ID        string                  `json:"id"`
	Name      string                  `json:"name"`
	HP        int32                  `json:"hp"`
	MaxHP     int32                  `json:"maxHp"`
	Statuses  []statusPayload        `json:"statuses"`
	Cooldowns map[string]int32       `json:"cooldowns"`
}

type statusPayload struct {
	Kind     model.StatusEffectKind `json:"kind"`
	Duration int32                  `json:"duration"`
}

func toCombatStatePayload(s *combat.CombatState) combatStatePayload {
	payload := combatStatePayload{
		CombatID: s.CombatID,
		Turn:     s.Turn,
		Status:   s.Status(),
		Winner:   s.Winner,
		Log:      s.Log,
	}
	if !s.Terminal {
		payload.CurrentActor = s.CurrentActor().ID
	}
	for _, id := range s.Order {
		p, ok := s.Participants[id]
		if !ok {
			continue
		}
		statuses := make([]statusPayload, 0, len(p.Statuses))
		for _, st := range p.Statuses {
			statuses = append(statuses, statusPayload{Kind: st.Kind, Duration: st.RemainingDuration})
		}
		payload.Participants = append(payload.Participants, participantPayload{
			ID:        p.ID,
			Name:      p.Name,
			HP:        p.CurrentHP,
			MaxHP:     p.MaxHP,
			Statuses:  statuses,
			Cooldowns: p.Cooldowns,
		})
	}
	return payload
}

type characterSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Level int32  `json:"level"`
	XP    int64  `json:"xp"`
}

func toCharacterSummary(c *model.Character) characterSummary {
	return characterSummary{ID: c.CharacterID, Name: c.Name, Level: c.Level, XP: c.XP}
}
