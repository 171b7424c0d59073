package combat

import (
	"github.com/idleduelist/server/internal/model"
	"github.com/idleduelist/server/internal/stats"
)

// NewParticipantFromCharacter derives a combat-ready snapshot of a
// player Character, fixing full HP and the up-to-4 active loadout
// abilities at combat start. Re-derivation never happens mid-combat:
// gear changes during a fight (impossible via the API anyway) cannot
// retroactively alter an ongoing snapshot.
func NewParticipantFromCharacter(c *model.Character) *Participant {
	derived := stats.Derive(c.BaseStats, c.Level, c.Equipped, c.Faction)
	loadout := c.Loadout
	if len(loadout) > 4 {
		loadout = loadout[:4]
	}
	return &Participant{
		ID:        c.CharacterID,
		Name:      c.Name,
		Faction:   c.Faction,
		Stats:     derived,
		CurrentHP: derived.MaxHP,
		MaxHP:     derived.MaxHP,
		Cooldowns: make(map[string]int32),
		Loadout:   append([]string(nil), loadout...),
	}
}

// NewParticipant builds a Participant from an already-derived stat
// block, used by C6's enemy catalog and C7's bot opponents where no
// model.Character backs the combatant.
func NewParticipant(id, name string, faction model.FactionID, derived stats.DerivedStats, loadout []string) *Participant {
	if len(loadout) > 4 {
		loadout = loadout[:4]
	}
	return &Participant{
		ID:        id,
		Name:      name,
		Faction:   faction,
		Stats:     derived,
		CurrentHP: derived.MaxHP,
		MaxHP:     derived.MaxHP,
		Cooldowns: make(map[string]int32),
		Loadout:   append([]string(nil), loadout...),
	}
}
