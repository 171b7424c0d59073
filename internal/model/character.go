package model

import (
	"fmt"
	"regexp"
)

var characterNamePattern = regexp.MustCompile(`^[A-Za-z0-9_ ]{1,50}$`)

const (
	MinLevel = 1
	MaxLevel = 100
)

// ValidateCharacterName enforces the 1-50 char, [A-Za-z0-9_ ] name rule.
func ValidateCharacterName(name string) error {
	if !characterNamePattern.MatchString(name) {
		return fmt.Errorf("character name must be 1-50 chars of letters, digits, underscore, space: %q", name)
	}
	return nil
}

// Character is owned by exactly one User. Stat points, gold, and rating
// are mutated only through the methods below so invariants I4 and I6
// hold at every call site rather than being re-checked ad hoc.
type Character struct {
	CharacterID string
	UserID      string
	Name        string
	Level       int32
	XP          int64
	Faction     FactionID

	BaseStats     BaseStats
	UnspentPoints int32

	Gold int64

	// Inventory holds unmounted Equipment; mounted items are tracked in
	// Equipped and excluded from here (I6).
	Inventory []*Equipment
	Equipped  map[EquipSlot]*Equipment

	LearnedAbilities []string
	Loadout          []string // up to 4 of LearnedAbilities, active at combat start

	Rating int32
	Wins   int32
	Losses int32

	CurrentHP int32
	MaxHP     int32
}

// NewCharacter constructs a level-1 Character with no stat points spent
// and a starting rating of 1000, per spec.
func NewCharacter(characterID, userID, name string, faction FactionID) (*Character, error) {
	if err := ValidateCharacterName(name); err != nil {
		return nil, err
	}
	if !IsValidFaction(faction) {
		return nil, fmt.Errorf("unknown faction %d", faction)
	}
	return &Character{
		CharacterID: characterID,
		UserID:      userID,
		Name:        name,
		Level:       MinLevel,
		Faction:     faction,
		Equipped:    make(map[EquipSlot]*Equipment),
		Rating:      1000,
	}, nil
}

// EarnedStatPoints returns the total stat points a Character of this
// level has ever earned: 3 per level above 1.
func (c *Character) EarnedStatPoints() int32 {
	return 3 * (c.Level - 1)
}

// AllocateStats spends unspent points into the base stat vector,
// rejecting the allocation if it would exceed points earned so far (I4).
func (c *Character) AllocateStats(delta BaseStats) error {
	if delta.Might < 0 || delta.Finesse < 0 || delta.Fortitude < 0 ||
		delta.Arcana < 0 || delta.Insight < 0 || delta.Presence < 0 {
		return fmt.Errorf("stat allocation must be non-negative")
	}
	spend := delta.Sum()
	if spend > c.UnspentPoints {
		return fmt.Errorf("allocation of %d exceeds %d unspent points", spend, c.UnspentPoints)
	}
	c.BaseStats = c.BaseStats.Add(delta)
	c.UnspentPoints -= spend
	return nil
}

// GainXP applies monotonic, non-negative XP and reports the new level
// after applying any level-ups the caller's progression table grants
// via levelUps, crediting 3 unspent points per level gained.
func (c *Character) GainXP(amount int64, levelUps int32) error {
	if amount < 0 {
		return fmt.Errorf("xp gain must be non-negative")
	}
	c.XP += amount
	if levelUps > 0 {
		newLevel := c.Level + levelUps
		if newLevel > MaxLevel {
			newLevel = MaxLevel
			levelUps = newLevel - c.Level
		}
		c.Level = newLevel
		c.UnspentPoints += 3 * levelUps
	}
	return nil
}

// Equip mounts an owned, currently-stashed item into its slot,
// displacing whatever previously occupied that slot back to inventory.
func (c *Character) Equip(item *Equipment) error {
	if item.OwnerCharacterID != c.CharacterID {
		return fmt.Errorf("item %s is not owned by character %s", item.ItemID, c.CharacterID)
	}
	if item.Mounted {
		return fmt.Errorf("item %s is already mounted", item.ItemID)
	}
	idx := -1
	for i, inv := range c.Inventory {
		if inv.ItemID == item.ItemID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("item %s is not in character %s's inventory", item.ItemID, c.CharacterID)
	}
	if prev, ok := c.Equipped[item.Slot]; ok {
		prev.Mounted = false
		c.Inventory = append(c.Inventory, prev)
	}
	c.Inventory = append(c.Inventory[:idx], c.Inventory[idx+1:]...)
	item.Mounted = true
	c.Equipped[item.Slot] = item
	return nil
}

// Unequip returns the item mounted in slot back to free inventory.
func (c *Character) Unequip(slot EquipSlot) error {
	item, ok := c.Equipped[slot]
	if !ok {
		return fmt.Errorf("no item mounted in slot %s", slot)
	}
	item.Mounted = false
	delete(c.Equipped, slot)
	c.Inventory = append(c.Inventory, item)
	return nil
}

// SetHP clamps current HP into [0, maxHP], preserving I1.
func (c *Character) SetHP(hp int32) {
	if hp < 0 {
		hp = 0
	}
	if hp > c.MaxHP {
		hp = c.MaxHP
	}
	c.CurrentHP = hp
}

// ApplyMatchResult updates rating, win/loss counters after a combat
// terminates. ratingDelta may be negative; the floor of 100 is enforced
// by the caller's Elo computation, not re-clamped here.
func (c *Character) ApplyMatchResult(won bool, newRating int32) {
	c.Rating = newRating
	if won {
		c.Wins++
	} else {
		c.Losses++
	}
}
