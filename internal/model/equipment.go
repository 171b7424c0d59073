package model

import "fmt"

// BaseStats is the six-stat allocation vector a Character invests
// earned points into, and the shape Equipment stat modifiers take.
type BaseStats struct {
	Might    int32
	Finesse  int32
	Fortitude int32
	Arcana   int32
	Insight  int32
	Presence int32
}

// Sum returns the total allocated points across all six stats.
func (b BaseStats) Sum() int32 {
	return b.Might + b.Finesse + b.Fortitude + b.Arcana + b.Insight + b.Presence
}

// Add returns the pointwise sum of two stat vectors.
func (b BaseStats) Add(o BaseStats) BaseStats {
	return BaseStats{
		Might:     b.Might + o.Might,
		Finesse:   b.Finesse + o.Finesse,
		Fortitude: b.Fortitude + o.Fortitude,
		Arcana:    b.Arcana + o.Arcana,
		Insight:   b.Insight + o.Insight,
		Presence:  b.Presence + o.Presence,
	}
}

// EquipSlot names the single slot an item of this type may be mounted
// in. A Character may have at most one item mounted per slot.
type EquipSlot int32

const (
	SlotWeapon EquipSlot = iota
	SlotHead
	SlotChest
	SlotLegs
	SlotHands
	SlotFeet
	SlotTrinket
)

var slotNames = [...]string{"weapon", "head", "chest", "legs", "hands", "feet", "trinket"}

func (s EquipSlot) String() string {
	if int(s) < 0 || int(s) >= len(slotNames) {
		return "unknown"
	}
	return slotNames[s]
}

// Rarity is one of six fixed rarity tiers; higher tiers carry larger
// stat modifier budgets but the budget itself is assigned at item
// generation time, not computed here.
type Rarity int32

const (
	RarityCommon Rarity = iota
	RarityUncommon
	RarityRare
	RarityEpic
	RarityLegendary
	RarityMythic
)

// Equipment is owned by exactly one Character and is either stashed in
// the Character's free inventory or mounted in one EquipSlot — never
// both (I6).
type Equipment struct {
	ItemID        string
	OwnerCharacterID string
	Name          string
	Slot          EquipSlot
	Rarity        Rarity
	StatModifiers BaseStats

	// Mounted reports whether this item currently occupies its slot on
	// the owning Character, as opposed to sitting in free inventory.
	Mounted bool
}

// NewEquipment constructs an unmounted item in the owner's inventory.
func NewEquipment(itemID, ownerCharacterID, name string, slot EquipSlot, rarity Rarity, mods BaseStats) (*Equipment, error) {
	if itemID == "" || ownerCharacterID == "" {
		return nil, fmt.Errorf("equipment requires itemID and ownerCharacterID")
	}
	return &Equipment{
		ItemID:           itemID,
		OwnerCharacterID: ownerCharacterID,
		Name:             name,
		Slot:             slot,
		Rarity:           rarity,
		StatModifiers:    mods,
		Mounted:          false,
	}, nil
}
