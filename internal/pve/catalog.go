package pve

import "github.com/idleduelist/server/internal/model"

// EnemyDef is one static catalog entry: a fixed stat block, ability
// loadout, and reward table keyed by enemy_id. Never mutated at
// runtime -- StartPvE copies it into a fresh combat.Participant.
type EnemyDef struct {
	EnemyID    string
	Name       string
	Level      int32
	Faction    model.FactionID
	Base       model.BaseStats
	AbilityIDs []string
	RewardXP   int64
	RewardGold int64
	DropChance float64 // probability [0,1] an item drops on victory
	DropRarity model.Rarity
}

// EnemyCatalog is the static set of PvE opponents, banded by level
// from 1 to 100 across the three factions, matching the teacher's
// data/npc_data.go static-table style.
var EnemyCatalog = []EnemyDef{
	{EnemyID: "sewer_rat", Name: "Sewer Rat", Level: 2, Faction: model.FactionIronwardens, Base: model.BaseStats{Might: 5, Finesse: 2, Fortitude: 1, Arcana: 5, Insight: 1, Presence: 3}, AbilityIDs: []string{"shield_bash", "bulwark_stance"}, RewardXP: 50, RewardGold: 13, DropChance: 0.05, DropRarity: model.RarityCommon},
	{EnemyID: "field_slime", Name: "Field Slime", Level: 6, Faction: model.FactionDuskveil, Base: model.BaseStats{Might: 4, Finesse: 1, Fortitude: 9, Arcana: 5, Insight: 11, Presence: 1}, AbilityIDs: []string{"shadow_strike", "vanish", "poison_edge"}, RewardXP: 110, RewardGold: 29, DropChance: 0.08, DropRarity: model.RarityCommon},
	{EnemyID: "wild_boar", Name: "Wild Boar", Level: 9, Faction: model.FactionEmberfane, Base: model.BaseStats{Might: 1, Finesse: 3, Fortitude: 9, Arcana: 15, Insight: 9, Presence: 6}, AbilityIDs: []string{"divine_strike", "searing_bolt", "phoenix_renewal", "arcane_shield"}, RewardXP: 155, RewardGold: 41, DropChance: 0.11, DropRarity: model.RarityCommon},
	{EnemyID: "gray_wolf", Name: "Gray Wolf", Level: 10, Faction: model.FactionIronwardens, Base: model.BaseStats{Might: 1, Finesse: 24, Fortitude: 8, Arcana: 4, Insight: 3, Presence: 8}, AbilityIDs: []string{"shield_bash", "bulwark_stance"}, RewardXP: 170, RewardGold: 45, DropChance: 0.14, DropRarity: model.RarityCommon},
	{EnemyID: "bandit_scout", Name: "Bandit Scout", Level: 15, Faction: model.FactionDuskveil, Base: model.BaseStats{Might: 5, Finesse: 17, Fortitude: 18, Arcana: 10, Insight: 16, Presence: 1}, AbilityIDs: []string{"shadow_strike", "vanish", "poison_edge"}, RewardXP: 245, RewardGold: 65, DropChance: 0.17, DropRarity: model.RarityCommon},
	{EnemyID: "cave_spider", Name: "Cave Spider", Level: 16, Faction: model.FactionEmberfane, Base: model.BaseStats{Might: 12, Finesse: 9, Fortitude: 10, Arcana: 15, Insight: 9, Presence: 17}, AbilityIDs: []string{"divine_strike", "searing_bolt", "phoenix_renewal", "arcane_shield"}, RewardXP: 260, RewardGold: 69, DropChance: 0.05, DropRarity: model.RarityCommon},
	{EnemyID: "skeleton_grunt", Name: "Skeleton Grunt", Level: 20, Faction: model.FactionIronwardens, Base: model.BaseStats{Might: 8, Finesse: 22, Fortitude: 20, Arcana: 7, Insight: 16, Presence: 15}, AbilityIDs: []string{"shield_bash", "bulwark_stance"}, RewardXP: 320, RewardGold: 85, DropChance: 0.08, DropRarity: model.RarityUncommon},
	{EnemyID: "forest_troll", Name: "Forest Troll", Level: 23, Faction: model.FactionDuskveil, Base: model.BaseStats{Might: 22, Finesse: 8, Fortitude: 30, Arcana: 3, Insight: 12, Presence: 23}, AbilityIDs: []string{"shadow_strike", "vanish", "poison_edge"}, RewardXP: 365, RewardGold: 97, DropChance: 0.11, DropRarity: model.RarityUncommon},
	{EnemyID: "bog_witch", Name: "Bog Witch", Level: 25, Faction: model.FactionEmberfane, Base: model.BaseStats{Might: 27, Finesse: 12, Fortitude: 28, Arcana: 2, Insight: 16, Presence: 23}, AbilityIDs: []string{"divine_strike", "searing_bolt", "phoenix_renewal", "arcane_shield"}, RewardXP: 395, RewardGold: 105, DropChance: 0.14, DropRarity: model.RarityUncommon},
	{EnemyID: "iron_golem", Name: "Iron Golem", Level: 29, Faction: model.FactionIronwardens, Base: model.BaseStats{Might: 19, Finesse: 20, Fortitude: 29, Arcana: 46, Insight: 4, Presence: 5}, AbilityIDs: []string{"shield_bash", "bulwark_stance"}, RewardXP: 455, RewardGold: 121, DropChance: 0.17, DropRarity: model.RarityUncommon},
	{EnemyID: "shade_stalker", Name: "Shade Stalker", Level: 32, Faction: model.FactionDuskveil, Base: model.BaseStats{Might: 18, Finesse: 25, Fortitude: 2, Arcana: 27, Insight: 25, Presence: 38}, AbilityIDs: []string{"shadow_strike", "vanish", "poison_edge"}, RewardXP: 500, RewardGold: 133, DropChance: 0.05, DropRarity: model.RarityUncommon},
	{EnemyID: "ember_imp", Name: "Ember Imp", Level: 35, Faction: model.FactionEmberfane, Base: model.BaseStats{Might: 21, Finesse: 29, Fortitude: 50, Arcana: 1, Insight: 34, Presence: 12}, AbilityIDs: []string{"divine_strike", "searing_bolt", "phoenix_renewal", "arcane_shield"}, RewardXP: 545, RewardGold: 145, DropChance: 0.08, DropRarity: model.RarityUncommon},
	{EnemyID: "crypt_wraith", Name: "Crypt Wraith", Level: 37, Faction: model.FactionIronwardens, Base: model.BaseStats{Might: 25, Finesse: 11, Fortitude: 14, Arcana: 38, Insight: 20, Presence: 47}, AbilityIDs: []string{"shield_bash", "bulwark_stance"}, RewardXP: 575, RewardGold: 153, DropChance: 0.11, DropRarity: model.RarityRare},
	{EnemyID: "rock_ogre", Name: "Rock Ogre", Level: 41, Faction: model.FactionDuskveil, Base: model.BaseStats{Might: 3, Finesse: 21, Fortitude: 26, Arcana: 42, Insight: 39, Presence: 41}, AbilityIDs: []string{"shadow_strike", "vanish", "poison_edge"}, RewardXP: 635, RewardGold: 169, DropChance: 0.14, DropRarity: model.RarityRare},
	{EnemyID: "harpy_screecher", Name: "Harpy Screecher", Level: 44, Faction: model.FactionEmberfane, Base: model.BaseStats{Might: 42, Finesse: 59, Fortitude: 41, Arcana: 23, Insight: 13, Presence: 5}, AbilityIDs: []string{"divine_strike", "searing_bolt", "phoenix_renewal", "arcane_shield"}, RewardXP: 680, RewardGold: 181, DropChance: 0.17, DropRarity: model.RarityRare},
	{EnemyID: "frost_lynx", Name: "Frost Lynx", Level: 46, Faction: model.FactionIronwardens, Base: model.BaseStats{Might: 24, Finesse: 25, Fortitude: 52, Arcana: 63, Insight: 28, Presence: 1}, AbilityIDs: []string{"shield_bash", "bulwark_stance"}, RewardXP: 710, RewardGold: 189, DropChance: 0.05, DropRarity: model.RarityRare},
	{EnemyID: "bone_archer", Name: "Bone Archer", Level: 50, Faction: model.FactionDuskveil, Base: model.BaseStats{Might: 33, Finesse: 37, Fortitude: 19, Arcana: 7, Insight: 53, Presence: 58}, AbilityIDs: []string{"shadow_strike", "vanish", "poison_edge"}, RewardXP: 770, RewardGold: 205, DropChance: 0.08, DropRarity: model.RarityRare},
	{EnemyID: "swamp_hag", Name: "Swamp Hag", Level: 54, Faction: model.FactionEmberfane, Base: model.BaseStats{Might: 37, Finesse: 2, Fortitude: 49, Arcana: 43, Insight: 48, Presence: 44}, AbilityIDs: []string{"divine_strike", "searing_bolt", "phoenix_renewal", "arcane_shield"}, RewardXP: 830, RewardGold: 221, DropChance: 0.11, DropRarity: model.RarityRare},
	{EnemyID: "obsidian_brute", Name: "Obsidian Brute", Level: 56, Faction: model.FactionIronwardens, Base: model.BaseStats{Might: 32, Finesse: 32, Fortitude: 39, Arcana: 32, Insight: 15, Presence: 80}, AbilityIDs: []string{"shield_bash", "bulwark_stance"}, RewardXP: 860, RewardGold: 229, DropChance: 0.14, DropRarity: model.RarityEpic},
	{EnemyID: "void_hound", Name: "Void Hound", Level: 59, Faction: model.FactionDuskveil, Base: model.BaseStats{Might: 49, Finesse: 103, Fortitude: 16, Arcana: 1, Insight: 46, Presence: 30}, AbilityIDs: []string{"shadow_strike", "vanish", "poison_edge"}, RewardXP: 905, RewardGold: 241, DropChance: 0.17, DropRarity: model.RarityEpic},
	{EnemyID: "storm_drake_whelp", Name: "Storm Drake Whelp", Level: 62, Faction: model.FactionEmberfane, Base: model.BaseStats{Might: 55, Finesse: 6, Fortitude: 18, Arcana: 33, Insight: 57, Presence: 86}, AbilityIDs: []string{"divine_strike", "searing_bolt", "phoenix_renewal", "arcane_shield"}, RewardXP: 950, RewardGold: 253, DropChance: 0.05, DropRarity: model.RarityEpic},
	{EnemyID: "cinder_wyrm", Name: "Cinder Wyrm", Level: 66, Faction: model.FactionIronwardens, Base: model.BaseStats{Might: 30, Finesse: 10, Fortitude: 70, Arcana: 82, Insight: 38, Presence: 40}, AbilityIDs: []string{"shield_bash", "bulwark_stance"}, RewardXP: 1010, RewardGold: 269, DropChance: 0.08, DropRarity: model.RarityLegendary},
	{EnemyID: "abyssal_knight", Name: "Abyssal Knight", Level: 67, Faction: model.FactionDuskveil, Base: model.BaseStats{Might: 12, Finesse: 62, Fortitude: 61, Arcana: 40, Insight: 57, Presence: 43}, AbilityIDs: []string{"shadow_strike", "vanish", "poison_edge"}, RewardXP: 1025, RewardGold: 273, DropChance: 0.11, DropRarity: model.RarityLegendary},
	{EnemyID: "thorn_treant", Name: "Thorn Treant", Level: 70, Faction: model.FactionEmberfane, Base: model.BaseStats{Might: 101, Finesse: 56, Fortitude: 15, Arcana: 57, Insight: 2, Presence: 56}, AbilityIDs: []string{"divine_strike", "searing_bolt", "phoenix_renewal", "arcane_shield"}, RewardXP: 1070, RewardGold: 285, DropChance: 0.14, DropRarity: model.RarityLegendary},
	{EnemyID: "night_assassin", Name: "Night Assassin", Level: 75, Faction: model.FactionIronwardens, Base: model.BaseStats{Might: 85, Finesse: 69, Fortitude: 25, Arcana: 36, Insight: 16, Presence: 76}, AbilityIDs: []string{"shield_bash", "bulwark_stance"}, RewardXP: 1145, RewardGold: 305, DropChance: 0.17, DropRarity: model.RarityLegendary},
	{EnemyID: "molten_brute", Name: "Molten Brute", Level: 78, Faction: model.FactionDuskveil, Base: model.BaseStats{Might: 45, Finesse: 42, Fortitude: 53, Arcana: 51, Insight: 66, Presence: 63}, AbilityIDs: []string{"shadow_strike", "vanish", "poison_edge"}, RewardXP: 1190, RewardGold: 317, DropChance: 0.05, DropRarity: model.RarityLegendary},
	{EnemyID: "ashen_revenant", Name: "Ashen Revenant", Level: 79, Faction: model.FactionEmberfane, Base: model.BaseStats{Might: 75, Finesse: 77, Fortitude: 69, Arcana: 21, Insight: 48, Presence: 33}, AbilityIDs: []string{"divine_strike", "searing_bolt", "phoenix_renewal", "arcane_shield"}, RewardXP: 1205, RewardGold: 321, DropChance: 0.08, DropRarity: model.RarityLegendary},
	{EnemyID: "titan_sentinel", Name: "Titan Sentinel", Level: 82, Faction: model.FactionIronwardens, Base: model.BaseStats{Might: 98, Finesse: 78, Fortitude: 47, Arcana: 19, Insight: 60, Presence: 34}, AbilityIDs: []string{"shield_bash", "bulwark_stance"}, RewardXP: 1250, RewardGold: 333, DropChance: 0.11, DropRarity: model.RarityMythic},
	{EnemyID: "dread_lich", Name: "Dread Lich", Level: 87, Faction: model.FactionDuskveil, Base: model.BaseStats{Might: 119, Finesse: 115, Fortitude: 44, Arcana: 26, Insight: 27, Presence: 23}, AbilityIDs: []string{"shadow_strike", "vanish", "poison_edge"}, RewardXP: 1325, RewardGold: 353, DropChance: 0.14, DropRarity: model.RarityMythic},
	{EnemyID: "world_serpent_spawn", Name: "World Serpent Spawn", Level: 88, Faction: model.FactionEmberfane, Base: model.BaseStats{Might: 52, Finesse: 106, Fortitude: 66, Arcana: 1, Insight: 98, Presence: 37}, AbilityIDs: []string{"divine_strike", "searing_bolt", "phoenix_renewal", "arcane_shield"}, RewardXP: 1340, RewardGold: 357, DropChance: 0.17, DropRarity: model.RarityMythic},
}

// EnemyByID looks up a catalog entry, reporting ok=false if unknown.
func EnemyByID(id string) (EnemyDef, bool) {
	for _, e := range EnemyCatalog {
		if e.EnemyID == id {
			return e, true
		}
	}
	return EnemyDef{}, false
}

