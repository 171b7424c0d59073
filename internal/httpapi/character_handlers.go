package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/idleduelist/server/internal/apperr"
	"github.com/idleduelist/server/internal/model"
)

// ownedCharacter loads characterID and verifies it belongs to the
// authenticated user, the pattern every character-scoped handler below
// repeats before touching state.
func (s *Server) ownedCharacter(c *gin.Context, characterID string) (*model.Character, bool) {
	ch, err := s.store.GetCharacter(c.Request.Context(), characterID)
	if err != nil {
		writeError(c, apperr.Unavailable("loading character", err))
		return nil, false
	}
	if ch == nil {
		writeError(c, apperr.NotFound("character", characterID))
		return nil, false
	}
	if ch.UserID != userID(c) {
		writeError(c, apperr.New(apperr.KindForbidden, "NOT_OWNER", "character does not belong to the authenticated user"))
		return nil, false
	}
	return ch, true
}

func (s *Server) handleListCharacters(c *gin.Context) {
	chars, err := s.store.ListCharacters(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, apperr.Unavailable("listing characters", err))
		return
	}
	out := make([]characterSummary, 0, len(chars))
	for _, ch := range chars {
		out = append(out, toCharacterSummary(ch))
	}
	writeJSON(c, http.StatusOK, out)
}

type createCharacterRequest struct {
	Name    string          `json:"name" binding:"required"`
	Faction model.FactionID `json:"faction"`
}

func (s *Server) handleCreateCharacter(c *gin.Context) {
	var req createCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.New(apperr.KindValidation, "INVALID_BODY", err.Error()))
		return
	}

	ch, err := model.NewCharacter("char_"+uuid.NewString(), userID(c), req.Name, req.Faction)
	if err != nil {
		writeError(c, apperr.New(apperr.KindValidation, "INVALID_CHARACTER", err.Error()))
		return
	}
	if err := s.store.UpsertCharacter(c.Request.Context(), ch); err != nil {
		writeError(c, apperr.Unavailable("creating character", err))
		return
	}
	writeJSON(c, http.StatusCreated, ch)
}

func (s *Server) handleGetCharacter(c *gin.Context) {
	ch, ok := s.ownedCharacter(c, c.Param("id"))
	if !ok {
		return
	}
	writeJSON(c, http.StatusOK, ch)
}

type allocateStatsRequest struct {
	Might     int32 `json:"might"`
	Finesse   int32 `json:"finesse"`
	Fortitude int32 `json:"fortitude"`
	Arcana    int32 `json:"arcana"`
	Insight   int32 `json:"insight"`
	Presence  int32 `json:"presence"`
}

func (s *Server) handleAllocateStats(c *gin.Context) {
	ch, ok := s.ownedCharacter(c, c.Param("id"))
	if !ok {
		return
	}
	var req allocateStatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.New(apperr.KindValidation, "INVALID_BODY", err.Error()))
		return
	}
	delta := model.BaseStats{
		Might: req.Might, Finesse: req.Finesse, Fortitude: req.Fortitude,
		Arcana: req.Arcana, Insight: req.Insight, Presence: req.Presence,
	}
	if err := ch.AllocateStats(delta); err != nil {
		writeError(c, apperr.New(apperr.KindValidation, "INVALID_ALLOCATION", err.Error()))
		return
	}
	if err := s.store.UpsertCharacter(c.Request.Context(), ch); err != nil {
		writeError(c, apperr.Unavailable("persisting stat allocation", err))
		return
	}
	writeJSON(c, http.StatusOK, ch)
}

type equipRequest struct {
	ItemID string `json:"item_id" binding:"required"`
}

func (s *Server) handleEquip(c *gin.Context) {
	ch, ok := s.ownedCharacter(c, c.Param("id"))
	if !ok {
		return
	}
	var req equipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.New(apperr.KindValidation, "INVALID_BODY", err.Error()))
		return
	}
	var item *model.Equipment
	for _, it := range ch.Inventory {
		if it.ItemID == req.ItemID {
			item = it
			break
		}
	}
	if item == nil {
		writeError(c, apperr.NotFound("item", req.ItemID))
		return
	}
	if err := ch.Equip(item); err != nil {
		writeError(c, apperr.New(apperr.KindValidation, "EQUIP_FAILED", err.Error()))
		return
	}
	if err := s.store.UpsertCharacter(c.Request.Context(), ch); err != nil {
		writeError(c, apperr.Unavailable("persisting equip", err))
		return
	}
	writeJSON(c, http.StatusOK, ch)
}

type unequipRequest struct {
	Slot model.EquipSlot `json:"slot"`
}

func (s *Server) handleUnequip(c *gin.Context) {
	ch, ok := s.ownedCharacter(c, c.Param("id"))
	if !ok {
		return
	}
	var req unequipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.New(apperr.KindValidation, "INVALID_BODY", err.Error()))
		return
	}
	if err := ch.Unequip(req.Slot); err != nil {
		writeError(c, apperr.New(apperr.KindValidation, "UNEQUIP_FAILED", err.Error()))
		return
	}
	if err := s.store.UpsertCharacter(c.Request.Context(), ch); err != nil {
		writeError(c, apperr.Unavailable("persisting unequip", err))
		return
	}
	writeJSON(c, http.StatusOK, ch)
}

type loadoutRequest struct {
	AbilityIDs []string `json:"ability_ids"`
}

// handleSetLoadout replaces the up-to-4 active abilities, requiring
// every id to already be learned — the spec's Open Question resolution
// on loadout size (4 active, up to 6 learned) is enforced here, the
// only place a Character's Loadout is ever written.
func (s *Server) handleSetLoadout(c *gin.Context) {
	ch, ok := s.ownedCharacter(c, c.Param("id"))
	if !ok {
		return
	}
	var req loadoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.New(apperr.KindValidation, "INVALID_BODY", err.Error()))
		return
	}
	if len(req.AbilityIDs) > 4 {
		writeError(c, apperr.New(apperr.KindValidation, "LOADOUT_TOO_LARGE", "loadout may carry at most 4 abilities"))
		return
	}
	learned := make(map[string]bool, len(ch.LearnedAbilities))
	for _, id := range ch.LearnedAbilities {
		learned[id] = true
	}
	for _, id := range req.AbilityIDs {
		if !learned[id] {
			writeError(c, apperr.New(apperr.KindValidation, "ABILITY_NOT_LEARNED", "ability "+id+" has not been learned"))
			return
		}
	}
	ch.Loadout = req.AbilityIDs
	if err := s.store.UpsertCharacter(c.Request.Context(), ch); err != nil {
		writeError(c, apperr.Unavailable("persisting loadout", err))
		return
	}
	writeJSON(c, http.StatusOK, ch)
}

type learnAbilityRequest struct {
	AbilityID string `json:"ability_id" binding:"required"`
}

// handleLearnAbility grants characters access to one of their
// faction's abilities; the spec names the 18-ability catalog (C4/C5's
// ability framework) but leaves how a Character comes to know one
// unspecified, so this follows the faction's fixed ability order (§3).
func (s *Server) handleLearnAbility(c *gin.Context) {
	ch, ok := s.ownedCharacter(c, c.Param("id"))
	if !ok {
		return
	}
	var req learnAbilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.New(apperr.KindValidation, "INVALID_BODY", err.Error()))
		return
	}
	ability, ok := model.AbilityByID(req.AbilityID)
	if !ok {
		writeError(c, apperr.NotFound("ability", req.AbilityID))
		return
	}
	faction := model.Factions[ch.Faction]
	known := false
	for _, id := range faction.AbilityIDs {
		if id == ability.ID {
			known = true
			break
		}
	}
	if !known {
		writeError(c, apperr.New(apperr.KindValidation, "WRONG_FACTION", "ability does not belong to this character's faction"))
		return
	}
	for _, id := range ch.LearnedAbilities {
		if id == ability.ID {
			writeJSON(c, http.StatusOK, ch)
			return
		}
	}
	ch.LearnedAbilities = append(ch.LearnedAbilities, ability.ID)
	if err := s.store.UpsertCharacter(c.Request.Context(), ch); err != nil {
		writeError(c, apperr.Unavailable("persisting learned ability", err))
		return
	}
	writeJSON(c, http.StatusOK, ch)
}

func (s *Server) handleDeleteCharacter(c *gin.Context) {
	if _, ok := s.ownedCharacter(c, c.Param("id")); !ok {
		return
	}
	if err := s.store.DeleteCharacter(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, apperr.Unavailable("deleting character", err))
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"deleted": true})
}

func (s *Server) handleCharacterMatches(c *gin.Context) {
	if _, ok := s.ownedCharacter(c, c.Param("id")); !ok {
		return
	}
	matches, err := s.store.ListMatches(c.Request.Context(), c.Param("id"), 50)
	if err != nil {
		writeError(c, apperr.Unavailable("listing matches", err))
		return
	}
	writeJSON(c, http.StatusOK, matches)
}

func (s *Server) handleLeaderboard(c *gin.Context) {
	chars, err := s.store.Leaderboard(c.Request.Context(), 100)
	if err != nil {
		writeError(c, apperr.Unavailable("loading leaderboard", err))
		return
	}
	writeJSON(c, http.StatusOK, chars)
}
