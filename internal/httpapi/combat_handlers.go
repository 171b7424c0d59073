package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/idleduelist/server/internal/apperr"
	"github.com/idleduelist/server/internal/combat"
	"github.com/idleduelist/server/internal/pve"
)

type startCombatRequest struct {
	CharacterID string `json:"character_id" binding:"required"`
	Mode        string `json:"mode" binding:"required"`
	EnemyID     string `json:"enemy_id"`
}

// handleStartCombat supports mode="pve" directly; mode="pvp" is
// rejected here since PvP combats are only created by the matchmaking
// sweep (POST /api/pvp/queue enqueues, it never starts a combat
// synchronously), per C7's queue-based design.
func (s *Server) handleStartCombat(c *gin.Context) {
	var req startCombatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.New(apperr.KindValidation, "INVALID_BODY", err.Error()))
		return
	}

	ch, ok := s.ownedCharacter(c, req.CharacterID)
	if !ok {
		return
	}

	switch req.Mode {
	case "pve":
		if req.EnemyID == "" {
			writeError(c, apperr.New(apperr.KindValidation, "MISSING_ENEMY_ID", "enemy_id is required for mode=pve"))
			return
		}
		combatID := "pvecombat_" + uuid.NewString()
		state, err := s.pve.StartPvE(c.Request.Context(), combatID, ch, req.EnemyID, s.serverEpoch)
		if err != nil {
			writeError(c, err)
			return
		}
		s.metrics.recordCombatStarted("pve")
		writeJSON(c, http.StatusCreated, toCombatStatePayload(state))
	default:
		writeError(c, apperr.New(apperr.KindValidation, "UNSUPPORTED_MODE", "mode must be \"pve\" (pvp combats start from the matchmaking queue)"))
	}
}

func (s *Server) handleGetCombat(c *gin.Context) {
	state, err := s.combatMgr.GetCombat(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toCombatStatePayload(state))
}

type combatActionRequest struct {
	ActionType string `json:"action_type" binding:"required"`
	AbilityID  string `json:"ability_id"`
}

func parseActionType(v string) (combat.ActionType, bool) {
	switch v {
	case "attack":
		return combat.ActionAttack, true
	case "ability":
		return combat.ActionAbility, true
	case "defend":
		return combat.ActionDefend, true
	default:
		return 0, false
	}
}

func (s *Server) handleCombatAction(c *gin.Context) {
	combatID := c.Param("id")
	var req combatActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.New(apperr.KindValidation, "INVALID_BODY", err.Error()))
		return
	}
	actionType, ok := parseActionType(req.ActionType)
	if !ok {
		writeError(c, apperr.New(apperr.KindValidation, "INVALID_ACTION_TYPE", "action_type must be attack, ability, or defend"))
		return
	}
	action := combat.Action{Type: actionType, AbilityID: req.AbilityID}

	state, err := s.combatMgr.GetCombat(c.Request.Context(), combatID)
	if err != nil {
		writeError(c, err)
		return
	}

	var next *combat.CombatState
	if state.Mode == combat.ModePvP {
		next, err = s.matcher.SubmitAction(c.Request.Context(), combatID, c.Query("character_id"), action)
	} else {
		next, err = s.combatMgr.SubmitAction(c.Request.Context(), combatID, c.Query("character_id"), action)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	if next.Terminal && next.Mode == combat.ModePvP {
		_ = s.matcher.SettleMatch(c.Request.Context(), combatID)
	}
	s.broadcastCombat(combatID, next)
	writeJSON(c, http.StatusOK, toCombatStatePayload(next))
}

func (s *Server) handleForfeit(c *gin.Context) {
	combatID := c.Param("id")
	characterID := c.Query("character_id")
	if characterID == "" {
		writeError(c, apperr.New(apperr.KindValidation, "MISSING_CHARACTER_ID", "character_id query parameter is required"))
		return
	}
	state, err := s.combatMgr.Forfeit(c.Request.Context(), combatID, characterID)
	if err != nil {
		writeError(c, err)
		return
	}
	if state.Mode == combat.ModePvP {
		_ = s.matcher.SettleMatch(c.Request.Context(), combatID)
	}
	s.broadcastCombat(combatID, state)
	writeJSON(c, http.StatusOK, toCombatStatePayload(state))
}

func (s *Server) handleAutoFightAdvance(c *gin.Context) {
	combatID := c.Param("id")
	characterID := c.Query("character_id")
	state, advanced, err := s.pve.AdvanceAutoFight(c.Request.Context(), combatID, characterID)
	if err != nil {
		writeError(c, err)
		return
	}
	if advanced {
		s.broadcastCombat(combatID, state)
	}
	writeJSON(c, http.StatusOK, gin.H{"state": toCombatStatePayload(state), "advanced": advanced})
}

func (s *Server) handleAutoFightCancel(c *gin.Context) {
	if err := s.pve.CancelAutoFight(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"cancelled": true})
}

func (s *Server) handleListEnemies(c *gin.Context) {
	writeJSON(c, http.StatusOK, pve.EnemyCatalog)
}
