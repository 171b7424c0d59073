package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/idleduelist/server/internal/apperr"
)

type pvpQueueRequest struct {
	CharacterID string `json:"character_id" binding:"required"`
}

func (s *Server) handlePvPQueue(c *gin.Context) {
	var req pvpQueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.New(apperr.KindValidation, "INVALID_BODY", err.Error()))
		return
	}
	ch, ok := s.ownedCharacter(c, req.CharacterID)
	if !ok {
		return
	}
	ticket, err := s.matcher.Enqueue(c.Request.Context(), ch)
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"user_id": ticket.UserID, "rating_at_enqueue": ticket.RatingAtEnqueue})
}

func (s *Server) handlePvPQueueCancel(c *gin.Context) {
	if err := s.matcher.Cancel(c.Request.Context(), userID(c)); err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"cancelled": true})
}

func (s *Server) handlePvPQueueStatus(c *gin.Context) {
	ticket, queued, err := s.matcher.QueueStatus(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if !queued {
		writeJSON(c, http.StatusOK, gin.H{"queued": false})
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"queued":            true,
		"character_id":      ticket.CharacterID,
		"rating_at_enqueue": ticket.RatingAtEnqueue,
		"waited_seconds":    int(ticket.Age(time.Now()).Seconds()),
	})
}
