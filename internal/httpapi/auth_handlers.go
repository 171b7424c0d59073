package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/idleduelist/server/internal/apperr"
	"github.com/idleduelist/server/internal/auth"
)

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type tokenPair struct {
	UserID       string `json:"user_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.New(apperr.KindValidation, "INVALID_BODY", err.Error()))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(c, apperr.Wrap(apperr.KindInternal, "HASH_FAILED", "hashing password", err))
		return
	}

	u, err := s.store.CreateUser(c.Request.Context(), req.Username, hash, req.Email)
	if err != nil {
		writeError(c, err)
		return
	}

	pair, err := s.issueTokenPair(u.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, pair)
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.New(apperr.KindValidation, "INVALID_BODY", err.Error()))
		return
	}

	u, err := s.store.GetUser(c.Request.Context(), req.Username)
	if err != nil {
		writeError(c, apperr.Unavailable("loading user", err))
		return
	}
	if u == nil {
		// Burn the same bcrypt cost as a real check so an unknown
		// username cannot be distinguished from a wrong password by
		// response latency.
		auth.VerifyAgainstUnknownUser(req.Password)
		writeError(c, apperr.New(apperr.KindUnauthenticated, "INVALID_CREDENTIALS", "invalid username or password"))
		return
	}
	if !auth.VerifyPassword(u.PasswordHash, req.Password) {
		writeError(c, apperr.New(apperr.KindUnauthenticated, "INVALID_CREDENTIALS", "invalid username or password"))
		return
	}

	pair, err := s.issueTokenPair(u.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, pair)
}

func (s *Server) handleRefresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.New(apperr.KindValidation, "INVALID_BODY", err.Error()))
		return
	}

	claims, err := s.keyring.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		writeError(c, apperr.New(apperr.KindUnauthenticated, "INVALID_REFRESH_TOKEN", "invalid or expired refresh token"))
		return
	}

	access, err := s.keyring.IssueAccessToken(claims.UserID)
	if err != nil {
		writeError(c, apperr.Wrap(apperr.KindInternal, "TOKEN_ISSUE_FAILED", "issuing access token", err))
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"access_token": access})
}

func (s *Server) issueTokenPair(userID string) (tokenPair, error) {
	access, err := s.keyring.IssueAccessToken(userID)
	if err != nil {
		return tokenPair{}, apperr.Wrap(apperr.KindInternal, "TOKEN_ISSUE_FAILED", "issuing access token", err)
	}
	refresh, err := s.keyring.IssueRefreshToken(userID)
	if err != nil {
		return tokenPair{}, apperr.Wrap(apperr.KindInternal, "TOKEN_ISSUE_FAILED", "issuing refresh token", err)
	}
	return tokenPair{UserID: userID, AccessToken: access, RefreshToken: refresh}, nil
}
