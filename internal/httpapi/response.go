package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/idleduelist/server/internal/apperr"
)

// errorEnvelope is the {success:false, error:{...}} shape spec §6 fixes
// for every failure response.
type errorEnvelope struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

type errorBody struct {
	Type              string `json:"type"`
	Message           string `json:"message"`
	Details           string `json:"details,omitempty"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
}

// statusFor maps the apperr taxonomy (§7) to its HTTP status.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindRateLimited:
		return http.StatusTooManyRequests
	case apperr.KindTimeout:
		return http.StatusGatewayTimeout
	case apperr.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to the taxonomy and writes the error envelope.
// Errors that are not *apperr.Error are treated as KindInternal and
// never leak their raw message to the client, per §7's production
// generic-message rule.
func writeError(c *gin.Context, err error) {
	ae, ok := err.(*apperr.Error)
	if !ok {
		c.JSON(http.StatusInternalServerError, errorEnvelope{Error: errorBody{
			Type:    string(apperr.KindInternal),
			Message: "internal error",
		}})
		return
	}
	c.JSON(statusFor(ae.Kind), errorEnvelope{Error: errorBody{
		Type:              string(ae.Kind),
		Message:           ae.Message,
		RetryAfterSeconds: ae.RetryAfterSeconds,
	}})
}

func writeJSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

func userID(c *gin.Context) string {
	v, _ := c.Get(ctxUserID)
	s, _ := v.(string)
	return s
}
