package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/idleduelist/server/internal/apperr"
	"github.com/idleduelist/server/internal/auth"
	"github.com/idleduelist/server/internal/cache"
)

const ctxUserID = "user_id"

// jwtAuth validates the Authorization: Bearer <token> header against
// keyring and stores the resulting user_id in the gin context, the way
// cafe1231's JWTAuth stores claims — generalized to IdleDuelist's
// single user_id claim instead of the teacher's username/role/session
// bundle, since nothing downstream of C8 needs those fields. It also
// refreshes the user's presence entry (auth.TouchSession) so the
// session-sweep has something live to expire.
func jwtAuth(keyring *auth.Keyring, sessionCache cache.Cache, sessionTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(c, apperr.New(apperr.KindUnauthenticated, "MISSING_TOKEN", "Authorization: Bearer <token> header required"))
			c.Abort()
			return
		}

		claims, err := keyring.ValidateAccessToken(parts[1])
		if err != nil {
			writeError(c, apperr.New(apperr.KindUnauthenticated, "INVALID_TOKEN", "invalid or expired access token"))
			c.Abort()
			return
		}

		c.Set(ctxUserID, claims.UserID)
		if err := auth.TouchSession(c.Request.Context(), sessionCache, claims.UserID, sessionTTL); err != nil {
			logrus.WithError(err).Warn("touching session failed")
		}
		c.Next()
	}
}

// rateLimit applies limiter, keyed by keyFn(c), rejecting with the
// RateLimited taxonomy's retry_after_seconds field, grounded on
// cafe1231's RateLimit middleware headers+429 envelope.
func rateLimit(limiter *auth.Limiter, keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)
		if !limiter.Allow(key) {
			info := limiter.Info(key)
			c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
			c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
			c.Header("Retry-After", fmt.Sprintf("%.0f", info.RetryAfter.Seconds()))
			writeError(c, apperr.RateLimited(int(info.RetryAfter.Seconds())))
			c.Abort()
			return
		}
		c.Next()
	}
}

func byClientIP(c *gin.Context) string { return c.ClientIP() }
func byUser(c *gin.Context) string {
	if uid := userID(c); uid != "" {
		return uid
	}
	return c.ClientIP()
}

// accessLog logs one structured line per request, grounded on
// cafe1231's StructuredLogging — trimmed to the fields IdleDuelist's
// ambient stack actually needs (no request/response body capture,
// since combat payloads are large and not security-sensitive enough to
// justify the cost).
func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()
		logrus.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
			"user_id":    userID(c),
		}).Info("http request")
	}
}

// recovery converts a panic into a 500 response instead of crashing the
// process, grounded on cafe1231's gin.CustomRecovery usage.
func recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logrus.WithFields(logrus.Fields{
			"error":  recovered,
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		}).Error("panic recovered")
		writeError(c, apperr.New(apperr.KindInternal, "PANIC_RECOVERED", "internal error"))
	})
}

// cors enforces the configured allow-list; origins is validated by
// config.Config.validate() to never contain "*" in production, unlike
// the teacher's unconditional wildcard.
func cors(origins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowed["*"] || allowed[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
