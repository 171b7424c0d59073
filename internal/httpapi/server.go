// Package httpapi is IdleDuelist's HTTP+WebSocket facade (C8): a gin
// router wiring JWT auth, per-route rate limiting, structured access
// logging, Prometheus metrics, and a combat event stream, grounded on
// cafe1231-github_mmorpg/services/combat's handler/middleware/monitoring
// layering.
package httpapi

import (
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/idleduelist/server/internal/auth"
	"github.com/idleduelist/server/internal/cache"
	"github.com/idleduelist/server/internal/combat"
	"github.com/idleduelist/server/internal/config"
	"github.com/idleduelist/server/internal/db"
	"github.com/idleduelist/server/internal/matchmaking"
	"github.com/idleduelist/server/internal/pve"
)

// Server holds every dependency the handlers close over. It carries no
// combat or character state itself — C1/C2 are the source of truth —
// only the wiring (auth keys, rate buckets, metrics, the WS registry).
type Server struct {
	cfg config.Config

	store     db.Store
	cache     cache.Cache
	combatMgr *combat.Manager
	pve       *pve.Engine
	matcher   *matchmaking.Matcher

	keyring  *auth.Keyring
	limiters *auth.Limiters
	metrics  *metrics

	serverEpoch int64

	hubMu sync.RWMutex
	hub   map[string]map[*wsConn]struct{} // combat_id -> connected sockets
}

// SetActiveSessions feeds the C9 metrics-snapshot sweep's session count
// into the /metrics gauge, without the sweep package importing httpapi.
func (s *Server) SetActiveSessions(n int) {
	s.metrics.setActiveSessions(n)
}

// NewServer wires a Server from its already-constructed dependencies.
// serverEpoch seeds combat.SeedFor so a process restart cannot replay
// a deterministic RNG sequence from a previous run.
func NewServer(
	cfg config.Config,
	store db.Store,
	c cache.Cache,
	combatMgr *combat.Manager,
	pveEngine *pve.Engine,
	matcher *matchmaking.Matcher,
	keyring *auth.Keyring,
	limiters *auth.Limiters,
	serverEpoch int64,
) *Server {
	s := &Server{
		cfg:         cfg,
		store:       store,
		cache:       c,
		combatMgr:   combatMgr,
		pve:         pveEngine,
		matcher:     matcher,
		keyring:     keyring,
		limiters:    limiters,
		metrics:     newMetrics(),
		serverEpoch: serverEpoch,
		hub:         make(map[string]map[*wsConn]struct{}),
	}
	matcher.SetOnCombatStarted(s.metrics.recordCombatStarted)
	return s
}

// Router builds the gin engine and registers every route. Public
// routes (register/login/refresh/health/metrics) carry no JWT
// requirement; everything under the authenticated group does.
func (s *Server) Router() *gin.Engine {
	if s.cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(recovery(), s.metrics.middleware(), accessLog(), cors(s.cfg.CORSOrigins))
	r.Use(rateLimit(s.limiters.Global, byClientIP))

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(s.metrics.handler()))

	api := r.Group("/api")
	{
		api.POST("/register", rateLimit(s.limiters.Register, byClientIP), s.handleRegister)
		api.POST("/login", rateLimit(s.limiters.Login, byClientIP), s.handleLogin)
		api.POST("/auth/refresh", s.handleRefresh)
		api.GET("/leaderboard", s.handleLeaderboard)
		api.GET("/combat/enemies", s.handleListEnemies)

		authed := api.Group("")
		authed.Use(jwtAuth(s.keyring, s.cache, s.cfg.TTL.Session()))
		{
			authed.GET("/character/list", s.handleListCharacters)
			authed.POST("/character/create", s.handleCreateCharacter)
			authed.GET("/characters", s.handleListCharacters)
			authed.POST("/characters", s.handleCreateCharacter)
			authed.GET("/character/:id", s.handleGetCharacter)
			authed.POST("/character/:id/stats", s.handleAllocateStats)
			authed.POST("/character/:id/equip", s.handleEquip)
			authed.POST("/character/:id/unequip", s.handleUnequip)
			authed.PUT("/character/:id/loadout", s.handleSetLoadout)
			authed.POST("/character/:id/abilities", s.handleLearnAbility)
			authed.DELETE("/character/:id", s.handleDeleteCharacter)
			authed.GET("/character/:id/matches", s.handleCharacterMatches)

			authed.POST("/combat/start", rateLimit(s.limiters.CombatStart, byUser), s.handleStartCombat)
			authed.GET("/combat/:id", s.handleGetCombat)
			authed.POST("/combat/:id/action", s.handleCombatAction)
			authed.POST("/combat/:id/forfeit", s.handleForfeit)
			authed.POST("/combat/:id/autofight/advance", s.handleAutoFightAdvance)
			authed.POST("/combat/:id/autofight/cancel", s.handleAutoFightCancel)
			authed.GET("/combat/:id/stream", s.handleCombatStream)

			authed.POST("/pvp/queue", rateLimit(s.limiters.CombatStart, byUser), s.handlePvPQueue)
			authed.DELETE("/pvp/queue", s.handlePvPQueueCancel)
			authed.GET("/pvp/queue/status", s.handlePvPQueueStatus)
		}
	}
	return r
}
