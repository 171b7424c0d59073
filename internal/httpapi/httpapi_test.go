package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/idleduelist/server/internal/auth"
	"github.com/idleduelist/server/internal/cache"
	"github.com/idleduelist/server/internal/combat"
	"github.com/idleduelist/server/internal/config"
	"github.com/idleduelist/server/internal/db"
	"github.com/idleduelist/server/internal/matchmaking"
	"github.com/idleduelist/server/internal/model"
	"github.com/idleduelist/server/internal/pve"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.JWTSecret = "test-signing-key-0000000000000000"
	cfg.CORSOrigins = []string{"http://localhost:5173"}

	c := cache.NewMemoryCache()
	store := db.NewMemoryStore()
	combatMgr := combat.NewManager(c, time.Hour, 10*time.Minute)
	pveEngine := pve.NewEngine(combatMgr, c, store, 30*time.Minute)
	matcher := matchmaking.NewMatcher(c, store, combatMgr, cfg.Matchmaking, 2*time.Minute)
	keyring := auth.NewKeyring([]byte(cfg.JWTSecret))
	limiters := auth.NewLimiters()

	return NewServer(cfg, store, c, combatMgr, pveEngine, matcher, keyring, limiters, 1)
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func registerAndLogin(t *testing.T, r http.Handler, username string) tokenPair {
	t.Helper()
	rec := doJSON(t, r, http.MethodPost, "/api/register", "", registerRequest{
		Username: username,
		Password: "correct-horse-battery-staple",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var pair tokenPair
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	return pair
}

func TestHealth_ReportsHealthyWithMemoryBackends(t *testing.T) {
	s := testServer(t)
	rec := doJSON(t, s.Router(), http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body healthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "healthy", body.Status)
}

func TestRegisterLoginAndAuthenticatedRoute(t *testing.T) {
	s := testServer(t)
	r := s.Router()

	pair := registerAndLogin(t, r, "duelist-1")
	require.NotEmpty(t, pair.AccessToken)

	rec := doJSON(t, r, http.MethodGet, "/api/characters", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, r, http.MethodGet, "/api/characters", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateCharacterAndStartPvECombat(t *testing.T) {
	s := testServer(t)
	r := s.Router()

	pair := registerAndLogin(t, r, "duelist-2")

	rec := doJSON(t, r, http.MethodPost, "/api/characters", pair.AccessToken, createCharacterRequest{
		Name:    "Brightblade",
		Faction: model.FactionIronwardens,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created model.Character
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.CharacterID)
	characterID := created.CharacterID

	rec = doJSON(t, r, http.MethodPost, "/api/combat/start", pair.AccessToken, startCombatRequest{
		CharacterID: characterID,
		Mode:        "pve",
		EnemyID:     "sewer_rat",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, r, http.MethodGet, "/api/combat/enemies", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestPvPQueue_EnqueueStatusAndCancel(t *testing.T) {
	s := testServer(t)
	r := s.Router()

	pair := registerAndLogin(t, r, "duelist-3")
	rec := doJSON(t, r, http.MethodPost, "/api/characters", pair.AccessToken, createCharacterRequest{
		Name:    "Shadebane",
		Faction: model.FactionDuskveil,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created model.Character
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	characterID := created.CharacterID

	rec = doJSON(t, r, http.MethodPost, "/api/pvp/queue", pair.AccessToken, pvpQueueRequest{CharacterID: characterID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, r, http.MethodGet, "/api/pvp/queue/status", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.Equal(t, true, status["queued"])

	rec = doJSON(t, r, http.MethodDelete, "/api/pvp/queue", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/pvp/queue/status", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.Equal(t, false, status["queued"])
}

func TestRegisterRateLimit_RejectsPastBurst(t *testing.T) {
	s := testServer(t)
	r := s.Router()

	var last *httptest.ResponseRecorder
	for i := 0; i < 20; i++ {
		last = doJSON(t, r, http.MethodPost, "/api/register", "", registerRequest{
			Username: "spammer",
			Password: "correct-horse-battery-staple",
		})
		if last.Code == http.StatusTooManyRequests {
			break
		}
	}
	require.Equal(t, http.StatusTooManyRequests, last.Code)
}
