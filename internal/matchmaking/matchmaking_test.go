package matchmaking

import (
	"context"
	"testing"
	"time"

	"github.com/idleduelist/server/internal/cache"
	"github.com/idleduelist/server/internal/combat"
	"github.com/idleduelist/server/internal/config"
	"github.com/idleduelist/server/internal/db"
	"github.com/idleduelist/server/internal/model"
)

func testMatcher(t *testing.T, cfg config.MatchmakingConfig) (*Matcher, *db.MemoryStore) {
	t.Helper()
	c := cache.NewMemoryCache()
	store := db.NewMemoryStore()
	mgr := combat.NewManager(c, time.Hour, 10*time.Minute)
	return NewMatcher(c, store, mgr, cfg, time.Minute), store
}

func newChar(t *testing.T, store *db.MemoryStore, id, userID string, faction model.FactionID, rating int32) *model.Character {
	t.Helper()
	ch, err := model.NewCharacter(id, userID, "Fighter-"+id, faction)
	if err != nil {
		t.Fatalf("NewCharacter: %v", err)
	}
	ch.Level = 10
	ch.Rating = rating
	if err := store.UpsertCharacter(context.Background(), ch); err != nil {
		t.Fatalf("UpsertCharacter: %v", err)
	}
	return ch
}

func TestEnqueue_RefreshesTimestampOnRepeatCall(t *testing.T) {
	m, store := testMatcher(t, config.MatchmakingConfig{KFactor: 32, BotFallbackSeconds: 60})
	ch := newChar(t, store, "c1", "u1", model.FactionIronwardens, 1000)

	first, err := m.Enqueue(context.Background(), ch)
	if err != nil {
		t.Fatalf("first Enqueue: %v", err)
	}
	first.EnqueuedAt = first.EnqueuedAt.Add(-time.Minute)
	if err := m.saveTicket(context.Background(), first); err != nil {
		t.Fatalf("backdating ticket: %v", err)
	}

	second, err := m.Enqueue(context.Background(), ch)
	if err != nil {
		t.Fatalf("second Enqueue: %v", err)
	}
	if !second.EnqueuedAt.After(first.EnqueuedAt) {
		t.Error("expected re-enqueue to refresh EnqueuedAt")
	}

	reloaded, ok, err := m.loadTicket(context.Background(), "u1")
	if err != nil || !ok {
		t.Fatalf("loadTicket after re-enqueue: ok=%v err=%v", ok, err)
	}
	if !reloaded.EnqueuedAt.Equal(second.EnqueuedAt) {
		t.Error("expected the refreshed ticket to be persisted, not just returned")
	}
}

func TestCancel_IsIdempotent(t *testing.T) {
	m, store := testMatcher(t, config.MatchmakingConfig{KFactor: 32, BotFallbackSeconds: 60})
	ch := newChar(t, store, "c1", "u1", model.FactionIronwardens, 1000)
	if _, err := m.Enqueue(context.Background(), ch); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := m.Cancel(context.Background(), "u1"); err != nil {
		t.Fatalf("first Cancel: %v", err)
	}
	if err := m.Cancel(context.Background(), "u1"); err != nil {
		t.Fatalf("second Cancel should be a no-op: %v", err)
	}
}

func TestTryMatch_PairsWithinWindow(t *testing.T) {
	m, store := testMatcher(t, config.MatchmakingConfig{KFactor: 32, BotFallbackSeconds: 60})
	a := newChar(t, store, "a", "ua", model.FactionIronwardens, 1000)
	b := newChar(t, store, "b", "ub", model.FactionDuskveil, 1030)

	if _, err := m.Enqueue(context.Background(), a); err != nil {
		t.Fatalf("enqueue a: %v", err)
	}
	if _, err := m.Enqueue(context.Background(), b); err != nil {
		t.Fatalf("enqueue b: %v", err)
	}

	started, err := m.TryMatch(context.Background(), 1)
	if err != nil {
		t.Fatalf("TryMatch: %v", err)
	}
	if len(started) != 1 {
		t.Fatalf("expected 1 match, got %d", len(started))
	}
	if _, ok, _ := m.QueueStatus(context.Background(), "ua"); ok {
		t.Error("expected paired ticket to be dequeued")
	}
}

func TestTryMatch_NoPairOutsideWindow(t *testing.T) {
	m, store := testMatcher(t, config.MatchmakingConfig{KFactor: 32, BotFallbackSeconds: 60})
	a := newChar(t, store, "a", "ua", model.FactionIronwardens, 1000)
	b := newChar(t, store, "b", "ub", model.FactionDuskveil, 1400)

	if _, err := m.Enqueue(context.Background(), a); err != nil {
		t.Fatalf("enqueue a: %v", err)
	}
	if _, err := m.Enqueue(context.Background(), b); err != nil {
		t.Fatalf("enqueue b: %v", err)
	}

	started, err := m.TryMatch(context.Background(), 1)
	if err != nil {
		t.Fatalf("TryMatch: %v", err)
	}
	if len(started) != 0 {
		t.Fatalf("expected no match outside window, got %d", len(started))
	}
}

func TestTryMatch_BotFallbackAfterTimeout(t *testing.T) {
	m, store := testMatcher(t, config.MatchmakingConfig{KFactor: 32, BotFallbackSeconds: 60})
	a := newChar(t, store, "a", "ua", model.FactionIronwardens, 1000)

	ticket, err := m.Enqueue(context.Background(), a)
	if err != nil {
		t.Fatalf("enqueue a: %v", err)
	}
	ticket.EnqueuedAt = time.Now().Add(-90 * time.Second)
	if err := m.saveTicket(context.Background(), ticket); err != nil {
		t.Fatalf("backdating ticket: %v", err)
	}

	started, err := m.TryMatch(context.Background(), 1)
	if err != nil {
		t.Fatalf("TryMatch: %v", err)
	}
	if len(started) != 1 {
		t.Fatalf("expected 1 bot-fulfilled match, got %d", len(started))
	}
	if !IsBot(started[0].Opponent(a.CharacterID).ID) {
		t.Errorf("expected opponent to be a bot, got %s", started[0].Opponent(a.CharacterID).ID)
	}
}

func TestEloUpdate_WinnerGainsLoserLosesSymmetrically(t *testing.T) {
	newA, newB := EloUpdate(1000, 1000, true, 32)
	if newA != 1016 || newB != 984 {
		t.Errorf("expected even-rating win to be +16/-16, got newA=%d newB=%d", newA, newB)
	}
}

func TestEloUpdate_ClampsAtFloor(t *testing.T) {
	_, newB := EloUpdate(2000, 100, true, 32)
	if newB < minRating {
		t.Errorf("expected rating to clamp at floor %d, got %d", minRating, newB)
	}
}

func TestSettleMatch_UpdatesRatingsAndAppendsRecord(t *testing.T) {
	m, store := testMatcher(t, config.MatchmakingConfig{KFactor: 32, BotFallbackSeconds: 60})
	a := newChar(t, store, "a", "ua", model.FactionIronwardens, 1000)
	b := newChar(t, store, "b", "ub", model.FactionDuskveil, 1000)

	if _, err := m.Enqueue(context.Background(), a); err != nil {
		t.Fatalf("enqueue a: %v", err)
	}
	if _, err := m.Enqueue(context.Background(), b); err != nil {
		t.Fatalf("enqueue b: %v", err)
	}
	started, err := m.TryMatch(context.Background(), 1)
	if err != nil || len(started) != 1 {
		t.Fatalf("TryMatch: started=%d err=%v", len(started), err)
	}
	combatID := started[0].CombatID

	// Force the combat to a known-winner terminal state directly.
	state, err := m.combatMgr.Forfeit(context.Background(), combatID, "b")
	if err != nil {
		t.Fatalf("Forfeit: %v", err)
	}
	if state.Winner != "a" {
		t.Fatalf("expected a to win by forfeit, got %s", state.Winner)
	}

	if err := m.SettleMatch(context.Background(), combatID); err != nil {
		t.Fatalf("SettleMatch: %v", err)
	}

	matches, err := store.ListMatches(context.Background(), "a", 10)
	if err != nil {
		t.Fatalf("ListMatches: %v", err)
	}
	if len(matches) != 1 || matches[0].WinnerID != "a" {
		t.Fatalf("expected one recorded match won by a, got %+v", matches)
	}

	// Settling again is a no-op: no duplicate record.
	if err := m.SettleMatch(context.Background(), combatID); err != nil {
		t.Fatalf("second SettleMatch: %v", err)
	}
	matches, _ = store.ListMatches(context.Background(), "a", 10)
	if len(matches) != 1 {
		t.Errorf("expected settlement to be idempotent, got %d records", len(matches))
	}
}
