package sweep

import (
	"context"
	"testing"
	"time"

	"github.com/idleduelist/server/internal/auth"
	"github.com/idleduelist/server/internal/cache"
	"github.com/idleduelist/server/internal/combat"
	"github.com/idleduelist/server/internal/config"
	"github.com/idleduelist/server/internal/db"
	"github.com/idleduelist/server/internal/matchmaking"
	"github.com/idleduelist/server/internal/model"
)

func testRunner(t *testing.T, c cache.Cache, store *db.MemoryStore) (*Runner, *combat.Manager) {
	t.Helper()
	mgr := combat.NewManager(c, time.Hour, 10*time.Minute)
	matcher := matchmaking.NewMatcher(c, store, mgr, config.MatchmakingConfig{KFactor: 32, BotFallbackSeconds: 60}, time.Minute)
	r := &Runner{
		matcher:         matcher,
		cache:           c,
		serverEpoch:     1,
		queueInterval:   10 * time.Millisecond,
		settleInterval:  10 * time.Millisecond,
		sessionInterval: 10 * time.Millisecond,
		metricsInterval: 10 * time.Millisecond,
		sessionTTL:      time.Minute,
	}
	return r, mgr
}

func newChar(t *testing.T, store *db.MemoryStore, id, userID string, rating int32) *model.Character {
	t.Helper()
	ch, err := model.NewCharacter(id, userID, "Fighter-"+id, model.FactionIronwardens)
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

func TestRunQueueSweep_PairsQueuedTicketsThenStopsOnCancel(t *testing.T) {
	c := cache.NewMemoryCache()
	store := db.NewMemoryStore()
	r, _ := testRunner(t, c, store)

	a := newChar(t, store, "a", "ua", 1000)
	b := newChar(t, store, "b", "ub", 1010)
	ctx := context.Background()
	if _, err := r.matcher.Enqueue(ctx, a); err != nil {
		t.Fatalf("enqueue a: %v", err)
	}
	if _, err := r.matcher.Enqueue(ctx, b); err != nil {
		t.Fatalf("enqueue b: %v", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if err := r.RunQueueSweep(runCtx); err != nil {
		t.Fatalf("RunQueueSweep: %v", err)
	}

	if _, queued, _ := r.matcher.QueueStatus(ctx, "ua"); queued {
		t.Error("expected the queue sweep to have paired and dequeued both tickets")
	}
}

func TestRunCombatSweep_SettlesStuckTerminalMatch(t *testing.T) {
	c := cache.NewMemoryCache()
	store := db.NewMemoryStore()
	r, mgr := testRunner(t, c, store)
	ctx := context.Background()

	a := newChar(t, store, "a", "ua", 1000)
	b := newChar(t, store, "b", "ub", 1000)
	if _, err := r.matcher.Enqueue(ctx, a); err != nil {
		t.Fatalf("enqueue a: %v", err)
	}
	if _, err := r.matcher.Enqueue(ctx, b); err != nil {
		t.Fatalf("enqueue b: %v", err)
	}
	started, err := r.matcher.TryMatch(ctx, 1)
	if err != nil || len(started) != 1 {
		t.Fatalf("TryMatch: started=%d err=%v", len(started), err)
	}
	combatID := started[0].CombatID

	// Simulate a client disconnecting right as the match ends: the
	// combat reaches Terminal but nothing calls SettleMatch directly.
	if _, err := mgr.Forfeit(ctx, combatID, "b"); err != nil {
		t.Fatalf("Forfeit: %v", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if err := r.RunCombatSweep(runCtx); err != nil {
		t.Fatalf("RunCombatSweep: %v", err)
	}

	matches, err := store.ListMatches(ctx, "a", 10)
	if err != nil {
		t.Fatalf("ListMatches: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected the combat sweep to have settled the stuck match, got %d records", len(matches))
	}
}

func TestRunSessionSweep_ExpiresStaleEntries(t *testing.T) {
	c := cache.NewMemoryCache()
	store := db.NewMemoryStore()
	r, _ := testRunner(t, c, store)
	r.sessionTTL = 10 * time.Millisecond
	ctx := context.Background()

	if err := auth.TouchSession(ctx, c, "user-1", r.sessionTTL); err != nil {
		t.Fatalf("TouchSession: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	runCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if err := r.RunSessionSweep(runCtx); err != nil {
		t.Fatalf("RunSessionSweep: %v", err)
	}

	active, err := auth.CountActiveSessions(ctx, c)
	if err != nil {
		t.Fatalf("CountActiveSessions: %v", err)
	}
	if active != 0 {
		t.Errorf("expected the stale session to have expired, got %d active", active)
	}
}

func TestRunMetricsSnapshot_InvokesCallbackWithActiveCount(t *testing.T) {
	c := cache.NewMemoryCache()
	store := db.NewMemoryStore()
	r, _ := testRunner(t, c, store)
	ctx := context.Background()

	if err := auth.TouchSession(ctx, c, "user-1", time.Minute); err != nil {
		t.Fatalf("TouchSession: %v", err)
	}

	snapshots := make(chan int, 8)
	r.onMetricsSnapshot = func(n int) { snapshots <- n }

	runCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if err := r.RunMetricsSnapshot(runCtx); err != nil {
		t.Fatalf("RunMetricsSnapshot: %v", err)
	}

	select {
	case n := <-snapshots:
		if n != 1 {
			t.Errorf("expected a snapshot of 1 active session, got %d", n)
		}
	default:
		t.Fatal("expected at least one metrics snapshot to have fired")
	}
}

func TestRunMetricsSnapshot_BlocksUntilCancelWhenNoCallback(t *testing.T) {
	c := cache.NewMemoryCache()
	store := db.NewMemoryStore()
	r, _ := testRunner(t, c, store)
	r.onMetricsSnapshot = nil

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := r.RunMetricsSnapshot(ctx); err != nil {
		t.Fatalf("RunMetricsSnapshot: %v", err)
	}
}
