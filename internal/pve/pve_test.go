package pve

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/idleduelist/server/internal/cache"
	"github.com/idleduelist/server/internal/combat"
	"github.com/idleduelist/server/internal/db"
	"github.com/idleduelist/server/internal/model"
)

func testEngine(t *testing.T) (*Engine, *model.Character) {
	t.Helper()
	c := cache.NewMemoryCache()
	mgr := combat.NewManager(c, time.Hour, 10*time.Minute)
	store := db.NewMemoryStore()
	ch, err := model.NewCharacter("char-1", "user-1", "Hero", model.FactionIronwardens)
	if err != nil {
		t.Fatalf("NewCharacter: %v", err)
	}
	ch.Level = 5
	if err := store.UpsertCharacter(context.Background(), ch); err != nil {
		t.Fatalf("UpsertCharacter: %v", err)
	}
	return NewEngine(mgr, c, store, time.Minute), ch
}

func TestEnemyCatalog_HasAtLeast29Entries(t *testing.T) {
	if len(EnemyCatalog) < 29 {
		t.Fatalf("expected at least 29 enemies, got %d", len(EnemyCatalog))
	}
	for _, e := range EnemyCatalog {
		if e.EnemyID == "" || e.Level <= 0 {
			t.Errorf("invalid catalog entry: %+v", e)
		}
	}
}

func TestStartPvE_UnknownEnemyIsNotFound(t *testing.T) {
	e, ch := testEngine(t)
	_, err := e.StartPvE(context.Background(), "c1", ch, "does-not-exist", 1)
	if err == nil {
		t.Fatal("expected error for unknown enemy")
	}
}

func TestStartPvE_CreatesCombatWithEnemyAsOpponent(t *testing.T) {
	e, ch := testEngine(t)
	enemyID := EnemyCatalog[0].EnemyID
	s, err := e.StartPvE(context.Background(), "c2", ch, enemyID, 1)
	if err != nil {
		t.Fatalf("StartPvE: %v", err)
	}
	if _, ok := s.Participants[ch.CharacterID]; !ok {
		t.Error("expected character to be a participant")
	}
	if _, ok := s.Participants[enemyID]; !ok {
		t.Error("expected enemy to be a participant")
	}
}

func TestComputeReward_GrantsLevelUpsWhenXPCrossesThreshold(t *testing.T) {
	ch, _ := model.NewCharacter("c", "u", "Hero", model.FactionEmberfane)
	ch.Level = 1
	ch.XP = 0
	enemy := EnemyDef{EnemyID: "x", RewardXP: xpForLevel(2) + 10, RewardGold: 5}
	r := ComputeReward(enemy, ch, rand.New(rand.NewSource(1)))
	if r.LevelUps < 1 {
		t.Errorf("expected at least one level up, got %d", r.LevelUps)
	}
}

func TestApplyReward_PersistsGoldAndXP(t *testing.T) {
	e, ch := testEngine(t)
	r := Reward{XP: 50, Gold: 20}
	if err := e.ApplyReward(context.Background(), ch, r); err != nil {
		t.Fatalf("ApplyReward: %v", err)
	}
	if ch.Gold != 20 || ch.XP != 50 {
		t.Errorf("expected gold=20 xp=50, got gold=%d xp=%d", ch.Gold, ch.XP)
	}
}

func TestAdvanceAutoFight_RejectsNonParticipant(t *testing.T) {
	e, ch := testEngine(t)
	enemyID := EnemyCatalog[0].EnemyID
	_, err := e.StartPvE(context.Background(), "c3", ch, enemyID, 1)
	if err != nil {
		t.Fatalf("StartPvE: %v", err)
	}
	_, _, err = e.AdvanceAutoFight(context.Background(), "c3", "someone-else")
	if err == nil {
		t.Fatal("expected error for non-participant character")
	}
}

func TestCancelAutoFight_IsIdempotent(t *testing.T) {
	e, ch := testEngine(t)
	enemyID := EnemyCatalog[0].EnemyID
	if _, err := e.StartPvE(context.Background(), "c4", ch, enemyID, 1); err != nil {
		t.Fatalf("StartPvE: %v", err)
	}
	if err := e.CancelAutoFight(context.Background(), "c4"); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	if err := e.CancelAutoFight(context.Background(), "c4"); err != nil {
		t.Fatalf("second cancel should be a no-op: %v", err)
	}
}
