package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idleduelist/server/internal/apperr"
	"github.com/idleduelist/server/internal/model"
)

func TestMemoryStore_CreateUser_DuplicateUsername(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.CreateUser(ctx, "alice", "hash", "alice@example.com")
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, "alice", "otherhash", "")
	require.Error(t, err)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.KindConflict, ae.Kind)
}

func TestMemoryStore_UpsertAndGetCharacter_Isolated(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	c, err := model.NewCharacter("char-1", "user-1", "Test", model.FactionIronwardens)
	require.NoError(t, err)
	require.NoError(t, s.UpsertCharacter(ctx, c))

	c.Name = "Mutated"
	got, err := s.GetCharacter(ctx, "char-1")
	require.NoError(t, err)
	assert.Equal(t, "Test", got.Name, "store must not alias the caller's Character")
}

func TestMemoryStore_FinishMatch_UpdatesBothParticipants(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	a, err := model.NewCharacter("a", "u1", "A", model.FactionIronwardens)
	require.NoError(t, err)
	b, err := model.NewCharacter("b", "u2", "B", model.FactionDuskveil)
	require.NoError(t, err)
	require.NoError(t, s.UpsertCharacter(ctx, a))
	require.NoError(t, s.UpsertCharacter(ctx, b))

	record := &model.MatchRecord{
		MatchID: "m1", CombatID: "c1",
		ParticipantA: "a", ParticipantB: "b", WinnerID: "a",
		Reason: model.ReasonKill,
	}
	require.NoError(t, s.FinishMatch(ctx, record, 1016, 984))

	gotA, err := s.GetCharacter(ctx, "a")
	require.NoError(t, err)
	gotB, err := s.GetCharacter(ctx, "b")
	require.NoError(t, err)

	assert.Equal(t, int32(1016), gotA.Rating)
	assert.Equal(t, int32(1), gotA.Wins)
	assert.Equal(t, int32(984), gotB.Rating)
	assert.Equal(t, int32(1), gotB.Losses)

	matches, err := s.ListMatches(ctx, "a", 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "m1", matches[0].MatchID)
}

func TestMemoryStore_Leaderboard_SortsDescending(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for _, tc := range []struct {
		id     string
		rating int32
	}{{"a", 1200}, {"b", 900}, {"c", 1500}} {
		c, err := model.NewCharacter(tc.id, "u-"+tc.id, tc.id, model.FactionEmberfane)
		require.NoError(t, err)
		c.Rating = tc.rating
		require.NoError(t, s.UpsertCharacter(ctx, c))
	}

	top, err := s.Leaderboard(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "c", top[0].CharacterID)
	assert.Equal(t, "a", top[1].CharacterID)
}
