package db

import (
	"context"

	"github.com/idleduelist/server/internal/model"
)

// Store is the persistence contract every backend (PostgresStore,
// MemoryStore) satisfies. All write paths are transactional per
// operation; UpdateRating and AppendMatch are combined into one
// transaction by FinishMatch so rating + match-history writes cannot
// diverge.
type Store interface {
	GetUser(ctx context.Context, username string) (*model.User, error)
	GetUserByID(ctx context.Context, userID string) (*model.User, error)
	CreateUser(ctx context.Context, username, passwordHash, email string) (*model.User, error)

	GetCharacter(ctx context.Context, characterID string) (*model.Character, error)
	ListCharacters(ctx context.Context, userID string) ([]*model.Character, error)
	UpsertCharacter(ctx context.Context, c *model.Character) error
	DeleteCharacter(ctx context.Context, characterID string) error

	AppendMatch(ctx context.Context, record *model.MatchRecord) error
	ListMatches(ctx context.Context, characterID string, limit int) ([]*model.MatchRecord, error)

	// FinishMatch atomically updates both characters' ratings/win-loss
	// counters and appends the MatchRecord, per spec §4.1's
	// single-transaction requirement.
	FinishMatch(ctx context.Context, record *model.MatchRecord, ratingA, ratingB int32) error

	// Leaderboard returns the top characters by rating, descending.
	Leaderboard(ctx context.Context, limit int) ([]*model.Character, error)

	Ping(ctx context.Context) error
	Close()
}
