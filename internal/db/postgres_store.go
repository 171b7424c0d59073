package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/idleduelist/server/internal/apperr"
	"github.com/idleduelist/server/internal/model"
)

// PostgresStore is the production Store backend: a pgxpool-backed
// repository-per-entity implementation, grounded on the teacher's
// QueryRow(...).Scan(...) / RETURNING idiom.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to dsn and verifies reachability.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() { s.pool.Close() }

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return apperr.Unavailable("database unreachable", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// --- users ---

func (s *PostgresStore) GetUser(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, username, password_hash, email, created_at FROM users WHERE username = $1`,
		username,
	).Scan(&u.UserID, &u.Username, &u.PasswordHash, &u.Email, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Unavailable(fmt.Sprintf("querying user %q", username), err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	var u model.User
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, username, password_hash, email, created_at FROM users WHERE user_id = $1`,
		userID,
	).Scan(&u.UserID, &u.Username, &u.PasswordHash, &u.Email, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Unavailable(fmt.Sprintf("querying user %q", userID), err)
	}
	return &u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, username, passwordHash, email string) (*model.User, error) {
	id := newID("user")
	var u model.User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (user_id, username, password_hash, email)
		 VALUES ($1, $2, $3, $4)
		 RETURNING user_id, username, password_hash, email, created_at`,
		id, username, passwordHash, email,
	).Scan(&u.UserID, &u.Username, &u.PasswordHash, &u.Email, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflict("DUPLICATE_USERNAME", fmt.Sprintf("username %q already taken", username))
		}
		return nil, apperr.Unavailable("creating user", err)
	}
	return &u, nil
}

// --- characters ---

func (s *PostgresStore) GetCharacter(ctx context.Context, characterID string) (*model.Character, error) {
	c, err := s.scanCharacter(ctx, characterID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, nil
	}
	if err := s.loadEquipment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *PostgresStore) scanCharacter(ctx context.Context, characterID string) (*model.Character, error) {
	var c model.Character
	err := s.pool.QueryRow(ctx,
		`SELECT character_id, user_id, name, level, xp, faction,
		        might, finesse, fortitude, arcana, insight, presence, unspent_points,
		        gold, learned_abilities, loadout, rating, wins, losses, current_hp, max_hp
		 FROM characters WHERE character_id = $1`, characterID,
	).Scan(&c.CharacterID, &c.UserID, &c.Name, &c.Level, &c.XP, &c.Faction,
		&c.BaseStats.Might, &c.BaseStats.Finesse, &c.BaseStats.Fortitude,
		&c.BaseStats.Arcana, &c.BaseStats.Insight, &c.BaseStats.Presence, &c.UnspentPoints,
		&c.Gold, &c.LearnedAbilities, &c.Loadout, &c.Rating, &c.Wins, &c.Losses, &c.CurrentHP, &c.MaxHP)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Unavailable(fmt.Sprintf("querying character %q", characterID), err)
	}
	c.Equipped = make(map[model.EquipSlot]*model.Equipment)
	return &c, nil
}

func (s *PostgresStore) loadEquipment(ctx context.Context, c *model.Character) error {
	rows, err := s.pool.Query(ctx,
		`SELECT e.item_id, e.name, e.slot, e.rarity,
		        e.might_mod, e.finesse_mod, e.fortitude_mod, e.arcana_mod, e.insight_mod, e.presence_mod,
		        m.slot IS NOT NULL
		 FROM equipment e
		 LEFT JOIN inventory_mounts m ON m.item_id = e.item_id AND m.character_id = e.owner_character_id
		 WHERE e.owner_character_id = $1`, c.CharacterID)
	if err != nil {
		return apperr.Unavailable("loading equipment", err)
	}
	defer rows.Close()

	for rows.Next() {
		item := &model.Equipment{OwnerCharacterID: c.CharacterID}
		var mounted bool
		if err := rows.Scan(&item.ItemID, &item.Name, &item.Slot, &item.Rarity,
			&item.StatModifiers.Might, &item.StatModifiers.Finesse, &item.StatModifiers.Fortitude,
			&item.StatModifiers.Arcana, &item.StatModifiers.Insight, &item.StatModifiers.Presence,
			&mounted); err != nil {
			return apperr.Unavailable("scanning equipment row", err)
		}
		item.Mounted = mounted
		if mounted {
			c.Equipped[item.Slot] = item
		} else {
			c.Inventory = append(c.Inventory, item)
		}
	}
	return rows.Err()
}

func (s *PostgresStore) ListCharacters(ctx context.Context, userID string) ([]*model.Character, error) {
	rows, err := s.pool.Query(ctx, `SELECT character_id FROM characters WHERE user_id = $1`, userID)
	if err != nil {
		return nil, apperr.Unavailable("listing characters", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, apperr.Unavailable("scanning character id", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, apperr.Unavailable("listing characters", err)
	}

	out := make([]*model.Character, 0, len(ids))
	for _, id := range ids {
		c, err := s.GetCharacter(ctx, id)
		if err != nil {
			return nil, err
		}
		if c != nil {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *PostgresStore) UpsertCharacter(ctx context.Context, c *model.Character) error {
	return withRetry(ctx, func() error {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO characters (character_id, user_id, name, level, xp, faction,
			   might, finesse, fortitude, arcana, insight, presence, unspent_points,
			   gold, learned_abilities, loadout, rating, wins, losses, current_hp, max_hp, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21, now())
			 ON CONFLICT (character_id) DO UPDATE SET
			   name = EXCLUDED.name, level = EXCLUDED.level, xp = EXCLUDED.xp,
			   might = EXCLUDED.might, finesse = EXCLUDED.finesse, fortitude = EXCLUDED.fortitude,
			   arcana = EXCLUDED.arcana, insight = EXCLUDED.insight, presence = EXCLUDED.presence,
			   unspent_points = EXCLUDED.unspent_points, gold = EXCLUDED.gold,
			   learned_abilities = EXCLUDED.learned_abilities, loadout = EXCLUDED.loadout,
			   rating = EXCLUDED.rating, wins = EXCLUDED.wins, losses = EXCLUDED.losses,
			   current_hp = EXCLUDED.current_hp, max_hp = EXCLUDED.max_hp, updated_at = now()`,
			c.CharacterID, c.UserID, c.Name, c.Level, c.XP, c.Faction,
			c.BaseStats.Might, c.BaseStats.Finesse, c.BaseStats.Fortitude,
			c.BaseStats.Arcana, c.BaseStats.Insight, c.BaseStats.Presence, c.UnspentPoints,
			c.Gold, c.LearnedAbilities, c.Loadout, c.Rating, c.Wins, c.Losses, c.CurrentHP, c.MaxHP)
		if err != nil {
			return apperr.Unavailable("upserting character", err)
		}
		return nil
	})
}

func (s *PostgresStore) DeleteCharacter(ctx context.Context, characterID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM characters WHERE character_id = $1`, characterID)
	if err != nil {
		return apperr.Unavailable("deleting character", err)
	}
	return nil
}

// --- match history / rating ---

func (s *PostgresStore) AppendMatch(ctx context.Context, record *model.MatchRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO match_history (match_id, combat_id, participant_a, participant_b,
		   winner_id, rating_delta_a, rating_delta_b, duration_turns, reason)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		record.MatchID, record.CombatID, record.ParticipantA, record.ParticipantB,
		record.WinnerID, record.RatingDeltaA, record.RatingDeltaB, record.DurationTurns, record.Reason)
	if err != nil {
		return apperr.Unavailable("appending match record", err)
	}
	return nil
}

func (s *PostgresStore) ListMatches(ctx context.Context, characterID string, limit int) ([]*model.MatchRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT match_id, combat_id, participant_a, participant_b, winner_id,
		        rating_delta_a, rating_delta_b, duration_turns, reason, created_at
		 FROM match_history
		 WHERE participant_a = $1 OR participant_b = $1
		 ORDER BY created_at DESC LIMIT $2`, characterID, limit)
	if err != nil {
		return nil, apperr.Unavailable("listing matches", err)
	}
	defer rows.Close()

	var out []*model.MatchRecord
	for rows.Next() {
		var m model.MatchRecord
		if err := rows.Scan(&m.MatchID, &m.CombatID, &m.ParticipantA, &m.ParticipantB, &m.WinnerID,
			&m.RatingDeltaA, &m.RatingDeltaB, &m.DurationTurns, &m.Reason, &m.CreatedAt); err != nil {
			return nil, apperr.Unavailable("scanning match row", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// FinishMatch updates both characters' ratings/win-loss counters and
// appends the MatchRecord inside one transaction, per spec §4.1/§4.7.
func (s *PostgresStore) FinishMatch(ctx context.Context, record *model.MatchRecord, ratingA, ratingB int32) error {
	return withRetry(ctx, func() error {
		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return apperr.Unavailable("beginning finish-match transaction", err)
		}
		defer tx.Rollback(ctx)

		aWon := record.WinnerID == record.ParticipantA
		if _, err := tx.Exec(ctx,
			`UPDATE characters SET rating = $1, wins = wins + $2, losses = losses + $3, updated_at = now() WHERE character_id = $4`,
			ratingA, boolToInt(aWon), boolToInt(!aWon), record.ParticipantA); err != nil {
			return apperr.Unavailable("updating participant A rating", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE characters SET rating = $1, wins = wins + $2, losses = losses + $3, updated_at = now() WHERE character_id = $4`,
			ratingB, boolToInt(!aWon), boolToInt(aWon), record.ParticipantB); err != nil {
			return apperr.Unavailable("updating participant B rating", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO match_history (match_id, combat_id, participant_a, participant_b,
			   winner_id, rating_delta_a, rating_delta_b, duration_turns, reason)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			record.MatchID, record.CombatID, record.ParticipantA, record.ParticipantB,
			record.WinnerID, record.RatingDeltaA, record.RatingDeltaB, record.DurationTurns, record.Reason); err != nil {
			return apperr.Unavailable("appending match record", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return apperr.Unavailable("committing finish-match transaction", err)
		}
		return nil
	})
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *PostgresStore) Leaderboard(ctx context.Context, limit int) ([]*model.Character, error) {
	rows, err := s.pool.Query(ctx, `SELECT character_id FROM characters ORDER BY rating DESC LIMIT $1`, limit)
	if err != nil {
		return nil, apperr.Unavailable("querying leaderboard", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, apperr.Unavailable("scanning leaderboard row", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, apperr.Unavailable("querying leaderboard", err)
	}

	out := make([]*model.Character, 0, len(ids))
	for _, id := range ids {
		c, err := s.scanCharacter(ctx, id)
		if err != nil {
			return nil, err
		}
		if c != nil {
			out = append(out, c)
		}
	}
	return out, nil
}
