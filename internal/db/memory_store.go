package db

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/idleduelist/server/internal/apperr"
	"github.com/idleduelist/server/internal/model"
)

// MemoryStore is the single-node development fallback for C1, selected
// when DATABASE_URL is unset. It mirrors C2's own process-local
// fallback posture: guarded by one mutex, a startup warning logged once,
// no durability across restarts.
type MemoryStore struct {
	mu         sync.RWMutex
	usersByID  map[string]*model.User
	usersByName map[string]*model.User
	characters map[string]*model.Character
	matches    []*model.MatchRecord
}

// NewMemoryStore constructs an empty in-process store and logs the
// fallback warning once, the way C2's process-local cache does.
func NewMemoryStore() *MemoryStore {
	slog.Warn("persistence running on in-process MemoryStore; data does not survive restart and is not shared across instances", "component", "db")
	return &MemoryStore{
		usersByID:   make(map[string]*model.User),
		usersByName: make(map[string]*model.User),
		characters:  make(map[string]*model.Character),
	}
}

func (s *MemoryStore) Close() {}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func cloneUser(u *model.User) *model.User {
	cp := *u
	return &cp
}

func cloneCharacter(c *model.Character) *model.Character {
	cp := *c
	cp.BaseStats = c.BaseStats
	cp.Equipped = make(map[model.EquipSlot]*model.Equipment, len(c.Equipped))
	for slot, item := range c.Equipped {
		itemCopy := *item
		cp.Equipped[slot] = &itemCopy
	}
	cp.Inventory = make([]*model.Equipment, len(c.Inventory))
	for i, item := range c.Inventory {
		itemCopy := *item
		cp.Inventory[i] = &itemCopy
	}
	cp.LearnedAbilities = append([]string(nil), c.LearnedAbilities...)
	cp.Loadout = append([]string(nil), c.Loadout...)
	return &cp
}

func (s *MemoryStore) GetUser(ctx context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.usersByName[username]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (s *MemoryStore) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.usersByID[userID]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, username, passwordHash, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.usersByName[username]; exists {
		return nil, apperr.Conflict("DUPLICATE_USERNAME", "username already taken")
	}
	u, err := model.NewUser(newID("user"), username, passwordHash, email)
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, "INVALID_USERNAME", err.Error())
	}
	s.usersByID[u.UserID] = u
	s.usersByName[u.Username] = u
	return cloneUser(u), nil
}

func (s *MemoryStore) GetCharacter(ctx context.Context, characterID string) (*model.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.characters[characterID]
	if !ok {
		return nil, nil
	}
	return cloneCharacter(c), nil
}

func (s *MemoryStore) ListCharacters(ctx context.Context, userID string) ([]*model.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Character
	for _, c := range s.characters {
		if c.UserID == userID {
			out = append(out, cloneCharacter(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CharacterID < out[j].CharacterID })
	return out, nil
}

func (s *MemoryStore) UpsertCharacter(ctx context.Context, c *model.Character) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.characters[c.CharacterID] = cloneCharacter(c)
	return nil
}

func (s *MemoryStore) DeleteCharacter(ctx context.Context, characterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.characters, characterID)
	return nil
}

func (s *MemoryStore) AppendMatch(ctx context.Context, record *model.MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *record
	s.matches = append(s.matches, &cp)
	return nil
}

func (s *MemoryStore) ListMatches(ctx context.Context, characterID string, limit int) ([]*model.MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.MatchRecord
	for i := len(s.matches) - 1; i >= 0 && len(out) < limit; i-- {
		m := s.matches[i]
		if m.ParticipantA == characterID || m.ParticipantB == characterID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemoryStore) FinishMatch(ctx context.Context, record *model.MatchRecord, ratingA, ratingB int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	aWon := record.WinnerID == record.ParticipantA
	if a, ok := s.characters[record.ParticipantA]; ok {
		a.ApplyMatchResult(aWon, ratingA)
	}
	if b, ok := s.characters[record.ParticipantB]; ok {
		b.ApplyMatchResult(!aWon, ratingB)
	}
	cp := *record
	s.matches = append(s.matches, &cp)
	return nil
}

func (s *MemoryStore) Leaderboard(ctx context.Context, limit int) ([]*model.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]*model.Character, 0, len(s.characters))
	for _, c := range s.characters {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Rating > all[j].Rating })
	if len(all) > limit {
		all = all[:limit]
	}
	out := make([]*model.Character, len(all))
	for i, c := range all {
		out[i] = cloneCharacter(c)
	}
	return out, nil
}
