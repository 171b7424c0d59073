package combat

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/idleduelist/server/internal/apperr"
	"github.com/idleduelist/server/internal/cache"
	"github.com/idleduelist/server/internal/model"
)

// Manager is the coordinator every HTTP handler and background
// sweeper goes through to touch combat state. It holds no in-process
// combat data itself — every read re-loads from C2 and every write
// CASes — mirroring how the teacher's CombatManager takes injected
// callbacks instead of holding references into other packages, here
// generalized to a single injected Cache instead of broadcast funcs.
type Manager struct {
	cache     cache.Cache
	combatTTL time.Duration
	idemTTL   time.Duration
}

// NewManager builds a Manager over the given C2 backend.
func NewManager(c cache.Cache, combatTTL, idemTTL time.Duration) *Manager {
	return &Manager{cache: c, combatTTL: combatTTL, idemTTL: idemTTL}
}

func combatKey(id string) string { return cache.PrefixCombat + id }

// StartCombat snapshots both participants and persists the initial
// CombatState, per spec §4.5 step 1. Turn order is decided by
// speed+turnMeterBonus, descending; ties favor a (the attacker).
func (m *Manager) StartCombat(ctx context.Context, combatID string, mode Mode, a, b *Participant, serverEpoch int64) (*CombatState, error) {
	first, second := a, b
	if initiative(b) > initiative(a) {
		first, second = b, a
	}

	s := &CombatState{
		CombatID:     combatID,
		Mode:         mode,
		Version:      1,
		Seed:         SeedFor(combatID, serverEpoch),
		StartedAt:    time.Now(),
		Turn:         1,
		Order:        [2]string{first.ID, second.ID},
		CurrentIndex: 0,
		Participants: map[string]*Participant{a.ID: a, b.ID: b},
	}

	data, err := json.Marshal(s)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "ENCODE_FAILED", "encoding combat state", err)
	}
	if err := m.cache.CompareAndSwap(ctx, combatKey(combatID), nil, data, m.combatTTL); err != nil {
		return nil, apperr.Wrap(apperr.KindConflict, "COMBAT_EXISTS", "combat id already in use", err)
	}
	return s, nil
}

func initiative(p *Participant) int32 {
	return p.Stats.Speed + p.Stats.TurnMeterBonus
}

// GetCombat loads the current stable snapshot. Because every mutation
// is a single CAS, there is no way to observe a partially-resolved
// state: a reader either sees the snapshot before an action or the one
// after, never a Resolving in-between.
func (m *Manager) GetCombat(ctx context.Context, combatID string) (*CombatState, error) {
	raw, ok, err := m.cache.Get(ctx, combatKey(combatID))
	if err != nil {
		return nil, apperr.Unavailable("loading combat state", err)
	}
	if !ok {
		return nil, apperr.NotFound("combat", combatID)
	}
	var s CombatState
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "DECODE_FAILED", "decoding combat state", err)
	}
	return &s, nil
}

func idemKey(combatID string, turn int32, actorID string, action Action) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%s|%d|%s", combatID, turn, actorID, action.Type, action.AbilityID)
	return cache.PrefixIdem + hex.EncodeToString(h.Sum(nil))
}

// SubmitAction validates and resolves one action, per spec §4.5 step 2-4.
// Retries of the same (combat_id, turn, actor, action) are idempotent:
// a repeat within the idempotency window returns the cached result of
// the first attempt instead of re-resolving or erroring on CAS conflict.
func (m *Manager) SubmitAction(ctx context.Context, combatID, actorID string, action Action) (*CombatState, error) {
	raw, ok, err := m.cache.Get(ctx, combatKey(combatID))
	if err != nil {
		return nil, apperr.Unavailable("loading combat state", err)
	}
	if !ok {
		return nil, apperr.NotFound("combat", combatID)
	}
	var s CombatState
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "DECODE_FAILED", "decoding combat state", err)
	}

	key := idemKey(combatID, s.Turn, actorID, action)
	if cached, hit, err := m.cache.Get(ctx, key); err == nil && hit {
		var prior CombatState
		if err := json.Unmarshal(cached, &prior); err == nil {
			return &prior, nil
		}
	}

	actor, ability, verr := validateAction(&s, actorID, action)
	if verr != nil {
		return nil, verr
	}

	ev := resolveAction(&s, actor, ability, action)
	s.Log = append(s.Log, ev)
	s.Version++

	newData, err := json.Marshal(&s)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "ENCODE_FAILED", "encoding combat state", err)
	}
	if err := m.cache.CompareAndSwap(ctx, combatKey(combatID), raw, newData, m.combatTTL); err != nil {
		return nil, apperr.New(apperr.KindConflict, "VERSION_CONFLICT", "combat state changed concurrently; re-read and retry")
	}
	if err := m.cache.SetWithTTL(ctx, key, newData, m.idemTTL); err != nil {
		return nil, apperr.Unavailable("recording idempotency key", err)
	}
	return &s, nil
}

// Forfeit marks a combat Terminal with the opponent of actorID as
// winner, used when a player abandons an in-progress combat.
func (m *Manager) Forfeit(ctx context.Context, combatID, actorID string) (*CombatState, error) {
	raw, ok, err := m.cache.Get(ctx, combatKey(combatID))
	if err != nil {
		return nil, apperr.Unavailable("loading combat state", err)
	}
	if !ok {
		return nil, apperr.NotFound("combat", combatID)
	}
	var s CombatState
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "DECODE_FAILED", "decoding combat state", err)
	}
	if s.Terminal {
		return &s, nil
	}
	winner := s.Opponent(actorID)
	s.Terminal = true
	s.Winner = winner.ID
	s.Reason = model.ReasonForfeit
	s.Version++

	newData, err := json.Marshal(&s)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "ENCODE_FAILED", "encoding combat state", err)
	}
	if err := m.cache.CompareAndSwap(ctx, combatKey(combatID), raw, newData, m.combatTTL); err != nil {
		return nil, apperr.New(apperr.KindConflict, "VERSION_CONFLICT", "combat state changed concurrently; re-read and retry")
	}
	return &s, nil
}
