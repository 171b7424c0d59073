// Package matchmaking implements the PvP queue, rating-window pairing,
// bot fallback, and Elo rating update (C7). The pairing loop generalizes
// the teacher's olympiad Manager.CreateMatches/tryCreateNonClassedLocked
// sweep — stadium-slot allocation becomes rating-window proximity
// matching, and the teacher's in-process registration slices become one
// C2 sorted set (ZADD/ZRANGEBYSCORE) so the queue is shared across
// instances, the way playpool's Redis-backed queue is.
package matchmaking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/idleduelist/server/internal/apperr"
	"github.com/idleduelist/server/internal/cache"
	"github.com/idleduelist/server/internal/combat"
	"github.com/idleduelist/server/internal/config"
	"github.com/idleduelist/server/internal/db"
	"github.com/idleduelist/server/internal/model"
)

// Matcher owns the PvP queue, the pairing sweep, and rating settlement.
type Matcher struct {
	cache     cache.Cache
	store     db.Store
	combatMgr *combat.Manager
	cfg       config.MatchmakingConfig
	queueTTL  time.Duration

	onCombatStarted func(mode string)
}

// NewMatcher builds a Matcher over the shared cache/store/combat
// manager and the configured K-factor and bot-fallback timeout.
func NewMatcher(c cache.Cache, store db.Store, combatMgr *combat.Manager, cfg config.MatchmakingConfig, queueTTL time.Duration) *Matcher {
	return &Matcher{cache: c, store: store, combatMgr: combatMgr, cfg: cfg, queueTTL: queueTTL}
}

// SetOnCombatStarted installs a hook invoked once per combat the queue
// sweep starts, letting httpapi feed its combats-started metric without
// this package importing prometheus.
func (m *Matcher) SetOnCombatStarted(hook func(mode string)) {
	m.onCombatStarted = hook
}

func (m *Matcher) reportCombatStarted(mode string) {
	if m.onCombatStarted != nil {
		m.onCombatStarted(mode)
	}
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// TryMatch runs one pairing sweep: oldest ticket first (tie → lower
// user_id, per loadQueue's ordering) is matched against the
// nearest-rating remaining ticket within window(age); if none qualify
// and the ticket has aged past the configured bot-fallback timeout, it
// is fulfilled with a mirrored-stat bot opponent instead. Unmatched
// tickets are left queued for the next sweep.
func (m *Matcher) TryMatch(ctx context.Context, serverEpoch int64) ([]*combat.CombatState, error) {
	tickets, err := m.loadQueue(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	botFallback := time.Duration(m.cfg.BotFallbackSeconds) * time.Second

	var started []*combat.CombatState
	for len(tickets) > 0 {
		anchor := tickets[0]
		tickets = tickets[1:]
		age := anchor.Age(now)
		window := model.MatchmakingWindow(age)

		bestIdx, bestDelta := -1, int32(-1)
		for i, cand := range tickets {
			delta := abs32(cand.RatingAtEnqueue - anchor.RatingAtEnqueue)
			if delta <= window && (bestIdx == -1 || delta < bestDelta) {
				bestIdx, bestDelta = i, delta
			}
		}

		if bestIdx >= 0 {
			partner := tickets[bestIdx]
			tickets = append(tickets[:bestIdx], tickets[bestIdx+1:]...)

			state, err := m.startMatch(ctx, anchor, partner, serverEpoch)
			if err != nil {
				return started, err
			}
			started = append(started, state)
			continue
		}

		if age >= botFallback {
			state, err := m.startBotMatch(ctx, anchor, serverEpoch)
			if err != nil {
				return started, err
			}
			started = append(started, state)
		}
		// else: leave anchor queued, untouched, for the next sweep.
	}
	return started, nil
}

func newCombatID() string { return "pvpcombat_" + uuid.NewString() }

func characterParticipant(ctx context.Context, store db.Store, characterID string) (*combat.Participant, *model.Character, error) {
	c, err := store.GetCharacter(ctx, characterID)
	if err != nil {
		return nil, nil, apperr.Unavailable("loading character for matchmaking", err)
	}
	if c == nil {
		return nil, nil, apperr.NotFound("character", characterID)
	}
	return combat.NewParticipantFromCharacter(c), c, nil
}

// pendingMatch remembers the pre-match state a settlement needs once
// the combat terminates: who played, and what ratings to Elo-update
// from. Stored under its own C2 key so SettleMatch can run from a
// separate request/sweep without re-deriving it.
type pendingMatch struct {
	CombatID     string `json:"combat_id"`
	UserA        string `json:"user_a"`
	UserB        string `json:"user_b"`
	CharacterA   string `json:"character_a"`
	CharacterB   string `json:"character_b"`
	RatingA      int32  `json:"rating_a"`
	RatingB      int32  `json:"rating_b"`
	BotOpponent  bool   `json:"bot_opponent"`
}

func pendingKey(combatID string) string { return "pvpmatch:" + combatID }

// pendingIndex is a sorted set of every outstanding combat_id awaiting
// settlement, scored by creation time. It exists only so the combat-
// sweep (C9) can find PvP combats that finished without a client ever
// calling an action/forfeit endpoint again to trigger immediate
// settlement — the normal path never consults it.
const pendingIndex = "pvpmatch:index"

func (m *Matcher) savePending(ctx context.Context, p *pendingMatch, ttl time.Duration) error {
	data, err := json.Marshal(p)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "ENCODE_FAILED", "encoding pending match", err)
	}
	if err := m.cache.SetWithTTL(ctx, pendingKey(p.CombatID), data, ttl); err != nil {
		return apperr.Unavailable("saving pending match", err)
	}
	if err := m.cache.ZAdd(ctx, pendingIndex, p.CombatID, float64(time.Now().Unix())); err != nil {
		return apperr.Unavailable("indexing pending match", err)
	}
	return nil
}

// PendingCombatIDs returns every combat_id still awaiting settlement,
// for the combat-sweep's fallback pass.
func (m *Matcher) PendingCombatIDs(ctx context.Context) ([]string, error) {
	ids, err := m.cache.ZRangeByScore(ctx, pendingIndex, -maxRatingScore, maxRatingScore)
	if err != nil {
		return nil, apperr.Unavailable("listing pending matches", err)
	}
	return ids, nil
}

func (m *Matcher) loadPending(ctx context.Context, combatID string) (*pendingMatch, bool, error) {
	raw, ok, err := m.cache.Get(ctx, pendingKey(combatID))
	if err != nil {
		return nil, false, apperr.Unavailable("loading pending match", err)
	}
	if !ok {
		return nil, false, nil
	}
	var p pendingMatch
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false, apperr.Wrap(apperr.KindInternal, "DECODE_FAILED", "decoding pending match", err)
	}
	return &p, true, nil
}

// startMatch dequeues both tickets and starts a real PvP combat
// between them.
func (m *Matcher) startMatch(ctx context.Context, a, b *model.MatchmakingTicket, serverEpoch int64) (*combat.CombatState, error) {
	if err := m.removeTicket(ctx, a.UserID); err != nil {
		return nil, err
	}
	if err := m.removeTicket(ctx, b.UserID); err != nil {
		return nil, err
	}

	partA, charA, err := characterParticipant(ctx, m.store, a.CharacterID)
	if err != nil {
		return nil, err
	}
	partB, charB, err := characterParticipant(ctx, m.store, b.CharacterID)
	if err != nil {
		return nil, err
	}

	combatID := newCombatID()
	state, err := m.combatMgr.StartCombat(ctx, combatID, combat.ModePvP, partA, partB, serverEpoch)
	if err != nil {
		return nil, err
	}

	pending := &pendingMatch{
		CombatID:   combatID,
		UserA:      a.UserID,
		UserB:      b.UserID,
		CharacterA: charA.CharacterID,
		CharacterB: charB.CharacterID,
		RatingA:    charA.Rating,
		RatingB:    charB.Rating,
	}
	if err := m.savePending(ctx, pending, m.queueTTL*10); err != nil {
		return nil, err
	}
	m.reportCombatStarted("pvp")
	return state, nil
}

// botOpponentID derives a deterministic, recognizably-bot participant
// id so httpapi can special-case bot turns without extra lookups.
func botOpponentID(ticket *model.MatchmakingTicket) string {
	return fmt.Sprintf("bot_%s", ticket.CharacterID)
}

// startBotMatch fulfills a ticket that aged past the fallback timeout
// with a PvE-styled opponent: a bot participant whose stats mirror the
// waiting character's own, per spec §4.7. The bot carries no
// persistent rating, so settlement skips the Elo update on its side.
func (m *Matcher) startBotMatch(ctx context.Context, t *model.MatchmakingTicket, serverEpoch int64) (*combat.CombatState, error) {
	if err := m.removeTicket(ctx, t.UserID); err != nil {
		return nil, err
	}

	part, char, err := characterParticipant(ctx, m.store, t.CharacterID)
	if err != nil {
		return nil, err
	}

	botID := botOpponentID(t)
	bot := combat.NewParticipant(botID, char.Name+"'s Shadow", char.Faction, part.Stats, part.Loadout)

	combatID := newCombatID()
	state, err := m.combatMgr.StartCombat(ctx, combatID, combat.ModePvP, part, bot, serverEpoch)
	if err != nil {
		return nil, err
	}

	pending := &pendingMatch{
		CombatID:    combatID,
		UserA:       t.UserID,
		CharacterA:  char.CharacterID,
		RatingA:     char.Rating,
		BotOpponent: true,
	}
	if err := m.savePending(ctx, pending, m.queueTTL*10); err != nil {
		return nil, err
	}
	m.reportCombatStarted("pvp_bot")
	return state, nil
}

// IsBot reports whether participantID names a matchmaking bot
// opponent, letting the HTTP facade drive its turns automatically
// instead of waiting on a human action.
func IsBot(participantID string) bool {
	return len(participantID) > 4 && participantID[:4] == "bot_"
}

// SubmitAction resolves the human's action and, if combat continues
// and turn passes to a bot opponent, immediately resolves the bot's
// turn with a plain attack before returning — mirroring the teacher's
// CombatManager.ExecuteAttack→ExecuteNpcAttack chain, where an NPC's
// counter-action is driven synchronously from inside the player's own
// request instead of a separate poll.
func (m *Matcher) SubmitAction(ctx context.Context, combatID, actorID string, action combat.Action) (*combat.CombatState, error) {
	state, err := m.combatMgr.SubmitAction(ctx, combatID, actorID, action)
	if err != nil {
		return nil, err
	}
	for !state.Terminal && IsBot(state.CurrentActor().ID) {
		state, err = m.combatMgr.SubmitAction(ctx, combatID, state.CurrentActor().ID, combat.Action{Type: combat.ActionAttack})
		if err != nil {
			return nil, err
		}
	}
	return state, nil
}

// SettleMatch applies the Elo update and appends the MatchRecord once
// a matchmaking-originated combat reaches Terminal. Safe to call more
// than once: a missing pending record (already settled, or TTL-expired)
// is a no-op, matching Enqueue/Dequeue/Cancel's idempotent-per-user_id
// posture.
func (m *Matcher) SettleMatch(ctx context.Context, combatID string) error {
	pending, ok, err := m.loadPending(ctx, combatID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	state, err := m.combatMgr.GetCombat(ctx, combatID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			// Combat snapshot expired from C2 before anyone settled it;
			// nothing left to reconcile, so drop the index entry.
			return m.clearPending(ctx, combatID)
		}
		return err
	}
	if !state.Terminal {
		return apperr.New(apperr.KindConflict, "COMBAT_NOT_TERMINAL", "combat has not finished yet")
	}

	if pending.BotOpponent {
		return m.settleBotMatch(ctx, pending, state)
	}
	return m.settlePvPMatch(ctx, pending, state)
}

func (m *Matcher) settlePvPMatch(ctx context.Context, pending *pendingMatch, state *combat.CombatState) error {
	aWon := state.Winner == pending.CharacterA
	newA, newB := EloUpdate(pending.RatingA, pending.RatingB, aWon, m.cfg.KFactor)

	record := &model.MatchRecord{
		MatchID:       newCombatID(),
		CombatID:      pending.CombatID,
		ParticipantA:  pending.CharacterA,
		ParticipantB:  pending.CharacterB,
		WinnerID:      state.Winner,
		RatingDeltaA:  newA - pending.RatingA,
		RatingDeltaB:  newB - pending.RatingB,
		DurationTurns: state.Turn,
		Reason:        state.Reason,
		CreatedAt:     time.Now(),
	}
	if err := m.store.FinishMatch(ctx, record, newA, newB); err != nil {
		return apperr.Unavailable("recording match result", err)
	}
	return m.clearPending(ctx, pending.CombatID)
}

func (m *Matcher) clearPending(ctx context.Context, combatID string) error {
	if err := m.cache.Delete(ctx, pendingKey(combatID)); err != nil {
		return apperr.Unavailable("clearing pending match", err)
	}
	return m.cache.ZRem(ctx, pendingIndex, combatID)
}

// settleBotMatch records match history without moving the bot's
// (nonexistent) rating: only the human side's rating and win/loss
// counters update, using the bot's mirrored rating as the opponent
// rating in the Elo formula so a win or loss still carries the normal
// magnitude.
func (m *Matcher) settleBotMatch(ctx context.Context, pending *pendingMatch, state *combat.CombatState) error {
	aWon := state.Winner == pending.CharacterA
	newA, _ := EloUpdate(pending.RatingA, pending.RatingA, aWon, m.cfg.KFactor)

	char, err := m.store.GetCharacter(ctx, pending.CharacterA)
	if err != nil {
		return apperr.Unavailable("loading character for bot match settlement", err)
	}
	if char == nil {
		return apperr.NotFound("character", pending.CharacterA)
	}
	char.ApplyMatchResult(aWon, newA)
	if err := m.store.UpsertCharacter(ctx, char); err != nil {
		return apperr.Unavailable("persisting bot match rating", err)
	}

	record := &model.MatchRecord{
		MatchID:       newCombatID(),
		CombatID:      pending.CombatID,
		ParticipantA:  pending.CharacterA,
		ParticipantB:  fmt.Sprintf("bot_%s", pending.CharacterA),
		WinnerID:      state.Winner,
		RatingDeltaA:  newA - pending.RatingA,
		DurationTurns: state.Turn,
		Reason:        state.Reason,
		CreatedAt:     time.Now(),
	}
	if err := m.store.AppendMatch(ctx, record); err != nil {
		return apperr.Unavailable("recording bot match result", err)
	}
	return m.clearPending(ctx, pending.CombatID)
}
