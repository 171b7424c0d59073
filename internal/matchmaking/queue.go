package matchmaking

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/idleduelist/server/internal/apperr"
	"github.com/idleduelist/server/internal/cache"
	"github.com/idleduelist/server/internal/model"
)

// ticketKey is the per-user detail record; cache.PrefixQueue's sorted
// set only carries user_id→rating, the way the teacher's class-based
// registration queues only carried *model.Player pointers — here the
// pointer is a cache-key indirection instead, since the queue must be
// shared across instances (C2, not an in-process slice).
func ticketKey(userID string) string { return cache.PrefixQueue + ":ticket:" + userID }

func (m *Matcher) loadTicket(ctx context.Context, userID string) (*model.MatchmakingTicket, bool, error) {
	raw, ok, err := m.cache.Get(ctx, ticketKey(userID))
	if err != nil {
		return nil, false, apperr.Unavailable("loading matchmaking ticket", err)
	}
	if !ok {
		return nil, false, nil
	}
	var t model.MatchmakingTicket
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, false, apperr.Wrap(apperr.KindInternal, "DECODE_FAILED", "decoding matchmaking ticket", err)
	}
	return &t, true, nil
}

func (m *Matcher) saveTicket(ctx context.Context, t *model.MatchmakingTicket) error {
	data, err := json.Marshal(t)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "ENCODE_FAILED", "encoding matchmaking ticket", err)
	}
	if err := m.cache.SetWithTTL(ctx, ticketKey(t.UserID), data, m.queueTTL); err != nil {
		return apperr.Unavailable("saving matchmaking ticket", err)
	}
	if err := m.cache.ZAdd(ctx, cache.PrefixQueue, t.UserID, float64(t.RatingAtEnqueue)); err != nil {
		return apperr.Unavailable("indexing matchmaking ticket", err)
	}
	return nil
}

// removeTicket drops userID from both the detail map and the sorted
// set. Safe to call on an already-absent ticket (Cancel/Dequeue are
// idempotent per user_id, the way the teacher's UnregisterPlayer is
// idempotent per objectID).
func (m *Matcher) removeTicket(ctx context.Context, userID string) error {
	if err := m.cache.Delete(ctx, ticketKey(userID)); err != nil {
		return apperr.Unavailable("removing matchmaking ticket", err)
	}
	if err := m.cache.ZRem(ctx, cache.PrefixQueue, userID); err != nil {
		return apperr.Unavailable("removing matchmaking queue entry", err)
	}
	return nil
}

// Enqueue adds character's owning user to the PvP queue at its
// current rating. Calling Enqueue while the user already holds a
// ticket refreshes its EnqueuedAt (and character/rating, in case
// either changed since) rather than leaving the original ticket in
// place, per spec §4.7's "idempotent per user (second enqueue
// refreshes timestamp)".
func (m *Matcher) Enqueue(ctx context.Context, character *model.Character) (*model.MatchmakingTicket, error) {
	t := &model.MatchmakingTicket{
		UserID:          character.UserID,
		CharacterID:     character.CharacterID,
		RatingAtEnqueue: character.Rating,
		EnqueuedAt:      time.Now(),
	}
	if err := m.saveTicket(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Cancel removes userID's ticket, if any.
func (m *Matcher) Cancel(ctx context.Context, userID string) error {
	return m.removeTicket(ctx, userID)
}

// QueueStatus reports whether userID currently holds a ticket, and its
// current wait time if so.
func (m *Matcher) QueueStatus(ctx context.Context, userID string) (*model.MatchmakingTicket, bool, error) {
	return m.loadTicket(ctx, userID)
}

// loadQueue returns every live ticket, oldest first, tie-broken by
// lower user_id, per spec §4.7's tie-break rule. A user_id present in
// the sorted set but missing its detail key (TTL beat us to it) is
// dropped from the index and skipped.
func (m *Matcher) loadQueue(ctx context.Context) ([]*model.MatchmakingTicket, error) {
	userIDs, err := m.cache.ZRangeByScore(ctx, cache.PrefixQueue, -maxRatingScore, maxRatingScore)
	if err != nil {
		return nil, apperr.Unavailable("listing matchmaking queue", err)
	}

	tickets := make([]*model.MatchmakingTicket, 0, len(userIDs))
	for _, userID := range userIDs {
		t, ok, err := m.loadTicket(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !ok {
			_ = m.cache.ZRem(ctx, cache.PrefixQueue, userID)
			continue
		}
		tickets = append(tickets, t)
	}

	sortQueue(tickets)
	return tickets, nil
}

const maxRatingScore = 1 << 30

func sortQueue(tickets []*model.MatchmakingTicket) {
	sort.SliceStable(tickets, func(i, j int) bool {
		a, b := tickets[i], tickets[j]
		if !a.EnqueuedAt.Equal(b.EnqueuedAt) {
			return a.EnqueuedAt.Before(b.EnqueuedAt)
		}
		return a.UserID < b.UserID
	})
}
