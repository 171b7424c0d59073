package auth

import (
	"context"
	"time"

	"github.com/idleduelist/server/internal/apperr"
	"github.com/idleduelist/server/internal/cache"
)

// sessionIndex is a sorted set of user_id scored by last-seen unix
// time. The per-user string key (PrefixSession+user_id) is the
// authoritative TTL'd record an authenticated request refreshes; the
// index exists only so the session-sweep can find and drop stale
// entries without a prefix scan, the cache.Cache interface offering
// none.
const sessionIndex = "session:index"

func sessionKey(userID string) string { return cache.PrefixSession + userID }

// TouchSession marks userID as active right now, refreshing its TTL.
// Called once per authenticated request from the jwtAuth middleware.
func TouchSession(ctx context.Context, c cache.Cache, userID string, ttl time.Duration) error {
	now := time.Now()
	if err := c.SetWithTTL(ctx, sessionKey(userID), []byte(now.Format(time.RFC3339)), ttl); err != nil {
		return apperr.Unavailable("touching session", err)
	}
	if err := c.ZAdd(ctx, sessionIndex, userID, float64(now.Unix())); err != nil {
		return apperr.Unavailable("indexing session", err)
	}
	return nil
}

// SweepSessions drops index entries whose last-seen time is older than
// ttl, and any that lost their string key already (TTL beat the sweep
// to it). Returns the number of sessions still considered active.
func SweepSessions(ctx context.Context, c cache.Cache, ttl time.Duration) (int, error) {
	cutoff := time.Now().Add(-ttl).Unix()
	userIDs, err := c.ZRangeByScore(ctx, sessionIndex, float64(cutoff), 1<<62)
	if err != nil {
		return 0, apperr.Unavailable("listing session index", err)
	}

	stale, err := c.ZRangeByScore(ctx, sessionIndex, -(1 << 62), float64(cutoff))
	if err != nil {
		return 0, apperr.Unavailable("listing stale sessions", err)
	}
	for _, userID := range stale {
		_ = c.ZRem(ctx, sessionIndex, userID)
	}

	active := 0
	for _, userID := range userIDs {
		if _, ok, err := c.Get(ctx, sessionKey(userID)); err == nil && ok {
			active++
		} else {
			_ = c.ZRem(ctx, sessionIndex, userID)
		}
	}
	return active, nil
}

// CountActiveSessions reports the current active-session count without
// mutating the index, for the metrics-snapshot sweeper, which should
// observe state rather than also perform SweepSessions' cleanup.
func CountActiveSessions(ctx context.Context, c cache.Cache) (int, error) {
	userIDs, err := c.ZRangeByScore(ctx, sessionIndex, -(1 << 62), 1<<62)
	if err != nil {
		return 0, apperr.Unavailable("listing session index", err)
	}
	active := 0
	for _, userID := range userIDs {
		if _, ok, err := c.Get(ctx, sessionKey(userID)); err == nil && ok {
			active++
		}
	}
	return active, nil
}
