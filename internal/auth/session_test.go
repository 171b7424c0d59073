package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idleduelist/server/internal/cache"
)

func TestTouchSession_CountsAsActive(t *testing.T) {
	c := cache.NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, TouchSession(ctx, c, "user-1", time.Minute))

	active, err := CountActiveSessions(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, 1, active)
}

func TestSweepSessions_DropsEntriesPastTTL(t *testing.T) {
	c := cache.NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, TouchSession(ctx, c, "user-stale", time.Minute))
	// Backdate the index entry past the TTL without touching the string
	// key, simulating a session that was active a while ago.
	require.NoError(t, c.ZAdd(ctx, sessionIndex, "user-stale", float64(time.Now().Add(-2*time.Minute).Unix())))
	require.NoError(t, c.Delete(ctx, sessionKey("user-stale")))

	require.NoError(t, TouchSession(ctx, c, "user-fresh", time.Minute))

	active, err := SweepSessions(ctx, c, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, active)

	ids, err := c.ZRangeByScore(ctx, sessionIndex, -(1 << 62), 1<<62)
	require.NoError(t, err)
	assert.Equal(t, []string{"user-fresh"}, ids)
}

func TestCountActiveSessions_DoesNotMutateIndex(t *testing.T) {
	c := cache.NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, TouchSession(ctx, c, "user-1", time.Minute))
	require.NoError(t, c.ZAdd(ctx, sessionIndex, "user-expired", float64(time.Now().Unix())))

	active, err := CountActiveSessions(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, 1, active, "user-expired has no string key and should not count")

	ids, err := c.ZRangeByScore(ctx, sessionIndex, -(1 << 62), 1<<62)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"user-1", "user-expired"}, ids, "CountActiveSessions must not clean up stale entries")
}
