package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGetExpire(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.SetWithTTL(ctx, "combat:1", []byte("v1"), 10*time.Millisecond))

	val, ok, err := c.Get(ctx, "combat:1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), val)

	time.Sleep(20 * time.Millisecond)
	_, ok, err = c.Get(ctx, "combat:1")
	require.NoError(t, err)
	assert.False(t, ok, "expired entry must not be returned")
}

func TestMemoryCache_CompareAndSwap(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.CompareAndSwap(ctx, "combat:1", nil, []byte("v1"), time.Hour))

	err := c.CompareAndSwap(ctx, "combat:1", []byte("wrong"), []byte("v2"), time.Hour)
	var conflict *ErrVersionConflict
	require.ErrorAs(t, err, &conflict)

	require.NoError(t, c.CompareAndSwap(ctx, "combat:1", []byte("v1"), []byte("v2"), time.Hour))
	val, _, _ := c.Get(ctx, "combat:1")
	assert.Equal(t, []byte("v2"), val)
}

func TestMemoryCache_ZSetQueueOrdering(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.ZAdd(ctx, PrefixQueue, "user-a", 1000))
	require.NoError(t, c.ZAdd(ctx, PrefixQueue, "user-b", 1040))
	require.NoError(t, c.ZAdd(ctx, PrefixQueue, "user-c", 1100))

	members, err := c.ZRangeByScore(ctx, PrefixQueue, 950, 1050)
	require.NoError(t, err)
	assert.Equal(t, []string{"user-a", "user-b"}, members)

	require.NoError(t, c.ZRem(ctx, PrefixQueue, "user-a"))
	members, err = c.ZRangeByScore(ctx, PrefixQueue, 0, 2000)
	require.NoError(t, err)
	assert.Equal(t, []string{"user-b", "user-c"}, members)
}
