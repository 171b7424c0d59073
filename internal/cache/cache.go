// Package cache implements the ephemeral state store (C2): combat
// snapshots, the matchmaking queue, session tracking, and the
// idempotency cache. Every value is a self-describing JSON blob and
// every key carries a TTL.
package cache

import (
	"context"
	"time"
)

// Key namespace prefixes and default TTLs, per spec §4.2.
const (
	PrefixCombat    = "combat:"
	PrefixAutoFight = "autofight:"
	PrefixQueue     = "pvpqueue"
	PrefixSession   = "session:"
	PrefixIdem      = "idem:"

	TTLCombat    = time.Hour
	TTLAutoFight = 30 * time.Minute
	TTLQueue     = 2 * time.Minute
	TTLSession   = 5 * time.Minute
	TTLIdem      = 10 * time.Minute
)

// ErrVersionConflict is returned by CompareAndSwap when the stored
// version does not match the expected one.
type ErrVersionConflict struct {
	Key string
}

func (e *ErrVersionConflict) Error() string {
	return "version conflict on key " + e.Key
}

// Cache is the contract both backends (RedisCache, MemoryCache)
// satisfy. Values are opaque byte slices; callers marshal/unmarshal
// their own structured blobs (JSON is the convention used throughout).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// CompareAndSwap stores newValue only if the value currently stored
	// under key deep-equals expectedOld (nil expectedOld means "key must
	// not exist yet"). Returns ErrVersionConflict on mismatch.
	CompareAndSwap(ctx context.Context, key string, expectedOld, newValue []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// ZAdd/ZRangeByScore/ZRem back the matchmaking queue's rating-sorted
	// set (pvpqueue).
	ZAdd(ctx context.Context, set string, member string, score float64) error
	ZRangeByScore(ctx context.Context, set string, min, max float64) ([]string, error)
	ZRem(ctx context.Context, set string, member string) error

	Ping(ctx context.Context) error
	Close() error
}
