package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is the shared, authoritative C2 backend used whenever
// CACHE_URL is configured, backed by go-redis/v9 — the same client
// playpool's idle/matchmaker workers use for ZSET-based queues.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache parses a redis:// URL and verifies connectivity.
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Close() error { return c.client.Close() }

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisCache) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// compareAndSwapScript atomically checks the stored value against the
// caller's expected value before writing, so concurrent combat-action
// submissions cannot silently clobber each other (spec §4.2's CAS
// requirement on `version`).
var compareAndSwapScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if current == false then current = "" end
if current ~= ARGV[1] then
  return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

func (c *RedisCache) CompareAndSwap(ctx context.Context, key string, expectedOld, newValue []byte, ttl time.Duration) error {
	res, err := compareAndSwapScript.Run(ctx, c.client, []string{key}, string(expectedOld), string(newValue), ttl.Milliseconds()).Int()
	if err != nil {
		return err
	}
	if res == 0 {
		return &ErrVersionConflict{Key: key}
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *RedisCache) ZAdd(ctx context.Context, set string, member string, score float64) error {
	return c.client.ZAdd(ctx, set, redis.Z{Score: score, Member: member}).Err()
}

func (c *RedisCache) ZRangeByScore(ctx context.Context, set string, min, max float64) ([]string, error) {
	return c.client.ZRangeByScore(ctx, set, &redis.ZRangeBy{
		Min: formatScore(min), Max: formatScore(max),
	}).Result()
}

func (c *RedisCache) ZRem(ctx context.Context, set string, member string) error {
	return c.client.ZRem(ctx, set, member).Err()
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
