package cache

import (
	"bytes"
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

type entry struct {
	value   []byte
	expires time.Time
}

// MemoryCache is the single-node fallback C2 backend, used when
// CACHE_URL is unset. A startup warning is logged once since sharing
// across instances silently breaks without a real Redis behind it.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]entry
	zsets   map[string]map[string]float64
}

// NewMemoryCache constructs an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	slog.Warn("ephemeral state running on in-process MemoryCache; queue/session state is not shared across instances", "component", "cache")
	return &MemoryCache{
		entries: make(map[string]entry),
		zsets:   make(map[string]map[string]float64),
	}
}

func (c *MemoryCache) Close() error { return nil }

func (c *MemoryCache) Ping(ctx context.Context) error { return nil }

func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(e.expires) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (c *MemoryCache) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expires: time.Now().Add(ttl)}
	return nil
}

func (c *MemoryCache) CompareAndSwap(ctx context.Context, key string, expectedOld, newValue []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	var current []byte
	if ok && time.Now().Before(e.expires) {
		current = e.value
	}
	if !bytes.Equal(current, expectedOld) {
		return &ErrVersionConflict{Key: key}
	}
	c.entries[key] = entry{value: newValue, expires: time.Now().Add(ttl)}
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *MemoryCache) ZAdd(ctx context.Context, set string, member string, score float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	z, ok := c.zsets[set]
	if !ok {
		z = make(map[string]float64)
		c.zsets[set] = z
	}
	z[member] = score
	return nil
}

func (c *MemoryCache) ZRangeByScore(ctx context.Context, set string, min, max float64) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	z := c.zsets[set]
	type pair struct {
		member string
		score  float64
	}
	var pairs []pair
	for m, s := range z {
		if s >= min && s <= max {
			pairs = append(pairs, pair{m, s})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].score != pairs[j].score {
			return pairs[i].score < pairs[j].score
		}
		return pairs[i].member < pairs[j].member
	})
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = p.member
	}
	return out, nil
}

func (c *MemoryCache) ZRem(ctx context.Context, set string, member string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if z, ok := c.zsets[set]; ok {
		delete(z, member)
	}
	return nil
}
