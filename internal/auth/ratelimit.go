package auth

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitInfo reports the current state of a key's bucket, used by
// the HTTP facade to populate X-RateLimit-* headers and the
// retry_after_seconds field on a RateLimited error.
type RateLimitInfo struct {
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter is a per-key token bucket rate limiter, grounded on
// cafe1231's MemoryRateLimiter: one golang.org/x/time/rate.Limiter per
// key, lazily created, periodically swept for idle keys.
type Limiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	perSec   rate.Limit
	burst    int
	cleanup  time.Duration
	stop     chan struct{}
}

// NewLimiter builds a limiter allowing perMinute requests per key with
// the given burst capacity, and starts its idle-cleanup goroutine.
func NewLimiter(perMinute, burst int) *Limiter {
	return newLimiter(rate.Limit(float64(perMinute)/60.0), burst)
}

// NewLimiterPerHour builds a limiter allowing perHour requests per key.
func NewLimiterPerHour(perHour, burst int) *Limiter {
	return newLimiter(rate.Limit(float64(perHour)/3600.0), burst)
}

func newLimiter(perSec rate.Limit, burst int) *Limiter {
	l := &Limiter{
		limiters: make(map[string]*rate.Limiter),
		perSec:   perSec,
		burst:    burst,
		cleanup:  5 * time.Minute,
		stop:     make(chan struct{}),
	}
	go l.cleanupRoutine()
	return l
}

// Stop halts the cleanup goroutine. Safe to call once.
func (l *Limiter) Stop() { close(l.stop) }

func (l *Limiter) getLimiter(key string) *rate.Limiter {
	l.mu.RLock()
	lim, ok := l.limiters[key]
	l.mu.RUnlock()
	if ok {
		return lim
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok = l.limiters[key]; ok {
		return lim
	}
	lim = rate.NewLimiter(l.perSec, l.burst)
	l.limiters[key] = lim
	return lim
}

// Allow reports whether a request for key is permitted right now.
func (l *Limiter) Allow(key string) bool {
	return l.getLimiter(key).Allow()
}

// Info reports the current bucket state for key.
func (l *Limiter) Info(key string) RateLimitInfo {
	lim := l.getLimiter(key)
	tokens := int(lim.Tokens())
	if tokens > l.burst {
		tokens = l.burst
	}
	retryAfter := time.Second
	if tokens <= 0 && l.perSec > 0 {
		retryAfter = time.Duration(float64(time.Second) / float64(l.perSec))
	}
	return RateLimitInfo{Limit: l.burst, Remaining: tokens, RetryAfter: retryAfter}
}

func (l *Limiter) cleanupRoutine() {
	ticker := time.NewTicker(l.cleanup)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			for key, lim := range l.limiters {
				if lim.Tokens() >= float64(l.burst) {
					delete(l.limiters, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// Limiters bundles the concrete buckets spec §4.3 names, one per
// concern so a register burst never steals capacity from login.
type Limiters struct {
	Global      *Limiter // 1000/hour per IP
	Register    *Limiter // 5/min per IP
	Login       *Limiter // 10/min per IP
	CombatStart *Limiter // 30/min per user
}

// NewLimiters builds the standard bucket set from spec §4.3.
func NewLimiters() *Limiters {
	return &Limiters{
		Global:      NewLimiterPerHour(1000, 50),
		Register:    NewLimiter(5, 3),
		Login:       NewLimiter(10, 5),
		CombatStart: NewLimiter(30, 10),
	}
}
