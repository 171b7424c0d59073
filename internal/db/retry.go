package db

import (
	"context"
	"time"

	"github.com/idleduelist/server/internal/apperr"
)

// retrySchedule is the bounded exponential backoff spec §4.1 mandates
// for transient write failures: 3 attempts at 100ms/400ms/1.6s.
var retrySchedule = [...]time.Duration{100 * time.Millisecond, 400 * time.Millisecond, 1600 * time.Millisecond}

// withRetry runs fn, retrying while it fails with an KindUnavailable
// *apperr.Error, up to len(retrySchedule) extra attempts.
func withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !apperr.Is(err, apperr.KindUnavailable) {
			return err
		}
		if attempt >= len(retrySchedule) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retrySchedule[attempt]):
		}
	}
}
