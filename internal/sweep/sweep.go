// Package sweep runs IdleDuelist's background tickers (C9): the
// matchmaking pairing sweep, the PvP settlement fallback, the
// metrics snapshot, and session-cache upkeep. Every loop follows the
// teacher's ticker+select(ctx.Done()) shape (spawn.RespawnTaskManager,
// world.VisibilityManager), run under one errgroup the way
// cmd/gameserver/main.go supervises its own tick managers.
package sweep

import (
	"context"
	"log/slog"
	"time"

	"github.com/idleduelist/server/internal/apperr"
	"github.com/idleduelist/server/internal/auth"
	"github.com/idleduelist/server/internal/cache"
	"github.com/idleduelist/server/internal/matchmaking"
)

// Runner owns the tickers. ServerEpoch seeds newly-started PvP combats'
// deterministic RNG the same way httpapi's direct PvE starts do.
type Runner struct {
	matcher     *matchmaking.Matcher
	cache       cache.Cache
	serverEpoch int64

	queueInterval   time.Duration
	settleInterval  time.Duration
	sessionInterval time.Duration
	metricsInterval time.Duration
	sessionTTL      time.Duration

	onMetricsSnapshot func(activeSessions int)
}

// NewRunner builds a Runner with spec §4.9's default intervals: 2s
// queue sweep, 30s settlement fallback, 60s session sweep, 10s metrics
// snapshot. onMetricsSnapshot, if non-nil, lets the caller (httpapi)
// plug the snapshot into a Prometheus gauge without sweep importing it.
func NewRunner(matcher *matchmaking.Matcher, c cache.Cache, serverEpoch int64, sessionTTL time.Duration, onMetricsSnapshot func(int)) *Runner {
	return &Runner{
		matcher:           matcher,
		cache:             c,
		serverEpoch:       serverEpoch,
		queueInterval:     2 * time.Second,
		settleInterval:    30 * time.Second,
		sessionInterval:   60 * time.Second,
		metricsInterval:   10 * time.Second,
		sessionTTL:        sessionTTL,
		onMetricsSnapshot: onMetricsSnapshot,
	}
}

// RunQueueSweep pairs queued tickets into combats every queueInterval,
// until ctx is cancelled.
func (r *Runner) RunQueueSweep(ctx context.Context) error {
	ticker := time.NewTicker(r.queueInterval)
	defer ticker.Stop()

	slog.Info("matchmaking queue sweep started", "interval", r.queueInterval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("matchmaking queue sweep stopping")
			return nil
		case <-ticker.C:
			started, err := r.matcher.TryMatch(ctx, r.serverEpoch)
			if err != nil {
				slog.Error("matchmaking sweep failed", "error", err)
				continue
			}
			if len(started) > 0 {
				slog.Info("matchmaking sweep paired combats", "count", len(started))
			}
		}
	}
}

// RunCombatSweep finalizes stuck Terminal PvP combats every
// settleInterval: the normal path settles the instant a combat's last
// action lands (httpapi calls SettleMatch inline), so this only catches
// combats nobody ever polled again — e.g. a client that disconnected
// right on the killing blow — per the C5 failure-handling contract.
func (r *Runner) RunCombatSweep(ctx context.Context) error {
	ticker := time.NewTicker(r.settleInterval)
	defer ticker.Stop()

	slog.Info("combat settlement sweep started", "interval", r.settleInterval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("combat settlement sweep stopping")
			return nil
		case <-ticker.C:
			r.sweepPending(ctx)
		}
	}
}

func (r *Runner) sweepPending(ctx context.Context) {
	ids, err := r.matcher.PendingCombatIDs(ctx)
	if err != nil {
		slog.Error("listing pending matches failed", "error", err)
		return
	}
	for _, id := range ids {
		if err := r.matcher.SettleMatch(ctx, id); err != nil && !apperr.Is(err, apperr.KindConflict) {
			slog.Error("settling pending match failed", "combat_id", id, "error", err)
		}
	}
}

// RunSessionSweep expires presence entries older than sessionTTL every
// sessionInterval, per spec §4.9's session-sweep.
func (r *Runner) RunSessionSweep(ctx context.Context) error {
	ticker := time.NewTicker(r.sessionInterval)
	defer ticker.Stop()

	slog.Info("session sweep started", "interval", r.sessionInterval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweep stopping")
			return nil
		case <-ticker.C:
			active, err := auth.SweepSessions(ctx, r.cache, r.sessionTTL)
			if err != nil {
				slog.Error("session sweep failed", "error", err)
				continue
			}
			slog.Info("session sweep complete", "active_sessions", active)
		}
	}
}

// RunMetricsSnapshot refreshes gauge-style metrics that are cheap to
// recompute on a timer rather than on every request, per spec §4.9's
// metrics-snapshot sweeper.
func (r *Runner) RunMetricsSnapshot(ctx context.Context) error {
	if r.onMetricsSnapshot == nil {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(r.metricsInterval)
	defer ticker.Stop()

	slog.Info("metrics snapshot sweep started", "interval", r.metricsInterval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("metrics snapshot sweep stopping")
			return nil
		case <-ticker.C:
			active, err := auth.CountActiveSessions(ctx, r.cache)
			if err != nil {
				slog.Error("metrics snapshot failed", "error", err)
				continue
			}
			r.onMetricsSnapshot(active)
		}
	}
}
