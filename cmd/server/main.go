// Command server runs the IdleDuelist API: HTTP+WebSocket facade plus
// the C9 background sweepers, supervised by one errgroup the way
// cmd/gameserver/main.go supervises the teacher's tick managers.
package main

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/idleduelist/server/internal/auth"
	"github.com/idleduelist/server/internal/cache"
	"github.com/idleduelist/server/internal/combat"
	"github.com/idleduelist/server/internal/config"
	"github.com/idleduelist/server/internal/db"
	"github.com/idleduelist/server/internal/httpapi"
	"github.com/idleduelist/server/internal/matchmaking"
	"github.com/idleduelist/server/internal/pve"
	"github.com/idleduelist/server/internal/sweep"
)

const ConfigPathEnv = "IDLEDUELIST_CONFIG"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := os.Getenv(ConfigPathEnv)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))
	slog.Info("idleduelist server starting", "environment", cfg.Environment, "port", cfg.Port)

	store, err := newStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting store: %w", err)
	}
	defer store.Close()

	cacheBackend, err := newCache(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting cache: %w", err)
	}
	defer cacheBackend.Close()

	if cfg.JWTSecret == "" {
		if cfg.Environment == "production" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		slog.Warn("JWT_SECRET unset; using an ephemeral development key")
		cfg.JWTSecret = "development-only-insecure-signing-key-32b!"
	}

	serverEpoch := newServerEpoch()

	combatMgr := combat.NewManager(cacheBackend, cfg.TTL.Combat(), cfg.TTL.Idem())
	pveEngine := pve.NewEngine(combatMgr, cacheBackend, store, cfg.TTL.AutoFight())
	matcher := matchmaking.NewMatcher(cacheBackend, store, combatMgr, cfg.Matchmaking, cfg.TTL.Queue())
	keyring := auth.NewKeyring([]byte(cfg.JWTSecret))
	limiters := auth.NewLimiters()

	srv := httpapi.NewServer(cfg, store, cacheBackend, combatMgr, pveEngine, matcher, keyring, limiters, serverEpoch)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: srv.Router(),
	}

	runner := sweep.NewRunner(matcher, cacheBackend, serverEpoch, cfg.TTL.Session(), srv.SetActiveSessions)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting http server", "addr", httpServer.Addr)
		errCh := make(chan error, 1)
		go func() { errCh <- httpServer.ListenAndServe() }()
		select {
		case <-gctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		case err := <-errCh:
			if err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		}
	})

	g.Go(func() error { return runner.RunQueueSweep(gctx) })
	g.Go(func() error { return runner.RunCombatSweep(gctx) })
	g.Go(func() error { return runner.RunSessionSweep(gctx) })
	g.Go(func() error { return runner.RunMetricsSnapshot(gctx) })

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func newStore(ctx context.Context, cfg config.Config) (db.Store, error) {
	if cfg.DatabaseURL == "" {
		slog.Warn("DATABASE_URL unset; falling back to the in-process memory store (state is lost on restart)")
		return db.NewMemoryStore(), nil
	}
	if err := db.RunMigrations(ctx, cfg.DatabaseURL); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db.NewPostgresStore(ctx, cfg.DatabaseURL)
}

func newCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	if cfg.CacheURL == "" {
		slog.Warn("CACHE_URL unset; falling back to the in-process memory cache (state is not shared across instances)")
		return cache.NewMemoryCache(), nil
	}
	return cache.NewRedisCache(ctx, cfg.CacheURL)
}

// newServerEpoch seeds combat.SeedFor with a process-unique value so a
// restart cannot replay the deterministic combat RNG sequence from a
// previous run.
func newServerEpoch() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(buf[:]))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
