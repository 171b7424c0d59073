// Package config loads IdleDuelist's configuration: YAML file defaults
// in the teacher's Default*()/Load*(path) shape, overridden by
// environment variables the way cafe1231's combat service does at its
// gin-facing boundary.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full process configuration.
type Config struct {
	Environment string `yaml:"environment"` // "development" | "production"
	Port        int    `yaml:"port"`

	DatabaseURL string `yaml:"database_url"` // empty => MemoryStore fallback
	CacheURL    string `yaml:"cache_url"`    // empty => MemoryCache fallback

	LogLevel string `yaml:"log_level"`

	JWTSecret   string   `yaml:"jwt_secret"`
	CORSOrigins []string `yaml:"cors_origins"`

	TTL     TTLConfig            `yaml:"ttl"`
	Matchmaking MatchmakingConfig `yaml:"matchmaking"`
}

// TTLConfig overrides C2's default key lifetimes.
type TTLConfig struct {
	CombatSeconds    int `yaml:"combat_seconds"`
	AutoFightSeconds int `yaml:"autofight_seconds"`
	QueueSeconds     int `yaml:"queue_seconds"`
	SessionSeconds   int `yaml:"session_seconds"`
	IdemSeconds      int `yaml:"idem_seconds"`
}

// MatchmakingConfig exposes the Elo K-factor and bot-fallback timeout
// as config rather than code constants, per Open Question resolution 1.
type MatchmakingConfig struct {
	KFactor           int `yaml:"k_factor"`
	BotFallbackSeconds int `yaml:"bot_fallback_seconds"`
}

// Default returns Config populated with the values spec.md pins:
// Elo K=32, bot fallback at 60s, cache TTLs per §4.2.
func Default() Config {
	return Config{
		Environment: "development",
		Port:        8080,
		LogLevel:    "info",
		JWTSecret:   "",
		CORSOrigins: []string{"http://localhost:5173"},
		TTL: TTLConfig{
			CombatSeconds:    3600,
			AutoFightSeconds: 1800,
			QueueSeconds:     120,
			SessionSeconds:   300,
			IdemSeconds:      600,
		},
		Matchmaking: MatchmakingConfig{
			KFactor:            32,
			BotFallbackSeconds: 60,
		},
	}
}

// Load reads YAML defaults from path (if present), then applies
// environment variable overrides, then validates production guards.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// fall through to defaults + env
		default:
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		cfg.Environment = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("CACHE_URL"); v != "" {
		cfg.CacheURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("COMBAT_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TTL.CombatSeconds = n
		}
	}
	if v := os.Getenv("AUTOFIGHT_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TTL.AutoFightSeconds = n
		}
	}
	if v := os.Getenv("QUEUE_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TTL.QueueSeconds = n
		}
	}
	if v := os.Getenv("SESSION_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TTL.SessionSeconds = n
		}
	}
	if v := os.Getenv("MATCHMAKING_K_FACTOR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Matchmaking.KFactor = n
		}
	}
}

// validate enforces the production guards spec's ambient stack
// requires: a real JWT secret of sufficient length, and no wildcard
// CORS origin once Environment is "production".
func (c Config) validate() error {
	if c.Environment == "production" {
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 bytes in production")
		}
		for _, origin := range c.CORSOrigins {
			if origin == "*" {
				return fmt.Errorf("CORS_ORIGINS may not contain \"*\" in production")
			}
		}
	}
	return nil
}

func (c TTLConfig) Combat() time.Duration    { return time.Duration(c.CombatSeconds) * time.Second }
func (c TTLConfig) AutoFight() time.Duration { return time.Duration(c.AutoFightSeconds) * time.Second }
func (c TTLConfig) Queue() time.Duration     { return time.Duration(c.QueueSeconds) * time.Second }
func (c TTLConfig) Session() time.Duration   { return time.Duration(c.SessionSeconds) * time.Second }
func (c TTLConfig) Idem() time.Duration      { return time.Duration(c.IdemSeconds) * time.Second }
