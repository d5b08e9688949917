// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          int
	DatabaseURL   string
	DatabaseType  string
	AdminKeySalt  string
	IdentitySalt  string
	ShareSalt     string
	VoteTimeout   time.Duration
	Retention     time.Duration
	SweepInterval time.Duration

	// RateLimitMax is the number of API requests one client may make per
	// RateLimitWindow; zero disables limiting
	RateLimitMax    int
	RateLimitWindow time.Duration
}

// ParseFlags validates flags and fills the rest from the environment.
// A .env file in the working directory is loaded first if present.
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	// Missing .env is fine; real env vars win over it
	_ = godotenv.Load()

	fs := flag.NewFlagSet("poll-rooms", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite, postgres or memory)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.AdminKeySalt, "admin-salt", "", "Admin key salt (prefer env)")
	fs.StringVar(&cfg.IdentitySalt, "identity-salt", "", "Identity hashing salt (prefer env)")
	fs.StringVar(&cfg.ShareSalt, "share-salt", "", "Share token salt (prefer env)")

	// Tuning
	fs.DurationVar(&cfg.VoteTimeout, "vote-timeout", 0, "Max wait for a busy poll")
	fs.DurationVar(&cfg.Retention, "retention", 0, "Poll retention window")
	fs.DurationVar(&cfg.SweepInterval, "sweep-interval", 0, "Expired poll sweep interval")
	fs.IntVar(&cfg.RateLimitMax, "rate-limit", -1, "API requests per client per window (0 disables)")
	fs.DurationVar(&cfg.RateLimitWindow, "rate-window", 0, "Rate limit window")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 5000 // default
		}
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	switch cfg.DatabaseType {
	case "sqlite", "postgres", "memory":
	default:
		return Config{}, fmt.Errorf("unknown database type %q", cfg.DatabaseType)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" && cfg.DatabaseType != "memory" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	// Secrets - MUST be provided
	if cfg.AdminKeySalt == "" {
		cfg.AdminKeySalt = os.Getenv("ADMIN_KEY_SALT")
	}
	if cfg.AdminKeySalt == "" {
		return Config{}, errors.New("ADMIN_KEY_SALT required")
	}

	if cfg.IdentitySalt == "" {
		cfg.IdentitySalt = os.Getenv("IDENTITY_SALT")
	}
	if cfg.IdentitySalt == "" {
		return Config{}, errors.New("IDENTITY_SALT required")
	}

	if cfg.ShareSalt == "" {
		cfg.ShareSalt = os.Getenv("SHARE_TOKEN_SALT")
	}
	if cfg.ShareSalt == "" {
		return Config{}, errors.New("SHARE_TOKEN_SALT required")
	}

	var err error
	if cfg.VoteTimeout, err = durationOrEnv(cfg.VoteTimeout, "VOTE_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Retention, err = durationOrEnv(cfg.Retention, "POLL_RETENTION", 30*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.SweepInterval, err = durationOrEnv(cfg.SweepInterval, "SWEEP_INTERVAL", time.Hour); err != nil {
		return Config{}, err
	}

	if cfg.RateLimitMax < 0 {
		cfg.RateLimitMax = 100
		if v := os.Getenv("RATE_LIMIT_MAX"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return Config{}, errors.New("invalid RATE_LIMIT_MAX env variable")
			}
			cfg.RateLimitMax = n
		}
	}
	if cfg.RateLimitWindow, err = durationOrEnv(cfg.RateLimitWindow, "RATE_LIMIT_WINDOW", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitMax > 0 && cfg.RateLimitWindow < time.Second {
		return Config{}, fmt.Errorf("rate limit window %v is below 1s", cfg.RateLimitWindow)
	}

	return cfg, nil
}

// durationOrEnv resolves a duration from its flag, then env, then def.
// Zero or negative results are rejected.
func durationOrEnv(v time.Duration, env string, def time.Duration) (time.Duration, error) {
	if v < 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", env, v)
	}
	if v != 0 {
		return v, nil
	}
	s := os.Getenv(env)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable: %w", env, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", env, d)
	}
	return d, nil
}
