// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

A .env file in the working directory is loaded first (godotenv). Variables
already set in the process environment are not overwritten by it.

# CLI Flags and Environment Variables

	-p               PORT               Server port (default 5000)
	-t               DATABASE_TYPE      sqlite, postgres or memory (default sqlite)
	-d               DATABASE_URL       DSN or sqlite path (not needed for memory)
	-admin-salt      ADMIN_KEY_SALT     Secret for admin key HMAC (required)
	-identity-salt   IDENTITY_SALT      Secret for hashing voter identities (required)
	-share-salt      SHARE_TOKEN_SALT   Secret for share tokens (required)
	-vote-timeout    VOTE_TIMEOUT       Max wait for a busy poll (default 5s)
	-retention       POLL_RETENTION     Poll lifetime (default 720h)
	-sweep-interval  SWEEP_INTERVAL     Expired poll sweep period (default 1h)
	-rate-limit      RATE_LIMIT_MAX     API requests per client per window (default 100)
	-rate-window     RATE_LIMIT_WINDOW  Rate limit window (default 15m)

CLI flags take precedence over environment variables.

# Example

	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
*/
package cliparse
