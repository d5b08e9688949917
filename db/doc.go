// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connections and schema creation.

# Connecting

Open picks the driver from the configured database type:

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)

Supported types are "postgres" (github.com/lib/pq) and "sqlite"
(modernc.org/sqlite). SQLite connections are limited to one open
connection.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - poll: Question, share token, active flag, creation time
  - poll_option: Ordered options with vote counters
  - vote_record: Ledger of identities that voted

# Relationships

	poll 1──* poll_option
	poll 1──* vote_record

The vote_record primary key (poll_id, identity_kind, identity_value) keeps
at most one record per identity signal per poll.
*/
package db
