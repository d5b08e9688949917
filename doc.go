// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the poll-rooms API server.

Poll Rooms lets anyone create a poll, share its link, take a single vote
per person and watch tallies update live in every open browser.

# Starting the Server

	ADMIN_KEY_SALT=... IDENTITY_SALT=... SHARE_TOKEN_SALT=... \
		go run . -t sqlite -d polls.db

Or without persistence:

	go run . -t memory -admin-salt a -identity-salt b -share-salt c

See package cliparse for every setting. A .env file is honored.

# Architecture

  - poll: aggregate, vote ledger, validated vote attempts and errors
  - identity: origin and fingerprint resolution from requests
  - coordinator: per-poll serialization of votes, commit then publish
  - broadcast: poll rooms and snapshot fan-out
  - store: SQL (postgres, sqlite) and in-memory persistence
  - retention: removal of expired polls
  - handlers, router, middleware, models: HTTP and websocket surface
  - auth: admin keys, share tokens and identity hashing
  - db: connection setup and schema
  - cliparse: configuration

The server, the retention sweeper and shutdown run in one errgroup; SIGINT
or SIGTERM drains HTTP requests and closes open sockets.
*/
package main
