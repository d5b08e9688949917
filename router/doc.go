// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the poll-rooms API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	sockets := handlers.NewSocketHandler(hub, store, registry)
	mux, limiter := router.NewRouter(cfg, store, registry, sockets)

The limiter is nil when RateLimitMax is zero; callers prune it periodically.

# Endpoints

Health:

	GET /health  - {status, timestamp, uptime}

Polls (public, rate limited per client IP):

	POST   /api/polls                 - Create poll (returns adminKey)
	GET    /api/polls/{token}         - Poll and hasVoted for the caller
	POST   /api/polls/{token}/vote    - Cast a vote
	GET    /api/polls/{token}/results - Current tallies
	DELETE /api/polls/{id}            - Deactivate (requires X-Admin-Key)

Live updates:

	GET /ws - Websocket; joinPoll / leavePoll by share token
*/
package router
