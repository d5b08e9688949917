// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"time"

	"github.com/danielhkuo/poll-rooms/cliparse"
	"github.com/danielhkuo/poll-rooms/coordinator"
	"github.com/danielhkuo/poll-rooms/handlers"
	"github.com/danielhkuo/poll-rooms/identity"
	"github.com/danielhkuo/poll-rooms/middleware"
	"github.com/danielhkuo/poll-rooms/models"
	"github.com/danielhkuo/poll-rooms/store"
)

// NewRouter wires the HTTP API and the websocket endpoint. The limiter
// is nil when rate limiting is disabled.
func NewRouter(cfg cliparse.Config, s store.Store, reg *coordinator.Registry, sockets *handlers.SocketHandler) (*http.ServeMux, *middleware.RateLimiter) {
	mux := http.NewServeMux()
	started := time.Now()

	// Initialize handlers
	pollHandler := handlers.NewPollHandler(s, reg, cfg)
	votingHandler := handlers.NewVotingHandler(s, reg, cfg)

	var limiter *middleware.RateLimiter
	if cfg.RateLimitMax > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow, identity.ClientIP)
	}
	api := func(h http.HandlerFunc) http.Handler {
		var next http.Handler = middleware.WithLogging(h)
		if limiter != nil {
			next = limiter.Wrap(next)
		}
		return next
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		middleware.JSONResponse(w, http.StatusOK, models.HealthResponse{
			Status:    "OK",
			Timestamp: now.UTC(),
			Uptime:    now.Sub(started).Seconds(),
		})
	})

	// Poll lifecycle
	mux.Handle("POST /api/polls", api(pollHandler.CreatePoll))
	mux.Handle("GET /api/polls/{token}", api(pollHandler.GetPoll))
	mux.Handle("GET /api/polls/{token}/results", api(pollHandler.GetResults))
	mux.Handle("DELETE /api/polls/{id}", api(pollHandler.DeactivatePoll))

	// Voting
	mux.Handle("POST /api/polls/{token}/vote", api(votingHandler.CastVote))

	// Live updates
	mux.HandleFunc("GET /ws", sockets.Serve)

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("poll-rooms API v1"))
	})

	return mux, limiter
}
