// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter throttles requests per client key with a token bucket each
type RateLimiter struct {
	// interval is the time to earn back one request
	interval time.Duration
	burst    int
	key      func(*http.Request) string

	mu      sync.Mutex
	clients map[string]*client
}

type client struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows max requests per window for each key, refilled
// evenly across the window
func NewRateLimiter(max int, window time.Duration, key func(*http.Request) string) *RateLimiter {
	interval := window / time.Duration(max)
	if interval <= 0 {
		// rate.Every(0) is an unlimited bucket
		interval = time.Nanosecond
	}
	return &RateLimiter{
		interval: interval,
		burst:    max,
		key:      key,
		clients:  make(map[string]*client),
	}
}

// Allow reports whether the client identified by key may proceed now
func (rl *RateLimiter) Allow(key string, now time.Time) bool {
	rl.mu.Lock()
	c, ok := rl.clients[key]
	if !ok {
		c = &client{lim: rate.NewLimiter(rate.Every(rl.interval), rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = now
	rl.mu.Unlock()

	return c.lim.AllowN(now, 1)
}

// Prune forgets clients idle for longer than idle and returns how many
// were removed
func (rl *RateLimiter) Prune(now time.Time, idle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	n := 0
	for k, c := range rl.clients {
		if now.Sub(c.lastSeen) > idle {
			delete(rl.clients, k)
			n++
		}
	}
	return n
}

// Wrap rejects over-limit requests with 429
func (rl *RateLimiter) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(rl.key(r), time.Now()) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.interval.Seconds())+1))
			ErrorResponse(w, http.StatusTooManyRequests, "Too many requests from this IP, please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
