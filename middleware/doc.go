// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and JSON helpers shared by the
handlers.

  - WithLogging logs method, path and duration around a handler.
  - CORS accepts any origin (echoed back) and answers preflight requests.
    Allowed headers include X-Admin-Key and X-Fingerprint.
  - RateLimiter keeps one token bucket per client key and answers 429
    once a client spends its allowance for the window.
  - JSONResponse and ErrorResponse write JSON bodies; errors use
    models.ErrorResponse.
  - ParseJSONBody decodes a request body of at most MaxBodyBytes.

Typical wiring:

	limiter := middleware.NewRateLimiter(100, 15*time.Minute, identity.ClientIP)
	mux.Handle("POST /api/polls", limiter.Wrap(middleware.WithLogging(h.CreatePoll)))
	server := http.Server{Handler: middleware.CORS(mux)}
*/
package middleware
