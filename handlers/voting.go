// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/poll-rooms/cliparse"
	"github.com/danielhkuo/poll-rooms/coordinator"
	"github.com/danielhkuo/poll-rooms/identity"
	"github.com/danielhkuo/poll-rooms/middleware"
	"github.com/danielhkuo/poll-rooms/models"
	"github.com/danielhkuo/poll-rooms/poll"
	"github.com/danielhkuo/poll-rooms/store"
)

type VotingHandler struct {
	store    store.Store
	reg      *coordinator.Registry
	resolver *identity.Resolver
	cfg      cliparse.Config
}

func NewVotingHandler(s store.Store, reg *coordinator.Registry, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{
		store:    s,
		reg:      reg,
		resolver: identity.NewResolver(cfg.IdentitySalt),
		cfg:      cfg,
	}
}

// CastVote handles POST /api/polls/{token}/vote
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.OptionIndex == nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Valid option index is required")
		return
	}

	// Checked before hashing, which would hide the raw length
	if len(req.Fingerprint) > poll.MaxIdentityLength {
		middleware.ErrorResponse(w, http.StatusBadRequest, "fingerprint too long")
		return
	}

	token := r.PathValue("token")
	pollID, err := h.store.ResolveShareToken(r.Context(), token)
	if err != nil {
		writeVoteError(w, err)
		return
	}

	id := h.resolver.Resolve(r, req.Fingerprint)
	attempt, err := poll.NewVoteAttempt(pollID, *req.OptionIndex, id.Origin, id.Fingerprint)
	if err != nil {
		writeVoteError(w, err)
		return
	}

	p, err := h.reg.CastVote(r.Context(), attempt)
	if err != nil {
		writeVoteError(w, err)
		return
	}

	snap := p.Snapshot()
	middleware.JSONResponse(w, http.StatusOK, models.CastVoteResponse{
		Poll: models.VoteResult{
			ID:         p.ID,
			Question:   p.Question,
			Options:    snap.Options,
			TotalVotes: snap.TotalVotes,
			HasVoted:   true,
		},
	})
}

// writeVoteError maps core errors to HTTP responses
func writeVoteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, poll.ErrInvalidAttempt), errors.Is(err, poll.ErrInvalidOption):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, poll.ErrAlreadyVoted):
		middleware.JSONResponse(w, http.StatusForbidden, models.ErrorResponse{
			Error:    "You have already voted on this poll",
			HasVoted: true,
		})
	case errors.Is(err, poll.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
	case errors.Is(err, poll.ErrBusy):
		w.Header().Set("Retry-After", "1")
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Poll is busy, please try again")
	case errors.Is(err, context.Canceled):
		// client went away; nobody reads this
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Request canceled")
	case errors.Is(err, poll.ErrPersistence):
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit vote")
	default:
		slog.Error("request failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Internal server error")
	}
}
