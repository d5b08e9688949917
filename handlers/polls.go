// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/poll-rooms/auth"
	"github.com/danielhkuo/poll-rooms/cliparse"
	"github.com/danielhkuo/poll-rooms/coordinator"
	"github.com/danielhkuo/poll-rooms/identity"
	"github.com/danielhkuo/poll-rooms/middleware"
	"github.com/danielhkuo/poll-rooms/models"
	"github.com/danielhkuo/poll-rooms/poll"
	"github.com/danielhkuo/poll-rooms/store"
)

// maxCreateAttempts bounds share token collisions on create
const maxCreateAttempts = 5

// FingerprintHeader lets read paths report hasVoted for a fingerprint
const FingerprintHeader = "X-Fingerprint"

type PollHandler struct {
	store    store.Store
	reg      *coordinator.Registry
	resolver *identity.Resolver
	cfg      cliparse.Config
}

func NewPollHandler(s store.Store, reg *coordinator.Registry, cfg cliparse.Config) *PollHandler {
	return &PollHandler{
		store:    s,
		reg:      reg,
		resolver: identity.NewResolver(cfg.IdentitySalt),
		cfg:      cfg,
	}
}

// CreatePoll handles POST /api/polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var (
		p   *poll.Poll
		err error
	)
	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		pollID := uuid.NewString()
		p, err = poll.New(pollID, auth.GenerateShareToken(pollID, h.cfg.ShareSalt), req.Question, req.Options, time.Now())
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, validationMessage(err))
			return
		}

		err = h.store.Create(r.Context(), p)
		if !errors.Is(err, store.ErrDuplicate) {
			break
		}
		slog.Warn("share token collision", "poll_id", pollID, "attempt", attempt)
	}
	if err != nil {
		slog.Error("failed to create poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
		return
	}

	slog.Info("poll created", "poll_id", p.ID, "share_token", p.ShareToken, "options", len(p.Options))

	middleware.JSONResponse(w, http.StatusCreated, models.CreatePollResponse{
		Poll:      pollResponse(p, false),
		AdminKey:  auth.GenerateAdminKey(p.ID, h.cfg.AdminKeySalt),
		SharePath: "/poll/" + p.ShareToken,
	})
}

// GetPoll handles GET /api/polls/{token}
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	p, err := lookupPoll(r.Context(), h.store, h.reg, r.PathValue("token"))
	if err != nil {
		writeVoteError(w, err)
		return
	}

	id := h.resolver.Resolve(r, r.Header.Get(FingerprintHeader))
	voted := false
	for _, v := range id.Values() {
		if p.HasVoted(v) {
			voted = true
			break
		}
	}

	middleware.JSONResponse(w, http.StatusOK, models.GetPollResponse{
		Poll: pollResponse(p, voted),
	})
}

// GetResults handles GET /api/polls/{token}/results. It is also the
// recovery path for viewers that missed live updates.
func (h *PollHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	p, err := lookupPoll(r.Context(), h.store, h.reg, r.PathValue("token"))
	if err != nil {
		writeVoteError(w, err)
		return
	}

	snap := p.Snapshot()
	middleware.JSONResponse(w, http.StatusOK, models.ResultsResponse{
		Results: models.Results{
			Question:   p.Question,
			Options:    snap.Options,
			TotalVotes: snap.TotalVotes,
			CreatedAt:  p.CreatedAt,
		},
	})
}

// DeactivatePoll handles DELETE /api/polls/{id}
func (h *PollHandler) DeactivatePoll(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll id is required")
		return
	}

	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(pollID, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	if err := h.reg.Deactivate(r.Context(), pollID); err != nil {
		writeVoteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// lookupPoll resolves a share token to an available poll
func lookupPoll(ctx context.Context, s store.Store, reg *coordinator.Registry, token string) (*poll.Poll, error) {
	if token == "" {
		return nil, poll.ErrNotFound
	}
	pollID, err := s.ResolveShareToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return reg.Get(ctx, pollID)
}

func pollResponse(p *poll.Poll, hasVoted bool) models.PollResponse {
	snap := p.Snapshot()
	return models.PollResponse{
		ID:         p.ID,
		Question:   p.Question,
		Options:    snap.Options,
		ShareToken: p.ShareToken,
		TotalVotes: snap.TotalVotes,
		CreatedAt:  p.CreatedAt,
		HasVoted:   hasVoted,
	}
}

// validationMessage strips the sentinel prefix from poll.New errors
func validationMessage(err error) string {
	return strings.TrimPrefix(err.Error(), poll.ErrInvalidPoll.Error()+": ")
}
