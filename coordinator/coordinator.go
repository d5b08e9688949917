// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/danielhkuo/poll-rooms/poll"
	"github.com/danielhkuo/poll-rooms/store"
)

// maxCommitAttempts bounds retries when another writer moved the counters
const maxCommitAttempts = 3

// Publisher receives a snapshot after each committed vote
type Publisher interface {
	Publish(pollID string, snap poll.Snapshot) int
}

type Config struct {
	// Timeout bounds the wait for a busy poll; zero waits for the context
	Timeout time.Duration
	// Retention after which a poll is treated as not found; zero disables
	Retention time.Duration
	// Now defaults to time.Now
	Now func() time.Time
}

// Registry owns one coordinator entry per poll with pending work. Entries
// are created on first use and retired when the last caller leaves. They
// hold no poll state; each critical section starts from the store.
type Registry struct {
	store store.Store
	pub   Publisher
	cfg   Config

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	// slot holds one token while a caller has exclusive access
	slot chan struct{}
	// refs is guarded by Registry.mu
	refs int
}

func New(s store.Store, pub Publisher, cfg Config) *Registry {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Registry{
		store:   s,
		pub:     pub,
		cfg:     cfg,
		entries: make(map[string]*entry),
	}
}

func (r *Registry) acquire(ctx context.Context, pollID string) (*entry, error) {
	r.mu.Lock()
	e, ok := r.entries[pollID]
	if !ok {
		e = &entry{slot: make(chan struct{}, 1)}
		r.entries[pollID] = e
	}
	e.refs++
	r.mu.Unlock()

	waitCtx := ctx
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	select {
	case e.slot <- struct{}{}:
		return e, nil
	case <-waitCtx.Done():
		r.release(pollID, e, false)
		if errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
			return nil, poll.ErrBusy
		}
		return nil, waitCtx.Err()
	}
}

func (r *Registry) release(pollID string, e *entry, held bool) {
	if held {
		<-e.slot
	}
	r.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(r.entries, pollID)
	}
	r.mu.Unlock()
}

// CastVote records one vote and returns the poll as committed. Attempts on
// the same poll run one at a time; the vote is stored before the snapshot
// is published and before CastVote returns.
func (r *Registry) CastVote(ctx context.Context, a poll.VoteAttempt) (*poll.Poll, error) {
	e, err := r.acquire(ctx, a.PollID)
	if err != nil {
		slog.Warn("vote not admitted", "poll_id", a.PollID, "error", err)
		return nil, err
	}
	defer r.release(a.PollID, e, true)

	for attempt := 1; attempt <= maxCommitAttempts; attempt++ {
		p, err := r.store.Load(ctx, a.PollID)
		if err != nil {
			return nil, err
		}
		if !p.Available(r.cfg.Now(), r.cfg.Retention) {
			return nil, poll.ErrNotFound
		}

		rc, err := p.RecordVote(a.OptionIndex, a.Origin, a.Fingerprint, r.cfg.Now())
		if err != nil {
			return nil, err
		}

		err = r.store.CommitVote(ctx, a.PollID, rc, p.Version)
		switch {
		case err == nil:
			p.Version++
			snap := p.Snapshot()
			n := r.pub.Publish(a.PollID, snap)
			slog.Info("vote recorded",
				"poll_id", a.PollID,
				"option_index", rc.OptionIndex,
				"total_votes", snap.TotalVotes,
				"subscribers", n,
			)
			return p, nil

		case errors.Is(err, store.ErrStale):
			// Another writer committed since the load; reload and try again
			p.Rollback(rc)
			slog.Debug("stale poll state, reloading", "poll_id", a.PollID, "attempt", attempt)

		case errors.Is(err, poll.ErrAlreadyVoted), errors.Is(err, poll.ErrNotFound):
			p.Rollback(rc)
			return nil, err

		default:
			p.Rollback(rc)
			slog.Error("failed to persist vote", "poll_id", a.PollID, "error", err)
			return nil, fmt.Errorf("%w: %v", poll.ErrPersistence, err)
		}
	}

	return nil, poll.ErrBusy
}

// Get returns a copy of an available poll for read paths. It does not
// take the poll's slot.
func (r *Registry) Get(ctx context.Context, pollID string) (*poll.Poll, error) {
	p, err := r.store.Load(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if !p.Available(r.cfg.Now(), r.cfg.Retention) {
		return nil, poll.ErrNotFound
	}
	return p, nil
}

// Deactivate soft-deletes a poll. Votes already recorded are kept.
func (r *Registry) Deactivate(ctx context.Context, pollID string) error {
	e, err := r.acquire(ctx, pollID)
	if err != nil {
		return err
	}
	defer r.release(pollID, e, true)

	if err := r.store.Deactivate(ctx, pollID); err != nil {
		return err
	}
	slog.Info("poll deactivated", "poll_id", pollID)
	return nil
}

// Pending returns the number of polls with callers inside or waiting
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
