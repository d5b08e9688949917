// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"time"

	"github.com/danielhkuo/poll-rooms/poll"
)

var (
	// ErrStale means the counter moved since the aggregate was loaded
	ErrStale = errors.New("poll state is stale")
	// ErrDuplicate means a poll ID or share token is already taken
	ErrDuplicate = errors.New("poll already exists")
)

// Store is durable persistence for polls. Missing polls yield poll.ErrNotFound.
type Store interface {
	Create(ctx context.Context, p *poll.Poll) error
	Load(ctx context.Context, pollID string) (*poll.Poll, error)
	ResolveShareToken(ctx context.Context, shareToken string) (string, error)

	// CommitVote applies rc in one transaction. The poll's version must
	// still equal version or ErrStale is returned; on success it advances
	// by one. A ledger collision returns poll.ErrAlreadyVoted.
	CommitVote(ctx context.Context, pollID string, rc poll.Receipt, version int64) error

	// Deactivate also advances the version
	Deactivate(ctx context.Context, pollID string) error
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
