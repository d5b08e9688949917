// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package poll

import "errors"

var (
	// ErrNotFound covers unknown, inactive and expired polls alike.
	ErrNotFound       = errors.New("poll not found")
	ErrInvalidOption  = errors.New("invalid option index")
	ErrAlreadyVoted   = errors.New("already voted on this poll")
	ErrBusy           = errors.New("poll is busy, try again")
	ErrPersistence    = errors.New("failed to persist vote")
	ErrInvalidPoll    = errors.New("invalid poll")
	ErrInvalidAttempt = errors.New("invalid vote attempt")
)
