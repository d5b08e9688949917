// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package poll

import (
	"fmt"
	"strings"
)

// MaxIdentityLength bounds identity values accepted at the boundary
const MaxIdentityLength = 512

// VoteAttempt is a validated, immutable vote request
type VoteAttempt struct {
	PollID      string
	OptionIndex int
	Origin      string
	Fingerprint string
}

// NewVoteAttempt builds an attempt or rejects it with ErrInvalidAttempt.
// Option bounds are left to the aggregate since only it knows the options.
func NewVoteAttempt(pollID string, optionIndex int, origin, fingerprint string) (VoteAttempt, error) {
	pollID = strings.TrimSpace(pollID)
	if pollID == "" {
		return VoteAttempt{}, fmt.Errorf("%w: poll reference is required", ErrInvalidAttempt)
	}
	if origin == "" {
		return VoteAttempt{}, fmt.Errorf("%w: origin identity is required", ErrInvalidAttempt)
	}
	if len(origin) > MaxIdentityLength || len(fingerprint) > MaxIdentityLength {
		return VoteAttempt{}, fmt.Errorf("%w: identity too long", ErrInvalidAttempt)
	}
	return VoteAttempt{
		PollID:      pollID,
		OptionIndex: optionIndex,
		Origin:      origin,
		Fingerprint: fingerprint,
	}, nil
}
