// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package poll holds the poll aggregate and its vote ledger.

# Aggregate

A Poll has a question, a fixed ordered list of options with counters and a
ledger of identities that already voted:

	p, err := poll.New(id, shareToken, "Lunch?", []string{"Pizza", "Sushi"}, time.Now())

Total votes are never stored; TotalVotes sums the counters.

# Recording Votes

RecordVote is the single mutating operation. It checks the option bounds
and both identities against the ledger before touching anything:

	receipt, err := p.RecordVote(0, originHash, fingerprintHash, time.Now())

An accepted vote adds one ledger record per identity supplied, origin and
fingerprint, with the same timestamp. HasVoted matches a value against
records of either kind.

If the vote cannot be persisted the caller undoes it:

	p.Rollback(receipt)

# Errors

	ErrNotFound      unknown, inactive or expired poll
	ErrInvalidOption option index out of bounds
	ErrAlreadyVoted  ledger hit on either identity
	ErrBusy          coordinator timed out waiting for the poll
	ErrPersistence   vote accepted but not stored

The aggregate is not safe for concurrent use. See package coordinator.
*/
package poll
