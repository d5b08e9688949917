// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package coordinator serializes votes per poll.

The Registry maps poll IDs to entries created on demand. Each entry is a
one-slot channel; holding the slot gives exclusive access to that poll.
Polls never share a slot, so votes on different polls run in parallel.

# Casting Votes

	p, err := reg.CastVote(ctx, attempt)

Inside the slot CastVote loads the poll, calls RecordVote, commits the
change against the version it loaded and publishes the snapshot. The voter
gets the committed poll only after all of that.

The slot only orders callers inside one process. Across processes sharing
a database the version check does: a commit from a stale load fails with
store.ErrStale and the attempt is rerun on fresh state, duplicate checks
included.

Failures:

  - poll.ErrBusy: the slot was not free within Config.Timeout, or the
    poll kept changing under other writers. Retrying is safe.
  - poll.ErrPersistence: the store rejected the write. The in-memory
    change is rolled back and nothing is published.
  - poll.ErrAlreadyVoted, poll.ErrInvalidOption, poll.ErrNotFound: nothing
    was changed.

Entries are reference counted and removed when no caller holds or waits
for them.
*/
package coordinator
