// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the HTTP and websocket handlers for the poll-rooms API.

# Handler Types

Each handler is a struct holding the store, the coordinator registry and config:

  - PollHandler: create, read, results and owner deactivation
  - VotingHandler: vote casting
  - SocketHandler: websocket viewers joining poll rooms

Constructors take their dependencies explicitly:

	pollHandler := handlers.NewPollHandler(store, registry, cfg)

# Voting Flow

	POST /api/polls/{token}/vote  {"optionIndex": 1, "fingerprint": "..."}

The caller's identity is resolved from proxy headers and the optional
fingerprint, validated into a poll.VoteAttempt and handed to the
coordinator. Core errors map to statuses in one place (writeVoteError):

	invalid attempt / option  400
	already voted             403 (hasVoted: true)
	unknown, inactive, expired 404
	poll busy                 503
	storage failure           500

# Live Updates

Viewers connect to GET /ws and send

	{"type": "joinPoll", "shareToken": "..."}
	{"type": "leavePoll", "shareToken": "..."}

Every committed vote is pushed to the room as

	{"type": "voteUpdate", "pollId": "...", "shareToken": "...", "options": [...], "totalVotes": 3}

A viewer that falls behind is disconnected and recovers with
GET /api/polls/{token}/results.
*/
package handlers
