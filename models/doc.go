// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and socket message types for the API.

# Request Types

  - CreatePollRequest: question, options
  - CastVoteRequest: optionIndex, fingerprint (optional)

# Response Types

  - CreatePollResponse: poll, adminKey, sharePath
  - GetPollResponse: poll with hasVoted for the caller
  - CastVoteResponse: poll with updated options and totalVotes
  - ResultsResponse: question, options, totalVotes, createdAt
  - ErrorResponse: error, message, hasVoted

# Socket Messages

Clients send ClientMessage values:

	{"type": "joinPoll", "shareToken": "3kTx9PqLm2"}
	{"type": "leavePoll", "shareToken": "3kTx9PqLm2"}

The server answers with RoomMessage ("joined", "left"), SocketError
("error") and, after every committed vote, a VoteUpdate:

	{"type": "voteUpdate", "pollId": "...", "shareToken": "...",
	 "options": [{"text": "A", "votes": 3}, {"text": "B", "votes": 1}],
	 "totalVotes": 4}
*/
package models
