package models

import (
	"time"

	"github.com/danielhkuo/poll-rooms/poll"
)

// Socket message types
const (
	MsgJoinPoll   = "joinPoll"
	MsgLeavePoll  = "leavePoll"
	MsgJoined     = "joined"
	MsgLeft       = "left"
	MsgVoteUpdate = "voteUpdate"
	MsgError      = "error"
)

// Request types

type CreatePollRequest struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// OptionIndex is a pointer so a missing field can be told apart from 0
type CastVoteRequest struct {
	OptionIndex *int   `json:"optionIndex"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// Response types

type PollResponse struct {
	ID         string        `json:"id"`
	Question   string        `json:"question"`
	Options    []poll.Option `json:"options"`
	ShareToken string        `json:"shareToken"`
	TotalVotes int           `json:"totalVotes"`
	CreatedAt  time.Time     `json:"createdAt"`
	HasVoted   bool          `json:"hasVoted"`
}

type CreatePollResponse struct {
	Poll      PollResponse `json:"poll"`
	AdminKey  string       `json:"adminKey"`
	SharePath string       `json:"sharePath"`
}

type GetPollResponse struct {
	Poll PollResponse `json:"poll"`
}

type CastVoteResponse struct {
	Poll VoteResult `json:"poll"`
}

type VoteResult struct {
	ID         string        `json:"id"`
	Question   string        `json:"question"`
	Options    []poll.Option `json:"options"`
	TotalVotes int           `json:"totalVotes"`
	HasVoted   bool          `json:"hasVoted"`
}

type ResultsResponse struct {
	Results Results `json:"results"`
}

type Results struct {
	Question   string        `json:"question"`
	Options    []poll.Option `json:"options"`
	TotalVotes int           `json:"totalVotes"`
	CreatedAt  time.Time     `json:"createdAt"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    float64   `json:"uptime"`
}

// Socket messages

type ClientMessage struct {
	Type       string `json:"type"`
	ShareToken string `json:"shareToken"`
}

type RoomMessage struct {
	Type       string `json:"type"`
	PollID     string `json:"pollId"`
	ShareToken string `json:"shareToken"`
}

// VoteUpdate carries a snapshot: options and totalVotes
type VoteUpdate struct {
	Type       string        `json:"type"`
	PollID     string        `json:"pollId"`
	ShareToken string        `json:"shareToken"`
	Options    []poll.Option `json:"options"`
	TotalVotes int           `json:"totalVotes"`
}

// Error response

type ErrorResponse struct {
	Error    string `json:"error"`
	Message  string `json:"message,omitempty"`
	HasVoted bool   `json:"hasVoted,omitempty"`
}

type SocketError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
