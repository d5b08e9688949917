// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package poll

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxQuestionLength = 500
	MaxOptionLength   = 200
	MinOptions        = 2
	MaxOptions        = 10

	// Retention is how long a poll stays reachable after creation
	Retention = 30 * 24 * time.Hour
)

// Option is one answer and its counter
type Option struct {
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

// Snapshot is the tally published to subscribers and returned to voters
type Snapshot struct {
	Options    []Option `json:"options"`
	TotalVotes int      `json:"totalVotes"`
}

// Receipt describes what one accepted vote changed
type Receipt struct {
	OptionIndex int
	Records     []VoteRecord
}

// Poll is the aggregate: question, ordered options with counters and the
// ledger of identities that already voted. It is not safe for concurrent
// use; the coordinator serializes access per poll.
type Poll struct {
	ID         string
	ShareToken string
	Question   string
	Options    []Option
	CreatedAt  time.Time
	Active     bool

	// Version advances with every committed change. Stores reject a
	// commit whose version no longer matches.
	Version int64

	ledger *Ledger
}

// New validates and builds a fresh poll with zeroed counters
func New(id, shareToken, question string, optionTexts []string, createdAt time.Time) (*Poll, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", ErrInvalidPoll)
	}
	if utf8.RuneCountInString(question) > MaxQuestionLength {
		return nil, fmt.Errorf("%w: question cannot exceed %d characters", ErrInvalidPoll, MaxQuestionLength)
	}

	options := make([]Option, 0, len(optionTexts))
	for _, text := range optionTexts {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if utf8.RuneCountInString(text) > MaxOptionLength {
			return nil, fmt.Errorf("%w: option cannot exceed %d characters", ErrInvalidPoll, MaxOptionLength)
		}
		options = append(options, Option{Text: text})
	}
	if len(options) < MinOptions {
		return nil, fmt.Errorf("%w: at least %d options are required", ErrInvalidPoll, MinOptions)
	}
	if len(options) > MaxOptions {
		return nil, fmt.Errorf("%w: maximum %d options allowed", ErrInvalidPoll, MaxOptions)
	}

	return &Poll{
		ID:         id,
		ShareToken: shareToken,
		Question:   question,
		Options:    options,
		CreatedAt:  createdAt,
		Active:     true,
		ledger:     newLedger(),
	}, nil
}

// Restore rebuilds a poll from persisted state
func Restore(id, shareToken, question string, options []Option, createdAt time.Time, active bool, version int64, records []VoteRecord) *Poll {
	p := &Poll{
		ID:         id,
		ShareToken: shareToken,
		Question:   question,
		Options:    append([]Option(nil), options...),
		CreatedAt:  createdAt,
		Active:     active,
		Version:    version,
		ledger:     newLedger(),
	}
	for _, rec := range records {
		p.ledger.add(rec)
	}
	return p
}

// HasVoted reports whether any ledger record carries identity, of any kind
func (p *Poll) HasVoted(identity string) bool {
	if identity == "" {
		return false
	}
	return p.ledger.contains(identity)
}

// RecordVote is the only path that changes counters or the ledger.
// The bounds check and the duplicate check both run before anything is
// mutated, so a failed call leaves the poll untouched.
func (p *Poll) RecordVote(optionIndex int, origin, fingerprint string, now time.Time) (Receipt, error) {
	if optionIndex < 0 || optionIndex >= len(p.Options) {
		return Receipt{}, ErrInvalidOption
	}
	if origin == "" {
		return Receipt{}, ErrInvalidAttempt
	}
	if p.HasVoted(origin) || p.HasVoted(fingerprint) {
		return Receipt{}, ErrAlreadyVoted
	}

	rc := Receipt{OptionIndex: optionIndex}
	rc.Records = append(rc.Records, VoteRecord{
		Kind:        KindOrigin,
		Value:       origin,
		OptionIndex: optionIndex,
		VotedAt:     now,
	})
	if fingerprint != "" {
		rc.Records = append(rc.Records, VoteRecord{
			Kind:        KindFingerprint,
			Value:       fingerprint,
			OptionIndex: optionIndex,
			VotedAt:     now,
		})
	}

	p.Options[optionIndex].Votes++
	for _, rec := range rc.Records {
		p.ledger.add(rec)
	}
	return rc, nil
}

// Rollback undoes a vote previously returned by RecordVote
func (p *Poll) Rollback(rc Receipt) {
	if rc.OptionIndex < 0 || rc.OptionIndex >= len(p.Options) || len(rc.Records) == 0 {
		return
	}
	if p.Options[rc.OptionIndex].Votes > 0 {
		p.Options[rc.OptionIndex].Votes--
	}
	for _, rec := range rc.Records {
		p.ledger.remove(rec.Kind, rec.Value)
	}
}

// TotalVotes is always derived from the counters
func (p *Poll) TotalVotes() int {
	total := 0
	for _, o := range p.Options {
		total += o.Votes
	}
	return total
}

// Snapshot copies the current tallies
func (p *Poll) Snapshot() Snapshot {
	return Snapshot{
		Options:    append([]Option(nil), p.Options...),
		TotalVotes: p.TotalVotes(),
	}
}

// Ledger exposes the vote records read-only
func (p *Poll) Ledger() []VoteRecord {
	return p.ledger.Records()
}

// Expired reports whether the retention window has passed
func (p *Poll) Expired(now time.Time, retention time.Duration) bool {
	return retention > 0 && now.Sub(p.CreatedAt) > retention
}

// Available reports whether the poll can be read or voted on
func (p *Poll) Available(now time.Time, retention time.Duration) bool {
	return p.Active && !p.Expired(now, retention)
}

func (p *Poll) Deactivate() {
	p.Active = false
}

// Clone returns a deep copy
func (p *Poll) Clone() *Poll {
	return Restore(p.ID, p.ShareToken, p.Question, p.Options, p.CreatedAt, p.Active, p.Version, p.ledger.Records())
}
