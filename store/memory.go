// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/danielhkuo/poll-rooms/poll"
)

// MemoryStore keeps polls in process. Stored polls are cloned on the way in
// and out so callers never share state with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	polls   map[string]*poll.Poll
	byToken map[string]string

	// FailCommit, when set, is consulted before each CommitVote
	FailCommit func(pollID string) error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		polls:   make(map[string]*poll.Poll),
		byToken: make(map[string]string),
	}
}

func (s *MemoryStore) Create(_ context.Context, p *poll.Poll) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.polls[p.ID]; ok {
		return ErrDuplicate
	}
	if _, ok := s.byToken[p.ShareToken]; ok {
		return ErrDuplicate
	}
	s.polls[p.ID] = p.Clone()
	s.byToken[p.ShareToken] = p.ID
	return nil
}

func (s *MemoryStore) Load(_ context.Context, pollID string) (*poll.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.polls[pollID]
	if !ok {
		return nil, poll.ErrNotFound
	}
	return p.Clone(), nil
}

func (s *MemoryStore) ResolveShareToken(_ context.Context, shareToken string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byToken[shareToken]
	if !ok {
		return "", poll.ErrNotFound
	}
	return id, nil
}

func (s *MemoryStore) CommitVote(_ context.Context, pollID string, rc poll.Receipt, version int64) error {
	if s.FailCommit != nil {
		if err := s.FailCommit(pollID); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.polls[pollID]
	if !ok {
		return poll.ErrNotFound
	}
	if p.Version != version {
		return ErrStale
	}
	if rc.OptionIndex < 0 || rc.OptionIndex >= len(p.Options) {
		return fmt.Errorf("option %d missing for poll %s", rc.OptionIndex, pollID)
	}
	ledger := p.Ledger()
	for _, rec := range rc.Records {
		for _, existing := range ledger {
			if existing.Kind == rec.Kind && existing.Value == rec.Value {
				return poll.ErrAlreadyVoted
			}
		}
	}

	// Rebuild rather than go through RecordVote so the stored copy mirrors
	// exactly what the caller committed.
	options := append([]poll.Option(nil), p.Options...)
	options[rc.OptionIndex].Votes++
	records := append(ledger, rc.Records...)
	s.polls[pollID] = poll.Restore(p.ID, p.ShareToken, p.Question, options, p.CreatedAt, p.Active, p.Version+1, records)
	return nil
}

func (s *MemoryStore) Deactivate(_ context.Context, pollID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.polls[pollID]
	if !ok {
		return poll.ErrNotFound
	}
	p.Deactivate()
	p.Version++
	return nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, p := range s.polls {
		if p.CreatedAt.Before(cutoff) {
			delete(s.byToken, p.ShareToken)
			delete(s.polls, id)
			n++
		}
	}
	return n, nil
}
