// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danielhkuo/poll-rooms/poll"
	"github.com/danielhkuo/poll-rooms/testutil"
)

// forEachStore runs fn against the sqlite-backed and in-memory stores
func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("sql", func(t *testing.T) {
		fn(t, NewSQLStore(testutil.SetupTestDB(t)))
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStore())
	})
}

func createPoll(t *testing.T, s Store, id, token string, createdAt time.Time) *poll.Poll {
	t.Helper()
	p, err := poll.New(id, token, "Best editor?", []string{"vim", "emacs", "nano"}, createdAt)
	if err != nil {
		t.Fatalf("Failed to build poll: %v", err)
	}
	if err := s.Create(context.Background(), p); err != nil {
		t.Fatalf("Failed to create poll: %v", err)
	}
	return p
}

func TestCreateAndLoad(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		created := time.UnixMilli(time.Now().UnixMilli())
		createPoll(t, s, "p1", "tok1", created)

		p, err := s.Load(ctx, "p1")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if p.Question != "Best editor?" || p.ShareToken != "tok1" || !p.Active {
			t.Errorf("Unexpected poll: %+v", p)
		}
		if len(p.Options) != 3 || p.Options[0].Text != "vim" || p.Options[2].Text != "nano" {
			t.Errorf("Options lost their order: %+v", p.Options)
		}
		if !p.CreatedAt.Equal(created) {
			t.Errorf("Expected created_at %v, got %v", created, p.CreatedAt)
		}

		id, err := s.ResolveShareToken(ctx, "tok1")
		if err != nil || id != "p1" {
			t.Errorf("ResolveShareToken = %q, %v", id, err)
		}

		if _, err := s.Load(ctx, "missing"); !errors.Is(err, poll.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
		if _, err := s.ResolveShareToken(ctx, "missing"); !errors.Is(err, poll.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestCreate_DuplicateShareToken(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		createPoll(t, s, "p1", "tok1", time.Now())

		p, _ := poll.New("p2", "tok1", "Q", []string{"A", "B"}, time.Now())
		if err := s.Create(context.Background(), p); !errors.Is(err, ErrDuplicate) {
			t.Errorf("Expected ErrDuplicate, got %v", err)
		}
	})
}

func TestCommitVote(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		p := createPoll(t, s, "p1", "tok1", time.Now())

		rc, err := p.RecordVote(1, "origin-1", "fp-1", time.Now())
		if err != nil {
			t.Fatal(err)
		}
		if err := s.CommitVote(ctx, "p1", rc, p.Version); err != nil {
			t.Fatalf("CommitVote failed: %v", err)
		}

		loaded, err := s.Load(ctx, "p1")
		if err != nil {
			t.Fatal(err)
		}
		if loaded.Options[1].Votes != 1 || loaded.TotalVotes() != 1 {
			t.Errorf("Expected one vote on option 1, got %+v", loaded.Options)
		}
		if !loaded.HasVoted("origin-1") || !loaded.HasVoted("fp-1") {
			t.Error("Ledger records were not persisted")
		}
		if len(loaded.Ledger()) != 2 {
			t.Errorf("Expected 2 ledger records, got %d", len(loaded.Ledger()))
		}
		if loaded.Version != p.Version+1 {
			t.Errorf("Expected version %d, got %d", p.Version+1, loaded.Version)
		}
	})
}

func TestCommitVote_Stale(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		createPoll(t, s, "p1", "tok1", time.Now())

		// Two copies loaded before either vote lands
		a, _ := s.Load(ctx, "p1")
		b, _ := s.Load(ctx, "p1")

		rcA, _ := a.RecordVote(0, "origin-a", "", time.Now())
		if err := s.CommitVote(ctx, "p1", rcA, a.Version); err != nil {
			t.Fatalf("First commit failed: %v", err)
		}

		// A different option still conflicts; the whole poll moved on
		rcB, _ := b.RecordVote(1, "origin-b", "", time.Now())
		if err := s.CommitVote(ctx, "p1", rcB, b.Version); !errors.Is(err, ErrStale) {
			t.Errorf("Expected ErrStale, got %v", err)
		}

		loaded, _ := s.Load(ctx, "p1")
		if loaded.TotalVotes() != 1 || loaded.HasVoted("origin-b") {
			t.Errorf("Stale commit leaked into storage: %+v", loaded.Options)
		}
	})
}

func TestCommitVote_LedgerCollision(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		createPoll(t, s, "p1", "tok1", time.Now())

		a, _ := s.Load(ctx, "p1")
		rcA, _ := a.RecordVote(0, "same-origin", "", time.Now())
		if err := s.CommitVote(ctx, "p1", rcA, a.Version); err != nil {
			t.Fatal(err)
		}

		// A current version with a receipt the aggregate would never
		// produce; the ledger key still rejects it
		fresh, _ := s.Load(ctx, "p1")
		rcB := poll.Receipt{
			OptionIndex: 1,
			Records: []poll.VoteRecord{
				{Kind: poll.KindOrigin, Value: "same-origin", OptionIndex: 1, VotedAt: time.Now()},
			},
		}
		if err := s.CommitVote(ctx, "p1", rcB, fresh.Version); !errors.Is(err, poll.ErrAlreadyVoted) {
			t.Errorf("Expected ErrAlreadyVoted, got %v", err)
		}

		loaded, _ := s.Load(ctx, "p1")
		if loaded.Options[1].Votes != 0 {
			t.Error("Counter increment was not rolled back with the rejected ledger insert")
		}
	})
}

func TestDeactivate(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		createPoll(t, s, "p1", "tok1", time.Now())

		if err := s.Deactivate(ctx, "p1"); err != nil {
			t.Fatalf("Deactivate failed: %v", err)
		}
		p, err := s.Load(ctx, "p1")
		if err != nil {
			t.Fatal(err)
		}
		if p.Active {
			t.Error("Poll should be inactive")
		}
		if p.Version != 1 {
			t.Errorf("Expected deactivation to advance version to 1, got %d", p.Version)
		}
		if err := s.Deactivate(ctx, "missing"); !errors.Is(err, poll.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestDeleteExpired(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		now := time.Now()
		old := createPoll(t, s, "old", "tok-old", now.Add(-40*24*time.Hour))
		createPoll(t, s, "new", "tok-new", now)

		rc, _ := old.RecordVote(0, "origin-1", "", now)
		if err := s.CommitVote(ctx, "old", rc, old.Version); err != nil {
			t.Fatal(err)
		}

		n, err := s.DeleteExpired(ctx, now.Add(-poll.Retention))
		if err != nil {
			t.Fatalf("DeleteExpired failed: %v", err)
		}
		if n != 1 {
			t.Errorf("Expected 1 expired poll, got %d", n)
		}
		if _, err := s.Load(ctx, "old"); !errors.Is(err, poll.ErrNotFound) {
			t.Errorf("Expired poll still loadable: %v", err)
		}
		if _, err := s.ResolveShareToken(ctx, "tok-old"); !errors.Is(err, poll.ErrNotFound) {
			t.Errorf("Expired share token still resolves: %v", err)
		}
		if _, err := s.Load(ctx, "new"); err != nil {
			t.Errorf("Fresh poll was deleted: %v", err)
		}
	})
}
