// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/danielhkuo/poll-rooms/poll"
)

// SQLStore persists polls through database/sql. Queries use $N
// placeholders, which both lib/pq and modernc sqlite accept.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Create(ctx context.Context, p *poll.Poll) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO poll (id, share_token, question, active, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.ShareToken, p.Question, p.Active, p.Version, p.CreatedAt.UnixMilli())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert poll: %w", err)
	}

	for i, o := range p.Options {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO poll_option (poll_id, position, label, votes)
			VALUES ($1, $2, $3, $4)
		`, p.ID, i, o.Text, o.Votes)
		if err != nil {
			return fmt.Errorf("failed to insert option: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit poll: %w", err)
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context, pollID string) (*poll.Poll, error) {
	var (
		shareToken, question string
		active               bool
		version, createdAt   int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT share_token, question, active, version, created_at FROM poll WHERE id = $1
	`, pollID).Scan(&shareToken, &question, &active, &version, &createdAt)
	if err == sql.ErrNoRows {
		return nil, poll.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query poll: %w", err)
	}

	options, err := s.loadOptions(ctx, pollID)
	if err != nil {
		return nil, err
	}
	records, err := s.loadRecords(ctx, pollID)
	if err != nil {
		return nil, err
	}

	return poll.Restore(pollID, shareToken, question, options, time.UnixMilli(createdAt), active, version, records), nil
}

func (s *SQLStore) loadOptions(ctx context.Context, pollID string) ([]poll.Option, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT label, votes FROM poll_option WHERE poll_id = $1 ORDER BY position
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to query options: %w", err)
	}
	defer rows.Close()

	var options []poll.Option
	for rows.Next() {
		var o poll.Option
		if err := rows.Scan(&o.Text, &o.Votes); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

func (s *SQLStore) loadRecords(ctx context.Context, pollID string) ([]poll.VoteRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT identity_kind, identity_value, option_index, voted_at
		FROM vote_record WHERE poll_id = $1
		ORDER BY voted_at, identity_kind DESC
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to query vote records: %w", err)
	}
	defer rows.Close()

	var records []poll.VoteRecord
	for rows.Next() {
		var (
			rec     poll.VoteRecord
			kind    string
			votedAt int64
		)
		if err := rows.Scan(&kind, &rec.Value, &rec.OptionIndex, &votedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vote record: %w", err)
		}
		rec.Kind = poll.IdentityKind(kind)
		rec.VotedAt = time.UnixMilli(votedAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLStore) ResolveShareToken(ctx context.Context, shareToken string) (string, error) {
	var pollID string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM poll WHERE share_token = $1
	`, shareToken).Scan(&pollID)
	if err == sql.ErrNoRows {
		return "", poll.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve share token: %w", err)
	}
	return pollID, nil
}

func (s *SQLStore) CommitVote(ctx context.Context, pollID string, rc poll.Receipt, version int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// The version row lock orders concurrent writers on postgres; a writer
	// that loaded before another commit matches zero rows.
	res, err := tx.ExecContext(ctx, `
		UPDATE poll SET version = version + 1 WHERE id = $1 AND version = $2
	`, pollID, version)
	if err != nil {
		return fmt.Errorf("failed to advance poll version: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n != 1 {
		return ErrStale
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE poll_option SET votes = votes + 1 WHERE poll_id = $1 AND position = $2
	`, pollID, rc.OptionIndex)
	if err != nil {
		return fmt.Errorf("failed to increment votes: %w", err)
	}
	if n, err = res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("option %d missing for poll %s", rc.OptionIndex, pollID)
	}

	for _, rec := range rc.Records {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO vote_record (poll_id, identity_kind, identity_value, option_index, voted_at)
			VALUES ($1, $2, $3, $4, $5)
		`, pollID, string(rec.Kind), rec.Value, rec.OptionIndex, rec.VotedAt.UnixMilli())
		if err != nil {
			if isUniqueViolation(err) {
				return poll.ErrAlreadyVoted
			}
			return fmt.Errorf("failed to insert vote record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit vote: %w", err)
	}
	return nil
}

func (s *SQLStore) Deactivate(ctx context.Context, pollID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE poll SET active = $1, version = version + 1 WHERE id = $2`, false, pollID)
	if err != nil {
		return fmt.Errorf("failed to deactivate poll: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return poll.ErrNotFound
	}
	return nil
}

func (s *SQLStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	c := cutoff.UnixMilli()
	// Children first; sqlite only cascades with foreign_keys enabled
	for _, q := range []string{
		`DELETE FROM vote_record WHERE poll_id IN (SELECT id FROM poll WHERE created_at < $1)`,
		`DELETE FROM poll_option WHERE poll_id IN (SELECT id FROM poll WHERE created_at < $1)`,
	} {
		if _, err := tx.ExecContext(ctx, q, c); err != nil {
			return 0, fmt.Errorf("failed to delete expired rows: %w", err)
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM poll WHERE created_at < $1`, c)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired polls: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit expiry: %w", err)
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
