// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package retention

import (
	"context"
	"log/slog"
	"time"
)

// Deleter is the part of store.Store the sweeper needs
type Deleter interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sweeper periodically removes polls older than the retention window.
// Readers already treat those polls as missing; sweeping only reclaims
// storage.
type Sweeper struct {
	Store     Deleter
	Interval  time.Duration
	Retention time.Duration
	// Now defaults to time.Now
	Now func() time.Time
}

// RunOnce deletes everything created before now minus the retention window
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	cutoff := now().Add(-s.Retention)

	n, err := s.Store.DeleteExpired(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.Info("expired polls removed", "count", n, "cutoff", cutoff)
	}
	return n, nil
}

// Run sweeps once immediately and then every Interval until ctx is done.
// Failed sweeps are logged and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.Retention <= 0 || s.Interval <= 0 {
		slog.Info("retention sweeper disabled")
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			slog.Error("retention sweep failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
