package jobs

import (
	"context"
	"log/slog"
	"time"

	"ashiato/journal/internal/config"
)

// Sweeper drops expired sessions and reports how many were removed.
type Sweeper interface {
	Sweep(now time.Time) int
}

// StartSessionSweepJob periodically purges expired in-memory sessions until
// ctx is cancelled. Redis expires keys on its own and needs no sweep.
func StartSessionSweepJob(ctx context.Context, cfg config.Config, sweeper Sweeper) {
	if sweeper == nil {
		slog.Info("session sweep job disabled: no in-memory store")
		return
	}
	interval := cfg.SessionSweepInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := sweeper.Sweep(time.Now()); removed > 0 {
					slog.Info("session sweep removed expired sessions", "count", removed)
				}
			}
		}
	}()
}
