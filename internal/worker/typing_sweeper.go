package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/ephemeral"
)

// DefaultSweepInterval is how often stale typing entries are reclaimed.
const DefaultSweepInterval = 30 * time.Second

// StartTypingSweeper reclaims stale typing entries on a ticker until ctx is done.
// The returned channel closes when the sweeper exits.
func StartTypingSweeper(ctx context.Context, store ephemeral.TypingStore, interval time.Duration, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if store == nil {
		close(done)
		return done
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := store.Sweep(ctx)
				if err != nil {
					logger.Warn("typing sweep failed", zap.Error(err))
					continue
				}
				if removed > 0 {
					logger.Debug("typing sweep", zap.Int("removed", removed))
				}
			}
		}
	}()
	return done
}
