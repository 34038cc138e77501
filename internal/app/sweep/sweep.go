// Package sweep prunes old rows from the delivery log.
package sweep

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Pruner deletes deliveries created before cutoff.
type Pruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Once prunes rows older than retention. A non-positive retention keeps
// everything.
func Once(ctx context.Context, store Pruner, retention time.Duration, now time.Time) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	return store.PruneBefore(ctx, now.Add(-retention))
}

// Start launches a periodic sweep that prunes deliveries older than
// retention. It blocks until the context is cancelled.
func Start(ctx context.Context, store Pruner, retention, interval time.Duration) {
	if retention <= 0 || interval <= 0 {
		return
	}

	sweep := func() {
		n, err := Once(ctx, store, retention, time.Now())
		if err != nil {
			log.Debug().Err(err).Msg("delivery sweep failed")
			return
		}
		if n > 0 {
			log.Debug().Int64("pruned", n).Msg("delivery sweep")
		}
	}

	sweep()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
