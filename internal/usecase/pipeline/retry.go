package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RunWithRetry executes fn and retries it up to retries more times after a
// failure, waiting delay between attempts. The context aborts the wait.
func RunWithRetry(ctx context.Context, logger zerolog.Logger, retries int, delay time.Duration, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			logger.Warn().
				Int("attempt", attempt+1).
				Int("max_attempts", retries+1).
				Dur("delay", delay).
				Msg("retrying run")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		if err = fn(ctx); err == nil {
			return nil
		}
	}
	return err
}
