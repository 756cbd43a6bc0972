package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/logging"
)

// Retry runs fn up to maxAttempts times, waiting delay between attempts.
// The wait aborts as soon as ctx is done, so a cancelled send never sits in
// a backoff sleep.
func Retry(ctx context.Context, logger *logging.Logger, maxAttempts int, delay time.Duration, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := fn(); err != nil {
			lastErr = err
			logger.Errorf("Attempt %d/%d failed: %v", attempt, maxAttempts, err)
			if attempt < maxAttempts {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return fmt.Errorf("retry aborted: %w", ctx.Err())
				}
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("failed after %d attempts: %w", maxAttempts, lastErr)
}
