package download

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pulsar-engine/installer/internal/errdefs"
	"github.com/pulsar-engine/installer/internal/logger"
)

// WithRetry runs op under an exponential backoff policy. The engine itself
// never retries; this is the caller-level resilience layer for flaky
// transports. Checksum mismatches are data-integrity failures and are never
// retried automatically.
func WithRetry(ctx context.Context, maxElapsed time.Duration, op func() error) error {
	log := logger.Logger()

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = maxElapsed

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}

		var mismatch *errdefs.ChecksumMismatch
		if errors.As(err, &mismatch) {
			return backoff.Permanent(err)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}

		log.Warnf("download attempt %d failed, retrying: %v", attempt, err)
		return err
	}, backoff.WithContext(policy, ctx))
}
