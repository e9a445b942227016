// internal/service/retry.go
package service

import (
	"context"
	"errors"
	"time"

	"finflow-ledger/pkg/db"

	"github.com/sethvargo/go-retry"
)

const (
	readRetries     = 3
	readBackoffBase = 50 * time.Millisecond
)

// readBackoff builds the backoff for one retried read. Backoffs are stateful, so every
// read gets its own.
var readBackoff = func() retry.Backoff {
	return retry.WithMaxRetries(readRetries, retry.WithJitterPercent(10, retry.NewExponential(readBackoffBase)))
}

// readWithRetry runs a read-only operation, retrying it while the database is unreachable.
// Writes never go through here.
func readWithRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	return retry.Do(ctx, readBackoff(), func(ctx context.Context) error {
		err := fn(ctx)
		if errors.Is(err, db.ErrConnectivity) {
			return retry.RetryableError(err)
		}
		return err
	})
}
