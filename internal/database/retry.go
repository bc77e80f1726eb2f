package database

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/docflow/review-service/pkg/logger"
)

// Retry calls connect with exponential backoff until it succeeds, attempts
// are exhausted or ctx is done. Used to tolerate startup races with the
// database containers.
func Retry[T any](ctx context.Context, name string, attempts uint64, connect func(context.Context) (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 8 * time.Second

	var out T
	attempt := 0
	op := func() error {
		attempt++
		v, err := connect(ctx)
		if err != nil {
			logger.Warnf("attempt %d/%d: failed to connect to %s: %v", attempt, attempts, name, err)
			return err
		}
		out = v
		return nil
	}
	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, attempts-1), ctx))
	return out, err
}
