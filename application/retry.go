package application

import (
	"context"
	"time"

	"bookmaker/domain/apperr"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
)

// maxConflictRetries bounds how many times a conflicting unit of work is replayed
const maxConflictRetries = 3

func newConflictBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	b.RandomizationFactor = 0.5
	b.MaxElapsedTime = 0
	return backoff.WithMaxRetries(b, maxConflictRetries)
}

// withRetry runs fn and replays it while it fails with a concurrency conflict.
// fn must open its own unit of work so every attempt starts from fresh state.
func withRetry(ctx context.Context, operation string, fn func() error) error {
	attempt := 0
	op := func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if !apperr.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		log.WithFields(log.Fields{
			"operation": operation,
			"attempt":   attempt,
			"wait":      wait,
			"error":     err,
		}).Warn("Concurrency conflict, retrying")
	}

	return backoff.RetryNotify(op, backoff.WithContext(newConflictBackoff(), ctx), notify)
}
