package application

import (
	"context"
	"errors"
	"testing"

	"bookmaker/domain/apperr"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestWithRetry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	conflict := apperr.Conflict(nil, "stale version")

	t.Run("succeeds after conflicts", func(t *testing.T) {
		t.Parallel()
		calls := 0
		err := withRetry(ctx, "test", func() error {
			calls++
			if calls < 3 {
				return conflict
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		t.Parallel()
		calls := 0
		err := withRetry(ctx, "test", func() error {
			calls++
			return conflict
		})
		assert.ErrorIs(t, err, apperr.ErrConcurrencyConflict)
		assert.Equal(t, maxConflictRetries+1, calls)
	})

	t.Run("other errors are not retried", func(t *testing.T) {
		t.Parallel()
		calls := 0
		err := withRetry(ctx, "test", func() error {
			calls++
			return apperr.InsufficientFunds(decimal.Zero, decimal.NewFromInt(1))
		})
		assert.ErrorIs(t, err, apperr.ErrInsufficientFunds)
		assert.Equal(t, 1, calls)

		boom := errors.New("boom")
		calls = 0
		err = withRetry(ctx, "test", func() error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("canceled context stops retrying", func(t *testing.T) {
		t.Parallel()
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		calls := 0
		err := withRetry(canceled, "test", func() error {
			calls++
			return conflict
		})
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}
