package infrastructure

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"bookmaker/domain/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalEventBus_DeliversToSubscribersOfType(t *testing.T) {
	bus := NewLocalEventBus()

	var settled, placed atomic.Int32
	var received atomic.Value
	require.NoError(t, bus.Subscribe(events.EventTypeBetSettled, func(ctx context.Context, e events.Event) error {
		settled.Add(1)
		received.Store(e)
		return nil
	}))
	bus.RegisterLocalHandler(events.EventTypeBetSettled, func(ctx context.Context, e events.Event) error {
		settled.Add(1)
		return errors.New("handler errors are logged only")
	})
	require.NoError(t, bus.Subscribe(events.EventTypeBetPlaced, func(ctx context.Context, e events.Event) error {
		placed.Add(1)
		return nil
	}))

	event := events.BetSettledEvent{BetID: uuid.New(), UserID: uuid.New()}
	require.NoError(t, bus.Publish(event))
	bus.Wait()

	assert.Equal(t, int32(2), settled.Load())
	assert.Equal(t, int32(0), placed.Load())
	assert.Equal(t, event, received.Load())
}

func TestLocalEventBus_RecoversFromPanics(t *testing.T) {
	bus := NewLocalEventBus()

	var after atomic.Bool
	require.NoError(t, bus.Subscribe(events.EventTypeBadgeAwarded, func(ctx context.Context, e events.Event) error {
		panic("boom")
	}))
	require.NoError(t, bus.Subscribe(events.EventTypeBadgeAwarded, func(ctx context.Context, e events.Event) error {
		after.Store(true)
		return nil
	}))

	assert.NotPanics(t, func() {
		require.NoError(t, bus.Publish(events.BadgeAwardedEvent{UserID: uuid.New()}))
		bus.Wait()
	})
	assert.True(t, after.Load())
}
