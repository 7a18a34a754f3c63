package infrastructure

import (
	"context"
	"errors"
	"sync"
	"testing"

	"bookmaker/domain/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPublisher records published events
type recordingPublisher struct {
	mu              sync.Mutex
	PublishedEvents []events.Event
	PublishError    error
}

func (m *recordingPublisher) Publish(event events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishError != nil {
		return m.PublishError
	}
	m.PublishedEvents = append(m.PublishedEvents, event)
	return nil
}

func TestTransactionalPublisher_FlushPreservesOrder(t *testing.T) {
	real := &recordingPublisher{}
	publisher := NewTransactionalPublisher(real)

	first := events.BetPlacedEvent{BetID: uuid.New()}
	second := events.BetSettledEvent{BetID: uuid.New()}
	require.NoError(t, publisher.Publish(first))
	require.NoError(t, publisher.Publish(second))

	assert.Empty(t, real.PublishedEvents, "nothing leaves before flush")
	assert.Equal(t, 2, publisher.Pending())

	require.NoError(t, publisher.Flush(context.Background()))
	assert.Equal(t, []events.Event{first, second}, real.PublishedEvents)
	assert.Equal(t, 0, publisher.Pending())

	// a second flush publishes nothing new
	require.NoError(t, publisher.Flush(context.Background()))
	assert.Len(t, real.PublishedEvents, 2)
}

func TestTransactionalPublisher_Discard(t *testing.T) {
	real := &recordingPublisher{}
	publisher := NewTransactionalPublisher(real)

	require.NoError(t, publisher.Publish(events.BetPlacedEvent{BetID: uuid.New()}))
	publisher.Discard()

	require.NoError(t, publisher.Flush(context.Background()))
	assert.Empty(t, real.PublishedEvents)
}

func TestTransactionalPublisher_FlushIgnoresPublishErrors(t *testing.T) {
	real := &recordingPublisher{PublishError: errors.New("nats down")}
	publisher := NewTransactionalPublisher(real)

	require.NoError(t, publisher.Publish(events.BetPlacedEvent{BetID: uuid.New()}))
	assert.NoError(t, publisher.Flush(context.Background()))
	assert.Equal(t, 0, publisher.Pending())
}
