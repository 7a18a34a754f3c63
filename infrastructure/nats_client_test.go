package infrastructure

import (
	"context"
	"encoding/json"
	"testing"

	"bookmaker/domain/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNATSClient_ConsumerName(t *testing.T) {
	client := NewNATSClient("nats://localhost:4222")

	assert.Equal(t, "bookmaker-bets_settled", client.consumerName("bets.settled"))
	assert.Equal(t, "bookmaker-events_wildcard", client.consumerName("events.*"))
	assert.Equal(t, "bookmaker-users_all", client.consumerName("users.>"))
}

func TestMissingSubjects(t *testing.T) {
	existing := []string{"bets.settled", "events.updated"}

	assert.Empty(t, missingSubjects(existing, []string{"events.updated"}))
	assert.Equal(t, []string{"badges.awarded"}, missingSubjects(existing, []string{"bets.settled", "badges.awarded"}))
}

func TestNATSClient_NotConnected(t *testing.T) {
	client := NewNATSClient("nats://localhost:4222")
	ctx := context.Background()

	assert.ErrorIs(t, client.Publish(ctx, "bets.settled", "id", []byte("{}")), errJetStreamNotConnected)
	assert.ErrorIs(t, client.Subscribe("bets.settled", func([]byte) error { return nil }), errJetStreamNotConnected)
	assert.ErrorIs(t, client.EnsureStream(BetEventsStream, []string{"bets.settled"}), errJetStreamNotConnected)
	assert.Error(t, client.Ping(ctx))
	assert.NoError(t, client.Close())
}

func TestNewEnvelope_IDIsMessageID(t *testing.T) {
	id, data, err := newEnvelope(events.BetSettledEvent{BetID: uuid.New()})
	require.NoError(t, err)

	var envelope EventEnvelope
	require.NoError(t, json.Unmarshal(data, &envelope))
	assert.Equal(t, id, envelope.EventID)

	other, _, err := newEnvelope(events.BetSettledEvent{BetID: uuid.New()})
	require.NoError(t, err)
	assert.NotEqual(t, id, other)
}
