package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"

	"bookmaker/domain/events"

	log "github.com/sirupsen/logrus"
)

// NATSEventSubscriber subscribes to NATS subjects and deserializes events for
// application handlers
type NATSEventSubscriber struct {
	natsClient    *NATSClient
	subjectMapper *EventSubjectMapper
	handlers      map[string]func(context.Context, events.Event) error
}

// NewNATSEventSubscriber creates a new NATS event subscriber
func NewNATSEventSubscriber(natsClient *NATSClient, subjectMapper *EventSubjectMapper) *NATSEventSubscriber {
	return &NATSEventSubscriber{
		natsClient:    natsClient,
		subjectMapper: subjectMapper,
		handlers:      make(map[string]func(context.Context, events.Event) error),
	}
}

// Subscribe registers a handler for a specific event type
func (s *NATSEventSubscriber) Subscribe(eventType events.EventType, handler func(context.Context, events.Event) error) error {
	subject := s.subjectMapper.MapEventTypeToSubject(eventType)
	s.handlers[subject] = handler

	log.WithFields(log.Fields{
		"eventType": eventType,
		"subject":   subject,
	}).Info("Registering event handler for subject")

	return s.natsClient.Subscribe(subject, func(data []byte) error {
		return s.handleMessage(subject, data)
	})
}

// handleMessage decodes a NATS message and routes it to the subject's handler.
// Panics are turned into errors so the message is redelivered.
func (s *NATSEventSubscriber) handleMessage(subject string, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler for %s panicked: %v", subject, r)
		}
	}()

	var envelope EventEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("failed to unmarshal event envelope: %w", err)
	}

	eventType := events.EventType(envelope.EventType)
	event, err := DecodeEvent(eventType, envelope.Payload)
	if err != nil {
		log.WithFields(log.Fields{
			"subject":     subject,
			"eventType":   eventType,
			"eventId":     envelope.EventID,
			"payloadSize": len(envelope.Payload),
			"error":       err,
		}).Error("Failed to deserialize event payload")
		return fmt.Errorf("failed to deserialize event payload: %w", err)
	}

	handler, exists := s.handlers[subject]
	if !exists {
		return fmt.Errorf("no handler registered for subject %s", subject)
	}

	if err := handler(context.Background(), event); err != nil {
		log.WithFields(log.Fields{
			"subject":   subject,
			"eventType": eventType,
			"eventId":   envelope.EventID,
			"error":     err,
		}).Error("Event handler failed")
		return err
	}

	log.WithFields(log.Fields{
		"subject": subject,
		"eventId": envelope.EventID,
	}).Debug("Successfully processed NATS event")
	return nil
}

// DecodeEvent unmarshals a payload into the value type for eventType, the
// same shape in-process handlers receive
func DecodeEvent(eventType events.EventType, payload []byte) (events.Event, error) {
	switch eventType {
	case events.EventTypeBalanceChange:
		return decodeInto[events.BalanceChangeEvent](payload)
	case events.EventTypeBetPlaced:
		return decodeInto[events.BetPlacedEvent](payload)
	case events.EventTypeBetSettled:
		return decodeInto[events.BetSettledEvent](payload)
	case events.EventTypeEventUpdated:
		return decodeInto[events.EventUpdatedEvent](payload)
	case events.EventTypeUserNotification:
		return decodeInto[events.UserNotificationEvent](payload)
	case events.EventTypeAdminRequest:
		return decodeInto[events.AdminRequestEvent](payload)
	case events.EventTypeBadgeAwarded:
		return decodeInto[events.BadgeAwardedEvent](payload)
	default:
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}
}

func decodeInto[T events.Event](payload []byte) (events.Event, error) {
	var event T
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}
	return event, nil
}
