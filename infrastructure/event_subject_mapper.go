package infrastructure

import (
	"fmt"
	"sort"

	"bookmaker/domain/events"
)

// BetEventsStream is the JetStream stream carrying every domain subject
const BetEventsStream = "bet_events"

var subjectsByType = map[events.EventType]string{
	events.EventTypeBalanceChange:    "users.balance_changed",
	events.EventTypeBetPlaced:        "bets.placed",
	events.EventTypeBetSettled:       "bets.settled",
	events.EventTypeEventUpdated:     "events.updated",
	events.EventTypeUserNotification: "users.notifications",
	events.EventTypeAdminRequest:     "admin.requests",
	events.EventTypeBadgeAwarded:     "users.badge_awarded",
}

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct {
	typesBySubject map[string]events.EventType
}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	m := &EventSubjectMapper{typesBySubject: make(map[string]events.EventType, len(subjectsByType))}
	for eventType, subject := range subjectsByType {
		m.typesBySubject[subject] = eventType
	}
	return m
}

// MapEventTypeToSubject returns the subject an event type is published on
func (m *EventSubjectMapper) MapEventTypeToSubject(eventType events.EventType) string {
	if subject, ok := subjectsByType[eventType]; ok {
		return subject
	}
	return fmt.Sprintf("unknown.%s", eventType)
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	if eventType, ok := m.typesBySubject[subject]; ok {
		return eventType
	}
	return events.EventType(subject)
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	subjects := make([]string, 0, len(subjectsByType))
	for _, subject := range subjectsByType {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)
	return subjects
}
