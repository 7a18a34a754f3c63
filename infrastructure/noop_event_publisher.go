package infrastructure

import (
	"bookmaker/domain/events"
)

// NoopEventPublisher drops every event. Used by maintenance commands that
// must not trigger notifications.
type NoopEventPublisher struct{}

// NewNoopEventPublisher creates a new no-op event publisher
func NewNoopEventPublisher() *NoopEventPublisher {
	return &NoopEventPublisher{}
}

func (n *NoopEventPublisher) Publish(event events.Event) error {
	return nil
}
