package application

import (
	"context"
	"fmt"

	"bookmaker/domain/events"
	"bookmaker/domain/interfaces"
)

// RegisterApplicationSubscriptions wires the asynchronous consumers of
// committed domain events: achievement evaluation and client notifications
func RegisterApplicationSubscriptions(
	subscriber interfaces.EventSubscriber,
	achievements AchievementHandler,
	notifications NotificationHandler,
) error {
	subscriptions := []struct {
		eventType events.EventType
		handler   func(context.Context, events.Event) error
	}{
		{events.EventTypeBetSettled, achievements.HandleBetSettled},
		{events.EventTypeEventUpdated, notifications.HandleEventUpdated},
		{events.EventTypeUserNotification, notifications.HandleUserNotification},
		{events.EventTypeAdminRequest, notifications.HandleAdminRequest},
	}

	for _, sub := range subscriptions {
		if err := subscriber.Subscribe(sub.eventType, sub.handler); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", sub.eventType, err)
		}
	}
	return nil
}
