package application

import (
	"context"

	"bookmaker/domain/events"
	"bookmaker/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

type notificationHandler struct {
	notifier interfaces.Notifier
	cache    interfaces.EventSnapshotCache
}

// NewNotificationHandler creates a new NotificationHandler. cache may be nil.
// Delivery is best-effort: failures are logged and never returned.
func NewNotificationHandler(notifier interfaces.Notifier, cache interfaces.EventSnapshotCache) NotificationHandler {
	return &notificationHandler{
		notifier: notifier,
		cache:    cache,
	}
}

func (h *notificationHandler) HandleEventUpdated(ctx context.Context, event events.Event) error {
	e, err := AssertEventType[events.EventUpdatedEvent](event)
	if err != nil {
		return err
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, e.Snapshot); err != nil {
			log.WithError(err).WithField("eventID", e.Snapshot.ID).Warn("Failed to refresh cached event snapshot")
			// readers fall back to the database on a miss
			if err := h.cache.Delete(ctx, e.Snapshot.ID); err != nil {
				log.WithError(err).WithField("eventID", e.Snapshot.ID).Warn("Failed to evict cached event snapshot")
			}
		}
	}

	if err := h.notifier.BroadcastEventUpdate(ctx, e.Snapshot); err != nil {
		log.WithFields(log.Fields{
			"eventID": e.Snapshot.ID,
			"status":  e.Snapshot.Status,
			"error":   err,
		}).Warn("Failed to broadcast event update")
	}
	return nil
}

func (h *notificationHandler) HandleUserNotification(ctx context.Context, event events.Event) error {
	e, err := AssertEventType[events.UserNotificationEvent](event)
	if err != nil {
		return err
	}

	if err := h.notifier.NotifyUser(ctx, e.UserID, e.NotificationType, e.Message); err != nil {
		log.WithFields(log.Fields{
			"userID": e.UserID,
			"type":   e.NotificationType,
			"error":  err,
		}).Warn("Failed to notify user")
	}
	return nil
}

func (h *notificationHandler) HandleAdminRequest(ctx context.Context, event events.Event) error {
	e, err := AssertEventType[events.AdminRequestEvent](event)
	if err != nil {
		return err
	}

	if err := h.notifier.BroadcastAdminRequest(ctx, e); err != nil {
		log.WithFields(log.Fields{
			"requestID": e.RequestID,
			"action":    e.Action,
			"error":     err,
		}).Warn("Failed to broadcast admin request")
	}
	return nil
}
