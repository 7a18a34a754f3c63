package interfaces

import (
	"context"

	"bookmaker/domain/entities"

	"github.com/google/uuid"
)

// Notifier pushes messages to connected clients. Delivery is best-effort.
type Notifier interface {
	// BroadcastEventUpdate pushes the latest event read model to every subscriber
	BroadcastEventUpdate(ctx context.Context, snapshot entities.EventSnapshot) error

	// NotifyUser sends a typed message to a single user
	NotifyUser(ctx context.Context, userID uuid.UUID, notificationType, message string) error

	// BroadcastAdminRequest pushes a money request change to administrators
	BroadcastAdminRequest(ctx context.Context, payload any) error
}

// EventSnapshotCache stores event read models for fast lookups
type EventSnapshotCache interface {
	Get(ctx context.Context, eventID uuid.UUID) (*entities.EventSnapshot, error)
	// Set must not replace a cached snapshot that has a higher Version
	Set(ctx context.Context, snapshot entities.EventSnapshot) error
	Delete(ctx context.Context, eventID uuid.UUID) error
}
