package testhelpers

import (
	"context"

	"bookmaker/domain/entities"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) BroadcastEventUpdate(ctx context.Context, snapshot entities.EventSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockNotifier) NotifyUser(ctx context.Context, userID uuid.UUID, notificationType, message string) error {
	args := m.Called(ctx, userID, notificationType, message)
	return args.Error(0)
}

func (m *MockNotifier) BroadcastAdminRequest(ctx context.Context, payload any) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

// MockEventSnapshotCache is a mock implementation of EventSnapshotCache
type MockEventSnapshotCache struct {
	mock.Mock
}

func (m *MockEventSnapshotCache) Get(ctx context.Context, eventID uuid.UUID) (*entities.EventSnapshot, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.EventSnapshot), args.Error(1)
}

func (m *MockEventSnapshotCache) Set(ctx context.Context, snapshot entities.EventSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockEventSnapshotCache) Delete(ctx context.Context, eventID uuid.UUID) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}
