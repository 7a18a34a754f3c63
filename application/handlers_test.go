package application

import (
	"context"
	"errors"
	"testing"

	"bookmaker/application/dto"
	"bookmaker/domain/apperr"
	"bookmaker/domain/entities"
	"bookmaker/domain/events"
	"bookmaker/domain/interfaces"
	"bookmaker/domain/testhelpers"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeUnitOfWork serves mocked repositories and records the transaction calls
type fakeUnitOfWork struct {
	events    *testhelpers.MockEventRepository
	publisher *testhelpers.RecordingPublisher

	begun     bool
	readOnly  bool
	committed bool
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error {
	u.begun = true
	return nil
}

func (u *fakeUnitOfWork) BeginReadOnly(ctx context.Context) error {
	u.begun = true
	u.readOnly = true
	return nil
}

func (u *fakeUnitOfWork) Commit() error {
	u.committed = true
	return nil
}

func (u *fakeUnitOfWork) Rollback() error { return nil }

func (u *fakeUnitOfWork) UserRepository() interfaces.UserRepository { return nil }
func (u *fakeUnitOfWork) TransactionRepository() interfaces.TransactionRepository {
	return nil
}
func (u *fakeUnitOfWork) EventRepository() interfaces.EventRepository { return u.events }
func (u *fakeUnitOfWork) BetRepository() interfaces.BetRepository     { return nil }
func (u *fakeUnitOfWork) BadgeRepository() interfaces.BadgeRepository { return nil }
func (u *fakeUnitOfWork) MoneyRequestRepository() interfaces.MoneyRequestRepository {
	return nil
}
func (u *fakeUnitOfWork) EventBus() interfaces.EventPublisher { return u.publisher }

type fakeUnitOfWorkFactory struct {
	uow     *fakeUnitOfWork
	created int
}

func (f *fakeUnitOfWorkFactory) Create() UnitOfWork {
	f.created++
	return f.uow
}

func newFakeFactory() (*fakeUnitOfWorkFactory, *testhelpers.MockEventRepository) {
	eventRepo := new(testhelpers.MockEventRepository)
	return &fakeUnitOfWorkFactory{uow: &fakeUnitOfWork{
		events:    eventRepo,
		publisher: &testhelpers.RecordingPublisher{},
	}}, eventRepo
}

func openEvent() *entities.Event {
	id := uuid.New()
	return &entities.Event{
		ID:           id,
		Title:        "Final",
		Status:       entities.EventStatusOpen,
		PricingModel: entities.PricingFixedOdds,
		Version:      3,
		Options: []*entities.EventOption{
			{ID: uuid.New(), EventID: id, Name: "Home", CurrentOdd: decimal.RequireFromString("1.80")},
			{ID: uuid.New(), EventID: id, Name: "Away", CurrentOdd: decimal.RequireFromString("2.10")},
		},
	}
}

func TestAssertEventType(t *testing.T) {
	t.Run("matching type", func(t *testing.T) {
		in := events.BetSettledEvent{BetID: uuid.New()}
		out, err := AssertEventType[events.BetSettledEvent](in)
		require.NoError(t, err)
		assert.Equal(t, in.BetID, out.BetID)
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := AssertEventType[events.BetSettledEvent](events.EventUpdatedEvent{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "BetSettledEvent")
		assert.Contains(t, err.Error(), string(events.EventTypeEventUpdated))
	})

	t.Run("nil event", func(t *testing.T) {
		_, err := AssertEventType[events.BetSettledEvent](nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "got nil")
	})
}

func TestEventQueryHandler_GetSnapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("cache hit skips the database", func(t *testing.T) {
		factory, _ := newFakeFactory()
		cache := new(testhelpers.MockEventSnapshotCache)
		snapshot := openEvent().Snapshot()
		cache.On("Get", ctx, snapshot.ID).Return(&snapshot, nil)

		handler := NewEventQueryHandler(factory, cache)
		got, err := handler.GetSnapshot(ctx, snapshot.ID)

		require.NoError(t, err)
		assert.Equal(t, snapshot.ID, got.ID)
		assert.Zero(t, factory.created)
		cache.AssertExpectations(t)
	})

	t.Run("cache miss loads and populates", func(t *testing.T) {
		factory, eventRepo := newFakeFactory()
		cache := new(testhelpers.MockEventSnapshotCache)
		event := openEvent()
		cache.On("Get", ctx, event.ID).Return(nil, nil)
		eventRepo.On("GetByID", ctx, event.ID).Return(event, nil)
		cache.On("Set", ctx, mock.MatchedBy(func(s entities.EventSnapshot) bool {
			return s.ID == event.ID
		})).Return(nil)

		handler := NewEventQueryHandler(factory, cache)
		got, err := handler.GetSnapshot(ctx, event.ID)

		require.NoError(t, err)
		assert.Equal(t, event.ID, got.ID)
		assert.True(t, factory.uow.readOnly)
		assert.True(t, factory.uow.committed)
		cache.AssertExpectations(t)
		eventRepo.AssertExpectations(t)
	})

	t.Run("cache failure falls back to the database", func(t *testing.T) {
		factory, eventRepo := newFakeFactory()
		cache := new(testhelpers.MockEventSnapshotCache)
		event := openEvent()
		cache.On("Get", ctx, event.ID).Return(nil, errors.New("redis down"))
		cache.On("Set", ctx, mock.Anything).Return(errors.New("redis down"))
		eventRepo.On("GetByID", ctx, event.ID).Return(event, nil)

		got, err := NewEventQueryHandler(factory, cache).GetSnapshot(ctx, event.ID)

		require.NoError(t, err)
		assert.Equal(t, event.Title, got.Title)
	})

	t.Run("without a cache", func(t *testing.T) {
		factory, eventRepo := newFakeFactory()
		event := openEvent()
		eventRepo.On("GetByID", ctx, event.ID).Return(event, nil)

		got, err := NewEventQueryHandler(factory, nil).GetSnapshot(ctx, event.ID)

		require.NoError(t, err)
		assert.Equal(t, event.ID, got.ID)
	})

	t.Run("unknown event", func(t *testing.T) {
		factory, eventRepo := newFakeFactory()
		id := uuid.New()
		eventRepo.On("GetByID", ctx, id).Return(nil, nil)

		_, err := NewEventQueryHandler(factory, nil).GetSnapshot(ctx, id)

		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestEventHandler_UpdateEventStatusValidation(t *testing.T) {
	factory, _ := newFakeFactory()
	handler := NewEventHandler(factory, nil)

	_, err := handler.UpdateEventStatus(context.Background(), dto.UpdateEventStatusRequest{
		EventID: uuid.New(),
		Status:  entities.EventStatusSettled,
	})

	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Zero(t, factory.created)
}

func TestNotificationHandler_HandleEventUpdated(t *testing.T) {
	ctx := context.Background()
	snapshot := openEvent().Snapshot()
	event := events.EventUpdatedEvent{Snapshot: snapshot}

	t.Run("refreshes cache and broadcasts", func(t *testing.T) {
		notifier := new(testhelpers.MockNotifier)
		cache := new(testhelpers.MockEventSnapshotCache)
		cache.On("Set", ctx, snapshot).Return(nil)
		notifier.On("BroadcastEventUpdate", ctx, snapshot).Return(nil)

		err := NewNotificationHandler(notifier, cache).HandleEventUpdated(ctx, event)

		require.NoError(t, err)
		cache.AssertExpectations(t)
		notifier.AssertExpectations(t)
		cache.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("evicts when the refresh fails", func(t *testing.T) {
		notifier := new(testhelpers.MockNotifier)
		cache := new(testhelpers.MockEventSnapshotCache)
		cache.On("Set", ctx, snapshot).Return(errors.New("timeout"))
		cache.On("Delete", ctx, snapshot.ID).Return(nil)
		notifier.On("BroadcastEventUpdate", ctx, snapshot).Return(nil)

		require.NoError(t, NewNotificationHandler(notifier, cache).HandleEventUpdated(ctx, event))
		cache.AssertExpectations(t)
	})

	t.Run("broadcast failure is not returned", func(t *testing.T) {
		notifier := new(testhelpers.MockNotifier)
		notifier.On("BroadcastEventUpdate", ctx, snapshot).Return(errors.New("discord unavailable"))

		assert.NoError(t, NewNotificationHandler(notifier, nil).HandleEventUpdated(ctx, event))
		notifier.AssertExpectations(t)
	})

	t.Run("wrong event type", func(t *testing.T) {
		notifier := new(testhelpers.MockNotifier)
		assert.Error(t, NewNotificationHandler(notifier, nil).HandleEventUpdated(ctx, events.BetPlacedEvent{}))
	})
}

func TestNotificationHandler_UserAndAdmin(t *testing.T) {
	ctx := context.Background()
	notifier := new(testhelpers.MockNotifier)
	handler := NewNotificationHandler(notifier, nil)

	userEvent := events.UserNotificationEvent{
		UserID:           uuid.New(),
		NotificationType: events.NotificationMoneyRequestApproved,
		Message:          "approved",
	}
	adminEvent := events.AdminRequestEvent{RequestID: uuid.New(), Action: events.AdminActionApproved}

	notifier.On("NotifyUser", ctx, userEvent.UserID, userEvent.NotificationType, userEvent.Message).Return(errors.New("offline"))
	notifier.On("BroadcastAdminRequest", ctx, adminEvent).Return(nil)

	assert.NoError(t, handler.HandleUserNotification(ctx, userEvent))
	assert.NoError(t, handler.HandleAdminRequest(ctx, adminEvent))
	notifier.AssertExpectations(t)
}

type recordingSubscriber struct {
	types []events.EventType
}

func (s *recordingSubscriber) Subscribe(eventType events.EventType, handler func(context.Context, events.Event) error) error {
	s.types = append(s.types, eventType)
	return nil
}

func TestRegisterApplicationSubscriptions(t *testing.T) {
	subscriber := &recordingSubscriber{}
	factory, _ := newFakeFactory()

	err := RegisterApplicationSubscriptions(
		subscriber,
		NewAchievementHandler(factory, nil),
		NewNotificationHandler(new(testhelpers.MockNotifier), nil),
	)

	require.NoError(t, err)
	assert.ElementsMatch(t, []events.EventType{
		events.EventTypeBetSettled,
		events.EventTypeEventUpdated,
		events.EventTypeUserNotification,
		events.EventTypeAdminRequest,
	}, subscriber.types)
}
