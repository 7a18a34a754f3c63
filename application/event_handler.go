package application

import (
	"context"
	"fmt"

	"bookmaker/application/dto"
	"bookmaker/domain/entities"
	"bookmaker/domain/interfaces"
	"bookmaker/domain/services"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// FeedObserver is told what every applied feed record did
type FeedObserver interface {
	ObserveFeedOutcome(outcome string)
}

type eventHandler struct {
	uowFactory UnitOfWorkFactory
	observer   FeedObserver
}

// NewEventHandler creates a new EventHandler. observer may be nil.
func NewEventHandler(uowFactory UnitOfWorkFactory, observer FeedObserver) EventHandler {
	return &eventHandler{
		uowFactory: uowFactory,
		observer:   observer,
	}
}

func newEventService(uow UnitOfWork) interfaces.EventService {
	return services.NewEventService(uow.EventRepository(), uow.BetRepository(), uow.EventBus())
}

func (h *eventHandler) CreateInternalEvent(ctx context.Context, cmd interfaces.CreateEventCommand) (*entities.Event, error) {
	if err := dto.Validate(cmd); err != nil {
		return nil, err
	}

	var event *entities.Event
	err := inUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork) error {
		var err error
		event, err = newEventService(uow).CreateInternalEvent(ctx, cmd)
		return err
	})
	return event, err
}

func (h *eventHandler) UpdateEventStatus(ctx context.Context, req dto.UpdateEventStatusRequest) (*entities.Event, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	var event *entities.Event
	err := withRetry(ctx, "update_event_status", func() error {
		return inUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork) error {
			var err error
			event, err = newEventService(uow).UpdateStatus(ctx, req.EventID, req.Status)
			return err
		})
	})
	return event, err
}

// HandleFeedUpsert applies a feed record, replaying it when a concurrent
// placement bumped the event version first
func (h *eventHandler) HandleFeedUpsert(ctx context.Context, upsert interfaces.FeedEventUpsert) error {
	var result *interfaces.FeedUpsertResult
	err := withRetry(ctx, "feed_upsert", func() error {
		return inUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork) error {
			var err error
			result, err = newEventService(uow).UpsertFromFeed(ctx, upsert)
			return err
		})
	})
	if err != nil {
		return fmt.Errorf("failed to upsert feed event %s: %w", upsert.ExternalID, err)
	}

	if h.observer != nil {
		h.observer.ObserveFeedOutcome(string(result.Outcome))
	}
	log.WithFields(log.Fields{
		"externalId": upsert.ExternalID,
		"outcome":    result.Outcome,
	}).Debug("Feed record applied")
	return nil
}

type eventQueryHandler struct {
	uowFactory UnitOfWorkFactory
	cache      interfaces.EventSnapshotCache
}

// NewEventQueryHandler creates a new EventQueryHandler. cache may be nil, in
// which case every read goes to the database.
func NewEventQueryHandler(uowFactory UnitOfWorkFactory, cache interfaces.EventSnapshotCache) EventQueryHandler {
	return &eventQueryHandler{
		uowFactory: uowFactory,
		cache:      cache,
	}
}

func (h *eventQueryHandler) GetSnapshot(ctx context.Context, eventID uuid.UUID) (*entities.EventSnapshot, error) {
	if h.cache != nil {
		snapshot, err := h.cache.Get(ctx, eventID)
		if err != nil {
			log.WithError(err).WithField("eventID", eventID).Warn("Event cache read failed, falling back to database")
		} else if snapshot != nil {
			return snapshot, nil
		}
	}

	var event *entities.Event
	err := inReadOnlyUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork) error {
		var err error
		event, err = newEventService(uow).GetEvent(ctx, eventID)
		return err
	})
	if err != nil {
		return nil, err
	}

	snapshot := event.Snapshot()
	if h.cache != nil {
		if err := h.cache.Set(ctx, snapshot); err != nil {
			log.WithError(err).WithField("eventID", eventID).Warn("Failed to populate event cache")
		}
	}
	return &snapshot, nil
}

func (h *eventQueryHandler) ListEvents(ctx context.Context, statuses ...entities.EventStatus) ([]*entities.Event, error) {
	var list []*entities.Event
	err := inReadOnlyUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork) error {
		var err error
		list, err = newEventService(uow).ListEventsByStatus(ctx, statuses...)
		return err
	})
	return list, err
}
