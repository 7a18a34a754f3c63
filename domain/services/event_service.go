package services

import (
	"context"
	"fmt"

	"bookmaker/domain/apperr"
	"bookmaker/domain/entities"
	"bookmaker/domain/events"
	"bookmaker/domain/interfaces"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type eventService struct {
	eventRepo      interfaces.EventRepository
	betRepo        interfaces.BetRepository
	eventPublisher interfaces.EventPublisher
}

// NewEventService creates a new event registry service
func NewEventService(eventRepo interfaces.EventRepository, betRepo interfaces.BetRepository, eventPublisher interfaces.EventPublisher) interfaces.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		betRepo:        betRepo,
		eventPublisher: eventPublisher,
	}
}

func (s *eventService) CreateInternalEvent(ctx context.Context, cmd interfaces.CreateEventCommand) (*entities.Event, error) {
	if cmd.Title == "" {
		return nil, apperr.Validation("event title is required")
	}
	if len(cmd.Options) < 2 {
		return nil, apperr.Validation("an event needs at least two options")
	}
	if cmd.PricingModel != entities.PricingFixedOdds && cmd.PricingModel != entities.PricingDynamicParimutuel {
		return nil, apperr.Validation("unknown pricing model %q", cmd.PricingModel)
	}

	event := &entities.Event{
		ID:           uuid.New(),
		Title:        cmd.Title,
		Category:     entities.EventCategoryInternal,
		Status:       entities.EventStatusPending,
		PricingModel: cmd.PricingModel,
		CommenceTime: cmd.CommenceTime,
	}

	seen := make(map[string]bool, len(cmd.Options))
	for _, opt := range cmd.Options {
		if opt.Name == "" {
			return nil, apperr.Validation("option name is required")
		}
		if seen[opt.Name] {
			return nil, apperr.Validation("duplicate option %q", opt.Name)
		}
		seen[opt.Name] = true

		odd := entities.RoundMoney(opt.InitialOdd)
		if !odd.GreaterThan(entities.OneOdd) {
			return nil, apperr.Validation("initial odd for %q must be greater than 1.00", opt.Name)
		}
		event.Options = append(event.Options, &entities.EventOption{
			ID:          uuid.New(),
			EventID:     event.ID,
			Name:        opt.Name,
			CurrentOdd:  odd,
			SeedOdd:     odd,
			TotalStaked: decimal.Zero,
		})
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	log.WithFields(log.Fields{
		"eventID": event.ID,
		"title":   event.Title,
		"pricing": event.PricingModel,
	}).Info("Internal event created")
	s.publishUpdate(event)
	return event, nil
}

func (s *eventService) UpdateStatus(ctx context.Context, eventID uuid.UUID, target entities.EventStatus) (*entities.Event, error) {
	if target != entities.EventStatusOpen && target != entities.EventStatusLocked {
		return nil, apperr.BusinessRule("status %s can only be reached through settlement or cancellation", target)
	}

	event, err := s.eventRepo.GetByIDForUpdate(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, apperr.NotFound("event", eventID)
	}

	previous := event.Status
	if err := event.TransitionTo(target); err != nil {
		return nil, err
	}
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event status: %w", err)
	}

	log.WithFields(log.Fields{
		"eventID": event.ID,
		"from":    previous,
		"to":      target,
	}).Info("Event status changed")

	if target == entities.EventStatusLocked {
		userIDs, err := s.betRepo.ListPendingUserIDsByEvent(ctx, event.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list bettors on event: %w", err)
		}
		for _, userID := range userIDs {
			s.publish(events.UserNotificationEvent{
				UserID:           userID,
				NotificationType: events.NotificationEventLocked,
				Message:          fmt.Sprintf("Betting on %q is now closed", event.Title),
			})
		}
	}

	s.publishUpdate(event)
	return event, nil
}

func (s *eventService) UpsertFromFeed(ctx context.Context, upsert interfaces.FeedEventUpsert) (*interfaces.FeedUpsertResult, error) {
	if upsert.ExternalID == "" {
		return nil, apperr.Validation("feed record without external id")
	}
	for _, opt := range upsert.Options {
		if !entities.RoundMoney(opt.Odd).GreaterThan(entities.OneOdd) {
			return nil, apperr.Validation("feed odd for %q must be greater than 1.00", opt.Name)
		}
	}

	event, err := s.eventRepo.GetByExternalID(ctx, upsert.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up feed event: %w", err)
	}

	if event == nil {
		return s.createFromFeed(ctx, upsert)
	}

	if !event.AcceptsFeedUpdates() {
		log.WithFields(log.Fields{
			"externalID": upsert.ExternalID,
			"status":     event.Status,
		}).Debug("Ignoring feed update for closed event")
		return &interfaces.FeedUpsertResult{Outcome: interfaces.FeedIgnored, Event: event}, nil
	}

	odds := make(map[string]decimal.Decimal, len(upsert.Options))
	for _, opt := range upsert.Options {
		odds[opt.Name] = opt.Odd
	}
	if upsert.Title != "" {
		event.Title = upsert.Title
	}
	if upsert.CommenceTime != nil {
		event.CommenceTime = upsert.CommenceTime
	}
	changed := event.RefreshOdds(odds)

	// A stale version surfaces as a conflict for the caller to retry
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"externalID":     upsert.ExternalID,
		"eventID":        event.ID,
		"optionsChanged": changed,
	}).Debug("Feed event refreshed")
	s.publishUpdate(event)
	return &interfaces.FeedUpsertResult{Outcome: interfaces.FeedUpdated, Event: event}, nil
}

func (s *eventService) createFromFeed(ctx context.Context, upsert interfaces.FeedEventUpsert) (*interfaces.FeedUpsertResult, error) {
	externalID := upsert.ExternalID
	event := &entities.Event{
		ID:           uuid.New(),
		ExternalID:   &externalID,
		Title:        upsert.Title,
		Category:     entities.EventCategorySports,
		Status:       entities.EventStatusOpen,
		PricingModel: entities.PricingFixedOdds,
		CommenceTime: upsert.CommenceTime,
	}
	for _, opt := range upsert.Options {
		odd := entities.RoundMoney(opt.Odd)
		event.Options = append(event.Options, &entities.EventOption{
			ID:          uuid.New(),
			EventID:     event.ID,
			Name:        opt.Name,
			CurrentOdd:  odd,
			SeedOdd:     odd,
			TotalStaked: decimal.Zero,
		})
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create feed event: %w", err)
	}

	log.WithFields(log.Fields{
		"externalID": externalID,
		"eventID":    event.ID,
		"title":      event.Title,
	}).Info("Feed event created")
	s.publishUpdate(event)
	return &interfaces.FeedUpsertResult{Outcome: interfaces.FeedCreated, Event: event}, nil
}

func (s *eventService) GetEvent(ctx context.Context, eventID uuid.UUID) (*entities.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, apperr.NotFound("event", eventID)
	}
	return event, nil
}

func (s *eventService) ListEventsByStatus(ctx context.Context, statuses ...entities.EventStatus) ([]*entities.Event, error) {
	if len(statuses) == 0 {
		statuses = []entities.EventStatus{entities.EventStatusOpen}
	}
	list, err := s.eventRepo.ListByStatus(ctx, statuses...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return list, nil
}

func (s *eventService) publishUpdate(event *entities.Event) {
	s.publish(events.EventUpdatedEvent{Snapshot: event.Snapshot()})
}

func (s *eventService) publish(event events.Event) {
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithError(err).WithField("eventType", event.Type()).Error("Failed to publish event")
	}
}
