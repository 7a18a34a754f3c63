package services

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"bookmaker/config"
	"bookmaker/domain/apperr"
	"bookmaker/domain/entities"
	"bookmaker/domain/events"
	"bookmaker/domain/interfaces"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type betService struct {
	userRepo       interfaces.UserRepository
	eventRepo      interfaces.EventRepository
	betRepo        interfaces.BetRepository
	wallet         interfaces.WalletService
	eventPublisher interfaces.EventPublisher
}

// NewBetService creates a new bet placement service. wallet must share the
// same transaction as the repositories.
func NewBetService(userRepo interfaces.UserRepository, eventRepo interfaces.EventRepository, betRepo interfaces.BetRepository, wallet interfaces.WalletService, eventPublisher interfaces.EventPublisher) interfaces.BetService {
	return &betService{
		userRepo:       userRepo,
		eventRepo:      eventRepo,
		betRepo:        betRepo,
		wallet:         wallet,
		eventPublisher: eventPublisher,
	}
}

func (s *betService) PlaceBet(ctx context.Context, userID uuid.UUID, selections []interfaces.BetSelection, amount decimal.Decimal) (*entities.Bet, error) {
	if !amount.IsPositive() {
		return nil, apperr.Validation("bet amount must be positive")
	}
	amount = entities.RoundMoney(amount)
	if !amount.IsPositive() {
		return nil, apperr.Validation("bet amount must be at least 0.01")
	}
	if len(selections) == 0 {
		return nil, apperr.Validation("at least one selection is required")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user", userID)
	}
	if user.IsAdmin() {
		return nil, apperr.BusinessRule("administrators cannot place bets")
	}

	eventIDs := make([]uuid.UUID, 0, len(selections))
	seen := make(map[uuid.UUID]bool, len(selections))
	for _, sel := range selections {
		if seen[sel.EventID] {
			return nil, apperr.BusinessRule("duplicate event in parlay")
		}
		seen[sel.EventID] = true
		eventIDs = append(eventIDs, sel.EventID)
	}

	locked, err := s.lockEvents(ctx, eventIDs)
	if err != nil {
		return nil, err
	}

	legs := make([]*entities.BetLeg, 0, len(selections))
	for _, sel := range selections {
		event := locked[sel.EventID]
		option := event.FindOption(sel.OptionID)
		if option == nil {
			return nil, apperr.NotFound("option", sel.OptionID)
		}
		legs = append(legs, &entities.BetLeg{
			EventID:           event.ID,
			EventTitle:        event.Title,
			ChosenOptionID:    option.ID,
			ChosenOptionLabel: option.Name,
			LockedOdd:         option.CurrentOdd,
			Status:            entities.LegStatusPending,
		})
	}

	bet, err := entities.NewBet(userID, amount, legs, config.Get().Now())
	if err != nil {
		return nil, err
	}

	// Odds are already locked into the legs, so repricing only affects later bets
	for _, leg := range legs {
		if err := locked[leg.EventID].ApplyStake(leg.ChosenOptionID, amount); err != nil {
			return nil, err
		}
	}

	reference := bet.ID.String()
	if _, err := s.wallet.Debit(ctx, userID, amount, entities.OriginBetEntry, &reference); err != nil {
		return nil, err
	}

	if err := s.betRepo.Create(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to create bet: %w", err)
	}
	for _, id := range eventIDs {
		if err := s.eventRepo.Update(ctx, locked[id]); err != nil {
			return nil, fmt.Errorf("failed to update event pools: %w", err)
		}
	}

	log.WithFields(log.Fields{
		"betID":    bet.ID,
		"userID":   userID,
		"type":     bet.Type,
		"amount":   bet.Amount.StringFixed(2),
		"totalOdd": bet.TotalOdd.StringFixed(2),
	}).Info("Bet placed")

	for _, id := range eventIDs {
		s.publish(events.EventUpdatedEvent{Snapshot: locked[id].Snapshot()})
	}
	s.publish(events.BetPlacedEvent{
		BetID:    bet.ID,
		UserID:   userID,
		BetType:  bet.Type,
		Amount:   bet.Amount,
		TotalOdd: bet.TotalOdd,
		EventIDs: eventIDs,
	})
	return bet, nil
}

// lockEvents takes the event row locks in ascending id order
func (s *betService) lockEvents(ctx context.Context, eventIDs []uuid.UUID) (map[uuid.UUID]*entities.Event, error) {
	ordered := append([]uuid.UUID(nil), eventIDs...)
	sort.Slice(ordered, func(i, j int) bool {
		return bytes.Compare(ordered[i][:], ordered[j][:]) < 0
	})

	locked := make(map[uuid.UUID]*entities.Event, len(ordered))
	for _, id := range ordered {
		event, err := s.eventRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to lock event: %w", err)
		}
		if event == nil {
			return nil, apperr.NotFound("event", id)
		}
		if !event.IsOpen() {
			return nil, apperr.BusinessRule("event %q is not open for betting (status: %s)", event.Title, event.Status)
		}
		locked[id] = event
	}
	return locked, nil
}

func (s *betService) ListUserBets(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.Bet, error) {
	bets, err := s.betRepo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bets: %w", err)
	}
	return bets, nil
}

func (s *betService) GetBet(ctx context.Context, betID uuid.UUID) (*entities.Bet, error) {
	bet, err := s.betRepo.GetByID(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil {
		return nil, apperr.NotFound("bet", betID)
	}
	return bet, nil
}

func (s *betService) publish(event events.Event) {
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithError(err).WithField("eventType", event.Type()).Error("Failed to publish event")
	}
}
