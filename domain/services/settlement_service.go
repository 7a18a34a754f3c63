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
	log "github.com/sirupsen/logrus"
)

type settlementService struct {
	eventRepo      interfaces.EventRepository
	betRepo        interfaces.BetRepository
	wallet         interfaces.WalletService
	eventPublisher interfaces.EventPublisher
}

// NewSettlementService creates a new settlement service. wallet must share the
// same transaction as the repositories.
func NewSettlementService(eventRepo interfaces.EventRepository, betRepo interfaces.BetRepository, wallet interfaces.WalletService, eventPublisher interfaces.EventPublisher) interfaces.SettlementService {
	return &settlementService{
		eventRepo:      eventRepo,
		betRepo:        betRepo,
		wallet:         wallet,
		eventPublisher: eventPublisher,
	}
}

func (s *settlementService) SettleEvent(ctx context.Context, eventID, winnerOptionID uuid.UUID) (*interfaces.SettlementResult, error) {
	event, err := s.lockEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := event.Settle(winnerOptionID); err != nil {
		return nil, err
	}

	result, err := s.resolveBets(ctx, event, func(leg *entities.BetLeg) error {
		return leg.ResolveAgainst(winnerOptionID)
	})
	if err != nil {
		return nil, err
	}

	winner := event.FindOption(winnerOptionID)
	log.WithFields(log.Fields{
		"eventID":     event.ID,
		"winner":      winner.Name,
		"betsTouched": len(result.Bets),
	}).Info("Event settled")

	for _, settled := range result.Bets {
		if !settled.Outcome.Resolved {
			continue
		}
		notificationType, message := settlementMessage(event, settled)
		s.publish(events.UserNotificationEvent{
			UserID:           settled.Bet.UserID,
			NotificationType: notificationType,
			Message:          message,
		})
	}
	s.publish(events.EventUpdatedEvent{Snapshot: event.Snapshot()})
	return result, nil
}

func (s *settlementService) CancelEvent(ctx context.Context, eventID uuid.UUID) (*interfaces.SettlementResult, error) {
	event, err := s.lockEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := event.TransitionTo(entities.EventStatusCanceled); err != nil {
		return nil, err
	}

	result, err := s.resolveBets(ctx, event, func(leg *entities.BetLeg) error {
		return leg.Resolve(entities.LegStatusVoid)
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"eventID":     event.ID,
		"betsTouched": len(result.Bets),
	}).Info("Event canceled")

	for _, settled := range result.Bets {
		if !settled.Outcome.Resolved {
			continue
		}
		notificationType, message := settlementMessage(event, settled)
		if settled.Outcome.Status == entities.BetStatusRefunded {
			notificationType = events.NotificationEventCanceled
			message = fmt.Sprintf("%q was canceled. Your stake of %s has been refunded", event.Title, settled.Outcome.Payout.StringFixed(2))
		}
		s.publish(events.UserNotificationEvent{
			UserID:           settled.Bet.UserID,
			NotificationType: notificationType,
			Message:          message,
		})
	}
	s.publish(events.EventUpdatedEvent{Snapshot: event.Snapshot()})
	return result, nil
}

func (s *settlementService) lockEvent(ctx context.Context, eventID uuid.UUID) (*entities.Event, error) {
	event, err := s.eventRepo.GetByIDForUpdate(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock event: %w", err)
	}
	if event == nil {
		return nil, apperr.NotFound("event", eventID)
	}
	return event, nil
}

// resolveBets persists the event, applies resolve to the event's leg on
// every pending bet and credits the resolved payouts
func (s *settlementService) resolveBets(ctx context.Context, event *entities.Event, resolve func(*entities.BetLeg) error) (*interfaces.SettlementResult, error) {
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	bets, err := s.betRepo.ListPendingByEventForUpdate(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending bets: %w", err)
	}

	now := config.Get().Now()
	result := &interfaces.SettlementResult{Event: event}
	for _, bet := range bets {
		leg := bet.LegForEvent(event.ID)
		if leg == nil {
			continue
		}
		if err := resolve(leg); err != nil {
			return nil, err
		}
		outcome := bet.Evaluate(now)
		if err := s.betRepo.UpdateSettlement(ctx, bet); err != nil {
			return nil, fmt.Errorf("failed to update bet %s: %w", bet.ID, err)
		}
		result.Bets = append(result.Bets, interfaces.BetSettlement{Bet: bet, Outcome: outcome})
	}

	if err := s.creditPayouts(ctx, result.Bets); err != nil {
		return nil, err
	}

	for _, settled := range result.Bets {
		s.publish(events.BetSettledEvent{
			BetID:      settled.Bet.ID,
			UserID:     settled.Bet.UserID,
			Status:     settled.Bet.Status,
			EventTitle: event.Title,
			Payout:     settled.Outcome.Payout,
		})
	}
	return result, nil
}

// creditPayouts credits in user id order so concurrent settlements take user
// locks in the same order
func (s *settlementService) creditPayouts(ctx context.Context, settled []interfaces.BetSettlement) error {
	payable := make([]interfaces.BetSettlement, 0, len(settled))
	for _, st := range settled {
		if st.Outcome.Resolved && st.Outcome.Payout.IsPositive() {
			payable = append(payable, st)
		}
	}
	sort.SliceStable(payable, func(i, j int) bool {
		a, b := payable[i].Bet, payable[j].Bet
		if c := bytes.Compare(a.UserID[:], b.UserID[:]); c != 0 {
			return c < 0
		}
		return bytes.Compare(a.ID[:], b.ID[:]) < 0
	})

	for _, st := range payable {
		reference := st.Bet.ID.String()
		if _, err := s.wallet.Credit(ctx, st.Bet.UserID, st.Outcome.Payout, st.Outcome.CreditOrigin(), &reference); err != nil {
			return fmt.Errorf("failed to credit payout for bet %s: %w", st.Bet.ID, err)
		}
	}
	return nil
}

func settlementMessage(event *entities.Event, settled interfaces.BetSettlement) (string, string) {
	bet := settled.Bet
	switch settled.Outcome.Status {
	case entities.BetStatusWon:
		return events.NotificationBetWon, fmt.Sprintf("You won %s on %q (odd %s)", settled.Outcome.Payout.StringFixed(2), event.Title, bet.TotalOdd.StringFixed(2))
	case entities.BetStatusRefunded:
		return events.NotificationBetRefunded, fmt.Sprintf("Your bet of %s was refunded", bet.Amount.StringFixed(2))
	default:
		return events.NotificationBetLost, fmt.Sprintf("You lost %s on %q", bet.Amount.StringFixed(2), event.Title)
	}
}

func (s *settlementService) publish(event events.Event) {
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithError(err).WithField("eventType", event.Type()).Error("Failed to publish event")
	}
}
