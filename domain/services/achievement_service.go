package services

import (
	"context"
	"errors"
	"fmt"

	"bookmaker/config"
	"bookmaker/domain/apperr"
	"bookmaker/domain/entities"
	"bookmaker/domain/events"
	"bookmaker/domain/interfaces"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type achievementService struct {
	catalog        *entities.BadgeCatalog
	betRepo        interfaces.BetRepository
	eventRepo      interfaces.EventRepository
	badgeRepo      interfaces.BadgeRepository
	wallet         interfaces.WalletService
	eventPublisher interfaces.EventPublisher
}

// NewAchievementService creates a new achievement service
func NewAchievementService(catalog *entities.BadgeCatalog, betRepo interfaces.BetRepository, eventRepo interfaces.EventRepository, badgeRepo interfaces.BadgeRepository, wallet interfaces.WalletService, eventPublisher interfaces.EventPublisher) interfaces.AchievementService {
	return &achievementService{
		catalog:        catalog,
		betRepo:        betRepo,
		eventRepo:      eventRepo,
		badgeRepo:      badgeRepo,
		wallet:         wallet,
		eventPublisher: eventPublisher,
	}
}

func (s *achievementService) EvaluateRules(ctx context.Context, betID uuid.UUID, eventTitle string) (*interfaces.AchievementEvaluation, error) {
	bet, err := s.betRepo.GetByID(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil {
		return nil, apperr.NotFound("bet", betID)
	}

	badges, err := s.badgeRepo.ListByUser(ctx, bet.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user badges: %w", err)
	}
	history, err := s.betRepo.ListByUser(ctx, bet.UserID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list user bets: %w", err)
	}

	snap := &AchievementSnapshot{
		Bet:        bet,
		EventTitle: eventTitle,
		UserBets:   history,
		Held:       entities.NewBadgeSet(badges),
		Now:        config.Get().Now(),
	}

	var errs []error
	eventIDs := make([]uuid.UUID, 0, len(bet.Legs))
	for _, leg := range bet.Legs {
		eventIDs = append(eventIDs, leg.EventID)
	}
	snap.CommenceTimes, err = s.eventRepo.GetCommenceTimes(ctx, eventIDs)
	if err != nil {
		// Only the last-minute rule needs commence times
		errs = append(errs, fmt.Errorf("failed to load commence times: %w", err))
	}

	result := &interfaces.AchievementEvaluation{UserID: bet.UserID}
	for _, rule := range AchievementRules() {
		if snap.Held.Has(rule.Code) {
			continue
		}
		if rule.Code == entities.BadgeInimigoDoFim && snap.CommenceTimes == nil {
			continue
		}
		if rule.Qualifies(s.catalog.Rules, snap) {
			result.Earned = append(result.Earned, rule.Code)
		}
	}

	log.WithFields(log.Fields{
		"betID":  betID,
		"userID": bet.UserID,
		"earned": result.Earned,
	}).Debug("Achievement rules evaluated")
	return result, errors.Join(errs...)
}

func (s *achievementService) AwardBadge(ctx context.Context, userID uuid.UUID, code entities.BadgeCode) (bool, error) {
	def, ok := s.catalog.Get(code)
	if !ok {
		return false, apperr.Validation("unknown badge %s", code)
	}

	badge := &entities.UserBadge{
		UserID:       userID,
		Code:         code,
		RewardAmount: def.RewardAmount,
		EarnedAt:     config.Get().Now(),
	}
	inserted, err := s.badgeRepo.Award(ctx, badge)
	if err != nil {
		return false, fmt.Errorf("failed to award badge %s: %w", code, err)
	}
	if !inserted {
		log.WithFields(log.Fields{
			"userID": userID,
			"code":   code,
		}).Debug("Badge already held")
		return false, nil
	}

	if def.RewardAmount.IsPositive() {
		reference := "BADGE_" + string(code)
		if _, err := s.wallet.Credit(ctx, userID, def.RewardAmount, entities.OriginAchievementReward, &reference); err != nil {
			return false, fmt.Errorf("failed to credit badge reward: %w", err)
		}
	}

	log.WithFields(log.Fields{
		"userID": userID,
		"code":   code,
		"reward": def.RewardAmount.StringFixed(2),
	}).Info("Badge awarded")

	s.publish(events.BadgeAwardedEvent{
		UserID:       userID,
		Code:         code,
		Title:        def.Title,
		RewardAmount: def.RewardAmount,
	})
	s.publish(events.UserNotificationEvent{
		UserID:           userID,
		NotificationType: events.NotificationBadgeUnlocked,
		Message:          fmt.Sprintf("Achievement unlocked: %s (+%s)", def.Title, def.RewardAmount.StringFixed(2)),
	})
	return true, nil
}

func (s *achievementService) QualifiesForCollector(ctx context.Context, userID uuid.UUID) (bool, error) {
	badges, err := s.badgeRepo.ListByUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to list user badges: %w", err)
	}
	return qualifiesCollector(s.catalog.Rules, entities.NewBadgeSet(badges)), nil
}

func (s *achievementService) ListCatalog() []entities.BadgeDefinition {
	return s.catalog.All()
}

func (s *achievementService) ListUserBadges(ctx context.Context, userID uuid.UUID) ([]*entities.UserBadge, error) {
	badges, err := s.badgeRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user badges: %w", err)
	}
	entities.SortBadgesByEarnedAt(badges)
	return badges, nil
}

func (s *achievementService) publish(event events.Event) {
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithError(err).WithField("eventType", event.Type()).Error("Failed to publish event")
	}
}
