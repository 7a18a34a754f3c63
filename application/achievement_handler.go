package application

import (
	"context"
	"errors"
	"fmt"

	"bookmaker/domain/entities"
	"bookmaker/domain/events"
	"bookmaker/domain/interfaces"
	"bookmaker/domain/services"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type achievementHandler struct {
	uowFactory UnitOfWorkFactory
	catalog    *entities.BadgeCatalog
}

// NewAchievementHandler creates a new AchievementHandler
func NewAchievementHandler(uowFactory UnitOfWorkFactory, catalog *entities.BadgeCatalog) AchievementHandler {
	return &achievementHandler{
		uowFactory: uowFactory,
		catalog:    catalog,
	}
}

func (h *achievementHandler) newService(uow UnitOfWork) interfaces.AchievementService {
	return services.NewAchievementService(
		h.catalog,
		uow.BetRepository(),
		uow.EventRepository(),
		uow.BadgeRepository(),
		newWalletService(uow),
		uow.EventBus(),
	)
}

// HandleBetSettled evaluates the bet's owner for badges. Evaluation failures
// are logged and swallowed so the message is acknowledged.
func (h *achievementHandler) HandleBetSettled(ctx context.Context, event events.Event) error {
	e, err := AssertEventType[events.BetSettledEvent](event)
	if err != nil {
		return err
	}

	awarded, err := h.EvaluateSettledBet(ctx, e.BetID, e.EventTitle)
	if err != nil {
		log.WithFields(log.Fields{
			"betID":   e.BetID,
			"userID":  e.UserID,
			"awarded": awarded,
			"error":   err,
		}).Error("Achievement evaluation finished with errors")
	}
	return nil
}

// EvaluateSettledBet reads a snapshot, then awards each earned badge in its
// own unit of work. The collector badge is checked last so it sees the
// badges awarded just before it.
func (h *achievementHandler) EvaluateSettledBet(ctx context.Context, betID uuid.UUID, eventTitle string) ([]entities.BadgeCode, error) {
	var evaluation *interfaces.AchievementEvaluation
	var errs []error

	err := inReadOnlyUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork) error {
		var err error
		evaluation, err = h.newService(uow).EvaluateRules(ctx, betID, eventTitle)
		if evaluation != nil && err != nil {
			// partial result: keep what evaluated, report the rest
			errs = append(errs, err)
			return nil
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate achievements for bet %s: %w", betID, err)
	}

	var awarded []entities.BadgeCode
	for _, code := range evaluation.Earned {
		ok, err := h.award(ctx, evaluation.UserID, code)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			awarded = append(awarded, code)
		}
	}

	ok, err := h.awardCollector(ctx, evaluation.UserID)
	if err != nil {
		errs = append(errs, err)
	} else if ok {
		awarded = append(awarded, entities.BadgeDonoDaBanca)
	}

	if len(awarded) > 0 {
		log.WithFields(log.Fields{
			"betID":   betID,
			"userID":  evaluation.UserID,
			"awarded": awarded,
		}).Info("Badges awarded for settled bet")
	}
	return awarded, errors.Join(errs...)
}

func (h *achievementHandler) award(ctx context.Context, userID uuid.UUID, code entities.BadgeCode) (bool, error) {
	var awarded bool
	err := withRetry(ctx, "award_badge", func() error {
		return inUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork) error {
			var err error
			awarded, err = h.newService(uow).AwardBadge(ctx, userID, code)
			return err
		})
	})
	if err != nil {
		return false, fmt.Errorf("failed to award %s to user %s: %w", code, userID, err)
	}
	return awarded, nil
}

func (h *achievementHandler) awardCollector(ctx context.Context, userID uuid.UUID) (bool, error) {
	var awarded bool
	err := withRetry(ctx, "award_collector", func() error {
		return inUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork) error {
			svc := h.newService(uow)
			qualifies, err := svc.QualifiesForCollector(ctx, userID)
			if err != nil || !qualifies {
				awarded = false
				return err
			}
			awarded, err = svc.AwardBadge(ctx, userID, entities.BadgeDonoDaBanca)
			return err
		})
	})
	if err != nil {
		return false, fmt.Errorf("failed to award %s to user %s: %w", entities.BadgeDonoDaBanca, userID, err)
	}
	return awarded, nil
}

func (h *achievementHandler) ListCatalog() []entities.BadgeDefinition {
	return h.catalog.All()
}

func (h *achievementHandler) ListUserBadges(ctx context.Context, userID uuid.UUID) ([]*entities.UserBadge, error) {
	var badges []*entities.UserBadge
	err := inReadOnlyUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork) error {
		var err error
		badges, err = h.newService(uow).ListUserBadges(ctx, userID)
		return err
	})
	return badges, err
}
