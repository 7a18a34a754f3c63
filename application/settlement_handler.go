package application

import (
	"context"

	"bookmaker/application/dto"
	"bookmaker/domain/interfaces"
	"bookmaker/domain/services"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type settlementHandler struct {
	uowFactory UnitOfWorkFactory
}

// NewSettlementHandler creates a new SettlementHandler
func NewSettlementHandler(uowFactory UnitOfWorkFactory) SettlementHandler {
	return &settlementHandler{uowFactory: uowFactory}
}

func newSettlementService(uow UnitOfWork) interfaces.SettlementService {
	return services.NewSettlementService(
		uow.EventRepository(),
		uow.BetRepository(),
		newWalletService(uow),
		uow.EventBus(),
	)
}

func (h *settlementHandler) SettleEvent(ctx context.Context, req dto.SettleEventRequest) (*interfaces.SettlementResult, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	var result *interfaces.SettlementResult
	err := withRetry(ctx, "settle_event", func() error {
		return inUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork) error {
			var err error
			result, err = newSettlementService(uow).SettleEvent(ctx, req.EventID, req.WinnerOptionID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	logSettlement(result, "Event settled")
	return result, nil
}

func (h *settlementHandler) CancelEvent(ctx context.Context, eventID uuid.UUID) (*interfaces.SettlementResult, error) {
	var result *interfaces.SettlementResult
	err := withRetry(ctx, "cancel_event", func() error {
		return inUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork) error {
			var err error
			result, err = newSettlementService(uow).CancelEvent(ctx, eventID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	logSettlement(result, "Event canceled")
	return result, nil
}

func logSettlement(result *interfaces.SettlementResult, msg string) {
	resolved := 0
	for _, b := range result.Bets {
		if b.Outcome.Resolved {
			resolved++
		}
	}
	log.WithFields(log.Fields{
		"eventID":      result.Event.ID,
		"betsTouched":  len(result.Bets),
		"betsResolved": resolved,
	}).Info(msg)
}
