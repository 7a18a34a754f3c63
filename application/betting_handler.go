package application

import (
	"context"

	"bookmaker/application/dto"
	"bookmaker/domain/entities"
	"bookmaker/domain/interfaces"
	"bookmaker/domain/services"

	"github.com/google/uuid"
)

type bettingHandler struct {
	uowFactory UnitOfWorkFactory
}

// NewBettingHandler creates a new BettingHandler
func NewBettingHandler(uowFactory UnitOfWorkFactory) BettingHandler {
	return &bettingHandler{uowFactory: uowFactory}
}

func newBetService(uow UnitOfWork) interfaces.BetService {
	return services.NewBetService(
		uow.UserRepository(),
		uow.EventRepository(),
		uow.BetRepository(),
		newWalletService(uow),
		uow.EventBus(),
	)
}

// PlaceBet runs placement in one unit of work. A conflict replays the whole
// placement so the odds are locked again from fresh state.
func (h *bettingHandler) PlaceBet(ctx context.Context, req dto.PlaceBetRequest) (*entities.Bet, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	var bet *entities.Bet
	err := withRetry(ctx, "place_bet", func() error {
		return inUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork) error {
			var err error
			bet, err = newBetService(uow).PlaceBet(ctx, req.UserID, req.Selections, req.Amount)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return bet, nil
}

func (h *bettingHandler) ListUserBets(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.Bet, error) {
	var bets []*entities.Bet
	err := inReadOnlyUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork) error {
		var err error
		bets, err = newBetService(uow).ListUserBets(ctx, userID, limit)
		return err
	})
	return bets, err
}

func (h *bettingHandler) GetBet(ctx context.Context, betID uuid.UUID) (*entities.Bet, error) {
	var bet *entities.Bet
	err := inReadOnlyUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork) error {
		var err error
		bet, err = newBetService(uow).GetBet(ctx, betID)
		return err
	})
	return bet, err
}
