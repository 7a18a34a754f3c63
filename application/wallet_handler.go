package application

import (
	"context"

	"bookmaker/application/dto"
	"bookmaker/domain/entities"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type walletHandler struct {
	uowFactory UnitOfWorkFactory
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(uowFactory UnitOfWorkFactory) WalletHandler {
	return &walletHandler{uowFactory: uowFactory}
}

func (h *walletHandler) GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := inReadOnlyUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork) error {
		var err error
		balance, err = newWalletService(uow).GetBalance(ctx, userID)
		return err
	})
	return balance, err
}

func (h *walletHandler) Credit(ctx context.Context, req dto.WalletMovement) (decimal.Decimal, error) {
	return h.move(ctx, "credit", req, func(uow UnitOfWork) (decimal.Decimal, error) {
		return newWalletService(uow).Credit(ctx, req.UserID, req.Amount, req.Origin, req.ReferenceID)
	})
}

func (h *walletHandler) Debit(ctx context.Context, req dto.WalletMovement) (decimal.Decimal, error) {
	return h.move(ctx, "debit", req, func(uow UnitOfWork) (decimal.Decimal, error) {
		return newWalletService(uow).Debit(ctx, req.UserID, req.Amount, req.Origin, req.ReferenceID)
	})
}

func (h *walletHandler) move(ctx context.Context, operation string, req dto.WalletMovement, apply func(UnitOfWork) (decimal.Decimal, error)) (decimal.Decimal, error) {
	if err := dto.Validate(req); err != nil {
		return decimal.Zero, err
	}

	var balance decimal.Decimal
	err := withRetry(ctx, operation, func() error {
		return inUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork) error {
			var err error
			balance, err = apply(uow)
			return err
		})
	})
	if err != nil {
		return decimal.Zero, err
	}

	log.WithFields(log.Fields{
		"userID":  req.UserID,
		"amount":  req.Amount.StringFixed(2),
		"origin":  req.Origin,
		"balance": balance.StringFixed(2),
	}).Infof("Wallet %s applied", operation)
	return balance, nil
}

func (h *walletHandler) ClaimDailyBonus(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := withRetry(ctx, "daily_bonus", func() error {
		return inUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork) error {
			var err error
			balance, err = newWalletService(uow).ClaimDailyBonus(ctx, userID)
			return err
		})
	})
	return balance, err
}

func (h *walletHandler) ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.Transaction, error) {
	var txs []*entities.Transaction
	err := inReadOnlyUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork) error {
		var err error
		txs, err = newWalletService(uow).ListTransactions(ctx, userID, limit)
		return err
	})
	return txs, err
}
