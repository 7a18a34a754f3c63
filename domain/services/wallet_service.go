package services

import (
	"context"
	"fmt"

	"bookmaker/config"
	"bookmaker/domain/apperr"
	"bookmaker/domain/entities"
	"bookmaker/domain/interfaces"
	"bookmaker/domain/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type walletService struct {
	userRepo        interfaces.UserRepository
	transactionRepo interfaces.TransactionRepository
	eventPublisher  interfaces.EventPublisher
}

// NewWalletService creates a new wallet service
func NewWalletService(userRepo interfaces.UserRepository, transactionRepo interfaces.TransactionRepository, eventPublisher interfaces.EventPublisher) interfaces.WalletService {
	return &walletService{
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
		eventPublisher:  eventPublisher,
	}
}

func (s *walletService) GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return decimal.Zero, apperr.NotFound("user", userID)
	}
	return user.Balance, nil
}

func (s *walletService) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, origin entities.TransactionOrigin, referenceID *string) (decimal.Decimal, error) {
	amount = entities.RoundMoney(amount)
	if !amount.IsPositive() {
		return decimal.Zero, apperr.Validation("credit amount must be positive")
	}

	user, err := s.lockUser(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return s.apply(ctx, user, entities.TransactionTypeDeposit, amount, origin, referenceID)
}

func (s *walletService) Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, origin entities.TransactionOrigin, referenceID *string) (decimal.Decimal, error) {
	amount = entities.RoundMoney(amount)
	if !amount.IsPositive() {
		return decimal.Zero, apperr.Validation("debit amount must be positive")
	}

	user, err := s.lockUser(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	if !user.HasSufficientBalance(amount) {
		return decimal.Zero, apperr.InsufficientFunds(user.Balance, amount)
	}
	return s.apply(ctx, user, entities.TransactionTypeWithdraw, amount, origin, referenceID)
}

func (s *walletService) ClaimDailyBonus(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	cfg := config.Get()
	today := cfg.DateIn(cfg.Now())

	user, err := s.lockUser(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	if user.ClaimedBonusOn(today) {
		return decimal.Zero, apperr.BusinessRule("daily bonus already claimed today")
	}

	newBalance, err := s.apply(ctx, user, entities.TransactionTypeDeposit, entities.RoundMoney(cfg.DailyBonusAmount), entities.OriginDailyBonus, nil)
	if err != nil {
		return decimal.Zero, err
	}
	if err := s.userRepo.SetLastDailyBonus(ctx, userID, today); err != nil {
		return decimal.Zero, fmt.Errorf("failed to record daily bonus claim: %w", err)
	}

	log.WithFields(log.Fields{
		"userID": userID,
		"day":    today.String(),
	}).Info("Daily bonus claimed")
	return newBalance, nil
}

func (s *walletService) ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.Transaction, error) {
	transactions, err := s.transactionRepo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}

func (s *walletService) lockUser(ctx context.Context, userID uuid.UUID) (*entities.User, error) {
	user, err := s.userRepo.GetByIDForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user", userID)
	}
	return user, nil
}

// apply writes the new balance and its ledger row. The user row must already
// be locked by the caller's transaction.
func (s *walletService) apply(ctx context.Context, user *entities.User, txType entities.TransactionType, amount decimal.Decimal, origin entities.TransactionOrigin, referenceID *string) (decimal.Decimal, error) {
	amount = entities.RoundMoney(amount)
	entry := &entities.Transaction{
		UserID:        user.ID,
		Type:          txType,
		Origin:        origin,
		Amount:        amount,
		BalanceBefore: user.Balance,
		ReferenceID:   referenceID,
	}
	entry.BalanceAfter = user.Balance.Add(entry.SignedAmount())

	if err := s.userRepo.UpdateBalance(ctx, user.ID, entry.BalanceAfter); err != nil {
		return decimal.Zero, fmt.Errorf("failed to update balance: %w", err)
	}
	if err := utils.RecordLedgerEntry(ctx, s.transactionRepo, s.eventPublisher, entry); err != nil {
		return decimal.Zero, err
	}

	user.Balance = entry.BalanceAfter
	return entry.BalanceAfter, nil
}
