package entities

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a ledger entry
type TransactionType string

const (
	TransactionTypeDeposit  TransactionType = "DEPOSIT"
	TransactionTypeWithdraw TransactionType = "WITHDRAW"
)

// TransactionOrigin records why the balance changed
type TransactionOrigin string

const (
	OriginDailyBonus        TransactionOrigin = "DAILY_BONUS"
	OriginMoneyRequest      TransactionOrigin = "MONEY_REQUEST"
	OriginBetPlacement      TransactionOrigin = "BET_PLACEMENT"
	OriginBetEntry          TransactionOrigin = "BET_ENTRY"
	OriginBetWin            TransactionOrigin = "BET_WIN"
	OriginBetRefund         TransactionOrigin = "BET_REFUND"
	OriginAdminGift         TransactionOrigin = "ADMIN_GIFT"
	OriginAchievementReward TransactionOrigin = "ACHIEVEMENT_REWARD"
)

// IsBettingRelated returns true for origins produced by placement or settlement
func (o TransactionOrigin) IsBettingRelated() bool {
	return o == OriginBetEntry || o == OriginBetPlacement || o == OriginBetWin || o == OriginBetRefund
}

// IsWin returns true if the origin represents winnings
func (o TransactionOrigin) IsWin() bool {
	return o == OriginBetWin
}

// IsSystemGenerated returns true for credits issued by the house rather than by play
func (o TransactionOrigin) IsSystemGenerated() bool {
	return o == OriginDailyBonus || o == OriginAdminGift || o == OriginAchievementReward || o == OriginMoneyRequest
}

func (o TransactionOrigin) String() string {
	return string(o)
}

// Transaction is an append-only ledger row
type Transaction struct {
	ID            uuid.UUID         `db:"id"`
	UserID        uuid.UUID         `db:"user_id"`
	Type          TransactionType   `db:"type"`
	Origin        TransactionOrigin `db:"origin"`
	Amount        decimal.Decimal   `db:"amount"`
	BalanceBefore decimal.Decimal   `db:"-"`
	BalanceAfter  decimal.Decimal   `db:"balance_after"`
	ReferenceID   *string           `db:"reference_id"`
	CreatedAt     time.Time         `db:"created_at"`
}

// SignedAmount returns the amount with the sign of its direction
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionTypeWithdraw {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Validate checks the entry against the balance it was computed from
func (t *Transaction) Validate() error {
	if !t.Amount.IsPositive() {
		return errors.New("amount must be positive")
	}
	if t.Type != TransactionTypeDeposit && t.Type != TransactionTypeWithdraw {
		return errors.New("unknown transaction type")
	}
	if t.BalanceAfter.IsNegative() {
		return errors.New("balance cannot go negative")
	}
	if !t.BalanceAfter.Equal(t.BalanceBefore.Add(t.SignedAmount())) {
		return errors.New("balance calculation is inconsistent")
	}
	return nil
}
