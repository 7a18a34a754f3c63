package testhelpers

import (
	"context"

	"bookmaker/domain/entities"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockWalletService is a mock implementation of WalletService
type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockWalletService) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, origin entities.TransactionOrigin, referenceID *string) (decimal.Decimal, error) {
	args := m.Called(ctx, userID, amount, origin, referenceID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockWalletService) Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, origin entities.TransactionOrigin, referenceID *string) (decimal.Decimal, error) {
	args := m.Called(ctx, userID, amount, origin, referenceID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockWalletService) ClaimDailyBonus(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockWalletService) ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.Transaction, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Transaction), args.Error(1)
}

// DecimalEq matches a decimal argument by value rather than representation
func DecimalEq(expected string) any {
	want := decimal.RequireFromString(expected)
	return mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(want)
	})
}

// RefEq matches a *string reference argument by value
func RefEq(expected string) any {
	return mock.MatchedBy(func(ref *string) bool {
		return ref != nil && *ref == expected
	})
}
