package services

import (
	"context"
	"errors"
	"testing"

	"bookmaker/config"
	"bookmaker/domain/apperr"
	"bookmaker/domain/entities"
	"bookmaker/domain/events"
	"bookmaker/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestWallet(m *TestMocks) *walletService {
	return NewWalletService(m.UserRepo, m.TransactionRepo, m.Publisher).(*walletService)
}

func TestWalletService_GetBalance(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	m := NewTestMocks()
	wallet := newTestWallet(m)
	user := newUser("42.50")

	t.Run("existing user", func(t *testing.T) {
		m.UserRepo.On("GetByID", ctx, user.ID).Return(user, nil).Once()

		balance, err := wallet.GetBalance(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, balance.Equal(dec("42.50")))
	})

	t.Run("unknown user", func(t *testing.T) {
		m.UserRepo.On("GetByID", ctx, user.ID).Return(nil, nil).Once()

		_, err := wallet.GetBalance(ctx, user.ID)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	m.AssertAllExpectations(t)
}

func TestWalletService_Credit(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	m := NewTestMocks()
	wallet := newTestWallet(m)
	user := newUser("100.00")
	ref := "ref-1"

	m.UserRepo.On("GetByIDForUpdate", ctx, user.ID).Return(user, nil)
	m.UserRepo.On("UpdateBalance", ctx, user.ID, testhelpers.DecimalEq("150.25")).Return(nil)
	m.TransactionRepo.On("Record", ctx, mock.MatchedBy(func(tx *entities.Transaction) bool {
		return tx.UserID == user.ID &&
			tx.Type == entities.TransactionTypeDeposit &&
			tx.Origin == entities.OriginAdminGift &&
			tx.Amount.Equal(dec("50.25")) &&
			tx.BalanceBefore.Equal(dec("100.00")) &&
			tx.BalanceAfter.Equal(dec("150.25")) &&
			*tx.ReferenceID == ref
	})).Return(nil)

	balance, err := wallet.Credit(ctx, user.ID, dec("50.25"), entities.OriginAdminGift, &ref)
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("150.25")))

	published := m.Publisher.OfType(events.EventTypeBalanceChange)
	require.Len(t, published, 1)
	change := published[0].(events.BalanceChangeEvent)
	assert.True(t, change.ChangeAmount.Equal(dec("50.25")))
	assert.Equal(t, entities.OriginAdminGift, change.Origin)

	m.AssertAllExpectations(t)
}

func TestWalletService_Credit_RejectsNonPositiveAmount(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	m := NewTestMocks()
	wallet := newTestWallet(m)

	for _, amount := range []string{"0", "-5.00"} {
		_, err := wallet.Credit(context.Background(), newUser("0").ID, dec(amount), entities.OriginAdminGift, nil)
		assert.ErrorIs(t, err, apperr.ErrValidation, amount)
	}
	m.AssertAllExpectations(t)
}

func TestWalletService_SubCentAmountsAreValidationErrors(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	m := NewTestMocks()
	wallet := newTestWallet(m)
	user := newUser("10.00")

	_, err := wallet.Credit(ctx, user.ID, dec("0.004"), entities.OriginAdminGift, nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = wallet.Debit(ctx, user.ID, dec("0.004"), entities.OriginBetEntry, nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	m.UserRepo.AssertNotCalled(t, "GetByIDForUpdate", mock.Anything, mock.Anything)
	m.UserRepo.AssertNotCalled(t, "UpdateBalance", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, m.Publisher.Events)
}

func TestWalletService_Debit(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()

	t.Run("exact balance", func(t *testing.T) {
		m := NewTestMocks()
		wallet := newTestWallet(m)
		user := newUser("30.00")

		m.UserRepo.On("GetByIDForUpdate", ctx, user.ID).Return(user, nil)
		m.UserRepo.On("UpdateBalance", ctx, user.ID, testhelpers.DecimalEq("0")).Return(nil)
		m.TransactionRepo.On("Record", ctx, mock.MatchedBy(func(tx *entities.Transaction) bool {
			return tx.Type == entities.TransactionTypeWithdraw && tx.BalanceAfter.IsZero()
		})).Return(nil)

		balance, err := wallet.Debit(ctx, user.ID, dec("30.00"), entities.OriginBetEntry, nil)
		require.NoError(t, err)
		assert.True(t, balance.IsZero())
		m.AssertAllExpectations(t)
	})

	t.Run("insufficient funds leaves balance untouched", func(t *testing.T) {
		m := NewTestMocks()
		wallet := newTestWallet(m)
		user := newUser("29.99")

		m.UserRepo.On("GetByIDForUpdate", ctx, user.ID).Return(user, nil)

		_, err := wallet.Debit(ctx, user.ID, dec("30.00"), entities.OriginBetEntry, nil)
		assert.ErrorIs(t, err, apperr.ErrInsufficientFunds)
		m.UserRepo.AssertNotCalled(t, "UpdateBalance", mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, m.Publisher.Events)
		m.AssertAllExpectations(t)
	})

	t.Run("unknown user", func(t *testing.T) {
		m := NewTestMocks()
		wallet := newTestWallet(m)
		user := newUser("0")

		m.UserRepo.On("GetByIDForUpdate", ctx, user.ID).Return(nil, nil)

		_, err := wallet.Debit(ctx, user.ID, dec("1.00"), entities.OriginBetEntry, nil)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("repository failure is wrapped", func(t *testing.T) {
		m := NewTestMocks()
		wallet := newTestWallet(m)
		user := newUser("10.00")
		boom := errors.New("connection reset")

		m.UserRepo.On("GetByIDForUpdate", ctx, user.ID).Return(user, nil)
		m.UserRepo.On("UpdateBalance", ctx, user.ID, mock.Anything).Return(boom)

		_, err := wallet.Debit(ctx, user.ID, dec("1.00"), entities.OriginBetEntry, nil)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, apperr.Kind(""), apperr.KindOf(err))
	})
}

func TestWalletService_ClaimDailyBonus(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	cfg := config.Get()
	today := cfg.DateIn(cfg.Now())

	t.Run("first claim of the day", func(t *testing.T) {
		m := NewTestMocks()
		wallet := newTestWallet(m)
		user := newUser("5.00")
		yesterday := today.AddDays(-1)
		user.LastDailyBonus = &yesterday

		m.UserRepo.On("GetByIDForUpdate", ctx, user.ID).Return(user, nil)
		m.UserRepo.On("UpdateBalance", ctx, user.ID, testhelpers.DecimalEq("105.00")).Return(nil)
		m.UserRepo.On("SetLastDailyBonus", ctx, user.ID, today).Return(nil)
		m.TransactionRepo.On("Record", ctx, mock.MatchedBy(func(tx *entities.Transaction) bool {
			return tx.Origin == entities.OriginDailyBonus && tx.Amount.Equal(dec("100"))
		})).Return(nil)

		balance, err := wallet.ClaimDailyBonus(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, balance.Equal(dec("105.00")))
		m.AssertAllExpectations(t)
	})

	t.Run("second claim on the same day", func(t *testing.T) {
		m := NewTestMocks()
		wallet := newTestWallet(m)
		user := newUser("5.00")
		claimed := today
		user.LastDailyBonus = &claimed

		m.UserRepo.On("GetByIDForUpdate", ctx, user.ID).Return(user, nil)

		_, err := wallet.ClaimDailyBonus(ctx, user.ID)
		assert.ErrorIs(t, err, apperr.ErrBusinessRule)
		m.TransactionRepo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
		m.AssertAllExpectations(t)
	})

	t.Run("uses configured amount", func(t *testing.T) {
		testCfg := config.NewTestConfig()
		testCfg.DailyBonusAmount = dec("12.345")
		config.SetTestConfig(testCfg)
		defer config.SetTestConfig(config.NewTestConfig())

		m := NewTestMocks()
		wallet := newTestWallet(m)
		user := newUser("0")

		m.UserRepo.On("GetByIDForUpdate", ctx, user.ID).Return(user, nil)
		m.UserRepo.On("UpdateBalance", ctx, user.ID, testhelpers.DecimalEq("12.35")).Return(nil)
		m.UserRepo.On("SetLastDailyBonus", ctx, user.ID, mock.Anything).Return(nil)
		m.TransactionRepo.On("Record", ctx, mock.Anything).Return(nil)

		balance, err := wallet.ClaimDailyBonus(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "12.35", balance.StringFixed(2))
	})
}

func TestWalletService_ListTransactions(t *testing.T) {
	ctx := context.Background()
	m := NewTestMocks()
	wallet := newTestWallet(m)
	user := newUser("0")
	rows := []*entities.Transaction{{UserID: user.ID}}

	m.TransactionRepo.On("ListByUser", ctx, user.ID, 20).Return(rows, nil)

	got, err := wallet.ListTransactions(ctx, user.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
	m.AssertAllExpectations(t)
}
