package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"bookmaker/config"
	"bookmaker/domain/apperr"
	"bookmaker/domain/entities"
	"bookmaker/domain/events"
	"bookmaker/domain/testhelpers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newAdmin() *entities.User {
	admin := newUser("0")
	admin.Role = entities.RoleAdmin
	return admin
}

func pendingRequest(userID uuid.UUID, amount string) *entities.MoneyRequest {
	return &entities.MoneyRequest{
		ID:              uuid.New(),
		UserID:          userID,
		AmountRequested: dec(amount),
		Reason:          "broke",
		Status:          entities.RequestStatusPending,
	}
}

func TestMoneyRequestService_CreateRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a pending request", func(t *testing.T) {
		m := NewTestMocks()
		service := NewMoneyRequestService(m.UserRepo, m.MoneyRequestRepo, m.Wallet, m.Publisher)
		user := newUser("0")

		m.UserRepo.On("GetByID", ctx, user.ID).Return(user, nil)
		m.MoneyRequestRepo.On("Create", ctx, mock.MatchedBy(func(r *entities.MoneyRequest) bool {
			return r.UserID == user.ID && r.AmountRequested.Equal(dec("50.13")) && r.IsPending()
		})).Return(nil)

		request, err := service.CreateRequest(ctx, user.ID, dec("50.125"), "rent")
		require.NoError(t, err)
		assert.Equal(t, "50.13", request.AmountRequested.StringFixed(2))

		admin := m.Publisher.OfType(events.EventTypeAdminRequest)
		require.Len(t, admin, 1)
		assert.Equal(t, events.AdminActionCreated, admin[0].(events.AdminRequestEvent).Action)
		m.AssertAllExpectations(t)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		m := NewTestMocks()
		service := NewMoneyRequestService(m.UserRepo, m.MoneyRequestRepo, m.Wallet, m.Publisher)

		_, err := service.CreateRequest(ctx, uuid.New(), dec("0.004"), "")
		assert.ErrorIs(t, err, apperr.ErrValidation)

		_, err = service.CreateRequest(ctx, uuid.New(), dec("10"), strings.Repeat("x", 501))
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("unknown user", func(t *testing.T) {
		m := NewTestMocks()
		service := NewMoneyRequestService(m.UserRepo, m.MoneyRequestRepo, m.Wallet, m.Publisher)
		id := uuid.New()

		m.UserRepo.On("GetByID", ctx, id).Return(nil, nil)

		_, err := service.CreateRequest(ctx, id, dec("10"), "")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestMoneyRequestService_Approve(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()

	t.Run("approval credits the user", func(t *testing.T) {
		m := NewTestMocks()
		service := NewMoneyRequestService(m.UserRepo, m.MoneyRequestRepo, m.Wallet, m.Publisher)
		admin := newAdmin()
		request := pendingRequest(uuid.New(), "75.00")

		m.UserRepo.On("GetByID", ctx, admin.ID).Return(admin, nil)
		m.MoneyRequestRepo.On("GetByIDForUpdate", ctx, request.ID).Return(request, nil)
		m.MoneyRequestRepo.On("Update", ctx, request).Return(nil)
		m.Wallet.On("Credit", ctx, request.UserID, testhelpers.DecimalEq("75"), entities.OriginAdminGift, testhelpers.RefEq(request.ID.String())).
			Return(dec("75"), nil)

		approved, err := service.Approve(ctx, request.ID, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.RequestStatusApproved, approved.Status)
		require.NotNil(t, approved.ReviewedBy)
		assert.Equal(t, admin.ID, *approved.ReviewedBy)
		assert.NotNil(t, approved.ReviewedAt)

		notes := m.Publisher.OfType(events.EventTypeUserNotification)
		require.Len(t, notes, 1)
		assert.Equal(t, events.NotificationMoneyRequestApproved, notes[0].(events.UserNotificationEvent).NotificationType)
		m.AssertAllExpectations(t)
	})

	t.Run("second review fails", func(t *testing.T) {
		m := NewTestMocks()
		service := NewMoneyRequestService(m.UserRepo, m.MoneyRequestRepo, m.Wallet, m.Publisher)
		admin := newAdmin()
		request := pendingRequest(uuid.New(), "75.00")
		request.Status = entities.RequestStatusRejected

		m.UserRepo.On("GetByID", ctx, admin.ID).Return(admin, nil)
		m.MoneyRequestRepo.On("GetByIDForUpdate", ctx, request.ID).Return(request, nil)

		_, err := service.Approve(ctx, request.ID, admin.ID)
		assert.ErrorIs(t, err, apperr.ErrBusinessRule)
		m.MoneyRequestRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		m.Wallet.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("non admin reviewer", func(t *testing.T) {
		m := NewTestMocks()
		service := NewMoneyRequestService(m.UserRepo, m.MoneyRequestRepo, m.Wallet, m.Publisher)
		reviewer := newUser("0")

		m.UserRepo.On("GetByID", ctx, reviewer.ID).Return(reviewer, nil)

		_, err := service.Approve(ctx, uuid.New(), reviewer.ID)
		assert.ErrorIs(t, err, apperr.ErrBusinessRule)
	})

	t.Run("unknown request", func(t *testing.T) {
		m := NewTestMocks()
		service := NewMoneyRequestService(m.UserRepo, m.MoneyRequestRepo, m.Wallet, m.Publisher)
		admin := newAdmin()
		id := uuid.New()

		m.UserRepo.On("GetByID", ctx, admin.ID).Return(admin, nil)
		m.MoneyRequestRepo.On("GetByIDForUpdate", ctx, id).Return(nil, nil)

		_, err := service.Approve(ctx, id, admin.ID)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("credit failure surfaces", func(t *testing.T) {
		m := NewTestMocks()
		service := NewMoneyRequestService(m.UserRepo, m.MoneyRequestRepo, m.Wallet, m.Publisher)
		admin := newAdmin()
		request := pendingRequest(uuid.New(), "10.00")
		boom := errors.New("connection reset")

		m.UserRepo.On("GetByID", ctx, admin.ID).Return(admin, nil)
		m.MoneyRequestRepo.On("GetByIDForUpdate", ctx, request.ID).Return(request, nil)
		m.MoneyRequestRepo.On("Update", ctx, request).Return(nil)
		m.Wallet.On("Credit", ctx, request.UserID, mock.Anything, entities.OriginAdminGift, mock.Anything).Return(dec("0"), boom)

		_, err := service.Approve(ctx, request.ID, admin.ID)
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, m.Publisher.Events)
	})
}

func TestMoneyRequestService_Reject(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	m := NewTestMocks()
	service := NewMoneyRequestService(m.UserRepo, m.MoneyRequestRepo, m.Wallet, m.Publisher)
	admin := newAdmin()
	request := pendingRequest(uuid.New(), "20.00")

	m.UserRepo.On("GetByID", ctx, admin.ID).Return(admin, nil)
	m.MoneyRequestRepo.On("GetByIDForUpdate", ctx, request.ID).Return(request, nil)
	m.MoneyRequestRepo.On("Update", ctx, request).Return(nil)

	rejected, err := service.Reject(ctx, request.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.RequestStatusRejected, rejected.Status)
	m.Wallet.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	adminEvents := m.Publisher.OfType(events.EventTypeAdminRequest)
	require.Len(t, adminEvents, 1)
	assert.Equal(t, events.AdminActionRejected, adminEvents[0].(events.AdminRequestEvent).Action)
	m.AssertAllExpectations(t)
}

func TestMoneyRequestService_Lists(t *testing.T) {
	ctx := context.Background()
	m := NewTestMocks()
	service := NewMoneyRequestService(m.UserRepo, m.MoneyRequestRepo, m.Wallet, m.Publisher)
	userID := uuid.New()
	pending := []*entities.MoneyRequest{pendingRequest(userID, "1")}

	m.MoneyRequestRepo.On("ListPending", ctx).Return(pending, nil)
	m.MoneyRequestRepo.On("ListByUser", ctx, userID).Return(pending, nil)

	got, err := service.ListPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, pending, got)

	got, err = service.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
