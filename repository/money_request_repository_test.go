package repository

import (
	"context"
	"testing"
	"time"

	"bookmaker/domain/entities"
	"bookmaker/repository/testutil"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyRequestRepository_Lifecycle(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	users := NewUserRepository(testDB.DB)
	user := testutil.CreateTestUser("0")
	admin := testutil.CreateTestAdmin()
	require.NoError(t, users.Create(ctx, user))
	require.NoError(t, users.Create(ctx, admin))

	repo := NewMoneyRequestRepository(testDB.DB)

	first := &entities.MoneyRequest{UserID: user.ID, AmountRequested: testutil.Dec("25.50"), Reason: "broke", Status: entities.RequestStatusPending}
	second := &entities.MoneyRequest{UserID: user.ID, AmountRequested: testutil.Dec("10"), Status: entities.RequestStatusPending}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	assert.NotEqual(t, uuid.Nil, first.ID)

	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)

	err = testDB.WithTransaction(ctx, func(tx pgx.Tx) error {
		txRepo := newMoneyRequestRepository(tx)
		req, err := txRepo.GetByIDForUpdate(ctx, first.ID)
		require.NoError(t, err)
		require.NotNil(t, req)
		assert.Equal(t, "25.50", req.AmountRequested.StringFixed(2))

		require.NoError(t, req.Approve(admin.ID, time.Now().UTC()))
		return txRepo.Update(ctx, req)
	})
	require.NoError(t, err)

	pending, err = repo.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)

	mine, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	var approved *entities.MoneyRequest
	for _, r := range mine {
		if r.ID == first.ID {
			approved = r
		}
	}
	require.NotNil(t, approved)
	assert.Equal(t, entities.RequestStatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, admin.ID, *approved.ReviewedBy)
	assert.NotNil(t, approved.ReviewedAt)

	missing, err := repo.GetByIDForUpdate(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}
