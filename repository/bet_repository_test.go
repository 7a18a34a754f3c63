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

type betFixture struct {
	user   *entities.User
	first  *entities.Event
	second *entities.Event
}

func setupBetFixture(t *testing.T, ctx context.Context, testDB *testutil.TestDatabase) betFixture {
	t.Helper()
	users := NewUserRepository(testDB.DB)
	events := NewEventRepository(testDB.DB)

	f := betFixture{
		user:   testutil.CreateTestUser("500"),
		first:  testutil.CreateTestEvent(entities.PricingFixedOdds, "2.00", "1.50"),
		second: testutil.CreateTestEvent(entities.PricingFixedOdds, "3.00", "1.20"),
	}
	require.NoError(t, users.Create(ctx, f.user))
	require.NoError(t, events.Create(ctx, f.first))
	require.NoError(t, events.Create(ctx, f.second))
	return f
}

func TestBetRepository_CreateAndGet(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	f := setupBetFixture(t, ctx, testDB)

	repo := NewBetRepository(testDB.DB)

	bet := testutil.CreateTestBet(f.user.ID, "10", testutil.PickOf(f.first, 0), testutil.PickOf(f.second, 0))
	require.NoError(t, repo.Create(ctx, bet))

	loaded, err := repo.GetByID(ctx, bet.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, entities.BetTypeMultiple, loaded.Type)
	assert.Equal(t, "6.00", loaded.TotalOdd.StringFixed(2))
	assert.Equal(t, "60.00", loaded.PotentialPayout.StringFixed(2))
	assert.Equal(t, entities.BetStatusPending, loaded.Status)
	require.Len(t, loaded.Legs, 2)
	assert.Equal(t, f.first.ID, loaded.Legs[0].EventID)
	assert.Equal(t, f.first.Title, loaded.Legs[0].EventTitle)
	assert.Equal(t, "Option 1", loaded.Legs[0].ChosenOptionLabel)
	assert.Equal(t, entities.LegStatusPending, loaded.Legs[1].Status)

	missing, err := repo.GetByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBetRepository_ListPendingByEventForUpdate(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	f := setupBetFixture(t, ctx, testDB)

	repo := NewBetRepository(testDB.DB)

	single := testutil.CreateTestBet(f.user.ID, "10", testutil.PickOf(f.first, 1))
	parlay := testutil.CreateTestBet(f.user.ID, "5", testutil.PickOf(f.first, 0), testutil.PickOf(f.second, 1))
	other := testutil.CreateTestBet(f.user.ID, "7", testutil.PickOf(f.second, 0))
	for _, b := range []*entities.Bet{single, parlay, other} {
		require.NoError(t, repo.Create(ctx, b))
	}

	err := testDB.WithTransaction(ctx, func(tx pgx.Tx) error {
		bets, err := newBetRepository(tx).ListPendingByEventForUpdate(ctx, f.first.ID)
		require.NoError(t, err)
		require.Len(t, bets, 2)
		assert.True(t, bets[0].ID.String() < bets[1].ID.String(), "bets are returned in id order")
		for _, b := range bets {
			assert.NotNil(t, b.LegForEvent(f.first.ID))
		}
		return nil
	})
	require.NoError(t, err)

	userIDs, err := repo.ListPendingUserIDsByEvent(ctx, f.second.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{f.user.ID}, userIDs)
}

func TestBetRepository_UpdateSettlement(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	f := setupBetFixture(t, ctx, testDB)

	repo := NewBetRepository(testDB.DB)

	bet := testutil.CreateTestBet(f.user.ID, "10", testutil.PickOf(f.first, 0), testutil.PickOf(f.second, 0))
	require.NoError(t, repo.Create(ctx, bet))

	require.NoError(t, bet.LegForEvent(f.first.ID).Resolve(entities.LegStatusVoid))
	require.NoError(t, bet.LegForEvent(f.second.ID).ResolveAgainst(f.second.Options[0].ID))
	outcome := bet.Evaluate(time.Now().UTC())
	require.True(t, outcome.Resolved)
	require.NoError(t, repo.UpdateSettlement(ctx, bet))

	loaded, err := repo.GetByID(ctx, bet.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.BetStatusWon, loaded.Status)
	assert.Equal(t, "3.00", loaded.TotalOdd.StringFixed(2))
	assert.Equal(t, "30.00", loaded.PotentialPayout.StringFixed(2))
	assert.NotNil(t, loaded.SettledAt)
	assert.Equal(t, entities.LegStatusVoid, loaded.Legs[0].Status)
	assert.Equal(t, entities.LegStatusWon, loaded.Legs[1].Status)

	pending, err := repo.ListPendingUserIDsByEvent(ctx, f.second.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	history, err := repo.ListByUser(ctx, f.user.ID, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}
