package repository

import (
	"context"
	"testing"
	"time"

	"bookmaker/domain/apperr"
	"bookmaker/domain/entities"
	"bookmaker/repository/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRepository_CreateAndGet(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewEventRepository(testDB.DB)
	ctx := context.Background()

	event := testutil.CreateTestEvent(entities.PricingFixedOdds, "1.80", "2.10", "3.50")
	commence := time.Now().Add(2 * time.Hour).UTC().Truncate(time.Second)
	event.CommenceTime = &commence
	require.NoError(t, repo.Create(ctx, event))

	loaded, err := repo.GetByID(ctx, event.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, event.Title, loaded.Title)
	assert.Equal(t, entities.EventStatusOpen, loaded.Status)
	assert.Equal(t, int64(0), loaded.Version)
	require.Len(t, loaded.Options, 3)
	assert.Equal(t, "Option 1", loaded.Options[0].Name)
	assert.Equal(t, "3.50", loaded.Options[2].CurrentOdd.StringFixed(2))
	assert.True(t, commence.Equal(*loaded.CommenceTime))

	missing, err := repo.GetByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestEventRepository_GetByExternalID(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewEventRepository(testDB.DB)
	ctx := context.Background()

	event := testutil.CreateTestEvent(entities.PricingFixedOdds, "1.90", "1.90")
	ext := "feed-123"
	event.ExternalID = &ext
	event.Category = entities.EventCategorySports
	require.NoError(t, repo.Create(ctx, event))

	loaded, err := repo.GetByExternalID(ctx, ext)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, event.ID, loaded.ID)
	assert.Equal(t, entities.EventCategorySports, loaded.Category)

	dup := testutil.CreateTestEvent(entities.PricingFixedOdds, "2.00")
	dup.ExternalID = &ext
	assert.Error(t, repo.Create(ctx, dup))
}

func TestEventRepository_UpdateVersionGuard(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewEventRepository(testDB.DB)
	ctx := context.Background()

	event := testutil.CreateTestEvent(entities.PricingDynamicParimutuel, "2.00", "2.00")
	require.NoError(t, repo.Create(ctx, event))

	first, err := repo.GetByID(ctx, event.ID)
	require.NoError(t, err)
	stale, err := repo.GetByID(ctx, event.ID)
	require.NoError(t, err)

	require.NoError(t, first.ApplyStake(first.Options[0].ID, testutil.Dec("100")))
	require.NoError(t, repo.Update(ctx, first))
	assert.Equal(t, int64(1), first.Version)

	stale.Title = "stale write"
	err = repo.Update(ctx, stale)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrConcurrencyConflict)

	loaded, err := repo.GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.Title, loaded.Title)
	assert.Equal(t, "100.00", loaded.Options[0].TotalStaked.StringFixed(2))
	assert.Equal(t, "1.00", loaded.Options[0].CurrentOdd.StringFixed(2))
	assert.Equal(t, "2.00", loaded.Options[1].CurrentOdd.StringFixed(2))
}

func TestEventRepository_ListByStatusAndCommenceTimes(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewEventRepository(testDB.DB)
	ctx := context.Background()

	open := testutil.CreateTestEvent(entities.PricingFixedOdds, "1.50", "2.50")
	at := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	open.CommenceTime = &at
	locked := testutil.CreateTestEvent(entities.PricingFixedOdds, "1.50", "2.50")
	locked.Status = entities.EventStatusLocked
	require.NoError(t, repo.Create(ctx, open))
	require.NoError(t, repo.Create(ctx, locked))

	events, err := repo.ListByStatus(ctx, entities.EventStatusOpen)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, open.ID, events[0].ID)
	assert.Len(t, events[0].Options, 2)

	both, err := repo.ListByStatus(ctx, entities.EventStatusOpen, entities.EventStatusLocked)
	require.NoError(t, err)
	assert.Len(t, both, 2)

	times, err := repo.GetCommenceTimes(ctx, []uuid.UUID{open.ID, locked.ID})
	require.NoError(t, err)
	require.Len(t, times, 1)
	assert.True(t, at.Equal(times[open.ID]))
}
