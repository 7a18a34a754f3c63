package entities

import (
	"testing"

	"bookmaker/domain/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent(model PricingModel, seeds ...string) *Event {
	e := &Event{ID: uuid.New(), Title: "test", Status: EventStatusOpen, PricingModel: model}
	for i, seed := range seeds {
		odd := decimal.RequireFromString(seed)
		e.Options = append(e.Options, &EventOption{
			ID:          uuid.New(),
			EventID:     e.ID,
			Name:        string(rune('A' + i)),
			CurrentOdd:  odd,
			SeedOdd:     odd,
			TotalStaked: decimal.Zero,
			Position:    i,
		})
	}
	return e
}

func TestEventStatus_CanTransitionTo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from EventStatus
		to   EventStatus
		want bool
	}{
		{EventStatusPending, EventStatusOpen, true},
		{EventStatusPending, EventStatusCanceled, true},
		{EventStatusPending, EventStatusLocked, false},
		{EventStatusOpen, EventStatusLocked, true},
		{EventStatusOpen, EventStatusCanceled, true},
		{EventStatusOpen, EventStatusSettled, false},
		{EventStatusLocked, EventStatusSettled, true},
		{EventStatusLocked, EventStatusCanceled, true},
		{EventStatusLocked, EventStatusOpen, false},
		{EventStatusSettled, EventStatusCanceled, false},
		{EventStatusCanceled, EventStatusOpen, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestEvent_TransitionTo(t *testing.T) {
	t.Parallel()

	e := testEvent(PricingFixedOdds, "2.00", "2.00")
	require.NoError(t, e.TransitionTo(EventStatusLocked))
	assert.Equal(t, EventStatusLocked, e.Status)

	err := e.TransitionTo(EventStatusOpen)
	assert.ErrorIs(t, err, apperr.ErrBusinessRule)
	assert.Equal(t, EventStatusLocked, e.Status)
}

func TestEvent_ApplyStake(t *testing.T) {
	t.Parallel()

	t.Run("fixed odds keep prices", func(t *testing.T) {
		t.Parallel()
		e := testEvent(PricingFixedOdds, "1.80", "2.10")
		require.NoError(t, e.ApplyStake(e.Options[0].ID, decimal.NewFromInt(50)))
		assert.Equal(t, "50.00", e.Options[0].TotalStaked.StringFixed(2))
		assert.Equal(t, "1.80", e.Options[0].CurrentOdd.StringFixed(2))
	})

	t.Run("parimutuel reprices every option", func(t *testing.T) {
		t.Parallel()
		e := testEvent(PricingDynamicParimutuel, "2.00", "2.00", "3.00")
		require.NoError(t, e.ApplyStake(e.Options[0].ID, decimal.NewFromInt(100)))
		require.NoError(t, e.ApplyStake(e.Options[1].ID, decimal.NewFromInt(300)))

		assert.Equal(t, "4.00", e.Options[0].CurrentOdd.StringFixed(2))
		assert.Equal(t, "1.33", e.Options[1].CurrentOdd.StringFixed(2))
		assert.Equal(t, "3.00", e.Options[2].CurrentOdd.StringFixed(2), "unstaked options fall back to seed")
		assert.Equal(t, "400", e.TotalStaked().String())
	})

	t.Run("unknown option", func(t *testing.T) {
		t.Parallel()
		e := testEvent(PricingFixedOdds, "2.00")
		assert.ErrorIs(t, e.ApplyStake(uuid.New(), decimal.NewFromInt(1)), apperr.ErrNotFound)
	})

	t.Run("non-positive stake", func(t *testing.T) {
		t.Parallel()
		e := testEvent(PricingFixedOdds, "2.00")
		assert.ErrorIs(t, e.ApplyStake(e.Options[0].ID, decimal.Zero), apperr.ErrValidation)
	})
}

func TestEvent_RefreshOdds(t *testing.T) {
	t.Parallel()

	e := testEvent(PricingFixedOdds, "1.50", "2.50")
	updated := e.RefreshOdds(map[string]decimal.Decimal{
		"A":       decimal.RequireFromString("1.555"),
		"B":       decimal.RequireFromString("2.50"),
		"Unknown": decimal.RequireFromString("9.00"),
	})

	assert.Equal(t, 1, updated)
	assert.Equal(t, "1.56", e.Options[0].CurrentOdd.StringFixed(2))
	assert.Equal(t, "2.50", e.Options[1].CurrentOdd.StringFixed(2))
}

func TestEvent_Settle(t *testing.T) {
	t.Parallel()

	t.Run("requires LOCKED", func(t *testing.T) {
		t.Parallel()
		e := testEvent(PricingFixedOdds, "2.00", "2.00")
		assert.ErrorIs(t, e.Settle(e.Options[0].ID), apperr.ErrBusinessRule)
		assert.Nil(t, e.WinnerOptionID)
	})

	t.Run("winner must belong to the event", func(t *testing.T) {
		t.Parallel()
		e := testEvent(PricingFixedOdds, "2.00", "2.00")
		e.Status = EventStatusLocked
		assert.ErrorIs(t, e.Settle(uuid.New()), apperr.ErrValidation)
		assert.Equal(t, EventStatusLocked, e.Status)
	})

	t.Run("records the winner", func(t *testing.T) {
		t.Parallel()
		e := testEvent(PricingFixedOdds, "2.00", "2.00")
		e.Status = EventStatusLocked
		require.NoError(t, e.Settle(e.Options[1].ID))
		assert.Equal(t, EventStatusSettled, e.Status)
		assert.Equal(t, e.Options[1].ID, *e.WinnerOptionID)
	})
}

func TestEvent_Snapshot(t *testing.T) {
	t.Parallel()

	e := testEvent(PricingDynamicParimutuel, "2.00", "3.00")
	snap := e.Snapshot()
	assert.Equal(t, e.ID, snap.ID)
	require.Len(t, snap.Options, 2)
	assert.Equal(t, "B", snap.Options[1].Name)
	assert.True(t, snap.Options[1].CurrentOdd.Equal(decimal.RequireFromString("3.00")))
}
