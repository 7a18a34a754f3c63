package testutil

import (
	"fmt"
	"time"

	"bookmaker/domain/entities"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Dec parses a decimal literal and panics on malformed input
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// CreateTestUser creates a user with a unique email and the given balance
func CreateTestUser(balance string) *entities.User {
	id := uuid.New()
	return &entities.User{
		ID:      id,
		Email:   fmt.Sprintf("%s@example.com", id.String()[:8]),
		Role:    entities.RoleUser,
		Balance: Dec(balance),
	}
}

// CreateTestAdmin creates a user with the admin role
func CreateTestAdmin() *entities.User {
	user := CreateTestUser("0.00")
	user.Role = entities.RoleAdmin
	return user
}

// CreateTestEvent creates an open event with one option per odd
func CreateTestEvent(model entities.PricingModel, odds ...string) *entities.Event {
	event := &entities.Event{
		ID:           uuid.New(),
		Title:        "Test event " + uuid.NewString()[:6],
		Category:     entities.EventCategoryInternal,
		Status:       entities.EventStatusOpen,
		PricingModel: model,
	}
	for i, odd := range odds {
		event.Options = append(event.Options, &entities.EventOption{
			ID:          uuid.New(),
			EventID:     event.ID,
			Name:        fmt.Sprintf("Option %d", i+1),
			CurrentOdd:  Dec(odd),
			SeedOdd:     Dec(odd),
			TotalStaked: decimal.Zero,
			Position:    i,
		})
	}
	return event
}

// CreateTestBet creates a pending bet with one leg per (event, option) pair
// locked at the option's current odd
func CreateTestBet(userID uuid.UUID, amount string, picks ...Pick) *entities.Bet {
	legs := make([]*entities.BetLeg, len(picks))
	for i, p := range picks {
		legs[i] = &entities.BetLeg{
			EventID:           p.Event.ID,
			EventTitle:        p.Event.Title,
			ChosenOptionID:    p.Option.ID,
			ChosenOptionLabel: p.Option.Name,
			LockedOdd:         p.Option.CurrentOdd,
		}
	}
	bet, err := entities.NewBet(userID, Dec(amount), legs, time.Now().UTC().Truncate(time.Microsecond))
	if err != nil {
		panic(err)
	}
	return bet
}

// Pick is a selection used by CreateTestBet
type Pick struct {
	Event  *entities.Event
	Option *entities.EventOption
}

// PickOf selects the option at index on event
func PickOf(event *entities.Event, index int) Pick {
	return Pick{Event: event, Option: event.Options[index]}
}
