package services

import (
	"testing"
	"time"

	"bookmaker/domain/entities"
	"bookmaker/domain/testhelpers"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TestMocks aggregates the mocks a service can be built from
type TestMocks struct {
	UserRepo         *testhelpers.MockUserRepository
	TransactionRepo  *testhelpers.MockTransactionRepository
	EventRepo        *testhelpers.MockEventRepository
	BetRepo          *testhelpers.MockBetRepository
	BadgeRepo        *testhelpers.MockBadgeRepository
	MoneyRequestRepo *testhelpers.MockMoneyRequestRepository
	Wallet           *testhelpers.MockWalletService
	Publisher        *testhelpers.RecordingPublisher
}

// NewTestMocks creates a new set of mocks
func NewTestMocks() *TestMocks {
	return &TestMocks{
		UserRepo:         &testhelpers.MockUserRepository{},
		TransactionRepo:  &testhelpers.MockTransactionRepository{},
		EventRepo:        &testhelpers.MockEventRepository{},
		BetRepo:          &testhelpers.MockBetRepository{},
		BadgeRepo:        &testhelpers.MockBadgeRepository{},
		MoneyRequestRepo: &testhelpers.MockMoneyRequestRepository{},
		Wallet:           &testhelpers.MockWalletService{},
		Publisher:        &testhelpers.RecordingPublisher{},
	}
}

// AssertAllExpectations verifies all mock expectations were met
func (m *TestMocks) AssertAllExpectations(t *testing.T) {
	m.UserRepo.AssertExpectations(t)
	m.TransactionRepo.AssertExpectations(t)
	m.EventRepo.AssertExpectations(t)
	m.BetRepo.AssertExpectations(t)
	m.BadgeRepo.AssertExpectations(t)
	m.MoneyRequestRepo.AssertExpectations(t)
	m.Wallet.AssertExpectations(t)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newUser(balance string) *entities.User {
	return &entities.User{
		ID:      uuid.New(),
		Email:   uuid.NewString() + "@example.com",
		Role:    entities.RoleUser,
		Balance: dec(balance),
	}
}

// newEvent builds an OPEN event with one option per odd
func newEvent(title string, model entities.PricingModel, odds ...string) *entities.Event {
	event := &entities.Event{
		ID:           uuid.New(),
		Title:        title,
		Category:     entities.EventCategoryInternal,
		Status:       entities.EventStatusOpen,
		PricingModel: model,
		Version:      1,
	}
	for i, odd := range odds {
		event.Options = append(event.Options, &entities.EventOption{
			ID:          uuid.New(),
			EventID:     event.ID,
			Name:        string(rune('A' + i)),
			CurrentOdd:  dec(odd),
			SeedOdd:     dec(odd),
			TotalStaked: decimal.Zero,
			Position:    i,
		})
	}
	return event
}

type pick struct {
	event  *entities.Event
	option int
}

// newPendingBet builds a pending bet locking the current odd of each pick
func newPendingBet(userID uuid.UUID, amount string, picks ...pick) *entities.Bet {
	legs := make([]*entities.BetLeg, 0, len(picks))
	for _, p := range picks {
		opt := p.event.Options[p.option]
		legs = append(legs, &entities.BetLeg{
			EventID:           p.event.ID,
			EventTitle:        p.event.Title,
			ChosenOptionID:    opt.ID,
			ChosenOptionLabel: opt.Name,
			LockedOdd:         opt.CurrentOdd,
		})
	}
	bet, err := entities.NewBet(userID, dec(amount), legs, time.Now())
	if err != nil {
		panic(err)
	}
	return bet
}
