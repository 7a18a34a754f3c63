package dto

import (
	"bookmaker/domain/entities"
	"bookmaker/domain/interfaces"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlaceBetRequest is the input of the bet placement use case
type PlaceBetRequest struct {
	UserID     uuid.UUID                 `validate:"required"`
	Selections []interfaces.BetSelection `validate:"dive"`
	Amount     decimal.Decimal
}

// WalletMovement is a manual credit or debit
type WalletMovement struct {
	UserID      uuid.UUID                  `validate:"required"`
	Amount      decimal.Decimal
	Origin      entities.TransactionOrigin `validate:"required"`
	ReferenceID *string                    `validate:"omitempty,max=255"`
}

// SettleEventRequest names the winner of a locked event
type SettleEventRequest struct {
	EventID        uuid.UUID `validate:"required"`
	WinnerOptionID uuid.UUID `validate:"required"`
}

// UpdateEventStatusRequest moves an event along its lifecycle
type UpdateEventStatusRequest struct {
	EventID uuid.UUID            `validate:"required"`
	Status  entities.EventStatus `validate:"required,oneof=OPEN LOCKED"`
}

// CreateMoneyRequest is a user's ask for funds
type CreateMoneyRequest struct {
	UserID uuid.UUID `validate:"required"`
	Amount decimal.Decimal
	Reason string `validate:"max=500"`
}

// ReviewMoneyRequest is an admin decision on a pending request
type ReviewMoneyRequest struct {
	RequestID uuid.UUID `validate:"required"`
	AdminID   uuid.UUID `validate:"required"`
}
