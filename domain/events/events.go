package events

import (
	"bookmaker/domain/entities"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange    EventType = "balance_change"
	EventTypeBetPlaced        EventType = "bet_placed"
	EventTypeBetSettled       EventType = "bet_settled"
	EventTypeEventUpdated     EventType = "event_updated"
	EventTypeUserNotification EventType = "user_notification"
	EventTypeAdminRequest     EventType = "admin_request"
	EventTypeBadgeAwarded     EventType = "badge_awarded"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent is emitted for every ledger entry
type BalanceChangeEvent struct {
	UserID        uuid.UUID                  `json:"userId"`
	TransactionID uuid.UUID                  `json:"transactionId"`
	OldBalance    decimal.Decimal            `json:"oldBalance"`
	NewBalance    decimal.Decimal            `json:"newBalance"`
	Origin        entities.TransactionOrigin `json:"origin"`
	ChangeAmount  decimal.Decimal            `json:"changeAmount"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// BetPlacedEvent is emitted once a bet and its stakes have been committed
type BetPlacedEvent struct {
	BetID    uuid.UUID        `json:"betId"`
	UserID   uuid.UUID        `json:"userId"`
	BetType  entities.BetType `json:"betType"`
	Amount   decimal.Decimal  `json:"amount"`
	TotalOdd decimal.Decimal  `json:"totalOdd"`
	EventIDs []uuid.UUID      `json:"eventIds"`
}

func (e BetPlacedEvent) Type() EventType {
	return EventTypeBetPlaced
}

// BetSettledEvent is emitted when settlement or cancellation touched a bet.
// It drives achievement evaluation.
type BetSettledEvent struct {
	BetID      uuid.UUID          `json:"betId"`
	UserID     uuid.UUID          `json:"userId"`
	Status     entities.BetStatus `json:"status"`
	EventTitle string             `json:"eventTitle"`
	Payout     decimal.Decimal    `json:"payout"`
}

func (e BetSettledEvent) Type() EventType {
	return EventTypeBetSettled
}

// EventUpdatedEvent carries the latest read model of an event
type EventUpdatedEvent struct {
	Snapshot entities.EventSnapshot `json:"snapshot"`
}

func (e EventUpdatedEvent) Type() EventType {
	return EventTypeEventUpdated
}

// UserNotificationEvent is a message addressed to a single user
type UserNotificationEvent struct {
	UserID           uuid.UUID `json:"userId"`
	NotificationType string    `json:"type"`
	Message          string    `json:"message"`
}

func (e UserNotificationEvent) Type() EventType {
	return EventTypeUserNotification
}

// AdminRequestEvent is broadcast to administrators when a money request changes
type AdminRequestEvent struct {
	RequestID uuid.UUID              `json:"requestId"`
	UserID    uuid.UUID              `json:"userId"`
	Action    string                 `json:"action"`
	Amount    decimal.Decimal        `json:"amount"`
	Reason    string                 `json:"reason,omitempty"`
	Status    entities.RequestStatus `json:"status"`
}

func (e AdminRequestEvent) Type() EventType {
	return EventTypeAdminRequest
}

// BadgeAwardedEvent is emitted once a badge and its reward have been committed
type BadgeAwardedEvent struct {
	UserID       uuid.UUID          `json:"userId"`
	Code         entities.BadgeCode `json:"code"`
	Title        string             `json:"title"`
	RewardAmount decimal.Decimal    `json:"rewardAmount"`
}

func (e BadgeAwardedEvent) Type() EventType {
	return EventTypeBadgeAwarded
}

// Notification types carried by UserNotificationEvent
const (
	NotificationBetWon               = "BET_WON"
	NotificationBetLost              = "BET_LOST"
	NotificationBetRefunded          = "BET_REFUNDED"
	NotificationEventCanceled        = "EVENT_CANCELED"
	NotificationEventLocked          = "EVENT_LOCKED"
	NotificationBadgeUnlocked        = "BADGE_UNLOCKED"
	NotificationMoneyRequestApproved = "MONEY_REQUEST_APPROVED"
	NotificationMoneyRequestRejected = "MONEY_REQUEST_REJECTED"
)

// Admin request actions carried by AdminRequestEvent
const (
	AdminActionCreated  = "CREATED"
	AdminActionApproved = "APPROVED"
	AdminActionRejected = "REJECTED"
)
