package application

import (
	"context"

	"bookmaker/application/dto"
	"bookmaker/domain/entities"
	"bookmaker/domain/events"
	"bookmaker/domain/interfaces"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletHandler exposes the ledger use cases
type WalletHandler interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	Credit(ctx context.Context, req dto.WalletMovement) (decimal.Decimal, error)
	Debit(ctx context.Context, req dto.WalletMovement) (decimal.Decimal, error)
	ClaimDailyBonus(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.Transaction, error)
}

// BettingHandler exposes bet placement and bet queries
type BettingHandler interface {
	PlaceBet(ctx context.Context, req dto.PlaceBetRequest) (*entities.Bet, error)
	ListUserBets(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.Bet, error)
	GetBet(ctx context.Context, betID uuid.UUID) (*entities.Bet, error)
}

// EventHandler exposes event registry commands and the feed entry point
type EventHandler interface {
	CreateInternalEvent(ctx context.Context, cmd interfaces.CreateEventCommand) (*entities.Event, error)
	UpdateEventStatus(ctx context.Context, req dto.UpdateEventStatusRequest) (*entities.Event, error)

	// HandleFeedUpsert applies one normalized odds-feed record
	HandleFeedUpsert(ctx context.Context, upsert interfaces.FeedEventUpsert) error
}

// EventQueryHandler serves event read models
type EventQueryHandler interface {
	// GetSnapshot returns the cached read model, loading it from the database on a miss
	GetSnapshot(ctx context.Context, eventID uuid.UUID) (*entities.EventSnapshot, error)
	ListEvents(ctx context.Context, statuses ...entities.EventStatus) ([]*entities.Event, error)
}

// SettlementHandler exposes event resolution
type SettlementHandler interface {
	SettleEvent(ctx context.Context, req dto.SettleEventRequest) (*interfaces.SettlementResult, error)
	CancelEvent(ctx context.Context, eventID uuid.UUID) (*interfaces.SettlementResult, error)
}

// MoneyRequestHandler exposes the admin-reviewed credit workflow
type MoneyRequestHandler interface {
	CreateMoneyRequest(ctx context.Context, req dto.CreateMoneyRequest) (*entities.MoneyRequest, error)
	ApproveMoneyRequest(ctx context.Context, req dto.ReviewMoneyRequest) (*entities.MoneyRequest, error)
	RejectMoneyRequest(ctx context.Context, req dto.ReviewMoneyRequest) (*entities.MoneyRequest, error)
	ListPendingMoneyRequests(ctx context.Context) ([]*entities.MoneyRequest, error)
	ListUserMoneyRequests(ctx context.Context, userID uuid.UUID) ([]*entities.MoneyRequest, error)
}

// AchievementHandler evaluates badges for settled bets
type AchievementHandler interface {
	// HandleBetSettled is the subscriber entry point for BetSettledEvent
	HandleBetSettled(ctx context.Context, event events.Event) error

	// EvaluateSettledBet runs the rules for a bet and awards what it earned
	EvaluateSettledBet(ctx context.Context, betID uuid.UUID, eventTitle string) ([]entities.BadgeCode, error)

	ListCatalog() []entities.BadgeDefinition
	ListUserBadges(ctx context.Context, userID uuid.UUID) ([]*entities.UserBadge, error)
}

// NotificationHandler turns committed domain events into client pushes
type NotificationHandler interface {
	HandleEventUpdated(ctx context.Context, event events.Event) error
	HandleUserNotification(ctx context.Context, event events.Event) error
	HandleAdminRequest(ctx context.Context, event events.Event) error
}
