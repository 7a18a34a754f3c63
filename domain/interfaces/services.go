package interfaces

import (
	"context"
	"time"

	"bookmaker/domain/entities"
	"bookmaker/domain/events"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletService defines the ledger operations on a user's balance
type WalletService interface {
	// GetBalance returns the current balance
	GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)

	// Credit adds amount and returns the new balance
	Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, origin entities.TransactionOrigin, referenceID *string) (decimal.Decimal, error)

	// Debit removes amount and returns the new balance
	Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, origin entities.TransactionOrigin, referenceID *string) (decimal.Decimal, error)

	// ClaimDailyBonus credits the configured bonus once per calendar day
	ClaimDailyBonus(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)

	// ListTransactions returns ledger entries, newest first
	ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.Transaction, error)
}

// OptionSpec describes an option when creating an internal event
type OptionSpec struct {
	Name       string          `validate:"required,max=120"`
	InitialOdd decimal.Decimal `validate:"-"`
}

// CreateEventCommand holds the input for an internal event
type CreateEventCommand struct {
	Title        string                `validate:"required,max=255"`
	PricingModel entities.PricingModel `validate:"required,oneof=FIXED_ODDS DYNAMIC_PARIMUTUEL"`
	CommenceTime *time.Time
	Options      []OptionSpec `validate:"min=2,dive"`
}

// FeedOption is one priced outcome in a feed upsert
type FeedOption struct {
	Name string          `json:"name" validate:"required"`
	Odd  decimal.Decimal `json:"odd"`
}

// FeedEventUpsert is a normalized odds-feed record
type FeedEventUpsert struct {
	ExternalID   string       `json:"externalId" validate:"required"`
	Title        string       `json:"title" validate:"required"`
	CommenceTime *time.Time   `json:"commenceTime"`
	Options      []FeedOption `json:"options" validate:"min=1,dive"`
}

// FeedOutcome tells what an upsert did
type FeedOutcome string

const (
	FeedCreated FeedOutcome = "CREATED"
	FeedUpdated FeedOutcome = "UPDATED"
	FeedIgnored FeedOutcome = "IGNORED"
)

// FeedUpsertResult is returned by UpsertFromFeed
type FeedUpsertResult struct {
	Outcome FeedOutcome
	Event   *entities.Event
}

// EventService defines the event registry operations
type EventService interface {
	CreateInternalEvent(ctx context.Context, cmd CreateEventCommand) (*entities.Event, error)

	// UpdateStatus moves an event to OPEN or LOCKED
	UpdateStatus(ctx context.Context, eventID uuid.UUID, target entities.EventStatus) (*entities.Event, error)

	// UpsertFromFeed creates or reprices a feed-sourced event
	UpsertFromFeed(ctx context.Context, upsert FeedEventUpsert) (*FeedUpsertResult, error)

	GetEvent(ctx context.Context, eventID uuid.UUID) (*entities.Event, error)
	ListEventsByStatus(ctx context.Context, statuses ...entities.EventStatus) ([]*entities.Event, error)
}

// BetSelection is one requested leg of a bet
type BetSelection struct {
	EventID  uuid.UUID `json:"eventId" validate:"required"`
	OptionID uuid.UUID `json:"optionId" validate:"required"`
}

// BetService defines bet placement and queries
type BetService interface {
	// PlaceBet locks the odds of every selection and debits the stake
	PlaceBet(ctx context.Context, userID uuid.UUID, selections []BetSelection, amount decimal.Decimal) (*entities.Bet, error)

	ListUserBets(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.Bet, error)
	GetBet(ctx context.Context, betID uuid.UUID) (*entities.Bet, error)
}

// BetSettlement pairs a touched bet with what its evaluation produced
type BetSettlement struct {
	Bet     *entities.Bet
	Outcome entities.BetOutcome
}

// SettlementResult summarizes a settlement or cancellation
type SettlementResult struct {
	Event *entities.Event
	Bets  []BetSettlement
}

// SettlementService defines event resolution
type SettlementService interface {
	// SettleEvent resolves a LOCKED event with its winning option
	SettleEvent(ctx context.Context, eventID, winnerOptionID uuid.UUID) (*SettlementResult, error)

	// CancelEvent voids every pending leg on the event
	CancelEvent(ctx context.Context, eventID uuid.UUID) (*SettlementResult, error)
}

// AchievementEvaluation lists the badges a bet's owner newly qualifies for
type AchievementEvaluation struct {
	UserID uuid.UUID
	Earned []entities.BadgeCode
}

// AchievementService defines badge evaluation and awarding
type AchievementService interface {
	// EvaluateRules runs every rule except the collector badge against the
	// owner of betID. eventTitle is the title of the event whose resolution
	// touched the bet. Rule failures are joined into the returned error
	// alongside whatever did evaluate.
	EvaluateRules(ctx context.Context, betID uuid.UUID, eventTitle string) (*AchievementEvaluation, error)

	// AwardBadge grants the badge and its reward. Returns false if the user
	// already held it.
	AwardBadge(ctx context.Context, userID uuid.UUID, code entities.BadgeCode) (bool, error)

	// QualifiesForCollector reports whether the user should now get the collector badge
	QualifiesForCollector(ctx context.Context, userID uuid.UUID) (bool, error)

	ListCatalog() []entities.BadgeDefinition
	ListUserBadges(ctx context.Context, userID uuid.UUID) ([]*entities.UserBadge, error)
}

// MoneyRequestService defines the admin-reviewed credit workflow
type MoneyRequestService interface {
	CreateRequest(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, reason string) (*entities.MoneyRequest, error)
	Approve(ctx context.Context, requestID, adminID uuid.UUID) (*entities.MoneyRequest, error)
	Reject(ctx context.Context, requestID, adminID uuid.UUID) (*entities.MoneyRequest, error)
	ListPending(ctx context.Context) ([]*entities.MoneyRequest, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.MoneyRequest, error)
}

// EventSubscriber registers handlers for published events
type EventSubscriber interface {
	Subscribe(eventType events.EventType, handler func(context.Context, events.Event) error) error
}
