package interfaces

import (
	"context"
	"time"

	"bookmaker/domain/entities"
	"bookmaker/domain/events"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user by id, returning nil if it does not exist
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)

	// GetByIDForUpdate retrieves and row-locks a user for the rest of the transaction
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.User, error)

	// Create inserts a new user
	Create(ctx context.Context, user *entities.User) error

	// UpdateBalance sets a user's balance
	UpdateBalance(ctx context.Context, id uuid.UUID, newBalance decimal.Decimal) error

	// SetLastDailyBonus records the calendar day of the last bonus claim
	SetLastDailyBonus(ctx context.Context, id uuid.UUID, day civil.Date) error
}

// TransactionRepository defines the interface for the append-only ledger
type TransactionRepository interface {
	// Record appends a ledger entry
	Record(ctx context.Context, tx *entities.Transaction) error

	// ListByUser returns the user's entries, newest first
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.Transaction, error)
}

// EventRepository defines the interface for event aggregate access
type EventRepository interface {
	// Create inserts an event and its options
	Create(ctx context.Context, event *entities.Event) error

	// GetByID retrieves an event with its options
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Event, error)

	// GetByIDForUpdate retrieves and row-locks an event with its options
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.Event, error)

	// GetByExternalID retrieves a feed-sourced event
	GetByExternalID(ctx context.Context, externalID string) (*entities.Event, error)

	// Update persists status, winner and option pricing. The write only
	// applies when the stored version matches event.Version; on success the
	// version is incremented on both sides.
	Update(ctx context.Context, event *entities.Event) error

	// ListByStatus returns events in any of the given statuses
	ListByStatus(ctx context.Context, statuses ...entities.EventStatus) ([]*entities.Event, error)

	// GetCommenceTimes returns the commence time of each event that has one
	GetCommenceTimes(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]time.Time, error)
}

// BetRepository defines the interface for bet data access
type BetRepository interface {
	// Create inserts a bet and its legs
	Create(ctx context.Context, bet *entities.Bet) error

	// GetByID retrieves a bet with its legs
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Bet, error)

	// ListPendingByEventForUpdate locks, in id order, every pending bet
	// holding a pending leg on the event
	ListPendingByEventForUpdate(ctx context.Context, eventID uuid.UUID) ([]*entities.Bet, error)

	// UpdateSettlement persists status, odds, payout and leg statuses
	UpdateSettlement(ctx context.Context, bet *entities.Bet) error

	// ListByUser returns the user's bets, newest first. A limit of 0 means no limit.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.Bet, error)

	// ListPendingUserIDsByEvent returns distinct users with a pending leg on the event
	ListPendingUserIDsByEvent(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error)
}

// BadgeRepository defines the interface for earned badges
type BadgeRepository interface {
	// Award inserts the badge unless the user already holds it. Returns
	// false when nothing was inserted.
	Award(ctx context.Context, badge *entities.UserBadge) (bool, error)

	// ListByUser returns the user's badges ordered by earn time
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.UserBadge, error)
}

// MoneyRequestRepository defines the interface for money request access
type MoneyRequestRepository interface {
	Create(ctx context.Context, request *entities.MoneyRequest) error
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.MoneyRequest, error)
	Update(ctx context.Context, request *entities.MoneyRequest) error
	ListPending(ctx context.Context) ([]*entities.MoneyRequest, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.MoneyRequest, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events until the surrounding
// transaction has committed
type TransactionalEventPublisher interface {
	EventPublisher
	Flush(ctx context.Context) error
	Discard()
}
