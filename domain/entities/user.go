package entities

import (
	"time"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role distinguishes bettors from administrators
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User represents an account holder with a wallet balance
type User struct {
	ID             uuid.UUID       `db:"id"`
	Email          string          `db:"email"`
	Role           Role            `db:"role"`
	Balance        decimal.Decimal `db:"balance"`
	LastDailyBonus *civil.Date     `db:"last_daily_bonus"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

// IsAdmin reports whether the user is an administrator
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasSufficientBalance checks if the user can cover an amount
func (u *User) HasSufficientBalance(amount decimal.Decimal) bool {
	return u.Balance.GreaterThanOrEqual(amount)
}

// ClaimedBonusOn reports whether the daily bonus was already claimed on the given calendar day
func (u *User) ClaimedBonusOn(day civil.Date) bool {
	if u.LastDailyBonus == nil {
		return false
	}
	return !u.LastDailyBonus.Before(day)
}
