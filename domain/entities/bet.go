package entities

import (
	"time"

	"bookmaker/domain/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BetType distinguishes single selections from parlays
type BetType string

const (
	BetTypeSingle   BetType = "SINGLE"
	BetTypeMultiple BetType = "MULTIPLE"
)

// BetStatus is derived from the legs by Evaluate
type BetStatus string

const (
	BetStatusPending  BetStatus = "PENDING"
	BetStatusWon      BetStatus = "WON"
	BetStatusLost     BetStatus = "LOST"
	BetStatusRefunded BetStatus = "REFUNDED"
)

// IsFinal reports whether the bet has been resolved
func (s BetStatus) IsFinal() bool {
	return s != BetStatusPending
}

// LegStatus is the per-selection outcome
type LegStatus string

const (
	LegStatusPending LegStatus = "PENDING"
	LegStatusWon     LegStatus = "WON"
	LegStatusLost    LegStatus = "LOST"
	LegStatusVoid    LegStatus = "VOID"
)

// BetLeg is one event+option selection within a bet. Title and label are
// snapshots taken when the odd was locked.
type BetLeg struct {
	ID                uuid.UUID       `db:"id"`
	BetID             uuid.UUID       `db:"bet_id"`
	Position          int             `db:"position"`
	EventID           uuid.UUID       `db:"event_id"`
	EventTitle        string          `db:"event_title"`
	ChosenOptionID    uuid.UUID       `db:"chosen_option_id"`
	ChosenOptionLabel string          `db:"chosen_option_label"`
	LockedOdd         decimal.Decimal `db:"locked_odd"`
	Status            LegStatus       `db:"status"`
}

// Resolve moves a pending leg to a terminal status. Leg status never reverts.
func (l *BetLeg) Resolve(status LegStatus) error {
	if l.Status != LegStatusPending {
		return apperr.BusinessRule("leg for event %s already resolved as %s", l.EventID, l.Status)
	}
	if status == LegStatusPending {
		return apperr.Validation("leg cannot be resolved to PENDING")
	}
	l.Status = status
	return nil
}

// ResolveAgainst marks the leg WON or LOST depending on the winning option
func (l *BetLeg) ResolveAgainst(winnerOptionID uuid.UUID) error {
	if l.ChosenOptionID == winnerOptionID {
		return l.Resolve(LegStatusWon)
	}
	return l.Resolve(LegStatusLost)
}

// Bet is a stake on one or more legs
type Bet struct {
	ID              uuid.UUID       `db:"id"`
	UserID          uuid.UUID       `db:"user_id"`
	Type            BetType         `db:"type"`
	Legs            []*BetLeg       `db:"-"`
	TotalOdd        decimal.Decimal `db:"total_odd"`
	Amount          decimal.Decimal `db:"amount"`
	PotentialPayout decimal.Decimal `db:"potential_payout"`
	Status          BetStatus       `db:"status"`
	CreatedAt       time.Time       `db:"created_at"`
	SettledAt       *time.Time      `db:"settled_at"`
}

// NewBet builds a pending bet from locked legs and derives odds and payout
func NewBet(userID uuid.UUID, amount decimal.Decimal, legs []*BetLeg, now time.Time) (*Bet, error) {
	if len(legs) == 0 {
		return nil, apperr.Validation("at least one selection is required")
	}
	if !amount.IsPositive() {
		return nil, apperr.Validation("bet amount must be positive")
	}

	betType := BetTypeSingle
	if len(legs) > 1 {
		betType = BetTypeMultiple
	}

	bet := &Bet{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      betType,
		Legs:      legs,
		Amount:    amount,
		Status:    BetStatusPending,
		CreatedAt: now,
	}
	for i, leg := range legs {
		leg.BetID = bet.ID
		leg.Position = i
		if leg.ID == uuid.Nil {
			leg.ID = uuid.New()
		}
		if leg.Status == "" {
			leg.Status = LegStatusPending
		}
	}

	bet.TotalOdd = CombinedOdd(legs)
	bet.PotentialPayout = RoundMoney(amount.Mul(bet.TotalOdd))
	return bet, nil
}

// CombinedOdd is the rounded product of the legs' locked odds
func CombinedOdd(legs []*BetLeg) decimal.Decimal {
	product := OneOdd
	for _, leg := range legs {
		product = product.Mul(leg.LockedOdd)
	}
	return RoundMoney(product)
}

// LegForEvent returns the leg placed on eventID, or nil
func (b *Bet) LegForEvent(eventID uuid.UUID) *BetLeg {
	for _, leg := range b.Legs {
		if leg.EventID == eventID {
			return leg
		}
	}
	return nil
}

// HasLostLeg reports whether any leg lost
func (b *Bet) HasLostLeg() bool {
	for _, leg := range b.Legs {
		if leg.Status == LegStatusLost {
			return true
		}
	}
	return false
}

// HasPendingLeg reports whether any leg is still unresolved
func (b *Bet) HasPendingLeg() bool {
	for _, leg := range b.Legs {
		if leg.Status == LegStatusPending {
			return true
		}
	}
	return false
}

// AllLegsVoid reports whether every leg was voided
func (b *Bet) AllLegsVoid() bool {
	for _, leg := range b.Legs {
		if leg.Status != LegStatusVoid {
			return false
		}
	}
	return len(b.Legs) > 0
}

// EffectiveOdd multiplies locked odds of won legs and 1.00 for void legs
func (b *Bet) EffectiveOdd() decimal.Decimal {
	product := OneOdd
	for _, leg := range b.Legs {
		if leg.Status == LegStatusVoid {
			continue
		}
		product = product.Mul(leg.LockedOdd)
	}
	return RoundMoney(product)
}

// BetOutcome is the result of re-evaluating a bet after a leg changed
type BetOutcome struct {
	Status BetStatus
	// Payout is the amount to credit, zero unless the bet was won or refunded
	Payout decimal.Decimal
	// Resolved is true when this evaluation moved the bet out of PENDING
	Resolved bool
}

// CreditOrigin returns the ledger origin for the outcome's payout
func (o BetOutcome) CreditOrigin() TransactionOrigin {
	if o.Status == BetStatusRefunded {
		return OriginBetRefund
	}
	return OriginBetWin
}

// Evaluate derives the bet status from its legs. A lost leg resolves the bet
// immediately regardless of pending legs. Won bets have their odds and payout
// recomputed with void legs neutralized; all-void bets are refunded.
func (b *Bet) Evaluate(now time.Time) BetOutcome {
	if b.Status != BetStatusPending {
		return BetOutcome{Status: b.Status}
	}

	switch {
	case b.HasLostLeg():
		b.Status = BetStatusLost
		b.SettledAt = &now
		return BetOutcome{Status: BetStatusLost, Payout: decimal.Zero, Resolved: true}

	case b.HasPendingLeg():
		return BetOutcome{Status: BetStatusPending}

	case b.AllLegsVoid():
		b.Status = BetStatusRefunded
		b.TotalOdd = RoundMoney(OneOdd)
		b.PotentialPayout = RoundMoney(b.Amount)
		b.SettledAt = &now
		return BetOutcome{Status: BetStatusRefunded, Payout: b.PotentialPayout, Resolved: true}

	default:
		b.Status = BetStatusWon
		b.TotalOdd = b.EffectiveOdd()
		b.PotentialPayout = RoundMoney(b.Amount.Mul(b.TotalOdd))
		b.SettledAt = &now
		return BetOutcome{Status: BetStatusWon, Payout: b.PotentialPayout, Resolved: true}
	}
}
