package entities

import (
	"time"

	"bookmaker/domain/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventStatus represents the lifecycle state of an event
type EventStatus string

const (
	EventStatusPending  EventStatus = "PENDING"
	EventStatusOpen     EventStatus = "OPEN"
	EventStatusLocked   EventStatus = "LOCKED"
	EventStatusSettled  EventStatus = "SETTLED"
	EventStatusCanceled EventStatus = "CANCELED"
)

// IsTerminal reports whether no further transition is possible
func (s EventStatus) IsTerminal() bool {
	return s == EventStatusSettled || s == EventStatusCanceled
}

var eventTransitions = map[EventStatus][]EventStatus{
	EventStatusPending: {EventStatusOpen, EventStatusCanceled},
	EventStatusOpen:    {EventStatusLocked, EventStatusCanceled},
	EventStatusLocked:  {EventStatusSettled, EventStatusCanceled},
}

// CanTransitionTo reports whether target is reachable from s in one step
func (s EventStatus) CanTransitionTo(target EventStatus) bool {
	for _, allowed := range eventTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// PricingModel determines how option odds react to stakes
type PricingModel string

const (
	PricingFixedOdds         PricingModel = "FIXED_ODDS"
	PricingDynamicParimutuel PricingModel = "DYNAMIC_PARIMUTUEL"
)

// EventCategory tells internal events apart from feed-sourced ones
type EventCategory string

const (
	EventCategoryInternal EventCategory = "INTERNAL"
	EventCategorySports   EventCategory = "SPORTS"
)

// EventOption is a selectable outcome of an event
type EventOption struct {
	ID          uuid.UUID       `db:"id"`
	EventID     uuid.UUID       `db:"event_id"`
	Name        string          `db:"name"`
	CurrentOdd  decimal.Decimal `db:"current_odd"`
	SeedOdd     decimal.Decimal `db:"seed_odd"`
	TotalStaked decimal.Decimal `db:"total_staked"`
	Position    int             `db:"position"`
}

// Event is the aggregate for an event's lifecycle and per-option pricing
type Event struct {
	ID             uuid.UUID      `db:"id"`
	ExternalID     *string        `db:"external_id"`
	Title          string         `db:"title"`
	Category       EventCategory  `db:"category"`
	Status         EventStatus    `db:"status"`
	PricingModel   PricingModel   `db:"pricing_model"`
	CommenceTime   *time.Time     `db:"commence_time"`
	WinnerOptionID *uuid.UUID     `db:"winner_option_id"`
	Version        int64          `db:"version"`
	Options        []*EventOption `db:"-"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

// IsOpen reports whether the event accepts stakes
func (e *Event) IsOpen() bool {
	return e.Status == EventStatusOpen
}

// AcceptsFeedUpdates reports whether external odds may still overwrite the event
func (e *Event) AcceptsFeedUpdates() bool {
	return e.Status == EventStatusPending || e.Status == EventStatusOpen
}

// TransitionTo moves the event to target if the lifecycle allows it
func (e *Event) TransitionTo(target EventStatus) error {
	if !e.Status.CanTransitionTo(target) {
		return apperr.BusinessRule("cannot transition event from %s to %s", e.Status, target)
	}
	e.Status = target
	return nil
}

// FindOption returns the option with the given id, or nil
func (e *Event) FindOption(optionID uuid.UUID) *EventOption {
	for _, opt := range e.Options {
		if opt.ID == optionID {
			return opt
		}
	}
	return nil
}

// FindOptionByName returns the option with the given name, or nil
func (e *Event) FindOptionByName(name string) *EventOption {
	for _, opt := range e.Options {
		if opt.Name == name {
			return opt
		}
	}
	return nil
}

// TotalStaked returns the sum of stakes across every option
func (e *Event) TotalStaked() decimal.Decimal {
	total := decimal.Zero
	for _, opt := range e.Options {
		total = total.Add(opt.TotalStaked)
	}
	return total
}

// ApplyStake adds amount to the option's pool and reprices the event when it
// uses parimutuel pricing. The caller must hold the event lock.
func (e *Event) ApplyStake(optionID uuid.UUID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperr.Validation("stake must be positive")
	}
	option := e.FindOption(optionID)
	if option == nil {
		return apperr.NotFound("option", optionID)
	}

	option.TotalStaked = option.TotalStaked.Add(amount)

	if e.PricingModel == PricingDynamicParimutuel {
		e.RecalculateParimutuelOdds()
	}
	return nil
}

// RecalculateParimutuelOdds sets every staked option's odd to
// total/optionTotal and resets unstaked options to their seed odd
func (e *Event) RecalculateParimutuelOdds() {
	total := e.TotalStaked()
	for _, opt := range e.Options {
		if opt.TotalStaked.IsPositive() {
			opt.CurrentOdd = total.DivRound(opt.TotalStaked, MoneyScale)
		} else {
			opt.CurrentOdd = opt.SeedOdd
		}
	}
}

// RefreshOdds overwrites odds for options matched by name. Unknown names are
// ignored. Returns the number of options updated.
func (e *Event) RefreshOdds(odds map[string]decimal.Decimal) int {
	updated := 0
	for _, opt := range e.Options {
		odd, ok := odds[opt.Name]
		if !ok {
			continue
		}
		odd = RoundMoney(odd)
		if !opt.CurrentOdd.Equal(odd) {
			opt.CurrentOdd = odd
			updated++
		}
	}
	return updated
}

// Settle records the winning option and moves the event to SETTLED
func (e *Event) Settle(winnerOptionID uuid.UUID) error {
	if e.Status != EventStatusLocked {
		return apperr.BusinessRule("event %q must be LOCKED before settlement (status: %s)", e.Title, e.Status)
	}
	if e.FindOption(winnerOptionID) == nil {
		return apperr.Validation("option %s does not belong to event %s", winnerOptionID, e.ID)
	}
	if err := e.TransitionTo(EventStatusSettled); err != nil {
		return err
	}
	winner := winnerOptionID
	e.WinnerOptionID = &winner
	return nil
}

// EventSnapshot is the read model pushed to clients and cached
type EventSnapshot struct {
	ID             uuid.UUID        `json:"id"`
	Title          string           `json:"title"`
	Category       EventCategory    `json:"category"`
	Status         EventStatus      `json:"status"`
	PricingModel   PricingModel     `json:"pricingModel"`
	CommenceTime   *time.Time       `json:"commenceTime,omitempty"`
	WinnerOptionID *uuid.UUID       `json:"winnerOptionId,omitempty"`
	Options        []OptionSnapshot `json:"options"`
	Version        int64            `json:"version"`
}

// OptionSnapshot is the read model of a single option
type OptionSnapshot struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	CurrentOdd  decimal.Decimal `json:"currentOdd"`
	TotalStaked decimal.Decimal `json:"totalStaked"`
}

// Snapshot builds the read model for the event
func (e *Event) Snapshot() EventSnapshot {
	options := make([]OptionSnapshot, len(e.Options))
	for i, opt := range e.Options {
		options[i] = OptionSnapshot{
			ID:          opt.ID,
			Name:        opt.Name,
			CurrentOdd:  opt.CurrentOdd,
			TotalStaked: opt.TotalStaked,
		}
	}
	return EventSnapshot{
		ID:             e.ID,
		Title:          e.Title,
		Category:       e.Category,
		Status:         e.Status,
		PricingModel:   e.PricingModel,
		CommenceTime:   e.CommenceTime,
		WinnerOptionID: e.WinnerOptionID,
		Options:        options,
		Version:        e.Version,
	}
}
