package apperr

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind classifies a domain failure
type Kind string

const (
	KindValidation          Kind = "validation"
	KindNotFound            Kind = "not_found"
	KindBusinessRule        Kind = "business_rule"
	KindInsufficientFunds   Kind = "insufficient_funds"
	KindConcurrencyConflict Kind = "concurrency_conflict"
)

// Error is a classified domain error. errors.Is matches on Kind, so callers
// can test against the Err* sentinels below.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

var (
	ErrValidation          = &Error{Kind: KindValidation}
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrBusinessRule        = &Error{Kind: KindBusinessRule}
	ErrInsufficientFunds   = &Error{Kind: KindInsufficientFunds}
	ErrConcurrencyConflict = &Error{Kind: KindConcurrencyConflict}
)

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Validation reports malformed input
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports an unknown entity reference
func NotFound(entity string, id any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s not found: %v", entity, id)}
}

// BusinessRule reports a request that is well-formed but not allowed in the current state
func BusinessRule(format string, args ...any) error {
	return &Error{Kind: KindBusinessRule, Message: fmt.Sprintf(format, args...)}
}

// InsufficientFunds reports a debit larger than the available balance
func InsufficientFunds(balance, amount decimal.Decimal) error {
	return &Error{
		Kind:    KindInsufficientFunds,
		Message: fmt.Sprintf("insufficient balance: have %s, need %s", balance.StringFixed(2), amount.StringFixed(2)),
	}
}

// Conflict reports a stale aggregate version or a lock conflict detected by the database
func Conflict(cause error, format string, args ...any) error {
	return &Error{Kind: KindConcurrencyConflict, Message: fmt.Sprintf(format, args...), Err: cause}
}

// IsRetryable reports whether the calling layer may retry the operation
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
