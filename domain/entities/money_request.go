package entities

import (
	"time"

	"bookmaker/domain/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RequestStatus is the review state of a money request
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "PENDING"
	RequestStatusApproved RequestStatus = "APPROVED"
	RequestStatusRejected RequestStatus = "REJECTED"
)

// MoneyRequest is a user's ask for an admin-granted credit
type MoneyRequest struct {
	ID              uuid.UUID       `db:"id"`
	UserID          uuid.UUID       `db:"user_id"`
	AmountRequested decimal.Decimal `db:"amount_requested"`
	Reason          string          `db:"reason"`
	Status          RequestStatus   `db:"status"`
	ReviewedBy      *uuid.UUID      `db:"reviewed_by"`
	CreatedAt       time.Time       `db:"created_at"`
	ReviewedAt      *time.Time      `db:"reviewed_at"`
}

// IsPending reports whether the request still awaits review
func (r *MoneyRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}

// Approve marks the request approved by adminID
func (r *MoneyRequest) Approve(adminID uuid.UUID, now time.Time) error {
	return r.review(RequestStatusApproved, adminID, now)
}

// Reject marks the request rejected by adminID
func (r *MoneyRequest) Reject(adminID uuid.UUID, now time.Time) error {
	return r.review(RequestStatusRejected, adminID, now)
}

func (r *MoneyRequest) review(status RequestStatus, adminID uuid.UUID, now time.Time) error {
	if !r.IsPending() {
		return apperr.BusinessRule("request already reviewed")
	}
	r.Status = status
	r.ReviewedBy = &adminID
	r.ReviewedAt = &now
	return nil
}
