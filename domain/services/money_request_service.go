package services

import (
	"context"
	"fmt"
	"time"

	"bookmaker/config"
	"bookmaker/domain/apperr"
	"bookmaker/domain/entities"
	"bookmaker/domain/events"
	"bookmaker/domain/interfaces"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const maxRequestReasonLength = 500

type moneyRequestService struct {
	userRepo       interfaces.UserRepository
	requestRepo    interfaces.MoneyRequestRepository
	wallet         interfaces.WalletService
	eventPublisher interfaces.EventPublisher
}

// NewMoneyRequestService creates a new money request service
func NewMoneyRequestService(userRepo interfaces.UserRepository, requestRepo interfaces.MoneyRequestRepository, wallet interfaces.WalletService, eventPublisher interfaces.EventPublisher) interfaces.MoneyRequestService {
	return &moneyRequestService{
		userRepo:       userRepo,
		requestRepo:    requestRepo,
		wallet:         wallet,
		eventPublisher: eventPublisher,
	}
}

func (s *moneyRequestService) CreateRequest(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, reason string) (*entities.MoneyRequest, error) {
	amount = entities.RoundMoney(amount)
	if !amount.IsPositive() {
		return nil, apperr.Validation("requested amount must be positive")
	}
	if len(reason) > maxRequestReasonLength {
		return nil, apperr.Validation("reason must be at most %d characters", maxRequestReasonLength)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user", userID)
	}

	request := &entities.MoneyRequest{
		ID:              uuid.New(),
		UserID:          userID,
		AmountRequested: amount,
		Reason:          reason,
		Status:          entities.RequestStatusPending,
	}
	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create money request: %w", err)
	}

	log.WithFields(log.Fields{
		"requestID": request.ID,
		"userID":    userID,
		"amount":    amount.StringFixed(2),
	}).Info("Money request created")
	s.publishAdmin(request, events.AdminActionCreated)
	return request, nil
}

func (s *moneyRequestService) Approve(ctx context.Context, requestID, adminID uuid.UUID) (*entities.MoneyRequest, error) {
	request, err := s.review(ctx, requestID, adminID, (*entities.MoneyRequest).Approve)
	if err != nil {
		return nil, err
	}

	reference := request.ID.String()
	if _, err := s.wallet.Credit(ctx, request.UserID, request.AmountRequested, entities.OriginAdminGift, &reference); err != nil {
		return nil, fmt.Errorf("failed to credit approved request: %w", err)
	}

	s.publish(events.UserNotificationEvent{
		UserID:           request.UserID,
		NotificationType: events.NotificationMoneyRequestApproved,
		Message:          fmt.Sprintf("Your request for %s was approved", request.AmountRequested.StringFixed(2)),
	})
	s.publishAdmin(request, events.AdminActionApproved)
	return request, nil
}

func (s *moneyRequestService) Reject(ctx context.Context, requestID, adminID uuid.UUID) (*entities.MoneyRequest, error) {
	request, err := s.review(ctx, requestID, adminID, (*entities.MoneyRequest).Reject)
	if err != nil {
		return nil, err
	}

	s.publish(events.UserNotificationEvent{
		UserID:           request.UserID,
		NotificationType: events.NotificationMoneyRequestRejected,
		Message:          fmt.Sprintf("Your request for %s was rejected", request.AmountRequested.StringFixed(2)),
	})
	s.publishAdmin(request, events.AdminActionRejected)
	return request, nil
}

func (s *moneyRequestService) review(ctx context.Context, requestID, adminID uuid.UUID, decide func(*entities.MoneyRequest, uuid.UUID, time.Time) error) (*entities.MoneyRequest, error) {
	admin, err := s.userRepo.GetByID(ctx, adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviewer: %w", err)
	}
	if admin == nil {
		return nil, apperr.NotFound("user", adminID)
	}
	if !admin.IsAdmin() {
		return nil, apperr.BusinessRule("only administrators can review money requests")
	}

	request, err := s.requestRepo.GetByIDForUpdate(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get money request: %w", err)
	}
	if request == nil {
		return nil, apperr.NotFound("money request", requestID)
	}

	if err := decide(request, adminID, config.Get().Now()); err != nil {
		return nil, err
	}
	if err := s.requestRepo.Update(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to update money request: %w", err)
	}

	log.WithFields(log.Fields{
		"requestID": request.ID,
		"adminID":   adminID,
		"status":    request.Status,
	}).Info("Money request reviewed")
	return request, nil
}

func (s *moneyRequestService) ListPending(ctx context.Context) ([]*entities.MoneyRequest, error) {
	requests, err := s.requestRepo.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	return requests, nil
}

func (s *moneyRequestService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.MoneyRequest, error) {
	requests, err := s.requestRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list money requests: %w", err)
	}
	return requests, nil
}

func (s *moneyRequestService) publishAdmin(request *entities.MoneyRequest, action string) {
	s.publish(events.AdminRequestEvent{
		RequestID: request.ID,
		UserID:    request.UserID,
		Action:    action,
		Amount:    request.AmountRequested,
		Reason:    request.Reason,
		Status:    request.Status,
	})
}

func (s *moneyRequestService) publish(event events.Event) {
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithError(err).WithField("eventType", event.Type()).Error("Failed to publish event")
	}
}
