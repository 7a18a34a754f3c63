package application

import (
	"context"

	"bookmaker/application/dto"
	"bookmaker/domain/entities"
	"bookmaker/domain/interfaces"
	"bookmaker/domain/services"

	"github.com/google/uuid"
)

type moneyRequestHandler struct {
	uowFactory UnitOfWorkFactory
}

// NewMoneyRequestHandler creates a new MoneyRequestHandler
func NewMoneyRequestHandler(uowFactory UnitOfWorkFactory) MoneyRequestHandler {
	return &moneyRequestHandler{uowFactory: uowFactory}
}

func newMoneyRequestService(uow UnitOfWork) interfaces.MoneyRequestService {
	return services.NewMoneyRequestService(
		uow.UserRepository(),
		uow.MoneyRequestRepository(),
		newWalletService(uow),
		uow.EventBus(),
	)
}

func (h *moneyRequestHandler) CreateMoneyRequest(ctx context.Context, req dto.CreateMoneyRequest) (*entities.MoneyRequest, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	var request *entities.MoneyRequest
	err := inUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork) error {
		var err error
		request, err = newMoneyRequestService(uow).CreateRequest(ctx, req.UserID, req.Amount, req.Reason)
		return err
	})
	return request, err
}

func (h *moneyRequestHandler) ApproveMoneyRequest(ctx context.Context, req dto.ReviewMoneyRequest) (*entities.MoneyRequest, error) {
	return h.review(ctx, "approve_money_request", req, interfaces.MoneyRequestService.Approve)
}

func (h *moneyRequestHandler) RejectMoneyRequest(ctx context.Context, req dto.ReviewMoneyRequest) (*entities.MoneyRequest, error) {
	return h.review(ctx, "reject_money_request", req, interfaces.MoneyRequestService.Reject)
}

type reviewFunc func(svc interfaces.MoneyRequestService, ctx context.Context, requestID, adminID uuid.UUID) (*entities.MoneyRequest, error)

func (h *moneyRequestHandler) review(ctx context.Context, operation string, req dto.ReviewMoneyRequest, decide reviewFunc) (*entities.MoneyRequest, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	var request *entities.MoneyRequest
	err := withRetry(ctx, operation, func() error {
		return inUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork) error {
			var err error
			request, err = decide(newMoneyRequestService(uow), ctx, req.RequestID, req.AdminID)
			return err
		})
	})
	return request, err
}

func (h *moneyRequestHandler) ListPendingMoneyRequests(ctx context.Context) ([]*entities.MoneyRequest, error) {
	var requests []*entities.MoneyRequest
	err := inReadOnlyUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork) error {
		var err error
		requests, err = newMoneyRequestService(uow).ListPending(ctx)
		return err
	})
	return requests, err
}

func (h *moneyRequestHandler) ListUserMoneyRequests(ctx context.Context, userID uuid.UUID) ([]*entities.MoneyRequest, error) {
	var requests []*entities.MoneyRequest
	err := inReadOnlyUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork) error {
		var err error
		requests, err = newMoneyRequestService(uow).ListByUser(ctx, userID)
		return err
	})
	return requests, err
}
