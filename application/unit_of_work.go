package application

import (
	"context"
	"fmt"

	"bookmaker/domain/interfaces"
	"bookmaker/domain/services"
)

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new read-write transaction
	Begin(ctx context.Context) error

	// BeginReadOnly starts a snapshot transaction for consistent reads
	BeginReadOnly(ctx context.Context) error

	Commit() error
	Rollback() error

	// Repository getters
	UserRepository() interfaces.UserRepository
	TransactionRepository() interfaces.TransactionRepository
	EventRepository() interfaces.EventRepository
	BetRepository() interfaces.BetRepository
	BadgeRepository() interfaces.BadgeRepository
	MoneyRequestRepository() interfaces.MoneyRequestRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// inUnitOfWork runs fn inside a fresh read-write unit of work and commits
// when fn succeeds. Events published through uow.EventBus() leave the process
// only after the commit.
func inUnitOfWork(ctx context.Context, factory UnitOfWorkFactory, fn func(uow UnitOfWork) error) error {
	uow := factory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := fn(uow); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// inReadOnlyUnitOfWork runs fn against a consistent snapshot
func inReadOnlyUnitOfWork(ctx context.Context, factory UnitOfWorkFactory, fn func(uow UnitOfWork) error) error {
	uow := factory.Create()
	if err := uow.BeginReadOnly(ctx); err != nil {
		return fmt.Errorf("failed to begin read-only transaction: %w", err)
	}
	defer uow.Rollback()

	if err := fn(uow); err != nil {
		return err
	}
	return uow.Commit()
}

func newWalletService(uow UnitOfWork) interfaces.WalletService {
	return services.NewWalletService(uow.UserRepository(), uow.TransactionRepository(), uow.EventBus())
}
