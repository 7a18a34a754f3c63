package utils

import (
	"context"
	"fmt"

	"bookmaker/domain/entities"
	"bookmaker/domain/events"
	"bookmaker/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// RecordLedgerEntry validates and appends a ledger entry and emits a balance
// change event. This is the single entry point for all balance changes.
func RecordLedgerEntry(ctx context.Context, transactionRepo interfaces.TransactionRepository, eventPublisher interfaces.EventPublisher, entry *entities.Transaction) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("invalid ledger entry for user %s: %w", entry.UserID, err)
	}

	if err := transactionRepo.Record(ctx, entry); err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}

	event := events.BalanceChangeEvent{
		UserID:        entry.UserID,
		TransactionID: entry.ID,
		OldBalance:    entry.BalanceBefore,
		NewBalance:    entry.BalanceAfter,
		Origin:        entry.Origin,
		ChangeAmount:  entry.SignedAmount(),
	}
	log.WithFields(log.Fields{
		"userID":       event.UserID,
		"oldBalance":   event.OldBalance.String(),
		"newBalance":   event.NewBalance.String(),
		"origin":       event.Origin,
		"changeAmount": event.ChangeAmount.String(),
	}).Debug("Publishing BalanceChangeEvent")
	if err := eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish balance change event")
	}

	return nil
}
