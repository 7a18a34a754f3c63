package repository

import (
	"context"
	"fmt"

	"bookmaker/database"
	"bookmaker/domain/entities"
	"bookmaker/domain/interfaces"

	"github.com/google/uuid"
)

type transactionRepository struct {
	q Queryable
}

// NewTransactionRepository creates a new ledger repository
func NewTransactionRepository(db *database.DB) interfaces.TransactionRepository {
	return &transactionRepository{q: db.Pool}
}

func newTransactionRepository(q Queryable) interfaces.TransactionRepository {
	return &transactionRepository{q: q}
}

// Record appends a ledger row. Rows are never updated or deleted.
func (r *transactionRepository) Record(ctx context.Context, tx *entities.Transaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}

	query := `
		INSERT INTO transactions (id, user_id, type, origin, amount, balance_after, reference_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err := r.q.QueryRow(ctx, query,
		tx.ID,
		tx.UserID,
		tx.Type,
		tx.Origin,
		money(tx.Amount),
		money(tx.BalanceAfter),
		tx.ReferenceID,
	).Scan(&tx.CreatedAt)
	if err != nil {
		return wrapError(err, "failed to record %s transaction for user %s", tx.Origin, tx.UserID)
	}
	return nil
}

// ListByUser returns the user's ledger rows in reverse creation order
func (r *transactionRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.Transaction, error) {
	query := `
		SELECT id, user_id, type, origin, amount::text, balance_after::text, reference_id, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY seq DESC
	`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for user %s: %w", userID, err)
	}
	defer rows.Close()

	var result []*entities.Transaction
	for rows.Next() {
		var (
			tx            entities.Transaction
			amount, after string
		)
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Type, &tx.Origin, &amount, &after, &tx.ReferenceID, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if tx.Amount, err = parseMoney(amount, "amount"); err != nil {
			return nil, err
		}
		if tx.BalanceAfter, err = parseMoney(after, "balance_after"); err != nil {
			return nil, err
		}
		tx.BalanceBefore = tx.BalanceAfter.Sub(tx.SignedAmount())
		result = append(result, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return result, nil
}
