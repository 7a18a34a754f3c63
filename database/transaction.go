package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// BeginReadOnly starts a read-only transaction. Queries inside it see a
// single consistent snapshot.
func (db *DB) BeginReadOnly(ctx context.Context) (pgx.Tx, error) {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin read-only transaction: %w", err)
	}
	return tx, nil
}
