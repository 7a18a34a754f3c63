package repository

import (
	"context"
	"errors"
	"fmt"

	"bookmaker/database"
	"bookmaker/domain/entities"
	"bookmaker/domain/interfaces"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type moneyRequestRepository struct {
	q Queryable
}

// NewMoneyRequestRepository creates a new money request repository
func NewMoneyRequestRepository(db *database.DB) interfaces.MoneyRequestRepository {
	return &moneyRequestRepository{q: db.Pool}
}

func newMoneyRequestRepository(q Queryable) interfaces.MoneyRequestRepository {
	return &moneyRequestRepository{q: q}
}

const moneyRequestColumns = `id, user_id, amount_requested::text, reason, status, reviewed_by, created_at, reviewed_at`

func scanMoneyRequest(row pgx.Row) (*entities.MoneyRequest, error) {
	var (
		req    entities.MoneyRequest
		amount string
	)
	err := row.Scan(&req.ID, &req.UserID, &amount, &req.Reason, &req.Status, &req.ReviewedBy, &req.CreatedAt, &req.ReviewedAt)
	if err != nil {
		return nil, err
	}
	if req.AmountRequested, err = parseMoney(amount, "amount_requested"); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *moneyRequestRepository) Create(ctx context.Context, req *entities.MoneyRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	query := `
		INSERT INTO money_requests (id, user_id, amount_requested, reason, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := r.q.QueryRow(ctx, query, req.ID, req.UserID, money(req.AmountRequested), req.Reason, req.Status).Scan(&req.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create money request for user %s: %w", req.UserID, err)
	}
	return nil
}

func (r *moneyRequestRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.MoneyRequest, error) {
	req, err := scanMoneyRequest(r.q.QueryRow(ctx, `SELECT `+moneyRequestColumns+` FROM money_requests WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapError(err, "failed to get money request %s", id)
	}
	return req, nil
}

func (r *moneyRequestRepository) Update(ctx context.Context, req *entities.MoneyRequest) error {
	query := `
		UPDATE money_requests
		SET status = $2, reviewed_by = $3, reviewed_at = $4
		WHERE id = $1
	`
	if _, err := r.q.Exec(ctx, query, req.ID, req.Status, req.ReviewedBy, req.ReviewedAt); err != nil {
		return wrapError(err, "failed to update money request %s", req.ID)
	}
	return nil
}

func (r *moneyRequestRepository) ListPending(ctx context.Context) ([]*entities.MoneyRequest, error) {
	query := `SELECT ` + moneyRequestColumns + ` FROM money_requests WHERE status = 'PENDING' ORDER BY created_at`
	return r.list(ctx, query)
}

func (r *moneyRequestRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.MoneyRequest, error) {
	query := `SELECT ` + moneyRequestColumns + ` FROM money_requests WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

func (r *moneyRequestRepository) list(ctx context.Context, query string, args ...any) ([]*entities.MoneyRequest, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list money requests: %w", err)
	}
	defer rows.Close()

	var result []*entities.MoneyRequest
	for rows.Next() {
		req, err := scanMoneyRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan money request: %w", err)
		}
		result = append(result, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating money requests: %w", err)
	}
	return result, nil
}
