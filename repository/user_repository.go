package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookmaker/database"
	"bookmaker/domain/entities"
	"bookmaker/domain/interfaces"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type userRepository struct {
	q Queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) interfaces.UserRepository {
	return &userRepository{q: db.Pool}
}

func newUserRepository(q Queryable) interfaces.UserRepository {
	return &userRepository{q: q}
}

const userColumns = `id, email, role, balance::text, last_daily_bonus, created_at, updated_at`

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
}

func (r *userRepository) get(ctx context.Context, query string, id uuid.UUID) (*entities.User, error) {
	user, err := scanUser(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapError(err, "failed to get user %s", id)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var (
		user      entities.User
		balance   string
		lastBonus *time.Time
	)
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Role,
		&balance,
		&lastBonus,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if user.Balance, err = parseMoney(balance, "balance"); err != nil {
		return nil, err
	}
	if lastBonus != nil {
		day := civil.DateOf(*lastBonus)
		user.LastDailyBonus = &day
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *entities.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = entities.RoleUser
	}

	query := `
		INSERT INTO users (id, email, role, balance)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	err := r.q.QueryRow(ctx, query, user.ID, user.Email, user.Role, money(user.Balance)).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user %s: %w", user.Email, err)
	}
	return nil
}

func (r *userRepository) UpdateBalance(ctx context.Context, id uuid.UUID, newBalance decimal.Decimal) error {
	query := `UPDATE users SET balance = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id, money(newBalance))
	if err != nil {
		return wrapError(err, "failed to update balance for user %s", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found", id)
	}
	return nil
}

func (r *userRepository) SetLastDailyBonus(ctx context.Context, id uuid.UUID, day civil.Date) error {
	query := `UPDATE users SET last_daily_bonus = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.q.Exec(ctx, query, id, day.In(time.UTC))
	if err != nil {
		return wrapError(err, "failed to set daily bonus date for user %s", id)
	}
	return nil
}
