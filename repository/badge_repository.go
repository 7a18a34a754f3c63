package repository

import (
	"context"
	"fmt"

	"bookmaker/database"
	"bookmaker/domain/entities"
	"bookmaker/domain/interfaces"

	"github.com/google/uuid"
)

type badgeRepository struct {
	q Queryable
}

// NewBadgeRepository creates a new badge repository
func NewBadgeRepository(db *database.DB) interfaces.BadgeRepository {
	return &badgeRepository{q: db.Pool}
}

func newBadgeRepository(q Queryable) interfaces.BadgeRepository {
	return &badgeRepository{q: q}
}

// Award relies on the (user_id, code) key to make repeated awards a no-op
func (r *badgeRepository) Award(ctx context.Context, badge *entities.UserBadge) (bool, error) {
	query := `
		INSERT INTO user_badges (user_id, code, reward_amount, earned_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, code) DO NOTHING
	`
	tag, err := r.q.Exec(ctx, query, badge.UserID, badge.Code, money(badge.RewardAmount), badge.EarnedAt)
	if err != nil {
		return false, wrapError(err, "failed to award badge %s to user %s", badge.Code, badge.UserID)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *badgeRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.UserBadge, error) {
	query := `
		SELECT user_id, code, reward_amount::text, earned_at
		FROM user_badges
		WHERE user_id = $1
		ORDER BY earned_at, code
	`
	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges for user %s: %w", userID, err)
	}
	defer rows.Close()

	var badges []*entities.UserBadge
	for rows.Next() {
		var (
			badge  entities.UserBadge
			reward string
		)
		if err := rows.Scan(&badge.UserID, &badge.Code, &reward, &badge.EarnedAt); err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		if badge.RewardAmount, err = parseMoney(reward, "reward_amount"); err != nil {
			return nil, err
		}
		badges = append(badges, &badge)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating badges: %w", err)
	}
	return badges, nil
}
