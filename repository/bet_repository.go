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

type betRepository struct {
	q Queryable
}

// NewBetRepository creates a new bet repository
func NewBetRepository(db *database.DB) interfaces.BetRepository {
	return &betRepository{q: db.Pool}
}

func newBetRepository(q Queryable) interfaces.BetRepository {
	return &betRepository{q: q}
}

const betColumns = `b.id, b.user_id, b.type, b.total_odd::text, b.amount::text, b.potential_payout::text, b.status, b.created_at, b.settled_at`

func scanBet(row pgx.Row) (*entities.Bet, error) {
	var (
		bet                         entities.Bet
		totalOdd, amount, potential string
	)
	err := row.Scan(
		&bet.ID,
		&bet.UserID,
		&bet.Type,
		&totalOdd,
		&amount,
		&potential,
		&bet.Status,
		&bet.CreatedAt,
		&bet.SettledAt,
	)
	if err != nil {
		return nil, err
	}
	if bet.TotalOdd, err = parseMoney(totalOdd, "total_odd"); err != nil {
		return nil, err
	}
	if bet.Amount, err = parseMoney(amount, "amount"); err != nil {
		return nil, err
	}
	if bet.PotentialPayout, err = parseMoney(potential, "potential_payout"); err != nil {
		return nil, err
	}
	return &bet, nil
}

func (r *betRepository) Create(ctx context.Context, bet *entities.Bet) error {
	query := `
		INSERT INTO bets (id, user_id, type, total_odd, amount, potential_payout, status, created_at, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.q.Exec(ctx, query,
		bet.ID,
		bet.UserID,
		bet.Type,
		money(bet.TotalOdd),
		money(bet.Amount),
		money(bet.PotentialPayout),
		bet.Status,
		bet.CreatedAt,
		bet.SettledAt,
	)
	if err != nil {
		return wrapError(err, "failed to create bet %s", bet.ID)
	}

	legQuery := `
		INSERT INTO bet_legs (id, bet_id, position, event_id, event_title, chosen_option_id, chosen_option_label, locked_odd, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for _, leg := range bet.Legs {
		_, err := r.q.Exec(ctx, legQuery,
			leg.ID,
			bet.ID,
			leg.Position,
			leg.EventID,
			leg.EventTitle,
			leg.ChosenOptionID,
			leg.ChosenOptionLabel,
			money(leg.LockedOdd),
			leg.Status,
		)
		if err != nil {
			return wrapError(err, "failed to create leg on event %s for bet %s", leg.EventID, bet.ID)
		}
	}
	return nil
}

func (r *betRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Bet, error) {
	bet, err := scanBet(r.q.QueryRow(ctx, `SELECT `+betColumns+` FROM bets b WHERE b.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapError(err, "failed to get bet %s", id)
	}
	if err := r.loadLegs(ctx, []*entities.Bet{bet}); err != nil {
		return nil, err
	}
	return bet, nil
}

// ListPendingByEventForUpdate locks the bets in id order so concurrent
// settlements of different events sharing a parlay cannot deadlock
func (r *betRepository) ListPendingByEventForUpdate(ctx context.Context, eventID uuid.UUID) ([]*entities.Bet, error) {
	query := `
		SELECT ` + betColumns + `
		FROM bets b
		WHERE b.status = 'PENDING'
		  AND EXISTS (
			SELECT 1 FROM bet_legs l
			WHERE l.bet_id = b.id AND l.event_id = $1 AND l.status = 'PENDING'
		  )
		ORDER BY b.id
		FOR UPDATE OF b
	`
	return r.list(ctx, query, eventID)
}

func (r *betRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.Bet, error) {
	query := `SELECT ` + betColumns + ` FROM bets b WHERE b.user_id = $1 ORDER BY b.created_at DESC, b.id`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	return r.list(ctx, query, args...)
}

func (r *betRepository) list(ctx context.Context, query string, args ...any) ([]*entities.Bet, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapError(err, "failed to query bets")
	}
	defer rows.Close()

	var bets []*entities.Bet
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, bet)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(err, "error iterating bets")
	}

	if err := r.loadLegs(ctx, bets); err != nil {
		return nil, err
	}
	return bets, nil
}

func (r *betRepository) loadLegs(ctx context.Context, bets []*entities.Bet) error {
	if len(bets) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*entities.Bet, len(bets))
	ids := make([]uuid.UUID, 0, len(bets))
	for _, b := range bets {
		byID[b.ID] = b
		ids = append(ids, b.ID)
		b.Legs = nil
	}

	query := `
		SELECT id, bet_id, position, event_id, event_title, chosen_option_id, chosen_option_label, locked_odd::text, status
		FROM bet_legs
		WHERE bet_id = ANY($1)
		ORDER BY bet_id, position
	`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to load bet legs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			leg       entities.BetLeg
			lockedOdd string
		)
		err := rows.Scan(
			&leg.ID,
			&leg.BetID,
			&leg.Position,
			&leg.EventID,
			&leg.EventTitle,
			&leg.ChosenOptionID,
			&leg.ChosenOptionLabel,
			&lockedOdd,
			&leg.Status,
		)
		if err != nil {
			return fmt.Errorf("failed to scan bet leg: %w", err)
		}
		if leg.LockedOdd, err = parseMoney(lockedOdd, "locked_odd"); err != nil {
			return err
		}
		if b, ok := byID[leg.BetID]; ok {
			b.Legs = append(b.Legs, &leg)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating bet legs: %w", err)
	}
	return nil
}

func (r *betRepository) UpdateSettlement(ctx context.Context, bet *entities.Bet) error {
	query := `
		UPDATE bets
		SET status = $2, total_odd = $3, potential_payout = $4, settled_at = $5
		WHERE id = $1
	`
	tag, err := r.q.Exec(ctx, query,
		bet.ID,
		bet.Status,
		money(bet.TotalOdd),
		money(bet.PotentialPayout),
		bet.SettledAt,
	)
	if err != nil {
		return wrapError(err, "failed to update bet %s", bet.ID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bet %s not found", bet.ID)
	}

	legQuery := `UPDATE bet_legs SET status = $2 WHERE id = $1`
	for _, leg := range bet.Legs {
		if _, err := r.q.Exec(ctx, legQuery, leg.ID, leg.Status); err != nil {
			return wrapError(err, "failed to update leg %s", leg.ID)
		}
	}
	return nil
}

func (r *betRepository) ListPendingUserIDsByEvent(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT b.user_id
		FROM bets b
		JOIN bet_legs l ON l.bet_id = b.id
		WHERE l.event_id = $1 AND l.status = 'PENDING' AND b.status = 'PENDING'
	`
	rows, err := r.q.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users with pending bets on event %s: %w", eventID, err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user ids: %w", err)
	}
	return ids, nil
}
