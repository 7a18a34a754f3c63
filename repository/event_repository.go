package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookmaker/database"
	"bookmaker/domain/apperr"
	"bookmaker/domain/entities"
	"bookmaker/domain/interfaces"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type eventRepository struct {
	q Queryable
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *database.DB) interfaces.EventRepository {
	return &eventRepository{q: db.Pool}
}

func newEventRepository(q Queryable) interfaces.EventRepository {
	return &eventRepository{q: q}
}

const eventColumns = `id, external_id, title, category, status, pricing_model, commence_time, winner_option_id, version, created_at, updated_at`

func scanEvent(row pgx.Row) (*entities.Event, error) {
	var e entities.Event
	err := row.Scan(
		&e.ID,
		&e.ExternalID,
		&e.Title,
		&e.Category,
		&e.Status,
		&e.PricingModel,
		&e.CommenceTime,
		&e.WinnerOptionID,
		&e.Version,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *eventRepository) Create(ctx context.Context, event *entities.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	query := `
		INSERT INTO events (id, external_id, title, category, status, pricing_model, commence_time, winner_option_id, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	err := r.q.QueryRow(ctx, query,
		event.ID,
		event.ExternalID,
		event.Title,
		event.Category,
		event.Status,
		event.PricingModel,
		event.CommenceTime,
		event.WinnerOptionID,
		event.Version,
	).Scan(&event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create event %q: %w", event.Title, err)
	}

	optionQuery := `
		INSERT INTO event_options (id, event_id, name, current_odd, seed_odd, total_staked, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for i, opt := range event.Options {
		if opt.ID == uuid.Nil {
			opt.ID = uuid.New()
		}
		opt.EventID = event.ID
		opt.Position = i
		_, err := r.q.Exec(ctx, optionQuery,
			opt.ID,
			opt.EventID,
			opt.Name,
			money(opt.CurrentOdd),
			money(opt.SeedOdd),
			money(opt.TotalStaked),
			opt.Position,
		)
		if err != nil {
			return fmt.Errorf("failed to create option %q for event %s: %w", opt.Name, event.ID, err)
		}
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Event, error) {
	return r.getOne(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
}

// GetByIDForUpdate locks the event row. Options are only written while the
// event row is held, so they are read without their own lock.
func (r *eventRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.Event, error) {
	return r.getOne(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id)
}

func (r *eventRepository) GetByExternalID(ctx context.Context, externalID string) (*entities.Event, error) {
	return r.getOne(ctx, `SELECT `+eventColumns+` FROM events WHERE external_id = $1`, externalID)
}

func (r *eventRepository) getOne(ctx context.Context, query string, arg any) (*entities.Event, error) {
	event, err := scanEvent(r.q.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapError(err, "failed to get event %v", arg)
	}

	if err := r.loadOptions(ctx, []*entities.Event{event}); err != nil {
		return nil, err
	}
	return event, nil
}

func (r *eventRepository) loadOptions(ctx context.Context, events []*entities.Event) error {
	if len(events) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*entities.Event, len(events))
	ids := make([]uuid.UUID, 0, len(events))
	for _, e := range events {
		byID[e.ID] = e
		ids = append(ids, e.ID)
		e.Options = nil
	}

	query := `
		SELECT id, event_id, name, current_odd::text, seed_odd::text, total_staked::text, position
		FROM event_options
		WHERE event_id = ANY($1)
		ORDER BY event_id, position
	`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to load event options: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			opt                   entities.EventOption
			current, seed, staked string
		)
		if err := rows.Scan(&opt.ID, &opt.EventID, &opt.Name, &current, &seed, &staked, &opt.Position); err != nil {
			return fmt.Errorf("failed to scan event option: %w", err)
		}
		if opt.CurrentOdd, err = parseMoney(current, "current_odd"); err != nil {
			return err
		}
		if opt.SeedOdd, err = parseMoney(seed, "seed_odd"); err != nil {
			return err
		}
		if opt.TotalStaked, err = parseMoney(staked, "total_staked"); err != nil {
			return err
		}
		if e, ok := byID[opt.EventID]; ok {
			e.Options = append(e.Options, &opt)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating event options: %w", err)
	}
	return nil
}

// Update writes the aggregate guarded by its version. A stale version means
// another writer got there first.
func (r *eventRepository) Update(ctx context.Context, event *entities.Event) error {
	query := `
		UPDATE events
		SET title = $3,
		    status = $4,
		    commence_time = $5,
		    winner_option_id = $6,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING updated_at
	`
	err := r.q.QueryRow(ctx, query,
		event.ID,
		event.Version,
		event.Title,
		event.Status,
		event.CommenceTime,
		event.WinnerOptionID,
	).Scan(&event.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.Conflict(nil, "event %s was modified concurrently (version %d)", event.ID, event.Version)
	}
	if err != nil {
		return wrapError(err, "failed to update event %s", event.ID)
	}

	optionQuery := `
		UPDATE event_options
		SET current_odd = $2, total_staked = $3
		WHERE id = $1
	`
	for _, opt := range event.Options {
		if _, err := r.q.Exec(ctx, optionQuery, opt.ID, money(opt.CurrentOdd), money(opt.TotalStaked)); err != nil {
			return wrapError(err, "failed to update option %s", opt.ID)
		}
	}

	event.Version++
	return nil
}

func (r *eventRepository) ListByStatus(ctx context.Context, statuses ...entities.EventStatus) ([]*entities.Event, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}

	query := `SELECT ` + eventColumns + ` FROM events WHERE status = ANY($1) ORDER BY commence_time NULLS LAST, created_at`
	rows, err := r.q.Query(ctx, query, values)
	if err != nil {
		return nil, fmt.Errorf("failed to list events by status: %w", err)
	}
	defer rows.Close()

	var result []*entities.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		result = append(result, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	if err := r.loadOptions(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *eventRepository) GetCommenceTimes(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]time.Time, error) {
	result := make(map[uuid.UUID]time.Time, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT id, commence_time FROM events WHERE id = ANY($1) AND commence_time IS NOT NULL`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get commence times: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id uuid.UUID
			at time.Time
		)
		if err := rows.Scan(&id, &at); err != nil {
			return nil, fmt.Errorf("failed to scan commence time: %w", err)
		}
		result[id] = at
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating commence times: %w", err)
	}
	return result, nil
}
