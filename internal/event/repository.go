package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventix/internal/apperr"
	"eventix/internal/db"
)

var ErrEventNotFound = fmt.Errorf("%w: event", apperr.ErrNotFound)

const eventColumns = `id, name, description, event_date, venue, organizer, capacity,
	available_ticket, price, poster_picture, created_at, updated_at`

type repository struct{}

func NewRepository() Repository {
	return &repository{}
}

func (r *repository) Create(ctx context.Context, q db.Querier, e *Event) error {
	query := `
		INSERT INTO events (name, description, event_date, venue, organizer, capacity, available_ticket, price, poster_picture)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	return q.QueryRowxContext(ctx, query,
		e.Name, e.Description, e.EventDate, e.Venue, e.Organizer,
		e.Capacity, e.AvailableTicket, e.Price, e.PosterPicture,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

func (r *repository) List(ctx context.Context, q db.Querier) ([]Event, error) {
	events := []Event{}
	err := q.SelectContext(ctx, &events, `SELECT `+eventColumns+` FROM events ORDER BY event_date ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) GetByID(ctx context.Context, q db.Querier, id int) (*Event, error) {
	return r.get(ctx, q, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
}

// GetForUpdate reads the event and holds its row lock until the surrounding
// transaction ends.
func (r *repository) GetForUpdate(ctx context.Context, q db.Querier, id int) (*Event, error) {
	return r.get(ctx, q, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id)
}

func (r *repository) get(ctx context.Context, q db.Querier, query string, id int) (*Event, error) {
	var e Event
	err := q.GetContext(ctx, &e, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) Update(ctx context.Context, q db.Querier, e *Event) error {
	query := `
		UPDATE events
		SET name = $1, description = $2, event_date = $3, venue = $4, organizer = $5,
		    capacity = $6, available_ticket = $7, price = $8, poster_picture = $9, updated_at = NOW()
		WHERE id = $10
		RETURNING updated_at
	`
	err := q.QueryRowxContext(ctx, query,
		e.Name, e.Description, e.EventDate, e.Venue, e.Organizer,
		e.Capacity, e.AvailableTicket, e.Price, e.PosterPicture, e.ID,
	).Scan(&e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrEventNotFound
	}
	return err
}

func (r *repository) UpdateAvailable(ctx context.Context, q db.Querier, id, available int) error {
	res, err := q.ExecContext(ctx,
		`UPDATE events SET available_ticket = $1, updated_at = NOW() WHERE id = $2`,
		available, id,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *repository) Delete(ctx context.Context, q db.Querier, id int) error {
	res, err := q.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *repository) HasBookings(ctx context.Context, q db.Querier, id int) (bool, error) {
	return db.Exists(ctx, q, `SELECT EXISTS(SELECT 1 FROM bookings WHERE event_id = $1)`, id)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}
