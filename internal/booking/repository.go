package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventix/internal/apperr"
	"eventix/internal/db"
)

var ErrBookingNotFound = fmt.Errorf("%w: ticketing request", apperr.ErrNotFound)

const detailsQuery = `
	SELECT b.id, b.user_id, b.event_id, b.quantity, b.unit_price, b.created_at, b.updated_at,
	       e.id AS "event.event_id", e.name AS "event.event_name", e.description AS "event.event_description",
	       e.event_date AS "event.event_date", e.venue AS "event.event_venue",
	       e.available_ticket AS "event.event_available_ticket",
	       u.name AS "holder.user_name", u.email AS "holder.user_email"
	FROM bookings b
	JOIN events e ON e.id = b.event_id
	JOIN users u ON u.id = b.user_id
`

type repository struct{}

func NewRepository() Repository {
	return &repository{}
}

func (r *repository) Create(ctx context.Context, q db.Querier, b *Booking) error {
	return q.QueryRowxContext(ctx, `
		INSERT INTO bookings (user_id, event_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, b.UserID, b.EventID, b.Quantity, b.UnitPrice).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (r *repository) GetForUpdate(ctx context.Context, q db.Querier, id int) (*Booking, error) {
	var b Booking
	err := q.GetContext(ctx, &b, `
		SELECT id, user_id, event_id, quantity, unit_price, created_at, updated_at
		FROM bookings
		WHERE id = $1
		FOR UPDATE
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) GetDetails(ctx context.Context, q db.Querier, id int) (*BookingDetails, error) {
	var d BookingDetails
	err := q.GetContext(ctx, &d, detailsQuery+` WHERE b.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repository) ListDetails(ctx context.Context, q db.Querier, userID int) ([]BookingDetails, error) {
	out := []BookingDetails{}
	var err error
	if userID == 0 {
		err = q.SelectContext(ctx, &out, detailsQuery+` ORDER BY b.created_at DESC, b.id DESC`)
	} else {
		err = q.SelectContext(ctx, &out, detailsQuery+` WHERE b.user_id = $1 ORDER BY b.created_at DESC, b.id DESC`, userID)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) SumQuantity(ctx context.Context, q db.Querier, userID, eventID int) (int, error) {
	var total int
	err := q.GetContext(ctx, &total,
		`SELECT COALESCE(SUM(quantity), 0) FROM bookings WHERE user_id = $1 AND event_id = $2`,
		userID, eventID,
	)
	return total, err
}

func (r *repository) UpdateQuantity(ctx context.Context, q db.Querier, id, quantity int) error {
	res, err := q.ExecContext(ctx,
		`UPDATE bookings SET quantity = $1, updated_at = NOW() WHERE id = $2`,
		quantity, id,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *repository) Delete(ctx context.Context, q db.Querier, id int) error {
	res, err := q.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}
