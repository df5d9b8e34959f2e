package booking

import (
	"context"

	"eventix/internal/db"
)

type Repository interface {
	Create(ctx context.Context, q db.Querier, b *Booking) error
	GetForUpdate(ctx context.Context, q db.Querier, id int) (*Booking, error)
	GetDetails(ctx context.Context, q db.Querier, id int) (*BookingDetails, error)
	// ListDetails returns newest first; userID 0 lists every booking.
	ListDetails(ctx context.Context, q db.Querier, userID int) ([]BookingDetails, error)
	SumQuantity(ctx context.Context, q db.Querier, userID, eventID int) (int, error)
	UpdateQuantity(ctx context.Context, q db.Querier, id, quantity int) error
	Delete(ctx context.Context, q db.Querier, id int) error
}
