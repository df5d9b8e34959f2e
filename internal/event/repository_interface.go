package event

import (
	"context"

	"eventix/internal/db"
)

// Repository methods take the querier explicitly so the same store serves
// plain reads and settlement transactions.
type Repository interface {
	Create(ctx context.Context, q db.Querier, e *Event) error
	List(ctx context.Context, q db.Querier) ([]Event, error)
	GetByID(ctx context.Context, q db.Querier, id int) (*Event, error)
	GetForUpdate(ctx context.Context, q db.Querier, id int) (*Event, error)
	Update(ctx context.Context, q db.Querier, e *Event) error
	UpdateAvailable(ctx context.Context, q db.Querier, id, available int) error
	Delete(ctx context.Context, q db.Querier, id int) error
	HasBookings(ctx context.Context, q db.Querier, id int) (bool, error)
}
