package event

import (
	"time"

	"eventix/internal/money"
)

// Event is a ticketed event. AvailableTicket is always Capacity minus the
// quantity held by active bookings.
type Event struct {
	ID              int          `db:"id" json:"id"`
	Name            string       `db:"name" json:"name"`
	Description     string       `db:"description" json:"description"`
	EventDate       time.Time    `db:"event_date" json:"event_date"`
	Venue           string       `db:"venue" json:"venue"`
	Organizer       string       `db:"organizer" json:"organizer"`
	Capacity        int          `db:"capacity" json:"capacity"`
	AvailableTicket int          `db:"available_ticket" json:"available_ticket"`
	Price           money.Amount `db:"price" json:"price" swaggertype:"number" example:"300.00"`
	PosterPicture   string       `db:"poster_picture" json:"poster_picture"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
}

// Sold is the number of tickets currently held by bookings.
func (e *Event) Sold() int {
	return e.Capacity - e.AvailableTicket
}

type CreateEventRequest struct {
	Name            string       `json:"name" binding:"required,max=255"`
	Description     string       `json:"description"`
	EventDate       time.Time    `json:"event_date" binding:"required"`
	Venue           string       `json:"venue" binding:"required,max=255"`
	Organizer       string       `json:"organizer" binding:"required,max=255"`
	AvailableTicket int          `json:"available_ticket" binding:"min=0"`
	Price           money.Amount `json:"price" swaggertype:"number" example:"300.00"`
	PosterPicture   string       `json:"poster_picture"`
}

// UpdateEventRequest is a partial update. Capacity changes shift
// available_ticket by the same delta; tickets already sold are kept.
type UpdateEventRequest struct {
	Name          *string       `json:"name" binding:"omitempty,max=255"`
	Description   *string       `json:"description"`
	EventDate     *time.Time    `json:"event_date"`
	Venue         *string       `json:"venue" binding:"omitempty,max=255"`
	Organizer     *string       `json:"organizer" binding:"omitempty,max=255"`
	Capacity      *int          `json:"capacity" binding:"omitempty,min=0"`
	Price         *money.Amount `json:"price" swaggertype:"number"`
	PosterPicture *string       `json:"poster_picture"`
}
