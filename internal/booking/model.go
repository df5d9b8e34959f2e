package booking

import (
	"time"

	"eventix/internal/event"
	"eventix/internal/money"
)

const (
	MinQuantity = 1
	// MaxPerUserEvent bounds both a single booking and the sum of one
	// user's bookings for one event.
	MaxPerUserEvent = 5
)

// Booking holds quantity tickets of one event for one user. UnitPrice is the
// event price at creation time and is what resizes and cancellations settle
// against.
type Booking struct {
	ID        int          `db:"id" json:"id"`
	UserID    int          `db:"user_id" json:"user_id"`
	EventID   int          `db:"event_id" json:"event_id"`
	Quantity  int          `db:"quantity" json:"quantity"`
	UnitPrice money.Amount `db:"unit_price" json:"unit_price" swaggertype:"number"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

// Total is UnitPrice times Quantity; it fails with money.ErrTooLarge instead
// of wrapping.
func (b *Booking) Total() (money.Amount, error) {
	return b.UnitPrice.Mul(b.Quantity)
}

type EventSummary struct {
	ID              int       `db:"event_id" json:"id"`
	Name            string    `db:"event_name" json:"name"`
	Description     string    `db:"event_description" json:"description"`
	EventDate       time.Time `db:"event_date" json:"event_date"`
	Venue           string    `db:"event_venue" json:"venue"`
	AvailableTicket int       `db:"event_available_ticket" json:"available_ticket"`
}

type Holder struct {
	Name  string `db:"user_name" json:"name"`
	Email string `db:"user_email" json:"email"`
}

// BookingDetails is a booking joined with its event and holder for listings.
type BookingDetails struct {
	Booking
	Event EventSummary `db:"event" json:"event"`
	User  *Holder      `db:"holder" json:"user,omitempty"`
}

// Locked is a booking and its event, both row-locked in that order.
type Locked struct {
	Booking *Booking
	Event   *event.Event
}

// Change is the inventory effect of one engine operation.
type Change struct {
	Booking          Booking
	Event            event.Event
	PreviousQuantity int
	Deleted          bool
}

// Delta is the signed change in tickets held by the booking.
func (c *Change) Delta() int {
	if c.Deleted {
		return -c.PreviousQuantity
	}
	return c.Booking.Quantity - c.PreviousQuantity
}

type CreateBookingRequest struct {
	EventID  int `json:"event_id" binding:"required,min=1"`
	Quantity int `json:"quantity" binding:"required"`
}

type UpdateBookingRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}
