package booking

import (
	"context"
	"fmt"

	"eventix/internal/apperr"
	"eventix/internal/auth"
	"eventix/internal/db"
	"eventix/internal/event"
)

// Engine enforces the per-user quota and event inventory. Mutating methods
// run on the caller's querier and expect to be inside a transaction; every
// check reads state under row locks and fails before anything is written.
type Engine struct {
	bookings Repository
	events   event.Repository
	db       db.Querier
}

func NewEngine(bookings Repository, events event.Repository, q db.Querier) *Engine {
	return &Engine{bookings: bookings, events: events, db: q}
}

func ValidateQuantity(quantity int) error {
	if quantity < MinQuantity || quantity > MaxPerUserEvent {
		return apperr.ErrInvalidQuantity
	}
	return nil
}

// CreateBooking takes quantity tickets of eventID for userID at the event's
// current price.
func (e *Engine) CreateBooking(ctx context.Context, q db.Querier, userID, eventID, quantity int) (*Change, error) {
	if err := ValidateQuantity(quantity); err != nil {
		return nil, err
	}

	ev, err := e.events.GetForUpdate(ctx, q, eventID)
	if err != nil {
		return nil, err
	}

	held, err := e.bookings.SumQuantity(ctx, q, userID, eventID)
	if err != nil {
		return nil, err
	}
	if held+quantity > MaxPerUserEvent {
		return nil, apperr.ErrQuotaExceeded
	}
	if quantity > ev.AvailableTicket {
		return nil, apperr.ErrSoldOut
	}
	if ev.Price < 0 {
		return nil, fmt.Errorf("%w: event %d has a negative price", apperr.ErrInvalidAmount, ev.ID)
	}
	if _, err := ev.Price.Mul(quantity); err != nil {
		return nil, err
	}

	b := &Booking{
		UserID:    userID,
		EventID:   eventID,
		Quantity:  quantity,
		UnitPrice: ev.Price,
	}
	if err := e.bookings.Create(ctx, q, b); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	ev.AvailableTicket -= quantity
	if err := e.events.UpdateAvailable(ctx, q, ev.ID, ev.AvailableTicket); err != nil {
		return nil, err
	}

	return &Change{Booking: *b, Event: *ev}, nil
}

// LockBooking locks the booking and then its event. A booking the requester
// may not access is reported as not found.
func (e *Engine) LockBooking(ctx context.Context, q db.Querier, bookingID int, requester auth.Principal) (*Locked, error) {
	b, err := e.bookings.GetForUpdate(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	if !requester.CanAccess(b.UserID) {
		return nil, ErrBookingNotFound
	}

	ev, err := e.events.GetForUpdate(ctx, q, b.EventID)
	if err != nil {
		return nil, err
	}
	return &Locked{Booking: b, Event: ev}, nil
}

func (e *Engine) ResizeBooking(ctx context.Context, q db.Querier, bookingID, newQuantity int, requester auth.Principal) (*Change, error) {
	if err := ValidateQuantity(newQuantity); err != nil {
		return nil, err
	}
	l, err := e.LockBooking(ctx, q, bookingID, requester)
	if err != nil {
		return nil, err
	}
	return e.Resize(ctx, q, l, newQuantity, requester)
}

// Resize applies a new quantity to an already locked booking. The old
// quantity is returned to stock before checking availability. Admins are not
// bound by the per-user quota.
func (e *Engine) Resize(ctx context.Context, q db.Querier, l *Locked, newQuantity int, requester auth.Principal) (*Change, error) {
	if err := ValidateQuantity(newQuantity); err != nil {
		return nil, err
	}
	b, ev := l.Booking, l.Event
	old := b.Quantity

	if !requester.IsAdmin() {
		held, err := e.bookings.SumQuantity(ctx, q, b.UserID, b.EventID)
		if err != nil {
			return nil, err
		}
		if held-old+newQuantity > MaxPerUserEvent {
			return nil, apperr.ErrQuotaExceeded
		}
	}
	if ev.AvailableTicket+old < newQuantity {
		return nil, apperr.ErrSoldOut
	}

	if newQuantity != old {
		if err := e.bookings.UpdateQuantity(ctx, q, b.ID, newQuantity); err != nil {
			return nil, err
		}
		ev.AvailableTicket += old - newQuantity
		if err := e.events.UpdateAvailable(ctx, q, ev.ID, ev.AvailableTicket); err != nil {
			return nil, err
		}
		b.Quantity = newQuantity
	}

	return &Change{Booking: *b, Event: *ev, PreviousQuantity: old}, nil
}

func (e *Engine) CancelBooking(ctx context.Context, q db.Querier, bookingID int, requester auth.Principal) (*Change, error) {
	l, err := e.LockBooking(ctx, q, bookingID, requester)
	if err != nil {
		return nil, err
	}
	return e.Cancel(ctx, q, l)
}

// Cancel returns the booking's tickets to stock and deletes it.
func (e *Engine) Cancel(ctx context.Context, q db.Querier, l *Locked) (*Change, error) {
	b, ev := l.Booking, l.Event

	ev.AvailableTicket += b.Quantity
	if err := e.events.UpdateAvailable(ctx, q, ev.ID, ev.AvailableTicket); err != nil {
		return nil, err
	}
	if err := e.bookings.Delete(ctx, q, b.ID); err != nil {
		return nil, err
	}

	return &Change{Booking: *b, Event: *ev, PreviousQuantity: b.Quantity, Deleted: true}, nil
}

func (e *Engine) GetBooking(ctx context.Context, bookingID int, requester auth.Principal) (*BookingDetails, error) {
	d, err := e.bookings.GetDetails(ctx, e.db, bookingID)
	if err != nil {
		return nil, err
	}
	if !requester.CanAccess(d.UserID) {
		return nil, ErrBookingNotFound
	}
	if !requester.IsAdmin() {
		d.User = nil
	}
	return d, nil
}

// ListBookings returns every booking to admins and only their own to members,
// newest first.
func (e *Engine) ListBookings(ctx context.Context, requester auth.Principal) ([]BookingDetails, error) {
	userID := requester.UserID
	if requester.IsAdmin() {
		userID = 0
	}
	list, err := e.bookings.ListDetails(ctx, e.db, userID)
	if err != nil {
		return nil, err
	}
	if !requester.IsAdmin() {
		for i := range list {
			list[i].User = nil
		}
	}
	return list, nil
}
