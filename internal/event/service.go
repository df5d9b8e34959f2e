package event

import (
	"context"
	"fmt"
	"time"

	"eventix/internal/apperr"
	"eventix/internal/db"
)

var (
	ErrEventInPast      = fmt.Errorf("%w: event date cannot be in the past", apperr.ErrInvalidInput)
	ErrNegativePrice    = fmt.Errorf("%w: price cannot be negative", apperr.ErrInvalidAmount)
	ErrCapacityTooSmall = fmt.Errorf("%w: capacity is below tickets already sold", apperr.ErrConflict)
	ErrEventHasBookings = fmt.Errorf("%w: event has active bookings", apperr.ErrConflict)
)

type Service interface {
	CreateEvent(ctx context.Context, req CreateEventRequest) (*Event, error)
	ListEvents(ctx context.Context) ([]Event, error)
	GetEvent(ctx context.Context, id int) (*Event, error)
	UpdateEvent(ctx context.Context, id int, req UpdateEventRequest) (*Event, error)
	DeleteEvent(ctx context.Context, id int) error
}

type service struct {
	repo Repository
	db   db.Querier
	tx   db.TxRunner
	now  func() time.Time
}

func NewService(repo Repository, q db.Querier, tx db.TxRunner) Service {
	return &service{
		repo: repo,
		db:   q,
		tx:   tx,
		now:  time.Now,
	}
}

// notInPast compares calendar days in the server's zone so an event earlier
// today is still valid.
func (s *service) notInPast(t time.Time) error {
	now := s.now()
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	if t.Before(today) {
		return ErrEventInPast
	}
	return nil
}

func (s *service) CreateEvent(ctx context.Context, req CreateEventRequest) (*Event, error) {
	if err := s.notInPast(req.EventDate); err != nil {
		return nil, err
	}
	if req.Price < 0 {
		return nil, ErrNegativePrice
	}

	e := &Event{
		Name:            req.Name,
		Description:     req.Description,
		EventDate:       req.EventDate,
		Venue:           req.Venue,
		Organizer:       req.Organizer,
		Capacity:        req.AvailableTicket,
		AvailableTicket: req.AvailableTicket,
		Price:           req.Price,
		PosterPicture:   req.PosterPicture,
	}
	if err := s.repo.Create(ctx, s.db, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *service) ListEvents(ctx context.Context) ([]Event, error) {
	return s.repo.List(ctx, s.db)
}

func (s *service) GetEvent(ctx context.Context, id int) (*Event, error) {
	return s.repo.GetByID(ctx, s.db, id)
}

// UpdateEvent locks the event so a capacity change cannot race a booking.
func (s *service) UpdateEvent(ctx context.Context, id int, req UpdateEventRequest) (*Event, error) {
	if req.EventDate != nil {
		if err := s.notInPast(*req.EventDate); err != nil {
			return nil, err
		}
	}
	if req.Price != nil && *req.Price < 0 {
		return nil, ErrNegativePrice
	}

	var updated *Event
	err := s.tx.InTx(ctx, func(q db.Querier) error {
		e, err := s.repo.GetForUpdate(ctx, q, id)
		if err != nil {
			return err
		}

		if req.Capacity != nil {
			sold := e.Sold()
			if *req.Capacity < sold {
				return ErrCapacityTooSmall
			}
			e.Capacity = *req.Capacity
			e.AvailableTicket = *req.Capacity - sold
		}
		if req.Name != nil {
			e.Name = *req.Name
		}
		if req.Description != nil {
			e.Description = *req.Description
		}
		if req.EventDate != nil {
			e.EventDate = *req.EventDate
		}
		if req.Venue != nil {
			e.Venue = *req.Venue
		}
		if req.Organizer != nil {
			e.Organizer = *req.Organizer
		}
		if req.Price != nil {
			e.Price = *req.Price
		}
		if req.PosterPicture != nil {
			e.PosterPicture = *req.PosterPicture
		}

		if err := s.repo.Update(ctx, q, e); err != nil {
			return err
		}
		updated = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteEvent refuses while bookings exist; cancelling them first refunds
// the holders.
func (s *service) DeleteEvent(ctx context.Context, id int) error {
	return s.tx.InTx(ctx, func(q db.Querier) error {
		if _, err := s.repo.GetForUpdate(ctx, q, id); err != nil {
			return err
		}
		has, err := s.repo.HasBookings(ctx, q, id)
		if err != nil {
			return err
		}
		if has {
			return ErrEventHasBookings
		}
		return s.repo.Delete(ctx, q, id)
	})
}
