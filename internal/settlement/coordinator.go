// Package settlement couples booking inventory changes to wallet movements.
// Every operation runs in one database transaction and takes row locks in the
// order booking, event, wallets (ascending user id), so concurrent settlements
// serialize without deadlocking and a failure anywhere rolls back both sides.
package settlement

import (
	"context"
	"errors"
	"fmt"

	"eventix/internal/apperr"
	"eventix/internal/auth"
	"eventix/internal/booking"
	"eventix/internal/db"
	"eventix/internal/metrics"
	"eventix/internal/user"
	"eventix/internal/wallet"
)

const noEarningsNote = "no admin earnings left to reverse for this booking"

// Directory resolves the accounts a settlement touches besides the payer.
type Directory interface {
	ListAdminIDs(ctx context.Context) ([]int, error)
	FindByID(ctx context.Context, id int) (*user.User, error)
}

type Coordinator struct {
	tx       db.TxRunner
	engine   *booking.Engine
	ledger   *wallet.Ledger
	users    Directory
	notifier *Notifier
}

func NewCoordinator(tx db.TxRunner, engine *booking.Engine, ledger *wallet.Ledger, users Directory, notifier *Notifier) *Coordinator {
	return &Coordinator{
		tx:       tx,
		engine:   engine,
		ledger:   ledger,
		users:    users,
		notifier: notifier,
	}
}

// BookAndPay creates a booking at the event's current price and pays for it
// from the user's wallet. Revenue is split across admin accounts. If the
// wallet cannot cover the total nothing is kept: no booking, no inventory
// change, no ledger rows.
func (c *Coordinator) BookAndPay(ctx context.Context, userID, eventID, quantity int) (*Result, error) {
	admins, err := c.users.ListAdminIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}

	var (
		res Result
		ch  *booking.Change
	)
	err = c.tx.InTx(ctx, func(q db.Querier) error {
		ch, err = c.engine.CreateBooking(ctx, q, userID, eventID, quantity)
		if err != nil {
			return err
		}
		res.Booking = ch.Booking

		total, err := ch.Booking.Total()
		if err != nil {
			return err
		}
		if total < 0 {
			return fmt.Errorf("%w: booking total %s is negative", apperr.ErrInvalidAmount, total)
		}
		if total == 0 {
			return nil
		}
		if _, err := c.ledger.LockWallets(ctx, q, append([]int{userID}, admins...)...); err != nil {
			return err
		}

		r := refs{
			EventID:     ch.Event.ID,
			BookingID:   ch.Booking.ID,
			Description: ticketsFor(quantity, ch.Event.Name),
		}
		t, err := c.ledger.Debit(ctx, q, wallet.Entry{
			UserID:      userID,
			Amount:      total,
			Kind:        wallet.KindBooking,
			Description: r.Description,
			EventID:     r.EventID,
			BookingID:   r.BookingID,
		})
		if err != nil {
			return err
		}
		res.Charged = total
		res.Balance = &t.BalanceAfter

		res.Issues, err = c.creditAdmins(ctx, q, admins, total, r)
		return err
	})
	metrics.RecordSettlement("book_and_pay", outcome(err))
	if err != nil {
		return nil, err
	}

	metrics.RecordTicketDelta(ch.Delta())
	c.notifier.BookingPaid(ctx, ch, &res)
	return &res, nil
}

// ResizeAndReconcile changes a booking's quantity and settles the difference
// at the booking's unit price. Growing charges the owner before the resize;
// shrinking resizes first and then refunds the owner and takes the difference
// back from the admins holding the booking's revenue.
func (c *Coordinator) ResizeAndReconcile(ctx context.Context, bookingID, newQuantity int, requester auth.Principal) (*Result, error) {
	if err := booking.ValidateQuantity(newQuantity); err != nil {
		return nil, err
	}
	admins, err := c.users.ListAdminIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}

	var (
		res Result
		ch  *booking.Change
	)
	err = c.tx.InTx(ctx, func(q db.Querier) error {
		locked, err := c.engine.LockBooking(ctx, q, bookingID, requester)
		if err != nil {
			return err
		}
		b := locked.Booking
		owner := b.UserID
		diff := newQuantity - b.Quantity
		delta, err := b.UnitPrice.Mul(diff)
		if err != nil {
			return err
		}

		switch {
		case delta.IsPositive():
			if _, err := c.ledger.LockWallets(ctx, q, append([]int{owner}, admins...)...); err != nil {
				return err
			}
			r := refs{EventID: b.EventID, BookingID: b.ID, Description: "Additional " + ticketsFor(diff, locked.Event.Name)}
			t, err := c.ledger.Debit(ctx, q, wallet.Entry{
				UserID:      owner,
				Amount:      delta,
				Kind:        wallet.KindBooking,
				Description: r.Description,
				EventID:     r.EventID,
				BookingID:   r.BookingID,
			})
			if err != nil {
				return err
			}
			res.Charged = delta
			res.Balance = &t.BalanceAfter

			if ch, err = c.engine.Resize(ctx, q, locked, newQuantity, requester); err != nil {
				return err
			}
			res.Issues, err = c.creditAdmins(ctx, q, admins, delta, r)
			if err != nil {
				return err
			}

		case delta < 0:
			if ch, err = c.engine.Resize(ctx, q, locked, newQuantity, requester); err != nil {
				return err
			}
			refund := -delta
			shares, uncovered, err := c.lockReclaim(ctx, q, b.ID, owner, refund)
			if err != nil {
				return err
			}
			r := refs{EventID: b.EventID, BookingID: b.ID, Description: fmt.Sprintf("Refund for %s", ticketsFrom(-diff, locked.Event.Name))}
			t, err := c.ledger.Credit(ctx, q, wallet.Entry{
				UserID:      owner,
				Amount:      refund,
				Kind:        wallet.KindRefund,
				Description: r.Description,
				EventID:     r.EventID,
				BookingID:   r.BookingID,
			})
			if err != nil {
				return err
			}
			res.Refunded = refund
			res.Balance = &t.BalanceAfter

			res.Issues, err = c.takeBack(ctx, q, shares, uncovered, r, noEarningsNote)
			if err != nil {
				return err
			}

		default:
			if ch, err = c.engine.Resize(ctx, q, locked, newQuantity, requester); err != nil {
				return err
			}
		}

		res.Booking = ch.Booking
		return nil
	})
	metrics.RecordSettlement("resize_and_reconcile", outcome(err))
	if err != nil {
		return nil, err
	}

	metrics.RecordTicketDelta(ch.Delta())
	c.notifier.BookingResized(ctx, ch, &res)
	return &res, nil
}

// CancelAndRefund deletes a booking, returns its tickets to stock and refunds
// the owner the full amount paid. The admins that received the booking's
// revenue give it back best-effort, whatever the admin set is now.
func (c *Coordinator) CancelAndRefund(ctx context.Context, bookingID int, requester auth.Principal) (*Result, error) {
	var (
		res Result
		ch  *booking.Change
	)
	err := c.tx.InTx(ctx, func(q db.Querier) error {
		locked, err := c.engine.LockBooking(ctx, q, bookingID, requester)
		if err != nil {
			return err
		}
		refund, err := locked.Booking.Total()
		if err != nil {
			return err
		}

		if ch, err = c.engine.Cancel(ctx, q, locked); err != nil {
			return err
		}
		res.Booking = ch.Booking

		if !refund.IsPositive() {
			return nil
		}
		owner := ch.Booking.UserID
		shares, uncovered, err := c.lockReclaim(ctx, q, ch.Booking.ID, owner, refund)
		if err != nil {
			return err
		}
		r := refs{EventID: ch.Event.ID, BookingID: ch.Booking.ID, Description: ch.Event.Name}
		t, err := c.ledger.Credit(ctx, q, wallet.Entry{
			UserID:      owner,
			Amount:      refund,
			Kind:        wallet.KindRefund,
			Description: "Full refund for cancelled booking: " + ch.Event.Name,
			EventID:     r.EventID,
			BookingID:   r.BookingID,
		})
		if err != nil {
			return err
		}
		res.Refunded = refund
		res.Balance = &t.BalanceAfter

		res.Issues, err = c.takeBack(ctx, q, shares, uncovered, r, noEarningsNote)
		return err
	})
	metrics.RecordSettlement("cancel_and_refund", outcome(err))
	if err != nil {
		return nil, err
	}

	metrics.RecordTicketDelta(ch.Delta())
	c.notifier.BookingCancelled(ctx, ch, &res)
	return &res, nil
}

// Pay debits userID and splits the amount across admins without touching
// inventory.
func (c *Coordinator) Pay(ctx context.Context, userID int, req PayRequest) (*wallet.Wallet, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than 0", apperr.ErrInvalidAmount)
	}
	admins, err := c.users.ListAdminIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}

	desc := req.Description
	if desc == "" {
		desc = "Event booking payment"
	}
	r := refs{EventID: req.EventID, BookingID: req.BookingID, Description: desc}

	var (
		w      *wallet.Wallet
		issues []wallet.ReconciliationIssue
	)
	err = c.tx.InTx(ctx, func(q db.Querier) error {
		locked, err := c.ledger.LockWallets(ctx, q, append([]int{userID}, admins...)...)
		if err != nil {
			return err
		}
		t, err := c.ledger.Debit(ctx, q, wallet.Entry{
			UserID:      userID,
			Amount:      req.Amount,
			Kind:        wallet.KindBooking,
			Description: desc,
			EventID:     r.EventID,
			BookingID:   r.BookingID,
		})
		if err != nil {
			return err
		}
		w = locked[userID]
		w.Balance = t.BalanceAfter

		issues, err = c.creditAdmins(ctx, q, admins, req.Amount, r)
		return err
	})
	metrics.RecordSettlement("pay", outcome(err))
	if err != nil {
		return nil, err
	}

	c.notifier.WalletPaid(ctx, userID, req, issues)
	return w, nil
}

// Refund reverses the admin split of req.Amount and credits the user in full,
// even when some admin shares cannot be taken back.
func (c *Coordinator) Refund(ctx context.Context, req RefundRequest) (*RefundResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than 0", apperr.ErrInvalidAmount)
	}
	if _, err := c.users.FindByID(ctx, req.UserID); err != nil {
		return nil, err
	}
	admins, err := c.users.ListAdminIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}

	desc := req.Description
	if desc == "" {
		desc = "Booking refund"
	}
	r := refs{EventID: req.EventID, BookingID: req.BookingID, Description: desc}

	resp := &RefundResponse{}
	err = c.tx.InTx(ctx, func(q db.Querier) error {
		if _, err := c.ledger.LockWallets(ctx, q, append([]int{req.UserID}, admins...)...); err != nil {
			return err
		}
		resp.Issues, err = c.reverseAdmins(ctx, q, admins, req.Amount, r)
		if err != nil {
			return err
		}
		_, err = c.ledger.Credit(ctx, q, wallet.Entry{
			UserID:      req.UserID,
			Amount:      req.Amount,
			Kind:        wallet.KindRefund,
			Description: desc,
			EventID:     r.EventID,
			BookingID:   r.BookingID,
		})
		return err
	})
	metrics.RecordSettlement("refund", outcome(err))
	if err != nil {
		return nil, err
	}
	resp.Refunded = req.Amount

	c.notifier.WalletRefunded(ctx, req, resp.Issues)
	return resp, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperr.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, apperr.ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, apperr.ErrSoldOut):
		return "sold_out"
	case errors.Is(err, apperr.ErrNotFound):
		return "not_found"
	case apperr.IsClientError(err):
		return "rejected"
	default:
		return "error"
	}
}

func ticketsFor(n int, eventName string) string {
	return fmt.Sprintf("%s for %s", tickets(n), eventName)
}

func ticketsFrom(n int, eventName string) string {
	return fmt.Sprintf("%s from %s", tickets(n), eventName)
}

func tickets(n int) string {
	if n == 1 {
		return "1 ticket"
	}
	return fmt.Sprintf("%d tickets", n)
}
