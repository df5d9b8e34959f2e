package settlement

import (
	"context"
	"time"

	"eventix/internal/booking"
	"eventix/internal/logger"
	"eventix/internal/metrics"
	"eventix/internal/money"
	"eventix/internal/queue"
	"eventix/internal/wallet"
)

type Mailer interface {
	SendBookingConfirmation(ctx context.Context, to, name, eventName, venue string, when time.Time, quantity int, total money.Amount) error
	SendBookingUpdated(ctx context.Context, to, name, eventName string, from, quantity int, delta money.Amount) error
	SendCancellation(ctx context.Context, to, name, eventName string, quantity int, refund money.Amount) error
	SendTopUpReceipt(ctx context.Context, to, name string, amount, balance money.Amount) error
}

// Notifier fans committed settlements out to the event bus and the email
// queue. It runs after commit and never fails the operation; errors are only
// logged. A nil Notifier or nil fields are valid and skip that channel.
type Notifier struct {
	publisher queue.Publisher
	mailer    Mailer
	users     Directory
}

func NewNotifier(publisher queue.Publisher, mailer Mailer, users Directory) *Notifier {
	return &Notifier{publisher: publisher, mailer: mailer, users: users}
}

func (n *Notifier) BookingPaid(ctx context.Context, ch *booking.Change, res *Result) {
	if n == nil {
		return
	}
	n.publish(ctx, queue.RoutingBookingPaid, bookingEvent(ch, res))
	n.issues(ctx, res.Issues)

	n.mail(ctx, ch.Booking.UserID, "booking confirmation", func(to, name string) error {
		return n.mailer.SendBookingConfirmation(ctx, to, name, ch.Event.Name, ch.Event.Venue, ch.Event.EventDate, ch.Booking.Quantity, res.Charged)
	})
}

func (n *Notifier) BookingResized(ctx context.Context, ch *booking.Change, res *Result) {
	if n == nil {
		return
	}
	n.publish(ctx, queue.RoutingBookingResized, bookingEvent(ch, res))
	n.issues(ctx, res.Issues)

	if ch.Delta() == 0 {
		return
	}
	n.mail(ctx, ch.Booking.UserID, "booking update", func(to, name string) error {
		return n.mailer.SendBookingUpdated(ctx, to, name, ch.Event.Name, ch.PreviousQuantity, ch.Booking.Quantity, res.Charged-res.Refunded)
	})
}

func (n *Notifier) BookingCancelled(ctx context.Context, ch *booking.Change, res *Result) {
	if n == nil {
		return
	}
	n.publish(ctx, queue.RoutingBookingCancelled, bookingEvent(ch, res))
	n.issues(ctx, res.Issues)

	n.mail(ctx, ch.Booking.UserID, "cancellation", func(to, name string) error {
		return n.mailer.SendCancellation(ctx, to, name, ch.Event.Name, ch.PreviousQuantity, res.Refunded)
	})
}

func (n *Notifier) WalletPaid(ctx context.Context, userID int, req PayRequest, issues []wallet.ReconciliationIssue) {
	if n == nil {
		return
	}
	n.publish(ctx, queue.RoutingWalletPaid, WalletEvent{UserID: userID, Amount: req.Amount, EventID: req.EventID, BookingID: req.BookingID})
	n.issues(ctx, issues)
}

func (n *Notifier) WalletRefunded(ctx context.Context, req RefundRequest, issues []wallet.ReconciliationIssue) {
	if n == nil {
		return
	}
	n.publish(ctx, queue.RoutingWalletRefunded, WalletEvent{UserID: req.UserID, Amount: req.Amount, EventID: req.EventID, BookingID: req.BookingID})
	n.issues(ctx, issues)
}

func (n *Notifier) TopUpConfirmed(ctx context.Context, userID int, amount money.Amount, w *wallet.Wallet) {
	if n == nil {
		return
	}
	n.publish(ctx, queue.RoutingTopUpConfirmed, WalletEvent{UserID: userID, Amount: amount})
	n.mail(ctx, userID, "top-up receipt", func(to, name string) error {
		return n.mailer.SendTopUpReceipt(ctx, to, name, amount, w.Balance)
	})
}

func (n *Notifier) issues(ctx context.Context, issues []wallet.ReconciliationIssue) {
	for _, issue := range issues {
		metrics.RecordReconciliationIssue(issue.Kind)
		n.publish(ctx, queue.RoutingReconciliationIssue, issue)
	}
}

func (n *Notifier) publish(ctx context.Context, routingKey string, payload any) {
	if n.publisher == nil {
		return
	}
	if err := n.publisher.Publish(ctx, routingKey, payload); err != nil {
		logger.Warn("settlement event not published", "routing_key", routingKey, "error", err)
	}
}

func (n *Notifier) mail(ctx context.Context, userID int, what string, send func(to, name string) error) {
	if n.mailer == nil || n.users == nil {
		return
	}
	u, err := n.users.FindByID(ctx, userID)
	if err != nil {
		logger.Warn("email recipient lookup failed", "user_id", userID, "email", what, "error", err)
		return
	}
	if err := send(u.Email, u.Name); err != nil {
		logger.Warn("email not queued", "user_id", userID, "email", what, "error", err)
	}
}

func bookingEvent(ch *booking.Change, res *Result) BookingEvent {
	return BookingEvent{
		BookingID:        ch.Booking.ID,
		UserID:           ch.Booking.UserID,
		EventID:          ch.Event.ID,
		Quantity:         ch.Booking.Quantity,
		PreviousQuantity: ch.PreviousQuantity,
		UnitPrice:        ch.Booking.UnitPrice,
		Charged:          res.Charged,
		Refunded:         res.Refunded,
		AvailableTicket:  ch.Event.AvailableTicket,
	}
}
