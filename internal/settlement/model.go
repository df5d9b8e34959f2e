package settlement

import (
	"eventix/internal/booking"
	"eventix/internal/money"
	"eventix/internal/wallet"
)

// Result is what a settlement operation did to inventory and money.
type Result struct {
	Booking  booking.Booking              `json:"booking"`
	Charged  money.Amount                 `json:"charged" swaggertype:"number"`
	Refunded money.Amount                 `json:"refunded" swaggertype:"number"`
	Balance  *money.Amount                `json:"wallet_balance,omitempty" swaggertype:"number"`
	Issues   []wallet.ReconciliationIssue `json:"reconciliation_issues,omitempty"`
}

// PayRequest is a ledger-only booking payment: the amount is debited from the
// caller and split across admin accounts.
type PayRequest struct {
	Amount      money.Amount `json:"amount" swaggertype:"number" example:"300.00"`
	EventID     int          `json:"event_id" binding:"omitempty,min=1"`
	BookingID   int          `json:"booking_id" binding:"omitempty,min=1"`
	Description string       `json:"description" binding:"max=500"`
}

// RefundRequest credits UserID and reverses the admin split on a best-effort
// basis.
type RefundRequest struct {
	Amount      money.Amount `json:"amount" swaggertype:"number" example:"300.00"`
	UserID      int          `json:"user_id" binding:"required,min=1"`
	EventID     int          `json:"event_id" binding:"omitempty,min=1"`
	BookingID   int          `json:"booking_id" binding:"omitempty,min=1"`
	Description string       `json:"description" binding:"max=500"`
}

type RefundResponse struct {
	Refunded money.Amount                 `json:"refunded" swaggertype:"number"`
	Issues   []wallet.ReconciliationIssue `json:"reconciliation_issues,omitempty"`
}

// BookingEvent is the payload published for booking.* routing keys.
type BookingEvent struct {
	BookingID        int          `json:"booking_id"`
	UserID           int          `json:"user_id"`
	EventID          int          `json:"event_id"`
	Quantity         int          `json:"quantity"`
	PreviousQuantity int          `json:"previous_quantity"`
	UnitPrice        money.Amount `json:"unit_price"`
	Charged          money.Amount `json:"charged"`
	Refunded         money.Amount `json:"refunded"`
	AvailableTicket  int          `json:"available_ticket"`
}

type WalletEvent struct {
	UserID    int          `json:"user_id"`
	Amount    money.Amount `json:"amount"`
	EventID   int          `json:"event_id,omitempty"`
	BookingID int          `json:"booking_id,omitempty"`
}
