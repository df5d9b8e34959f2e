package wallet

import (
	"time"

	"eventix/internal/money"
)

// Kind classifies a wallet transaction.
type Kind string

const (
	KindTopUp        Kind = "topup"
	KindBooking      Kind = "booking"
	KindRefund       Kind = "refund"
	KindAdminEarning Kind = "admin_earning"
)

// Wallet holds a user's custodial balance in minor units. Balance always
// equals the sum of the wallet's transaction amounts.
type Wallet struct {
	ID        int          `db:"id" json:"id"`
	UserID    int          `db:"user_id" json:"user_id"`
	Balance   money.Amount `db:"balance" json:"balance" swaggertype:"number" example:"1000.00"`
	Currency  string       `db:"currency" json:"currency"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

// Transaction is an append-only ledger row. Amount is signed: credits are
// positive and debits negative.
type Transaction struct {
	ID               int          `db:"id" json:"id"`
	WalletID         int          `db:"wallet_id" json:"wallet_id"`
	UserID           int          `db:"user_id" json:"user_id"`
	Kind             Kind         `db:"kind" json:"type"`
	Amount           money.Amount `db:"amount" json:"amount" swaggertype:"number"`
	BalanceAfter     money.Amount `db:"balance_after" json:"balance_after" swaggertype:"number"`
	Description      string       `db:"description" json:"description"`
	RelatedEventID   *int         `db:"related_event_id" json:"related_event_id,omitempty"`
	RelatedBookingID *int         `db:"related_booking_id" json:"related_booking_id,omitempty"`
	PaymentIntentID  *string      `db:"payment_intent_id" json:"payment_intent_id,omitempty"`
	CreatedAt        time.Time    `db:"created_at" json:"created_at"`
}

// Entry describes a single credit or debit. Amount is always positive; the
// ledger applies the sign. Zero EventID and BookingID mean unrelated.
type Entry struct {
	UserID          int
	Amount          money.Amount
	Kind            Kind
	Description     string
	EventID         int
	BookingID       int
	PaymentIntentID string
}

// Holding is what one account still holds from a booking's settlement rows.
type Holding struct {
	UserID int          `db:"user_id"`
	Amount money.Amount `db:"amount"`
}

// ReconciliationIssue records a settlement step that could not be applied in
// full, e.g. an admin wallet too low to return its share of a refund.
type ReconciliationIssue struct {
	ID               int          `db:"id" json:"id"`
	Kind             string       `db:"kind" json:"kind"`
	AdminUserID      *int         `db:"admin_user_id" json:"admin_user_id,omitempty"`
	ExpectedAmount   money.Amount `db:"expected_amount" json:"expected_amount" swaggertype:"number"`
	AppliedAmount    money.Amount `db:"applied_amount" json:"applied_amount" swaggertype:"number"`
	RelatedEventID   *int         `db:"related_event_id" json:"related_event_id,omitempty"`
	RelatedBookingID *int         `db:"related_booking_id" json:"related_booking_id,omitempty"`
	Note             string       `db:"note" json:"note"`
	CreatedAt        time.Time    `db:"created_at" json:"created_at"`
}

const (
	IssueAdminUnderfunded = "admin_underfunded"
	IssueNoAdminAccounts  = "no_admin_accounts"
)

type TopUpRequest struct {
	Amount money.Amount `json:"amount" swaggertype:"number" example:"500.00"`
}

type TopUpIntentResponse struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
}

type ConfirmTopUpRequest struct {
	PaymentIntentID string `json:"payment_intent_id" binding:"required"`
}

type ConfirmTopUpResponse struct {
	Wallet         *Wallet      `json:"wallet"`
	Amount         money.Amount `json:"amount" swaggertype:"number"`
	AlreadyApplied bool         `json:"already_applied"`
}

func optionalID(id int) *int {
	if id == 0 {
		return nil
	}
	return &id
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
