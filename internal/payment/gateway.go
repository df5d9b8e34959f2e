// Package payment wraps the external card processor used to fund wallets.
package payment

import (
	"context"

	"eventix/internal/money"
)

const (
	StatusSucceeded      = "succeeded"
	StatusProcessing     = "processing"
	StatusRequiresAction = "requires_payment_method"

	purposeTopUp = "wallet_topup"
)

// Intent is the processor-side record of a single top-up attempt.
type Intent struct {
	ID            string
	ClientSecret  string
	Amount        money.Amount
	Currency      string
	Status        string
	UserID        int
	PaymentMethod string
}

func (i *Intent) Succeeded() bool {
	return i.Status == StatusSucceeded
}

// Gateway creates and retrieves payment intents. Implementations return
// apperr.ErrNotFound for unknown intents and apperr.ErrGatewayFailure for
// anything else that goes wrong on the processor side.
type Gateway interface {
	CreateIntent(ctx context.Context, userID int, amount money.Amount) (*Intent, error)
	GetIntent(ctx context.Context, intentID string) (*Intent, error)
}
