package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"eventix/internal/apperr"
	"eventix/internal/money"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type StripeGateway struct {
	api      *client.API
	currency string
	timeout  time.Duration
}

// NewStripeGateway builds a gateway on the default Stripe backends. backends
// may be nil.
func NewStripeGateway(secretKey, currency string, timeout time.Duration, backends *stripe.Backends) *StripeGateway {
	return &StripeGateway{
		api:      client.New(secretKey, backends),
		currency: currency,
		timeout:  timeout,
	}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, userID int, amount money.Amount) (*Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(int64(amount)),
		Currency:           stripe.String(g.currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card", "promptpay"}),
	}
	params.Context = ctx
	params.AddMetadata("user_id", strconv.Itoa(userID))
	params.AddMetadata("type", purposeTopUp)

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, mapStripeError(err)
	}
	return toIntent(pi), nil
}

func (g *StripeGateway) GetIntent(ctx context.Context, intentID string) (*Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		return nil, mapStripeError(err)
	}
	return toIntent(pi), nil
}

func toIntent(pi *stripe.PaymentIntent) *Intent {
	in := &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       money.Amount(pi.Amount),
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
	}
	if pi.Metadata != nil && pi.Metadata["type"] == purposeTopUp {
		in.UserID, _ = strconv.Atoi(pi.Metadata["user_id"])
	}
	if len(pi.PaymentMethodTypes) > 0 {
		in.PaymentMethod = pi.PaymentMethodTypes[0]
	}
	return in
}

func mapStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: payment intent", apperr.ErrNotFound)
	}
	return fmt.Errorf("%w: %v", apperr.ErrGatewayFailure, err)
}
