package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("PAYMENT_TIMEOUT", "")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("PAYMENT_GATEWAY", "")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, GatewayStripe, cfg.PaymentGateway)
	assert.Equal(t, 10*time.Second, cfg.PaymentTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PAYMENT_GATEWAY", "Sandbox")
	t.Setenv("STRIPE_SECRET_KEY", "")
	t.Setenv("PAYMENT_CURRENCY", "USD")
	t.Setenv("PAYMENT_TIMEOUT", "3s")
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://eventix.app")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, GatewaySandbox, cfg.PaymentGateway)
	assert.Equal(t, "usd", cfg.Currency)
	assert.Equal(t, 3*time.Second, cfg.PaymentTimeout)
	assert.Equal(t, 5, cfg.RateLimitBurst)
	assert.Equal(t, []string{"http://localhost:3000", "https://eventix.app"}, cfg.CORSOrigins)
}

func TestLoad_PaymentGateway(t *testing.T) {
	tests := []struct {
		name        string
		gateway     string
		key         string
		expectedErr error
	}{
		{name: "stripe with key", gateway: "stripe", key: "sk_test_123"},
		{name: "stripe by default without key", gateway: "", expectedErr: ErrStripeKeyMissing},
		{name: "stripe without key", gateway: "stripe", expectedErr: ErrStripeKeyMissing},
		{name: "sandbox needs no key", gateway: "sandbox"},
		{name: "unknown gateway", gateway: "paypal", key: "sk_test_123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PAYMENT_GATEWAY", tt.gateway)
			t.Setenv("STRIPE_SECRET_KEY", tt.key)

			cfg, err := Load()
			switch {
			case tt.expectedErr != nil:
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, cfg)
			case tt.gateway == "paypal":
				assert.ErrorContains(t, err, `unknown PAYMENT_GATEWAY "paypal"`)
			default:
				require.NoError(t, err)
			}
		})
	}
}
