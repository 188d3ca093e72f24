package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sid-web6306/gym-saas-billing/pkg/types"
)

func TestWebhookSecret(t *testing.T) {
	cfg := &Config{
		Stripe:   StripeConfig{WebhookSecret: "whsec_stripe"},
		Razorpay: RazorpayConfig{WebhookSecret: "whsec_rzp"},
	}

	s, err := cfg.WebhookSecret(types.BillingProviderStripe)
	require.NoError(t, err)
	require.Equal(t, "whsec_stripe", s)

	s, err = cfg.WebhookSecret(types.BillingProviderRazorpay)
	require.NoError(t, err)
	require.Equal(t, "whsec_rzp", s)
}

func TestWebhookSecret_MissingIsError(t *testing.T) {
	cfg := &Config{}
	_, err := cfg.WebhookSecret(types.BillingProviderStripe)
	require.Error(t, err)

	_, err = cfg.WebhookSecret(types.BillingProvider("paypal"))
	require.Error(t, err)
}
