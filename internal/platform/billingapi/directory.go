package billingapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	cfgpkg "github.com/Sid-web6306/gym-saas-billing/pkg/config"
	"github.com/Sid-web6306/gym-saas-billing/pkg/types"
)

// CustomerDirectory resolves a provider customer id to the customer's billing
// email. Used only as the last step of the user-resolution fallback chain, so
// a provider that is not configured simply fails the lookup.
type CustomerDirectory interface {
	CustomerEmail(ctx context.Context, provider types.BillingProvider, customerID string) (string, error)
}

type directory struct {
	stripe   *stripeCustomerClient
	razorpay *razorpayCustomerClient
	log      *zap.SugaredLogger
}

func NewDirectory(cfg *cfgpkg.Config, log *zap.SugaredLogger) CustomerDirectory {
	d := &directory{log: log}
	if cfg.Stripe.APIKey != "" {
		d.stripe = newStripeCustomerClient(cfg.Stripe.APIKey)
	}
	if cfg.Razorpay.KeyID != "" && cfg.Razorpay.KeySecret != "" {
		d.razorpay = newRazorpayCustomerClient(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, &http.Client{Timeout: 10 * time.Second})
	}
	return d
}

func (d *directory) CustomerEmail(ctx context.Context, provider types.BillingProvider, customerID string) (string, error) {
	if customerID == "" {
		return "", fmt.Errorf("empty customer id")
	}
	switch provider {
	case types.BillingProviderStripe:
		if d.stripe == nil {
			return "", fmt.Errorf("stripe API not configured")
		}
		return d.stripe.CustomerEmail(ctx, customerID)
	case types.BillingProviderRazorpay:
		if d.razorpay == nil {
			return "", fmt.Errorf("razorpay API not configured")
		}
		return d.razorpay.CustomerEmail(ctx, customerID)
	}
	return "", fmt.Errorf("unsupported provider: %s", provider)
}

var Module = fx.Options(
	fx.Provide(NewDirectory),
)
