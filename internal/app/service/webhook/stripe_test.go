package webhook

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v83"

	"github.com/Sid-web6306/gym-saas-billing/pkg/types"
)

func stripeEvent(eventType string, raw string) *stripe.Event {
	return &stripe.Event{
		ID:      "evt_test_1",
		Type:    stripe.EventType(eventType),
		Created: 1756623600,
		Data:    &stripe.EventData{Raw: json.RawMessage(raw)},
	}
}

func TestNormalizeStripeEvent_SubscriptionCreated(t *testing.T) {
	raw := `{
		"id": "sub_ST001",
		"object": "subscription",
		"status": "trialing",
		"customer": {"id": "cus_ST001", "email": "owner@gym.example"},
		"metadata": {"userId": "user-42", "gymId": "gym-7"},
		"trial_start": 1756623600,
		"trial_end": 1757833200,
		"items": {
			"data": [{
				"current_period_start": 1756623600,
				"current_period_end": 1759215600,
				"price": {
					"id": "price_PRO_MONTHLY",
					"unit_amount": 4900,
					"currency": "usd",
					"recurring": {"interval": "month"}
				}
			}]
		}
	}`

	ev, rawType, err := normalizeStripeEvent(stripeEvent("customer.subscription.created", raw))
	require.NoError(t, err)
	require.Equal(t, "customer.subscription.created", rawType)
	require.Equal(t, types.EventSubscriptionCreated, ev.Kind)
	require.Equal(t, types.BillingProviderStripe, ev.Provider)
	require.Equal(t, "evt_test_1", ev.WebhookID)

	sub := ev.Subscription
	require.NotNil(t, sub)
	require.Equal(t, "sub_ST001", sub.ExternalID)
	require.Equal(t, "cus_ST001", sub.ExternalCustomerID)
	require.Equal(t, "owner@gym.example", sub.CustomerEmail)
	require.Equal(t, "price_PRO_MONTHLY", sub.ExternalPriceID)
	require.Equal(t, "trialing", sub.Status)
	require.Equal(t, "month", sub.Interval)
	require.Equal(t, int64(4900), sub.Amount)
	require.Equal(t, "usd", sub.Currency)
	require.Equal(t, "user-42", sub.Metadata["userId"])
	// period bounds live on the item for current API versions
	require.Equal(t, int64(1756623600), sub.CurrentPeriodStart)
	require.Equal(t, int64(1759215600), sub.CurrentPeriodEnd)
	require.Equal(t, int64(1757833200), sub.TrialEnd)
}

func TestNormalizeStripeEvent_TopLevelPeriodBounds(t *testing.T) {
	// older API versions carry current_period_* on the subscription itself
	raw := `{
		"id": "sub_ST002",
		"object": "subscription",
		"status": "active",
		"current_period_start": 1756623600,
		"current_period_end": 1759215600,
		"items": {"data": [{"price": {"id": "price_X", "unit_amount": 4900, "currency": "usd"}}]}
	}`

	ev, _, err := normalizeStripeEvent(stripeEvent("customer.subscription.updated", raw))
	require.NoError(t, err)
	require.Equal(t, int64(1756623600), ev.Subscription.CurrentPeriodStart)
	require.Equal(t, int64(1759215600), ev.Subscription.CurrentPeriodEnd)
}

func TestNormalizeStripeEvent_UnknownType(t *testing.T) {
	ev, rawType, err := normalizeStripeEvent(stripeEvent("charge.refunded", `{}`))
	require.NoError(t, err)
	require.Nil(t, ev)
	require.Equal(t, "charge.refunded", rawType)
}

func TestNormalizeStripeEvent_InvoicePaymentSucceeded(t *testing.T) {
	raw := `{
		"id": "in_ST001",
		"object": "invoice",
		"status": "paid",
		"customer": {"id": "cus_ST001"},
		"customer_email": "owner@gym.example",
		"subscription": "sub_ST001",
		"hosted_invoice_url": "https://invoice.stripe.com/i/abc",
		"invoice_pdf": "https://pay.stripe.com/invoice/abc/pdf",
		"amount_paid": 4900,
		"currency": "usd",
		"created": 1756623600
	}`

	ev, _, err := normalizeStripeEvent(stripeEvent("invoice.payment_succeeded", raw))
	require.NoError(t, err)
	require.Equal(t, types.EventInvoicePaymentSucceeded, ev.Kind)

	inv := ev.Invoice
	require.NotNil(t, inv)
	require.Equal(t, "in_ST001", inv.ExternalID)
	require.Equal(t, "sub_ST001", inv.ExternalSubscriptionID)
	require.Equal(t, "cus_ST001", inv.ExternalCustomerID)
	require.Equal(t, "https://invoice.stripe.com/i/abc", inv.HostedURL)
	require.Equal(t, "https://pay.stripe.com/invoice/abc/pdf", inv.DownloadURL)
	require.Equal(t, int64(4900), inv.Amount)
}

func TestNormalizeStripeEvent_InvoiceSubscriptionAsObject(t *testing.T) {
	raw := `{
		"id": "in_ST002",
		"object": "invoice",
		"subscription": {"id": "sub_ST002"},
		"amount_paid": 4900,
		"currency": "usd"
	}`

	ev, _, err := normalizeStripeEvent(stripeEvent("invoice.payment_failed", raw))
	require.NoError(t, err)
	require.Equal(t, "sub_ST002", ev.Invoice.ExternalSubscriptionID)
}

func TestNormalizeStripeEvent_CheckoutCompleted(t *testing.T) {
	raw := `{
		"id": "cs_ST001",
		"object": "checkout.session",
		"customer": {"id": "cus_ST001"},
		"customer_details": {"email": "owner@gym.example"},
		"subscription": {"id": "sub_ST001"},
		"metadata": {"userId": "user-42"}
	}`

	ev, _, err := normalizeStripeEvent(stripeEvent("checkout.session.completed", raw))
	require.NoError(t, err)
	require.Equal(t, types.EventCheckoutCompleted, ev.Kind)
	require.Equal(t, "sub_ST001", ev.Subscription.ExternalID)
	require.Equal(t, "owner@gym.example", ev.Subscription.CustomerEmail)
	require.Equal(t, "user-42", ev.Subscription.Metadata["userId"])
}
