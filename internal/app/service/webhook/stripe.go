package webhook

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v83"

	"github.com/Sid-web6306/gym-saas-billing/pkg/types"
)

// stripeEventKinds maps Stripe event type tags to normalized kinds. Events
// outside this table are acknowledged but not dispatched.
var stripeEventKinds = map[string]types.BillingEventKind{
	"checkout.session.completed":    types.EventCheckoutCompleted,
	"customer.subscription.created": types.EventSubscriptionCreated,
	"customer.subscription.updated": types.EventSubscriptionUpdated,
	"customer.subscription.deleted": types.EventSubscriptionCanceled,
	"customer.subscription.paused":  types.EventSubscriptionPaused,
	"customer.subscription.resumed": types.EventSubscriptionResumed,
	"invoice.payment_succeeded":     types.EventInvoicePaymentSucceeded,
	"invoice.payment_failed":        types.EventInvoicePaymentFailed,
	"invoice.finalized":             types.EventInvoiceFinalized,
	"customer.updated":              types.EventCustomerUpdated,
}

// normalizeStripeEvent projects a verified Stripe event onto the
// provider-neutral shape. Returns (nil, rawType, nil) for recognized-but-
// unmapped event types.
func normalizeStripeEvent(event *stripe.Event) (*types.NormalizedBillingEvent, string, error) {
	rawType := string(event.Type)
	kind, ok := stripeEventKinds[rawType]
	if !ok {
		return nil, rawType, nil
	}

	ev := &types.NormalizedBillingEvent{
		Provider:   types.BillingProviderStripe,
		Kind:       kind,
		RawType:    rawType,
		WebhookID:  event.ID,
		OccurredAt: time.Unix(event.Created, 0).UTC(),
	}

	switch kind {
	case types.EventCheckoutCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, rawType, fmt.Errorf("failed to unmarshal checkout session: %w", err)
		}
		sub := &types.SubscriptionEntity{
			Metadata:      session.Metadata,
			CustomerEmail: session.CustomerEmail,
		}
		if session.Subscription != nil {
			sub.ExternalID = session.Subscription.ID
		}
		if session.Customer != nil {
			sub.ExternalCustomerID = session.Customer.ID
		}
		if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
			sub.CustomerEmail = session.CustomerDetails.Email
		}
		ev.Subscription = sub

	case types.EventInvoicePaymentSucceeded, types.EventInvoicePaymentFailed, types.EventInvoiceFinalized:
		inv, err := normalizeStripeInvoice(event.Data.Raw)
		if err != nil {
			return nil, rawType, err
		}
		ev.Invoice = inv

	case types.EventCustomerUpdated:
		var cust stripe.Customer
		if err := json.Unmarshal(event.Data.Raw, &cust); err != nil {
			return nil, rawType, fmt.Errorf("failed to unmarshal customer: %w", err)
		}
		ev.Subscription = &types.SubscriptionEntity{
			ExternalCustomerID: cust.ID,
			CustomerEmail:      cust.Email,
		}

	default:
		sub, err := normalizeStripeSubscription(event.Data.Raw)
		if err != nil {
			return nil, rawType, err
		}
		ev.Subscription = sub
	}

	return ev, rawType, nil
}

func normalizeStripeSubscription(raw []byte) (*types.SubscriptionEntity, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, fmt.Errorf("failed to unmarshal subscription: %w", err)
	}

	out := &types.SubscriptionEntity{
		ExternalID: sub.ID,
		Status:     string(sub.Status),
		Metadata:   sub.Metadata,
		TrialStart: sub.TrialStart,
		TrialEnd:   sub.TrialEnd,
		CancelAt:   sub.CancelAt,
		CanceledAt: sub.CanceledAt,
		EndedAt:    sub.EndedAt,
	}
	if sub.Customer != nil {
		out.ExternalCustomerID = sub.Customer.ID
		out.CustomerEmail = sub.Customer.Email
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		if price := sub.Items.Data[0].Price; price != nil {
			out.ExternalPriceID = price.ID
			out.Amount = price.UnitAmount
			out.Currency = string(price.Currency)
			if price.Recurring != nil {
				out.Interval = string(price.Recurring.Interval)
			}
		}
	}

	// Period bounds live at the top level on older API versions and on the
	// subscription item on newer ones; read both from the raw JSON.
	var period struct {
		CurrentPeriodStart int64 `json:"current_period_start"`
		CurrentPeriodEnd   int64 `json:"current_period_end"`
		Items              struct {
			Data []struct {
				CurrentPeriodStart int64 `json:"current_period_start"`
				CurrentPeriodEnd   int64 `json:"current_period_end"`
			} `json:"data"`
		} `json:"items"`
	}
	if err := json.Unmarshal(raw, &period); err == nil {
		out.CurrentPeriodStart = period.CurrentPeriodStart
		out.CurrentPeriodEnd = period.CurrentPeriodEnd
		if out.CurrentPeriodEnd == 0 && len(period.Items.Data) > 0 {
			out.CurrentPeriodStart = period.Items.Data[0].CurrentPeriodStart
			out.CurrentPeriodEnd = period.Items.Data[0].CurrentPeriodEnd
		}
	}

	return out, nil
}

func normalizeStripeInvoice(raw []byte) (*types.InvoiceEntity, error) {
	var inv stripe.Invoice
	if err := json.Unmarshal(raw, &inv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal invoice: %w", err)
	}

	out := &types.InvoiceEntity{
		ExternalID:    inv.ID,
		CustomerEmail: inv.CustomerEmail,
		HostedURL:     inv.HostedInvoiceURL,
		DownloadURL:   inv.InvoicePDF,
		Amount:        inv.AmountPaid,
		Currency:      string(inv.Currency),
		Status:        string(inv.Status),
		IssuedAt:      inv.Created,
	}
	if out.Amount == 0 {
		out.Amount = inv.AmountDue
	}
	if inv.Customer != nil {
		out.ExternalCustomerID = inv.Customer.ID
	}

	// The subscription reference is an expandable field and its location has
	// moved across API versions; pull it from the raw JSON.
	var rawData map[string]any
	if err := json.Unmarshal(raw, &rawData); err == nil {
		switch v := rawData["subscription"].(type) {
		case string:
			out.ExternalSubscriptionID = v
		case map[string]any:
			if id, ok := v["id"].(string); ok {
				out.ExternalSubscriptionID = id
			}
		}
	}

	return out, nil
}
