package webhook

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sid-web6306/gym-saas-billing/pkg/types"
)

var razorpayEventKinds = map[string]types.BillingEventKind{
	"subscription.authenticated": types.EventSubscriptionCreated,
	"subscription.activated":     types.EventSubscriptionActivated,
	"subscription.charged":       types.EventSubscriptionUpdated,
	"subscription.updated":       types.EventSubscriptionUpdated,
	"subscription.cancelled":     types.EventSubscriptionCanceled,
	"subscription.paused":        types.EventSubscriptionPaused,
	"subscription.resumed":       types.EventSubscriptionResumed,
	"subscription.pending":       types.EventSubscriptionPending,
	"subscription.completed":     types.EventSubscriptionCompleted,
	"subscription.halted":        types.EventInvoicePaymentFailed,
	"invoice.paid":               types.EventInvoicePaymentSucceeded,
	"payment.failed":             types.EventInvoicePaymentFailed,
	"customer.edited":            types.EventCustomerUpdated,
}

// notesMap tolerates Razorpay's habit of sending notes as an empty array
// instead of an object, and coerces non-string values to strings.
type notesMap map[string]string

func (n *notesMap) UnmarshalJSON(data []byte) error {
	*n = notesMap{}
	var asMap map[string]any
	if err := json.Unmarshal(data, &asMap); err != nil {
		// empty notes arrive as []
		var asList []any
		if listErr := json.Unmarshal(data, &asList); listErr == nil {
			return nil
		}
		return err
	}
	for k, v := range asMap {
		switch val := v.(type) {
		case string:
			(*n)[k] = val
		case float64:
			(*n)[k] = fmt.Sprintf("%v", val)
		case bool:
			(*n)[k] = fmt.Sprintf("%v", val)
		}
	}
	return nil
}

type razorpaySubscriptionEntity struct {
	ID           string   `json:"id"`
	PlanID       string   `json:"plan_id"`
	CustomerID   string   `json:"customer_id"`
	Status       string   `json:"status"`
	CurrentStart int64    `json:"current_start"`
	CurrentEnd   int64    `json:"current_end"`
	ChargeAt     int64    `json:"charge_at"`
	StartAt      int64    `json:"start_at"`
	EndAt        int64    `json:"end_at"`
	EndedAt      int64    `json:"ended_at"`
	Notes        notesMap `json:"notes"`
}

type razorpayPaymentEntity struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Email    string `json:"email"`
	Contact  string `json:"contact"`
}

type razorpayInvoiceEntity struct {
	ID              string `json:"id"`
	SubscriptionID  string `json:"subscription_id"`
	CustomerID      string `json:"customer_id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	Status          string `json:"status"`
	Date            int64  `json:"date"`
	PaidAt          int64  `json:"paid_at"`
	ShortURL        string `json:"short_url"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
}

type razorpayEvent struct {
	Entity    string `json:"entity"`
	AccountID string `json:"account_id"`
	Event     string `json:"event"`
	CreatedAt int64  `json:"created_at"`
	Payload   struct {
		Subscription struct {
			Entity *razorpaySubscriptionEntity `json:"entity"`
		} `json:"subscription"`
		Payment struct {
			Entity *razorpayPaymentEntity `json:"entity"`
		} `json:"payment"`
		Invoice struct {
			Entity *razorpayInvoiceEntity `json:"entity"`
		} `json:"invoice"`
	} `json:"payload"`
}

// normalizeRazorpayEvent parses a verified Razorpay webhook body and projects
// it onto the provider-neutral shape. webhookID is the x-razorpay-event-id
// header value (Razorpay's delivery id).
func normalizeRazorpayEvent(body []byte, webhookID string) (*types.NormalizedBillingEvent, string, error) {
	var event razorpayEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, "", fmt.Errorf("failed to parse razorpay event: %w", err)
	}

	kind, ok := razorpayEventKinds[event.Event]
	if !ok {
		return nil, event.Event, nil
	}

	ev := &types.NormalizedBillingEvent{
		Provider:  types.BillingProviderRazorpay,
		Kind:      kind,
		RawType:   event.Event,
		WebhookID: webhookID,
	}
	if event.CreatedAt > 0 {
		ev.OccurredAt = time.Unix(event.CreatedAt, 0).UTC()
	} else {
		ev.OccurredAt = time.Now().UTC()
	}

	if rsub := event.Payload.Subscription.Entity; rsub != nil {
		sub := &types.SubscriptionEntity{
			ExternalID:         rsub.ID,
			ExternalCustomerID: rsub.CustomerID,
			ExternalPriceID:    rsub.PlanID,
			Status:             rsub.Status,
			Metadata:           rsub.Notes,
			CurrentPeriodStart: rsub.CurrentStart,
			CurrentPeriodEnd:   rsub.CurrentEnd,
			EndedAt:            rsub.EndedAt,
		}
		if rsub.Status == "cancelled" && rsub.EndedAt > 0 {
			sub.CanceledAt = rsub.EndedAt
		}
		if pay := event.Payload.Payment.Entity; pay != nil {
			sub.Amount = pay.Amount
			sub.Currency = pay.Currency
			sub.CustomerEmail = pay.Email
		}
		ev.Subscription = sub
	}

	if rinv := event.Payload.Invoice.Entity; rinv != nil {
		inv := &types.InvoiceEntity{
			ExternalID:             rinv.ID,
			ExternalSubscriptionID: rinv.SubscriptionID,
			ExternalCustomerID:     rinv.CustomerID,
			CustomerEmail:          rinv.CustomerDetails.Email,
			HostedURL:              rinv.ShortURL,
			Amount:                 rinv.Amount,
			Currency:               rinv.Currency,
			Status:                 rinv.Status,
			IssuedAt:               rinv.Date,
		}
		if inv.IssuedAt == 0 {
			inv.IssuedAt = rinv.PaidAt
		}
		if inv.CustomerEmail == "" {
			if pay := event.Payload.Payment.Entity; pay != nil {
				inv.CustomerEmail = pay.Email
			}
		}
		ev.Invoice = inv
	}

	// payment.failed arrives without an invoice entity; synthesize one from
	// the payment so the reconciler can mark the subscription past_due.
	if ev.Invoice == nil && kind == types.EventInvoicePaymentFailed {
		if pay := event.Payload.Payment.Entity; pay != nil {
			inv := &types.InvoiceEntity{
				Amount:        pay.Amount,
				Currency:      pay.Currency,
				Status:        pay.Status,
				CustomerEmail: pay.Email,
			}
			if rsub := event.Payload.Subscription.Entity; rsub != nil {
				inv.ExternalSubscriptionID = rsub.ID
				inv.ExternalCustomerID = rsub.CustomerID
			}
			ev.Invoice = inv
		}
	}

	return ev, event.Event, nil
}
