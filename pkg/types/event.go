package types

import "time"

// BillingEventKind is the provider-agnostic tag of a normalized webhook event.
type BillingEventKind string

const (
	EventCheckoutCompleted       BillingEventKind = "checkout_completed"
	EventSubscriptionCreated     BillingEventKind = "subscription_created"
	EventSubscriptionActivated   BillingEventKind = "subscription_activated"
	EventSubscriptionUpdated     BillingEventKind = "subscription_updated"
	EventSubscriptionCanceled    BillingEventKind = "subscription_canceled"
	EventSubscriptionPaused      BillingEventKind = "subscription_paused"
	EventSubscriptionResumed     BillingEventKind = "subscription_resumed"
	EventSubscriptionPending     BillingEventKind = "subscription_pending"
	EventSubscriptionCompleted   BillingEventKind = "subscription_completed"
	EventInvoicePaymentSucceeded BillingEventKind = "invoice_payment_succeeded"
	EventInvoicePaymentFailed    BillingEventKind = "invoice_payment_failed"
	EventInvoiceFinalized        BillingEventKind = "invoice_finalized"
	EventCustomerUpdated         BillingEventKind = "customer_updated"
)

// SubscriptionEntity is the provider-shaped subscription carried by a webhook
// event, projected into provider-neutral fields. All *At fields are Unix epoch
// seconds as delivered by the provider; zero means absent.
type SubscriptionEntity struct {
	ExternalID         string            `json:"external_id"`
	ExternalCustomerID string            `json:"external_customer_id"`
	ExternalPriceID    string            `json:"external_price_id"`
	Status             string            `json:"status"`
	Interval           string            `json:"interval"`
	Amount             int64             `json:"amount"`
	Currency           string            `json:"currency"`
	CustomerEmail      string            `json:"customer_email"`
	Metadata           map[string]string `json:"metadata"`
	CurrentPeriodStart int64             `json:"current_period_start"`
	CurrentPeriodEnd   int64             `json:"current_period_end"`
	TrialStart         int64             `json:"trial_start"`
	TrialEnd           int64             `json:"trial_end"`
	CancelAt           int64             `json:"cancel_at"`
	CanceledAt         int64             `json:"canceled_at"`
	EndedAt            int64             `json:"ended_at"`
}

// InvoiceEntity is the provider-shaped invoice carried by invoice events.
type InvoiceEntity struct {
	ExternalID             string `json:"external_id"`
	ExternalSubscriptionID string `json:"external_subscription_id"`
	ExternalCustomerID     string `json:"external_customer_id"`
	CustomerEmail          string `json:"customer_email"`
	HostedURL              string `json:"hosted_url"`
	DownloadURL            string `json:"download_url"`
	Amount                 int64  `json:"amount"`
	Currency               string `json:"currency"`
	Status                 string `json:"status"`
	IssuedAt               int64  `json:"issued_at"`
}

// NormalizedBillingEvent is the single event shape the reconciler consumes.
// Per-provider webhook adapters produce it from verified payloads so the
// reconciliation protocol exists exactly once.
type NormalizedBillingEvent struct {
	Provider     BillingProvider
	Kind         BillingEventKind
	RawType      string
	WebhookID    string
	OccurredAt   time.Time
	Subscription *SubscriptionEntity
	Invoice      *InvoiceEntity
}

// EpochTime converts provider epoch seconds to a UTC timestamp pointer,
// nil when the provider omitted the field.
func EpochTime(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
