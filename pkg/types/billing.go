package types

type BillingProvider string

const (
	BillingProviderStripe   BillingProvider = "stripe"
	BillingProviderRazorpay BillingProvider = "razorpay"
)

type SubscriptionStatus string

const (
	SubscriptionStatusTrialing  SubscriptionStatus = "trialing"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusPastDue   SubscriptionStatus = "past_due"
	SubscriptionStatusPaused    SubscriptionStatus = "paused"
	SubscriptionStatusCanceled  SubscriptionStatus = "canceled"
	SubscriptionStatusCompleted SubscriptionStatus = "completed"
	SubscriptionStatusPending   SubscriptionStatus = "pending"
)

type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleAnnual  BillingCycle = "annual"
)

// CycleFromInterval maps a provider recurring-interval field ("month", "year",
// Razorpay "monthly"/"yearly") to an internal billing cycle. Unknown and empty
// intervals default to monthly.
func CycleFromInterval(interval string) BillingCycle {
	switch interval {
	case "year", "yearly", "annual":
		return BillingCycleAnnual
	default:
		return BillingCycleMonthly
	}
}

// SubscriptionEventType is the coarse audit tag recorded per reconciled webhook.
type SubscriptionEventType string

const (
	SubscriptionEventCreated            SubscriptionEventType = "created"
	SubscriptionEventActivated          SubscriptionEventType = "activated"
	SubscriptionEventUpdated            SubscriptionEventType = "updated"
	SubscriptionEventPlanChanged        SubscriptionEventType = "plan_changed"
	SubscriptionEventBillingCycleChange SubscriptionEventType = "billing_cycle_changed"
	SubscriptionEventCanceled           SubscriptionEventType = "canceled"
	SubscriptionEventPaused             SubscriptionEventType = "paused"
	SubscriptionEventResumed            SubscriptionEventType = "resumed"
	SubscriptionEventPending            SubscriptionEventType = "pending"
	SubscriptionEventCompleted          SubscriptionEventType = "completed"
	SubscriptionEventPaymentSucceeded   SubscriptionEventType = "payment_succeeded"
	SubscriptionEventPaymentFailed      SubscriptionEventType = "payment_failed"
	SubscriptionEventInvoiceFinalized   SubscriptionEventType = "invoice_finalized"
	SubscriptionEventCheckoutCompleted  SubscriptionEventType = "checkout_completed"
)
