package reconciler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Sid-web6306/gym-saas-billing/internal/app/storage"
	"github.com/Sid-web6306/gym-saas-billing/internal/models"
	"github.com/Sid-web6306/gym-saas-billing/internal/platform/billingapi"
	"github.com/Sid-web6306/gym-saas-billing/pkg/logctx"
	"github.com/Sid-web6306/gym-saas-billing/pkg/types"
)

// Service maps provider-side subscription and payment state onto internal
// Subscription rows. It is the sole writer of Subscription and
// SubscriptionEvent rows for the webhook flow.
type Service struct {
	store storage.Store
	dir   billingapi.CustomerDirectory
	log   *zap.SugaredLogger
}

func NewService(store storage.Store, dir billingapi.CustomerDirectory, log *zap.SugaredLogger) *Service {
	return &Service{store: store, dir: dir, log: log}
}

// HandleEvent dispatches one normalized event. A returned error means the
// condition is plausibly transient and the provider should redeliver (the
// caller answers HTTP 500); permanently-failing conditions (unresolvable user,
// unknown plan) are logged and swallowed so the provider stops retrying.
func (s *Service) HandleEvent(ctx context.Context, ev *types.NormalizedBillingEvent, startedAt time.Time) error {
	switch ev.Kind {
	case types.EventSubscriptionCreated, types.EventSubscriptionActivated:
		return s.handleActivation(ctx, ev, startedAt)
	case types.EventSubscriptionUpdated:
		return s.handleUpdate(ctx, ev, startedAt)
	case types.EventSubscriptionCanceled,
		types.EventSubscriptionPaused,
		types.EventSubscriptionResumed,
		types.EventSubscriptionPending,
		types.EventSubscriptionCompleted:
		return s.handleTerminal(ctx, ev, startedAt)
	case types.EventInvoicePaymentSucceeded:
		return s.handleInvoiceStatus(ctx, ev, types.SubscriptionStatusActive, types.SubscriptionEventPaymentSucceeded, startedAt)
	case types.EventInvoicePaymentFailed:
		return s.handleInvoiceStatus(ctx, ev, types.SubscriptionStatusPastDue, types.SubscriptionEventPaymentFailed, startedAt)
	case types.EventInvoiceFinalized:
		// state untouched; the audit row is still owed when the invoice maps
		// to a known subscription, and the archiver persists the document
		return s.handleInvoiceFinalized(ctx, ev, startedAt)
	case types.EventCheckoutCompleted:
		return s.handleCheckoutCompleted(ctx, ev, startedAt)
	case types.EventCustomerUpdated:
		logctx.FromCtx(ctx, s.log).Infow("customer_updated_received", "provider", ev.Provider, "webhook_id", ev.WebhookID)
		return nil
	}
	logctx.FromCtx(ctx, s.log).Warnw("unhandled_event_kind", "kind", ev.Kind, "raw_type", ev.RawType)
	return nil
}

// mapProviderStatus folds provider-native status strings into the internal
// enum. Unknown statuses map to empty, letting callers keep their default.
func mapProviderStatus(provider types.BillingProvider, status string) types.SubscriptionStatus {
	switch provider {
	case types.BillingProviderStripe:
		switch status {
		case "trialing":
			return types.SubscriptionStatusTrialing
		case "active":
			return types.SubscriptionStatusActive
		case "past_due", "unpaid":
			return types.SubscriptionStatusPastDue
		case "paused":
			return types.SubscriptionStatusPaused
		case "canceled":
			return types.SubscriptionStatusCanceled
		case "incomplete", "incomplete_expired":
			return types.SubscriptionStatusPending
		}
	case types.BillingProviderRazorpay:
		switch status {
		case "active", "authenticated":
			return types.SubscriptionStatusActive
		case "created", "pending":
			return types.SubscriptionStatusPending
		case "halted":
			return types.SubscriptionStatusPastDue
		case "paused":
			return types.SubscriptionStatusPaused
		case "cancelled", "expired":
			return types.SubscriptionStatusCanceled
		case "completed":
			return types.SubscriptionStatusCompleted
		}
	}
	return ""
}

// recordEvent writes the audit row for a reconciled webhook. Only called once
// the affected subscription is known; failures are logged but never fail the
// reconciliation (the audit trail is observability, not state).
func (s *Service) recordEvent(ctx context.Context, tx storage.Store, sub *models.Subscription, eventType types.SubscriptionEventType, data *models.SubscriptionEventData, webhookID string, startedAt time.Time) {
	event := &models.SubscriptionEvent{
		SubscriptionID: sub.ID,
		EventType:      eventType,
		EventData:      newEventData(data),
		WebhookID:      webhookID,
		DurationMs:     time.Since(startedAt).Milliseconds(),
	}
	if err := tx.InsertSubscriptionEvent(ctx, event); err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("failed_to_record_subscription_event",
			"subscription_id", sub.ID, "event_type", eventType, "webhook_id", webhookID, "error", err.Error())
	}
}
