package reconciler

import (
	"context"
	"errors"
	"time"

	"github.com/samber/lo"
	"gorm.io/datatypes"

	"github.com/Sid-web6306/gym-saas-billing/internal/app/storage"
	"github.com/Sid-web6306/gym-saas-billing/internal/models"
	"github.com/Sid-web6306/gym-saas-billing/pkg/logctx"
	"github.com/Sid-web6306/gym-saas-billing/pkg/types"
)

// handleActivation implements the subscription upsert protocol. Redelivery and
// create-after-update races are absorbed by checking for an existing row by
// external subscription id first; the whole read-modify-write runs inside one
// database transaction.
func (s *Service) handleActivation(ctx context.Context, ev *types.NormalizedBillingEvent, startedAt time.Time) error {
	sub := ev.Subscription
	if sub == nil || sub.ExternalID == "" {
		logctx.FromCtx(ctx, s.log).Warnw("activation_without_subscription_entity", "provider", ev.Provider, "webhook_id", ev.WebhookID)
		return nil
	}

	return s.store.Transaction(ctx, func(tx storage.Store) error {
		existing, err := tx.FindSubscriptionByExternalID(ctx, ev.Provider, sub.ExternalID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		if existing != nil {
			// redelivered create: idempotent, take the update path
			return s.applyUpdate(ctx, tx, existing, ev, startedAt)
		}
		return s.createSubscription(ctx, tx, ev, startedAt)
	})
}

// handleUpdate implements the subscription update protocol. An update arriving
// before its create (provider delivery order is not guaranteed) redirects into
// the creation path.
func (s *Service) handleUpdate(ctx context.Context, ev *types.NormalizedBillingEvent, startedAt time.Time) error {
	sub := ev.Subscription
	if sub == nil || sub.ExternalID == "" {
		logctx.FromCtx(ctx, s.log).Warnw("update_without_subscription_entity", "provider", ev.Provider, "webhook_id", ev.WebhookID)
		return nil
	}

	return s.store.Transaction(ctx, func(tx storage.Store) error {
		existing, err := tx.FindSubscriptionByExternalID(ctx, ev.Provider, sub.ExternalID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return s.createSubscription(ctx, tx, ev, startedAt)
			}
			return err
		}
		return s.applyUpdate(ctx, tx, existing, ev, startedAt)
	})
}

func (s *Service) createSubscription(ctx context.Context, tx storage.Store, ev *types.NormalizedBillingEvent, startedAt time.Time) error {
	entity := ev.Subscription
	log := logctx.FromCtx(ctx, s.log)

	userID, err := s.ResolveUser(ctx, tx, ev.Provider, entity.Metadata, entity.CustomerEmail, entity.ExternalCustomerID)
	if err != nil {
		// permanent for this event; ack so the provider stops retrying
		log.Errorw("unresolvable_user",
			"provider", ev.Provider, "external_subscription_id", entity.ExternalID,
			"webhook_id", ev.WebhookID, "error", err.Error())
		return nil
	}

	plan, err := tx.FindPlanByProviderPriceID(ctx, ev.Provider, entity.ExternalPriceID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Errorw("unknown_plan_mapping",
				"provider", ev.Provider, "external_price_id", entity.ExternalPriceID,
				"external_subscription_id", entity.ExternalID, "webhook_id", ev.WebhookID)
			return nil
		}
		return err
	}

	status := types.SubscriptionStatusActive
	if mapped := mapProviderStatus(ev.Provider, entity.Status); mapped != "" {
		status = mapped
	}

	cycle := plan.BillingCycle
	if entity.Interval != "" {
		cycle = types.CycleFromInterval(entity.Interval)
	}

	amount := entity.Amount
	if amount == 0 {
		amount = plan.Price
	}
	currency := entity.Currency
	if currency == "" {
		currency = plan.Currency
	}

	row := &models.Subscription{
		UserID:                 userID,
		GymID:                  entity.Metadata["gymId"],
		PlanID:                 plan.ID,
		Status:                 status,
		BillingCycle:           cycle,
		CurrentPeriodStart:     types.EpochTime(entity.CurrentPeriodStart),
		CurrentPeriodEnd:       types.EpochTime(entity.CurrentPeriodEnd),
		TrialStart:             types.EpochTime(entity.TrialStart),
		TrialEnd:               types.EpochTime(entity.TrialEnd),
		Provider:               ev.Provider,
		ExternalSubscriptionID: entity.ExternalID,
		ExternalCustomerID:     entity.ExternalCustomerID,
		ExternalPriceID:        entity.ExternalPriceID,
		Amount:                 amount,
		Currency:               currency,
		CanceledAt:             types.EpochTime(entity.CanceledAt),
		Metadata:               metadataToJSONMap(entity.Metadata),
	}
	if err := tx.SaveSubscription(ctx, row); err != nil {
		return err
	}

	eventType := types.SubscriptionEventActivated
	if ev.Kind == types.EventSubscriptionCreated {
		eventType = types.SubscriptionEventCreated
	}
	s.recordEvent(ctx, tx, row, eventType, &models.SubscriptionEventData{
		Provider:               ev.Provider,
		ExternalSubscriptionID: entity.ExternalID,
		ExternalCustomerID:     entity.ExternalCustomerID,
		ExternalPriceID:        entity.ExternalPriceID,
		RawType:                ev.RawType,
		StatusAfter:            row.Status,
		PlanAfter:              plan.ID,
		CycleAfter:             row.BillingCycle,
	}, ev.WebhookID, startedAt)

	log.Infow("subscription_created",
		"subscription_id", row.ID, "user_id", userID, "plan_id", plan.ID,
		"status", row.Status, "external_subscription_id", entity.ExternalID)
	return nil
}

// applyUpdate detects plan, status and billing-cycle changes independently,
// applies them in a single row update, and records one coarse audit tag.
func (s *Service) applyUpdate(ctx context.Context, tx storage.Store, existing *models.Subscription, ev *types.NormalizedBillingEvent, startedAt time.Time) error {
	entity := ev.Subscription
	log := logctx.FromCtx(ctx, s.log)

	data := &models.SubscriptionEventData{
		Provider:               ev.Provider,
		ExternalSubscriptionID: existing.ExternalSubscriptionID,
		ExternalCustomerID:     existing.ExternalCustomerID,
		ExternalPriceID:        entity.ExternalPriceID,
		RawType:                ev.RawType,
		StatusBefore:           existing.Status,
		PlanBefore:             existing.PlanID,
		CycleBefore:            existing.BillingCycle,
	}

	var planChanged bool
	if entity.ExternalPriceID != "" && entity.ExternalPriceID != existing.ExternalPriceID {
		plan, err := tx.FindPlanByProviderPriceID(ctx, ev.Provider, entity.ExternalPriceID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				log.Errorw("unknown_plan_mapping_on_update",
					"provider", ev.Provider, "external_price_id", entity.ExternalPriceID,
					"subscription_id", existing.ID)
			} else {
				return err
			}
		} else {
			planChanged = true
			existing.PlanID = plan.ID
			existing.ExternalPriceID = entity.ExternalPriceID
		}
	}

	var statusChanged bool
	newStatus := mapProviderStatus(ev.Provider, entity.Status)
	if newStatus != "" && newStatus != existing.Status {
		statusChanged = true
		existing.Status = newStatus
		if newStatus == types.SubscriptionStatusCanceled && existing.CanceledAt == nil {
			existing.CanceledAt = lo.ToPtr(time.Now().UTC())
		}
	}

	var cycleChanged bool
	if entity.Interval != "" {
		if cycle := types.CycleFromInterval(entity.Interval); cycle != existing.BillingCycle {
			cycleChanged = true
			existing.BillingCycle = cycle
		}
	}

	if ts := types.EpochTime(entity.CurrentPeriodStart); ts != nil {
		existing.CurrentPeriodStart = ts
	}
	if ts := types.EpochTime(entity.CurrentPeriodEnd); ts != nil {
		existing.CurrentPeriodEnd = ts
	}
	if ts := types.EpochTime(entity.TrialEnd); ts != nil {
		existing.TrialEnd = ts
	}
	if ts := types.EpochTime(entity.CanceledAt); ts != nil {
		existing.CanceledAt = ts
	}
	if ts := types.EpochTime(entity.EndedAt); ts != nil {
		existing.EndedAt = ts
	}
	if entity.Amount > 0 {
		existing.Amount = entity.Amount
	}
	if entity.Currency != "" {
		existing.Currency = entity.Currency
	}

	if err := tx.SaveSubscription(ctx, existing); err != nil {
		return err
	}

	// lossy summary tag for the audit log; the full diff lives in event data
	eventType := types.SubscriptionEventUpdated
	switch {
	case planChanged:
		eventType = types.SubscriptionEventPlanChanged
	case statusChanged && existing.Status == types.SubscriptionStatusCanceled:
		eventType = types.SubscriptionEventCanceled
	case statusChanged && existing.Status == types.SubscriptionStatusActive:
		eventType = types.SubscriptionEventActivated
	case cycleChanged:
		eventType = types.SubscriptionEventBillingCycleChange
	}

	data.StatusAfter = existing.Status
	data.PlanAfter = existing.PlanID
	data.CycleAfter = existing.BillingCycle
	s.recordEvent(ctx, tx, existing, eventType, data, ev.WebhookID, startedAt)

	log.Infow("subscription_updated",
		"subscription_id", existing.ID, "event_type", eventType,
		"plan_changed", planChanged, "status_changed", statusChanged, "cycle_changed", cycleChanged)
	return nil
}

// handleTerminal applies the pause/resume/cancel/pending/completed
// transitions. Pure overwrite semantics: re-applying the same event converges
// on the same final state.
func (s *Service) handleTerminal(ctx context.Context, ev *types.NormalizedBillingEvent, startedAt time.Time) error {
	entity := ev.Subscription
	if entity == nil || entity.ExternalID == "" {
		logctx.FromCtx(ctx, s.log).Warnw("terminal_event_without_subscription_entity", "kind", ev.Kind, "webhook_id", ev.WebhookID)
		return nil
	}

	return s.store.Transaction(ctx, func(tx storage.Store) error {
		sub, err := tx.FindSubscriptionByExternalID(ctx, ev.Provider, entity.ExternalID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				logctx.FromCtx(ctx, s.log).Warnw("terminal_event_for_unknown_subscription",
					"kind", ev.Kind, "external_subscription_id", entity.ExternalID, "webhook_id", ev.WebhookID)
				return nil
			}
			return err
		}

		now := time.Now().UTC()
		data := &models.SubscriptionEventData{
			Provider:               ev.Provider,
			ExternalSubscriptionID: sub.ExternalSubscriptionID,
			ExternalCustomerID:     sub.ExternalCustomerID,
			RawType:                ev.RawType,
			StatusBefore:           sub.Status,
		}

		var eventType types.SubscriptionEventType
		switch ev.Kind {
		case types.EventSubscriptionCanceled:
			sub.Status = types.SubscriptionStatusCanceled
			if ts := types.EpochTime(entity.CanceledAt); ts != nil {
				sub.EndedAt = ts
			} else if ts := types.EpochTime(entity.EndedAt); ts != nil {
				sub.EndedAt = ts
			} else {
				sub.EndedAt = lo.ToPtr(now)
			}
			sub.CanceledAt = lo.ToPtr(now)
			eventType = types.SubscriptionEventCanceled
		case types.EventSubscriptionPaused:
			sub.Status = types.SubscriptionStatusPaused
			sub.PausedAt = lo.ToPtr(now)
			eventType = types.SubscriptionEventPaused
		case types.EventSubscriptionResumed:
			sub.Status = types.SubscriptionStatusActive
			sub.PausedAt = nil
			eventType = types.SubscriptionEventResumed
		case types.EventSubscriptionPending:
			sub.Status = types.SubscriptionStatusPending
			eventType = types.SubscriptionEventPending
		case types.EventSubscriptionCompleted:
			sub.Status = types.SubscriptionStatusCompleted
			if ts := types.EpochTime(entity.EndedAt); ts != nil {
				sub.EndedAt = ts
			} else {
				sub.EndedAt = lo.ToPtr(now)
			}
			eventType = types.SubscriptionEventCompleted
		}

		if err := tx.SaveSubscription(ctx, sub); err != nil {
			return err
		}

		data.StatusAfter = sub.Status
		s.recordEvent(ctx, tx, sub, eventType, data, ev.WebhookID, startedAt)

		logctx.FromCtx(ctx, s.log).Infow("subscription_transition",
			"subscription_id", sub.ID, "event_type", eventType, "status", sub.Status)
		return nil
	})
}

// handleInvoiceStatus reconciles invoice outcomes onto subscription status:
// a successful payment recovers a past-due subscription, a failed one marks
// it past_due.
func (s *Service) handleInvoiceStatus(ctx context.Context, ev *types.NormalizedBillingEvent, status types.SubscriptionStatus, eventType types.SubscriptionEventType, startedAt time.Time) error {
	inv := ev.Invoice
	if inv == nil || inv.ExternalSubscriptionID == "" {
		logctx.FromCtx(ctx, s.log).Infow("invoice_event_without_subscription", "kind", ev.Kind, "webhook_id", ev.WebhookID)
		return nil
	}

	return s.store.Transaction(ctx, func(tx storage.Store) error {
		sub, err := tx.FindSubscriptionByExternalID(ctx, ev.Provider, inv.ExternalSubscriptionID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				logctx.FromCtx(ctx, s.log).Warnw("invoice_event_for_unknown_subscription",
					"kind", ev.Kind, "external_subscription_id", inv.ExternalSubscriptionID, "webhook_id", ev.WebhookID)
				return nil
			}
			return err
		}

		data := &models.SubscriptionEventData{
			Provider:               ev.Provider,
			ExternalSubscriptionID: sub.ExternalSubscriptionID,
			ExternalCustomerID:     sub.ExternalCustomerID,
			RawType:                ev.RawType,
			StatusBefore:           sub.Status,
			StatusAfter:            status,
		}
		sub.Status = status
		if err := tx.SaveSubscription(ctx, sub); err != nil {
			return err
		}
		s.recordEvent(ctx, tx, sub, eventType, data, ev.WebhookID, startedAt)

		logctx.FromCtx(ctx, s.log).Infow("subscription_payment_reconciled",
			"subscription_id", sub.ID, "event_type", eventType, "status", sub.Status)
		return nil
	})
}

// handleInvoiceFinalized leaves subscription state untouched but still records
// the audit row when the invoice resolves to a known subscription.
func (s *Service) handleInvoiceFinalized(ctx context.Context, ev *types.NormalizedBillingEvent, startedAt time.Time) error {
	inv := ev.Invoice
	if inv == nil || inv.ExternalSubscriptionID == "" {
		logctx.FromCtx(ctx, s.log).Infow("invoice_event_without_subscription", "kind", ev.Kind, "webhook_id", ev.WebhookID)
		return nil
	}

	sub, err := s.store.FindSubscriptionByExternalID(ctx, ev.Provider, inv.ExternalSubscriptionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logctx.FromCtx(ctx, s.log).Warnw("invoice_event_for_unknown_subscription",
				"kind", ev.Kind, "external_subscription_id", inv.ExternalSubscriptionID, "webhook_id", ev.WebhookID)
			return nil
		}
		return err
	}

	s.recordEvent(ctx, s.store, sub, types.SubscriptionEventInvoiceFinalized, &models.SubscriptionEventData{
		Provider:               ev.Provider,
		ExternalSubscriptionID: sub.ExternalSubscriptionID,
		ExternalCustomerID:     sub.ExternalCustomerID,
		RawType:                ev.RawType,
		StatusBefore:           sub.Status,
		StatusAfter:            sub.Status,
	}, ev.WebhookID, startedAt)
	return nil
}

// handleCheckoutCompleted acknowledges checkout completion. The follow-up
// subscription.created/activated event carries the full subscription payload;
// here only an existing row gets an audit entry.
func (s *Service) handleCheckoutCompleted(ctx context.Context, ev *types.NormalizedBillingEvent, startedAt time.Time) error {
	entity := ev.Subscription
	if entity == nil || entity.ExternalID == "" {
		logctx.FromCtx(ctx, s.log).Infow("checkout_completed_without_subscription", "provider", ev.Provider, "webhook_id", ev.WebhookID)
		return nil
	}

	sub, err := s.store.FindSubscriptionByExternalID(ctx, ev.Provider, entity.ExternalID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logctx.FromCtx(ctx, s.log).Infow("checkout_completed_before_subscription_event",
				"provider", ev.Provider, "external_subscription_id", entity.ExternalID)
			return nil
		}
		return err
	}

	s.recordEvent(ctx, s.store, sub, types.SubscriptionEventCheckoutCompleted, &models.SubscriptionEventData{
		Provider:               ev.Provider,
		ExternalSubscriptionID: sub.ExternalSubscriptionID,
		ExternalCustomerID:     sub.ExternalCustomerID,
		RawType:                ev.RawType,
		StatusBefore:           sub.Status,
		StatusAfter:            sub.Status,
	}, ev.WebhookID, startedAt)
	return nil
}

func newEventData(data *models.SubscriptionEventData) datatypes.JSONType[*models.SubscriptionEventData] {
	return datatypes.NewJSONType(data)
}

func metadataToJSONMap(metadata map[string]string) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for k, v := range metadata {
		out[k] = v
	}
	return out
}
