package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/Sid-web6306/gym-saas-billing/internal/app/service/archiver"
	"github.com/Sid-web6306/gym-saas-billing/internal/app/service/deliverylog"
	"github.com/Sid-web6306/gym-saas-billing/internal/app/service/reconciler"
	"github.com/Sid-web6306/gym-saas-billing/internal/models"
	"github.com/Sid-web6306/gym-saas-billing/pkg/config"
	"github.com/Sid-web6306/gym-saas-billing/pkg/logctx"
	"github.com/Sid-web6306/gym-saas-billing/pkg/types"
)

// Result reports what the dispatcher did with a delivery.
type Result struct {
	// EventType is the provider's raw event tag, for the response body.
	EventType string
	// Handled is false for recognized-but-ignored (unknown) event types.
	Handled bool
}

// Handler verifies, normalizes and dispatches inbound webhook deliveries.
type Handler struct {
	cfg    *config.Config
	rec    *reconciler.Service
	arch   *archiver.Service
	dlog   *deliverylog.Service
	Logger *zap.SugaredLogger
}

func NewHandler(cfg *config.Config, rec *reconciler.Service, arch *archiver.Service, dlog *deliverylog.Service, log *zap.SugaredLogger) *Handler {
	return &Handler{cfg: cfg, rec: rec, arch: arch, dlog: dlog, Logger: log}
}

// Handle processes one delivery end to end. Signature failures come back
// wrapped in ErrSignatureInvalid; any other returned error means the provider
// should retry (HTTP 500 at the route layer).
func (h *Handler) Handle(c *gin.Context, provider types.BillingProvider, startedAt time.Time) (res *Result, resErr error) {
	ctx := c.Request.Context()
	log := logctx.FromGin(c, h.Logger)

	secret, err := h.cfg.WebhookSecret(provider)
	if err != nil {
		return nil, err
	}

	// signature verification runs on the raw bytes, before any business parse
	body, err := c.GetRawData()
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	var ev *types.NormalizedBillingEvent
	var rawType string
	switch provider {
	case types.BillingProviderStripe:
		sig := c.GetHeader("Stripe-Signature")
		event, err := stripe.ConstructEvent(body, sig, secret)
		if err != nil {
			log.Errorw("webhook_signature_rejected",
				"provider", provider, "signature", truncateSignature(sig), "error", err.Error())
			return nil, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
		}
		ev, rawType, err = normalizeStripeEvent(&event)
		if err != nil {
			return nil, err
		}
	case types.BillingProviderRazorpay:
		sig := c.GetHeader("X-Razorpay-Signature")
		if err := verifyRazorpaySignature(body, sig, secret); err != nil {
			log.Errorw("webhook_signature_rejected",
				"provider", provider, "signature", truncateSignature(sig), "error", err.Error())
			return nil, err
		}
		webhookID := c.GetHeader("X-Razorpay-Event-Id")
		ev, rawType, err = normalizeRazorpayEvent(body, webhookID)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}

	traceID := c.GetString("traceID")
	entry := &models.WebhookDeliveryLog{
		Provider:   string(provider),
		TraceID:    traceID,
		EventType:  rawType,
		ReceivedAt: startedAt,
		Data:       datatypes.JSON(body),
		Status:     models.WebhookDeliveryStatusReceived,
	}
	if ev != nil {
		entry.WebhookID = ev.WebhookID
	}
	h.dlog.Save(ctx, entry)

	if ev == nil {
		log.Warnw("unknown_webhook_event", "provider", provider, "event_type", rawType)
		h.saveOutcome(ctx, provider, traceID, "", rawType, body, nil, models.WebhookDeliveryStatusIgnored)
		return &Result{EventType: rawType, Handled: false}, nil
	}

	defer func() {
		h.saveOutcome(ctx, provider, traceID, ev.WebhookID, rawType, body, resErr, models.WebhookDeliveryStatusHandled)
	}()

	if err := h.rec.HandleEvent(ctx, ev, startedAt); err != nil {
		log.Errorw("webhook_reconciliation_failed",
			"provider", provider, "event_type", rawType, "webhook_id", ev.WebhookID, "error", err.Error())
		return &Result{EventType: rawType}, err
	}

	switch ev.Kind {
	case types.EventInvoicePaymentSucceeded, types.EventInvoiceFinalized:
		h.arch.Archive(ctx, ev)
	}

	return &Result{EventType: rawType, Handled: true}, nil
}

// saveOutcome writes the post-dispatch delivery log entry. status reflects
// what the dispatcher did with the event; any error overrides it.
func (h *Handler) saveOutcome(ctx context.Context, provider types.BillingProvider, traceID, webhookID, rawType string, body []byte, resErr error, status models.WebhookDeliveryStatus) {
	resMap := map[string]any{"event_type": rawType}
	if resErr != nil {
		status = models.WebhookDeliveryStatusHandleFailed
		resMap["error"] = resErr.Error()
	}
	resBytes, _ := json.Marshal(resMap)
	result := datatypes.JSON(resBytes)
	h.dlog.Save(ctx, &models.WebhookDeliveryLog{
		Provider:   string(provider),
		TraceID:    traceID,
		WebhookID:  webhookID,
		EventType:  rawType,
		ReceivedAt: time.Now(),
		Data:       datatypes.JSON(body),
		Result:     &result,
		Status:     status,
	})
}
