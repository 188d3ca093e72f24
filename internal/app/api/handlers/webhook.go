package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	wh "github.com/Sid-web6306/gym-saas-billing/internal/app/service/webhook"
	"github.com/Sid-web6306/gym-saas-billing/pkg/logctx"
	"github.com/Sid-web6306/gym-saas-billing/pkg/metrics"
	"github.com/Sid-web6306/gym-saas-billing/pkg/response"
	"github.com/Sid-web6306/gym-saas-billing/pkg/types"
)

// @Summary      Stripe Webhook
// @Description  Handles Stripe billing events. The raw body is verified against the Stripe-Signature header before any processing.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        payload body string true "Stripe event payload"
// @Success      200  {object}  response.WebhookAck
// @Failure      400  {object}  response.WebhookError
// @Failure      500  {object}  response.WebhookError
// @Router       /api/v1/webhooks/stripe [post]
func ApiStripeWebhook(h *wh.Handler) gin.HandlerFunc {
	return providerWebhook(h, types.BillingProviderStripe)
}

// @Summary      Razorpay Webhook
// @Description  Handles Razorpay billing events. The raw body is verified against the X-Razorpay-Signature header before any processing.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        payload body string true "Razorpay event payload"
// @Success      200  {object}  response.WebhookAck
// @Failure      400  {object}  response.WebhookError
// @Failure      500  {object}  response.WebhookError
// @Router       /api/v1/webhooks/razorpay [post]
func ApiRazorpayWebhook(h *wh.Handler) gin.HandlerFunc {
	return providerWebhook(h, types.BillingProviderRazorpay)
}

func providerWebhook(h *wh.Handler, provider types.BillingProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		log := logctx.FromGin(c, h.Logger)
		log.Infow("webhook_received", "provider", provider)

		res, err := h.Handle(c, provider, start)
		elapsed := time.Since(start).Milliseconds()
		eventType := ""
		outcome := "success"
		if res != nil {
			eventType = res.EventType
		}

		switch {
		case errors.Is(err, wh.ErrSignatureInvalid):
			outcome = "signature_rejected"
			c.JSON(http.StatusBadRequest, response.AckError(err, eventType, elapsed))
		case err != nil:
			outcome = "error"
			log.Errorw("webhook_handle_error", "provider", provider, "event_type", eventType, "error", err.Error())
			c.JSON(http.StatusInternalServerError, response.AckError(err, eventType, elapsed))
		default:
			log.Infow("webhook_handled", "provider", provider, "event_type", eventType, "processing_time_ms", elapsed)
			c.JSON(http.StatusOK, response.Ack(eventType, elapsed))
		}

		metrics.ObserveWebhook(string(provider), eventType, outcome, float64(elapsed))
	}
}

func RegisterWebhookRoutes(r gin.IRouter, h *wh.Handler) {
	// Mount under provided group, expected at "/api/v1/webhooks"
	r.POST("/stripe", ApiStripeWebhook(h))
	r.POST("/razorpay", ApiRazorpayWebhook(h))
}
