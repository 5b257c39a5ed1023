package fulfillment

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	stripe "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/oasisai/commerce/internal/logging"
	"github.com/oasisai/commerce/internal/metrics"
)

// maxWebhookBody caps the webhook payload we are willing to read.
const maxWebhookBody = 1 << 16 // 64KB

// OrderCapturer settles an approved PayPal order and reports the capture ID
// plus the payer's email. checkout.PayPalProvider satisfies it.
type OrderCapturer interface {
	Capture(ctx context.Context, orderID string) (captureID, payerEmail string, err error)
}

// Handler receives Stripe webhook deliveries and PayPal capture callbacks.
type Handler struct {
	processor     *Processor
	signingSecret string
	capturer      OrderCapturer
}

func NewHandler(processor *Processor, signingSecret string) *Handler {
	return &Handler{processor: processor, signingSecret: signingSecret}
}

// WithPayPalCapture enables the PayPal capture endpoint.
func (h *Handler) WithPayPalCapture(c OrderCapturer) *Handler {
	h.capturer = c
	return h
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/webhooks/stripe", h.StripeWebhook)
	if h.capturer != nil {
		r.POST("/paypal/capture", h.PayPalCapture)
	}
}

// StripeWebhook verifies the delivery signature and fulfills completed
// checkouts. Unhandled event types are acknowledged so Stripe stops
// retrying them; processing failures return 500 so Stripe redelivers.
func (h *Handler) StripeWebhook(c *gin.Context) {
	log := logging.L(c.Request.Context())

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("stripe", ResultInvalid).Inc()
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "Failed to read request body",
		})
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), h.signingSecret)
	if err != nil {
		log.Warn("stripe webhook signature verification failed", "error", err)
		metrics.WebhookEventsTotal.WithLabelValues("stripe", ResultInvalid).Inc()
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "authorization_error",
			"message": "Invalid webhook signature",
		})
		return
	}

	if event.Type != "checkout.session.completed" {
		metrics.WebhookEventsTotal.WithLabelValues("stripe", ResultIgnored).Inc()
		c.JSON(http.StatusOK, gin.H{"received": true, "handled": false})
		return
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		log.Error("failed to parse checkout session from event", "event_id", event.ID, "error", err)
		metrics.WebhookEventsTotal.WithLabelValues("stripe", ResultInvalid).Inc()
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "Malformed event payload",
		})
		return
	}

	email := session.CustomerEmail
	if email == "" && session.CustomerDetails != nil {
		email = session.CustomerDetails.Email
	}

	result, err := h.processor.Process(c.Request.Context(), &CompletedCheckout{
		EventID:       event.ID,
		EventType:     string(event.Type),
		Provider:      "stripe",
		OrderID:       session.ID,
		CustomerEmail: email,
		Metadata:      session.Metadata,
	})
	if err != nil {
		log.Error("webhook processing failed", "event_id", event.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to process event",
		})
		return
	}

	metrics.WebhookEventsTotal.WithLabelValues("stripe", result).Inc()
	c.JSON(http.StatusOK, gin.H{"received": true, "handled": result == ResultProcessed})
}

// PayPalCaptureRequest is the body for POST /v1/paypal/capture.
type PayPalCaptureRequest struct {
	OrderID string `json:"orderId" binding:"required"`
}

// PayPalCapture settles an approved PayPal order. The frontend calls this
// from the success page after the payer approves on paypal.com; PayPal
// completes nothing on its own, so without this call no money moves. The
// capture ID keys the processed-event store, making a repeated capture of
// the same order a no-op here and a rejected double-capture on PayPal's side.
func (h *Handler) PayPalCapture(c *gin.Context) {
	var req PayPalCaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "orderId is required",
		})
		return
	}

	ctx := c.Request.Context()
	captureID, payerEmail, err := h.capturer.Capture(ctx, req.OrderID)
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("paypal", ResultInvalid).Inc()
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "provider_error",
			"message": "Payment provider request failed",
		})
		return
	}

	result, err := h.processor.Process(ctx, &CompletedCheckout{
		EventID:       captureID,
		EventType:     "order.captured",
		Provider:      "paypal",
		OrderID:       req.OrderID,
		CustomerEmail: payerEmail,
	})
	if err != nil {
		logging.L(ctx).Error("paypal capture processing failed", "order_id", req.OrderID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to process capture",
		})
		return
	}

	metrics.WebhookEventsTotal.WithLabelValues("paypal", result).Inc()
	c.JSON(http.StatusOK, gin.H{"captured": true, "orderId": req.OrderID})
}
