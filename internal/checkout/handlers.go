package checkout

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oasisai/commerce/internal/logging"
	"github.com/oasisai/commerce/internal/metrics"
	"github.com/oasisai/commerce/internal/pricing"
	"github.com/oasisai/commerce/internal/security"
	"github.com/oasisai/commerce/internal/validation"
)

// Handler exposes the checkout endpoint.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/checkout", h.CreateCheckout)
}

// CreateCheckout prices the selection and returns a provider redirect URL.
// Provider failures return a generic message; details go to the server log.
func (h *Handler) CreateCheckout(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "Invalid request body",
		})
		return
	}

	if errs := validation.Validate(
		validation.ValidEmail("customer.email", req.Customer.Email),
		validation.MaxLength("promoCode", req.PromoCode, validation.MaxCodeLength),
	); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": errs.Error(),
		})
		return
	}

	// Name and phone are echoed into provider dashboards and receipts.
	req.Customer.Name = validation.SanitizeString(req.Customer.Name, 256)
	req.Customer.Phone = validation.SanitizeString(req.Customer.Phone, 32)

	for _, override := range []string{req.SuccessURL, req.CancelURL} {
		if override == "" {
			continue
		}
		if err := security.ValidateEndpointURL(override); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation_error",
				"message": "Redirect URL is not allowed",
			})
			return
		}
	}

	session, quote, err := h.service.Checkout(c.Request.Context(), req)
	if err != nil {
		h.writeCheckoutError(c, req, err)
		return
	}

	metrics.CheckoutSessionsTotal.WithLabelValues(session.Provider, "created").Inc()
	c.JSON(http.StatusOK, gin.H{
		"sessionId": session.ID,
		"url":       session.URL,
		"provider":  session.Provider,
		"quote":     quote,
	})
}

func (h *Handler) writeCheckoutError(c *gin.Context, req Request, err error) {
	provider := req.Provider
	if provider == "" {
		provider = h.service.defaultProvider
	}

	var rejected *pricing.PromoRejectedError
	switch {
	case errors.Is(err, pricing.ErrInvalidProduct):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "not_found",
			"message": "Unknown product",
		})
	case errors.Is(err, pricing.ErrInvalidTier):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "Invalid or missing tier",
		})
	case errors.Is(err, pricing.ErrInvalidCurrency):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "Unsupported currency code",
		})
	case errors.As(err, &rejected):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "promo_rejected",
			"reason":  rejected.Reason,
			"message": "Promo code was not accepted",
		})
	case errors.Is(err, ErrNothingToCharge):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "Nothing to charge for this selection",
		})
	case errors.Is(err, ErrUnknownProvider):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "Unknown payment provider",
		})
	case errors.Is(err, ErrUnsupportedMode):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "Selected provider does not support subscriptions",
		})
	case errors.Is(err, ErrPromoUnsupported):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "Promo codes are not supported with this provider",
		})
	case errors.Is(err, ErrProvider):
		metrics.CheckoutSessionsTotal.WithLabelValues(provider, "failed").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "provider_error",
			"message": "Payment provider request failed",
		})
	default:
		logging.L(c.Request.Context()).Error("checkout failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to create checkout session",
		})
	}
}
