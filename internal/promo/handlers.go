package promo

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oasisai/commerce/internal/idgen"
	"github.com/oasisai/commerce/internal/logging"
	"github.com/oasisai/commerce/internal/metrics"
	"github.com/oasisai/commerce/internal/pagination"
	"github.com/oasisai/commerce/internal/validation"
)

// Handler provides HTTP endpoints for promo validation and administration.
type Handler struct {
	resolver *Resolver
	fallback *FallbackValidator
	store    Store
}

// NewHandler creates a new promo handler.
func NewHandler(resolver *Resolver, fallback *FallbackValidator, store Store) *Handler {
	return &Handler{resolver: resolver, fallback: fallback, store: store}
}

// RegisterRoutes sets up public promo routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/promo/validate", h.ValidateCode)
}

// RegisterAdminRoutes sets up admin-only promo management routes.
func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.POST("/promo/codes", h.CreateCode)
	r.GET("/promo/codes", h.ListCodes)
	r.POST("/promo/codes/:id/activate", h.activateHandler(true))
	r.POST("/promo/codes/:id/deactivate", h.activateHandler(false))
	r.GET("/promo/codes/:id/usages", h.ListUsages)
}

// ValidateRequest is the body for POST /v1/promo/validate.
type ValidateRequest struct {
	Code             string `json:"code" binding:"required"`
	UserEmail        string `json:"userEmail" binding:"required"`
	SetupCostCents   int64  `json:"setupCostCents"`
	MonthlyCostCents int64  `json:"monthlyCostCents"`
}

// ValidateCode handles POST /v1/promo/validate.
//
// Rejections are 200 responses with valid=false and a specific reason: the
// pricing UI distinguishes expired from exhausted from already-used codes.
func (h *Handler) ValidateCode(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "code and userEmail are required",
		})
		return
	}
	if errs := validation.Validate(
		validation.Required("code", req.Code),
		validation.Required("userEmail", req.UserEmail),
		validation.ValidEmail("userEmail", req.UserEmail),
	); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": errs.Error(),
		})
		return
	}
	if req.SetupCostCents < 0 || req.MonthlyCostCents < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "cost amounts must be non-negative cents",
		})
		return
	}
	if !validation.IsValidPromoCode(req.Code) {
		// A code that fails the shape check cannot exist in the store, so
		// skip the lookup and answer the same way as for an unknown code.
		metrics.PromoValidationsTotal.WithLabelValues(ReasonNotFound).Inc()
		c.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": ReasonNotFound,
		})
		return
	}

	ctx := c.Request.Context()
	decision, err := h.resolver.Validate(ctx, req.Code, req.UserEmail, req.SetupCostCents, req.MonthlyCostCents, time.Now())
	if err != nil {
		// Authoritative store unreachable: degrade to the fixed table so the
		// UI can still show an estimate. The decision is provisional and the
		// checkout path will re-validate before any charge.
		logging.L(ctx).Warn("promo store unavailable, using fallback validator", "error", err)
		decision = h.fallback.Validate(req.Code, req.SetupCostCents, req.MonthlyCostCents)
	}

	if !decision.Valid {
		metrics.PromoValidationsTotal.WithLabelValues(decision.Reason).Inc()
		c.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": decision.Reason,
		})
		return
	}

	metrics.PromoValidationsTotal.WithLabelValues("valid").Inc()
	resp := gin.H{
		"valid":           true,
		"setupDiscount":   decision.SetupDiscount,
		"monthlyDiscount": decision.MonthlyDiscount,
		"discountPercent": decision.DiscountPercent,
	}
	if decision.Provisional {
		resp["provisional"] = true
	}
	c.JSON(http.StatusOK, resp)
}

// CreateCodeRequest is the body for POST /v1/admin/promo/codes.
type CreateCodeRequest struct {
	Code          string    `json:"code" binding:"required"`
	DiscountType  string    `json:"discountType" binding:"required"`
	DiscountValue int64     `json:"discountValue" binding:"required"`
	AppliesTo     string    `json:"appliesTo" binding:"required"`
	MaxUses       int64     `json:"maxUses"`
	ValidFrom     time.Time `json:"validFrom"`
	ValidUntil    time.Time `json:"validUntil"`
}

// CreateCode handles POST /v1/admin/promo/codes.
func (h *Handler) CreateCode(c *gin.Context) {
	var req CreateCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "code, discountType, discountValue, and appliesTo are required",
		})
		return
	}

	if !validation.IsValidPromoCode(req.Code) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "code must be 1-64 letters, digits, hyphens, or underscores",
		})
		return
	}
	discountType := DiscountType(req.DiscountType)
	if discountType != DiscountPercentage && discountType != DiscountFixed {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "discountType must be percentage or fixed",
		})
		return
	}
	appliesTo := AppliesTo(req.AppliesTo)
	if appliesTo != AppliesSetup && appliesTo != AppliesMonthly && appliesTo != AppliesBoth {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "appliesTo must be setup, monthly, or both",
		})
		return
	}
	if errs := validation.Validate(
		validation.PositiveCents("discountValue", req.DiscountValue),
	); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": errs.Error(),
		})
		return
	}
	if req.MaxUses < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "maxUses must be non-negative",
		})
		return
	}

	now := time.Now().UTC()
	code := &Code{
		ID:            idgen.WithPrefix("promo_"),
		Code:          NormalizeCode(req.Code),
		DiscountType:  discountType,
		DiscountValue: req.DiscountValue,
		AppliesTo:     appliesTo,
		MaxUses:       req.MaxUses,
		ValidFrom:     req.ValidFrom,
		ValidUntil:    req.ValidUntil,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.store.Create(c.Request.Context(), code); err != nil {
		if err == ErrDuplicateCode {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "duplicate_code",
				"message": "A promo code with this code already exists",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"promo_code": code})
}

// ListCodes handles GET /v1/admin/promo/codes.
func (h *Handler) ListCodes(c *gin.Context) {
	limit := parseLimit(c.Query("limit"), 50)

	codes, err := h.store.ListCodes(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"promo_codes": codes,
		"count":       len(codes),
	})
}

func (h *Handler) activateHandler(active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		if err := h.store.SetActive(c.Request.Context(), id, active); err != nil {
			if err == ErrCodeNotFound {
				c.JSON(http.StatusNotFound, gin.H{
					"error":   "not_found",
					"message": "No promo code with this id",
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "internal_error",
				"message": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"id": id, "isActive": active})
	}
}

// ListUsages handles GET /v1/admin/promo/codes/:id/usages.
// Results are newest first with opaque cursor pagination.
func (h *Handler) ListUsages(c *gin.Context) {
	id := c.Param("id")
	limit := parseLimit(c.Query("limit"), 100)

	after, err := pagination.Decode(c.Query("cursor"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "Invalid cursor",
		})
		return
	}

	// Fetch one extra row to learn whether another page exists.
	usages, err := h.store.ListUsages(c.Request.Context(), id, after, limit+1)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
		return
	}

	usages, next, hasMore := pagination.ComputePage(usages, limit, func(u *Usage) (time.Time, string) {
		return u.CreatedAt, u.ID
	})

	resp := gin.H{
		"usages":   usages,
		"count":    len(usages),
		"has_more": hasMore,
	}
	if next != "" {
		resp["next_cursor"] = next
	}
	c.JSON(http.StatusOK, resp)
}

func parseLimit(raw string, def int) int {
	if raw == "" {
		return def
	}
	if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
		return parsed
	}
	return def
}
