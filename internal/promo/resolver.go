package promo

import (
	"context"
	"log/slog"
	"time"

	"github.com/oasisai/commerce/internal/idgen"
)

// Rejection reasons, in the order checks run. The order is part of the API
// contract: a code that fails several checks always reports the first.
const (
	ReasonEmptyCode         = "empty_code"
	ReasonNotFound          = "not_found"
	ReasonExpired           = "expired"
	ReasonNotYetActive      = "not_yet_active"
	ReasonUsageLimitReached = "usage_limit_reached"
	ReasonAlreadyUsed       = "already_used"
)

// MaxDiscountPercent bounds percentage discounts regardless of what a promo
// record claims, so a malformed record cannot produce an unintended giveaway.
const MaxDiscountPercent = 50

// Decision is the outcome of validating a code against a cost basis.
type Decision struct {
	Valid           bool   `json:"valid"`
	Reason          string `json:"reason,omitempty"`
	PromoID         string `json:"promoId,omitempty"`
	Code            string `json:"code,omitempty"`
	SetupDiscount   int64  `json:"setupDiscountCents"`
	MonthlyDiscount int64  `json:"monthlyDiscountCents"`
	DiscountPercent int64  `json:"discountPercent"`

	// Provisional marks a decision produced by the offline fallback. A
	// provisional decision must never authorise a charge or a usage record.
	Provisional bool `json:"provisional,omitempty"`
}

// Resolver validates codes against the authoritative store and records
// redemptions after payment confirmation.
type Resolver struct {
	store  Store
	logger *slog.Logger
}

// NewResolver creates a resolver backed by the given store.
func NewResolver(store Store, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, logger: logger}
}

// Validate checks a code for the given customer and cost basis. Checks
// short-circuit in a fixed order so the reported reason is deterministic.
// A non-nil error means the store could not answer; the caller may fall back
// to a degraded validator but must re-validate here before charging.
func (r *Resolver) Validate(ctx context.Context, code, userEmail string, setupCents, monthlyCents int64, now time.Time) (*Decision, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return &Decision{Valid: false, Reason: ReasonEmptyCode}, nil
	}

	promo, err := r.store.GetByCode(ctx, normalized)
	if err == ErrCodeNotFound {
		return &Decision{Valid: false, Reason: ReasonNotFound}, nil
	}
	if err != nil {
		return nil, err
	}
	if !promo.IsActive {
		// Retired codes are indistinguishable from unknown ones.
		return &Decision{Valid: false, Reason: ReasonNotFound}, nil
	}

	if !promo.ValidUntil.IsZero() && !promo.ValidUntil.After(now) {
		return &Decision{Valid: false, Reason: ReasonExpired}, nil
	}
	if !promo.ValidFrom.IsZero() && promo.ValidFrom.After(now) {
		return &Decision{Valid: false, Reason: ReasonNotYetActive}, nil
	}
	if promo.MaxUses > 0 && promo.UsesCount >= promo.MaxUses {
		return &Decision{Valid: false, Reason: ReasonUsageLimitReached}, nil
	}

	used, err := r.store.HasUsage(ctx, promo.ID, NormalizeEmail(userEmail))
	if err != nil {
		return nil, err
	}
	if used {
		return &Decision{Valid: false, Reason: ReasonAlreadyUsed}, nil
	}

	setupDisc, monthlyDisc, percent := computeDiscount(promo, setupCents, monthlyCents)
	return &Decision{
		Valid:           true,
		PromoID:         promo.ID,
		Code:            promo.Code,
		SetupDiscount:   setupDisc,
		MonthlyDiscount: monthlyDisc,
		DiscountPercent: percent,
	}, nil
}

// RecordUsage writes the redemption after the payment provider confirms
// payment. The usage row is the source of truth for reuse prevention; the
// counter increment is best-effort cap enforcement, and a failure there is
// logged rather than escalated so a customer who already paid is never
// blocked. Recording the same (promo, email) pair again is a no-op, which
// makes the call safe under at-least-once webhook delivery.
func (r *Resolver) RecordUsage(ctx context.Context, promoID, userEmail string, discountCents int64, userID, orderID string) error {
	usage := &Usage{
		ID:             idgen.WithPrefix("use_"),
		PromoCodeID:    promoID,
		UserEmail:      NormalizeEmail(userEmail),
		UserID:         userID,
		OrderID:        orderID,
		DiscountAmount: discountCents,
		CreatedAt:      time.Now().UTC(),
	}

	created, err := r.store.RecordUsage(ctx, usage)
	if err != nil {
		return err
	}
	if !created {
		r.logger.Info("promo usage already recorded, skipping",
			"promo_id", promoID,
			"order_id", orderID,
		)
		return nil
	}

	if err := r.store.IncrementUses(ctx, promoID); err != nil {
		r.logger.Warn("failed to increment promo uses counter",
			"promo_id", promoID,
			"error", err,
		)
	}
	return nil
}

// computeDiscount applies the code to the cost basis. Fields outside the
// code's AppliesTo scope stay zero: a setup-only promo never touches the
// recurring charge. Percentage values round half-up per field and are clamped
// to MaxDiscountPercent; fixed values are clamped to the fee they discount so
// the final charge can never go negative.
func computeDiscount(promo *Code, setupCents, monthlyCents int64) (setupDisc, monthlyDisc, percent int64) {
	applySetup := promo.AppliesTo == AppliesSetup || promo.AppliesTo == AppliesBoth
	applyMonthly := promo.AppliesTo == AppliesMonthly || promo.AppliesTo == AppliesBoth

	switch promo.DiscountType {
	case DiscountPercentage:
		percent = clamp(promo.DiscountValue, 0, MaxDiscountPercent)
		if applySetup {
			setupDisc = percentOf(setupCents, percent)
		}
		if applyMonthly {
			monthlyDisc = percentOf(monthlyCents, percent)
		}
	case DiscountFixed:
		value := promo.DiscountValue
		if value < 0 {
			value = 0
		}
		if applySetup {
			setupDisc = min64(value, setupCents)
		}
		if applyMonthly {
			monthlyDisc = min64(value, monthlyCents)
		}
	}
	return setupDisc, monthlyDisc, percent
}

// percentOf computes cents*percent/100 with half-up rounding.
func percentOf(cents, percent int64) int64 {
	if cents <= 0 || percent <= 0 {
		return 0
	}
	return (cents*percent + 50) / 100
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
