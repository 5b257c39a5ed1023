// Package pricing turns a catalog selection plus discount inputs into final
// integer cent amounts.
//
// Discount percentages are always derived server-side, either from the
// campaign table in configuration or from the promo resolver. A percent
// supplied by a client is never trusted.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oasisai/commerce/internal/catalog"
	"github.com/oasisai/commerce/internal/promo"
)

var (
	ErrInvalidProduct  = errors.New("pricing: invalid product")
	ErrInvalidTier     = errors.New("pricing: invalid tier")
	ErrInvalidCurrency = errors.New("pricing: invalid currency")
)

// PromoRejectedError reports a promo code that was found but is not usable.
// The reason is one of the promo package's rejection reasons and is safe to
// return to the client.
type PromoRejectedError struct {
	Reason string
}

func (e *PromoRejectedError) Error() string {
	return "pricing: promo rejected: " + e.Reason
}

// ProductType distinguishes per-tier automations from flat-fee bundles.
type ProductType string

const (
	ProductAutomation ProductType = "automation"
	ProductBundle     ProductType = "bundle"
)

// MaxDiscountPercent bounds the server-side campaign discount, mirroring the
// promo resolver's bound. A misconfigured campaign cannot exceed it.
const MaxDiscountPercent = 50

// QuoteRequest describes one catalog selection to price.
type QuoteRequest struct {
	ProductID   string
	ProductType ProductType
	Tier        catalog.Tier
	PromoCode   string
	UserEmail   string
	Currency    string

	// ServerDiscountPercent comes from the server-side campaign table only,
	// never from the request body.
	ServerDiscountPercent int64
}

// Quote is the priced result, consumed immediately by the checkout session
// builder and not persisted.
type Quote struct {
	ProductID   string       `json:"productId"`
	ProductType ProductType  `json:"productType"`
	ProductName string       `json:"productName"`
	Tier        catalog.Tier `json:"tier,omitempty"`
	SetupFee    int64        `json:"setupFeeCents"`
	MonthlyFee  int64        `json:"monthlyFeeCents"`
	Currency    string       `json:"currency"`

	DiscountPercent int64  `json:"discountPercent"`
	PromoCodeID     string `json:"promoCodeId,omitempty"`
	PromoCode       string `json:"promoCode,omitempty"`
	SetupDiscount   int64  `json:"setupDiscountCents"`
	MonthlyDiscount int64  `json:"monthlyDiscountCents"`
}

// Discounted reports whether any discount reduced the quote.
func (q *Quote) Discounted() bool {
	return q.DiscountPercent > 0 || q.SetupDiscount > 0 || q.MonthlyDiscount > 0
}

// PromoValidator validates user-supplied promo codes against a cost basis.
// *promo.Resolver satisfies it; tests substitute fakes.
type PromoValidator interface {
	Validate(ctx context.Context, code, userEmail string, setupCents, monthlyCents int64, now time.Time) (*promo.Decision, error)
}

// Calculator composes catalog lookup and promo validation into final prices.
type Calculator struct {
	catalog *catalog.Catalog
	promos  PromoValidator
}

// NewCalculator creates a calculator. promos may be nil when promo codes are
// not accepted (e.g. in tooling).
func NewCalculator(cat *catalog.Catalog, promos PromoValidator) *Calculator {
	return &Calculator{catalog: cat, promos: promos}
}

// Quote prices a selection. Validation and not-found failures are detected
// before any external call and carry no side effects.
func (c *Calculator) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	currency, err := normalizeCurrency(req.Currency)
	if err != nil {
		return nil, err
	}

	quote := &Quote{
		ProductID:   req.ProductID,
		ProductType: req.ProductType,
		Currency:    currency,
	}

	// Resolve the base cost pair from the catalog.
	switch req.ProductType {
	case ProductBundle:
		bundle, err := c.catalog.LookupBundle(req.ProductID)
		if err != nil {
			return nil, ErrInvalidProduct
		}
		quote.ProductName = bundle.Name
		quote.SetupFee = bundle.SetupFee
		quote.MonthlyFee = bundle.MonthlyFee
	case ProductAutomation:
		automation, err := c.catalog.Lookup(req.ProductID)
		if err != nil {
			return nil, ErrInvalidProduct
		}
		if req.Tier == "" {
			return nil, ErrInvalidTier
		}
		monthly, err := c.catalog.TierPrice(automation, req.Tier)
		if err != nil {
			return nil, ErrInvalidTier
		}
		quote.ProductName = automation.Name
		quote.Tier = req.Tier
		quote.SetupFee = automation.SetupFee
		quote.MonthlyFee = monthly
	default:
		return nil, ErrInvalidProduct
	}

	// Server-side campaign discount: multiplicative, each fee rounded
	// half-up independently, percent clamped to the giveaway bound.
	if pct := clampPercent(req.ServerDiscountPercent); pct > 0 {
		quote.SetupFee -= roundPercent(quote.SetupFee, pct)
		quote.MonthlyFee -= roundPercent(quote.MonthlyFee, pct)
		quote.DiscountPercent = pct
	}

	// User-supplied promo code: validated against the post-campaign basis and
	// applied as per-field cent subtraction, never compounded multiplicatively.
	if req.PromoCode != "" {
		if c.promos == nil {
			return nil, fmt.Errorf("pricing: promo codes not supported in this configuration")
		}
		decision, err := c.promos.Validate(ctx, req.PromoCode, req.UserEmail, quote.SetupFee, quote.MonthlyFee, time.Now())
		if err != nil {
			// The degraded fallback must never authorise a charge, so a store
			// outage fails the quote rather than guessing.
			return nil, fmt.Errorf("pricing: validate promo: %w", err)
		}
		if !decision.Valid {
			return nil, &PromoRejectedError{Reason: decision.Reason}
		}

		quote.PromoCodeID = decision.PromoID
		quote.PromoCode = decision.Code
		quote.SetupDiscount = decision.SetupDiscount
		quote.MonthlyDiscount = decision.MonthlyDiscount
		quote.SetupFee = clampZero(quote.SetupFee - decision.SetupDiscount)
		quote.MonthlyFee = clampZero(quote.MonthlyFee - decision.MonthlyDiscount)
		if decision.DiscountPercent > 0 {
			quote.DiscountPercent = decision.DiscountPercent
		}
	}

	return quote, nil
}

// normalizeCurrency lowercases an ISO-4217 code, defaulting to usd. No
// conversion is performed; amounts must already be priced in this currency.
func normalizeCurrency(raw string) (string, error) {
	if raw == "" {
		return "usd", nil
	}
	if len(raw) != 3 {
		return "", ErrInvalidCurrency
	}
	out := make([]byte, 3)
	for i := 0; i < 3; i++ {
		ch := raw[i]
		switch {
		case ch >= 'a' && ch <= 'z':
			out[i] = ch
		case ch >= 'A' && ch <= 'Z':
			out[i] = ch + ('a' - 'A')
		default:
			return "", ErrInvalidCurrency
		}
	}
	return string(out), nil
}

// roundPercent computes cents*percent/100 with half-up rounding.
func roundPercent(cents, percent int64) int64 {
	if cents <= 0 || percent <= 0 {
		return 0
	}
	return (cents*percent + 50) / 100
}

func clampPercent(pct int64) int64 {
	if pct < 0 {
		return 0
	}
	if pct > MaxDiscountPercent {
		return MaxDiscountPercent
	}
	return pct
}

func clampZero(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
