package checkout

import (
	"strconv"

	"github.com/oasisai/commerce/internal/pricing"
)

// SessionBuilder turns a quote into a provider-agnostic session request.
// Given the same quote and customer it always produces the same request, so
// a retried checkout call cannot drift from what was priced.
type SessionBuilder struct {
	successURL string
	cancelURL  string
}

func NewSessionBuilder(successURL, cancelURL string) *SessionBuilder {
	return &SessionBuilder{successURL: successURL, cancelURL: cancelURL}
}

// Build assembles line items and fulfillment metadata from a quote.
// Zero-amount fees produce no line item; a fully discounted quote with
// nothing left to charge is rejected before any provider call.
func (b *SessionBuilder) Build(quote *pricing.Quote, customer Customer) (*SessionRequest, error) {
	var items []LineItem

	if quote.SetupFee > 0 {
		desc := "One-time setup and onboarding"
		if quote.SetupDiscount > 0 || quote.DiscountPercent > 0 {
			desc = "One-time setup and onboarding (discount applied)"
		}
		items = append(items, LineItem{
			Name:        quote.ProductName + " - Setup Fee",
			Description: desc,
			Amount:      quote.SetupFee,
			Currency:    quote.Currency,
		})
	}

	if quote.MonthlyFee > 0 {
		desc := "Ongoing management and support, billed monthly"
		if quote.MonthlyDiscount > 0 || quote.DiscountPercent > 0 {
			desc = "Ongoing management and support, billed monthly (discount applied)"
		}
		items = append(items, LineItem{
			Name:        quote.ProductName + " - Monthly Subscription",
			Description: desc,
			Amount:      quote.MonthlyFee,
			Currency:    quote.Currency,
			Recurring:   true,
		})
	}

	if len(items) == 0 {
		return nil, ErrNothingToCharge
	}

	mode := ModePayment
	if quote.MonthlyFee > 0 {
		mode = ModeSubscription
	}

	req := &SessionRequest{
		Mode:          mode,
		LineItems:     items,
		CustomerEmail: customer.Email,
		SuccessURL:    b.successURL,
		CancelURL:     b.cancelURL,
		Metadata:      buildMetadata(quote, customer),
	}
	return req, nil
}

// buildMetadata records everything fulfillment needs to complete the order
// from a webhook alone: product identity, the applied promo, and the
// customer contact fields.
func buildMetadata(quote *pricing.Quote, customer Customer) map[string]string {
	meta := map[string]string{
		"product_id":   quote.ProductID,
		"product_type": string(quote.ProductType),
	}
	if quote.Tier != "" {
		meta["tier"] = string(quote.Tier)
	}
	if quote.PromoCodeID != "" {
		meta["promo_code_id"] = quote.PromoCodeID
		meta["promo_code"] = quote.PromoCode
	}
	if quote.DiscountPercent > 0 {
		meta["discount_percent"] = strconv.FormatInt(quote.DiscountPercent, 10)
	}
	if total := quote.SetupDiscount + quote.MonthlyDiscount; total > 0 {
		meta["discount_total_cents"] = strconv.FormatInt(total, 10)
	}
	if customer.Email != "" {
		meta["customer_email"] = customer.Email
	}
	if customer.Name != "" {
		meta["customer_name"] = customer.Name
	}
	if customer.Phone != "" {
		meta["customer_phone"] = customer.Phone
	}
	return meta
}
