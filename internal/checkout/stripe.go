package checkout

import (
	"context"
	"errors"
	"log/slog"

	stripe "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

// StripeProvider creates Stripe Checkout sessions. It handles both one-time
// payments and monthly subscriptions.
type StripeProvider struct {
	api    *client.API
	logger *slog.Logger
}

func NewStripeProvider(apiKey string, logger *slog.Logger) *StripeProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &StripeProvider{
		api:    client.New(apiKey, nil),
		logger: logger,
	}
}

func (p *StripeProvider) Name() string { return "stripe" }

// CreateSession maps the generic request onto a Stripe Checkout session with
// ad-hoc price data, so no prices need to be pre-registered in the Stripe
// dashboard. Stripe error details stay in the server log.
func (p *StripeProvider) CreateSession(ctx context.Context, req *SessionRequest) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(req.Mode)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx

	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}

	for _, item := range req.LineItems {
		priceData := &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripe.String(item.Currency),
			UnitAmount: stripe.Int64(item.Amount),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name:        stripe.String(item.Name),
				Description: stripe.String(item.Description),
			},
		}
		if item.Recurring {
			priceData.Recurring = &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
				Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
			}
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: priceData,
			Quantity:  stripe.Int64(1),
		})
	}

	for key, value := range req.Metadata {
		params.AddMetadata(key, value)
	}

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			p.logger.Error("stripe session creation failed",
				"code", stripeErr.Code,
				"type", stripeErr.Type,
				"message", stripeErr.Msg)
		} else {
			p.logger.Error("stripe session creation failed", "error", err)
		}
		return nil, ErrProvider
	}

	return &Session{ID: sess.ID, URL: sess.URL, Provider: p.Name()}, nil
}
