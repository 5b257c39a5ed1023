package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/plutov/paypal/v4"
)

// PayPalProvider creates one-time PayPal orders. PayPal billing plans require
// pre-registered plan IDs, so subscription-mode requests are routed to Stripe
// instead and rejected here.
type PayPalProvider struct {
	client *paypal.Client
	brand  string
	logger *slog.Logger
}

func NewPayPalProvider(clientID, secret, apiBase, brand string, logger *slog.Logger) (*PayPalProvider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c, err := paypal.NewClient(clientID, secret, apiBase)
	if err != nil {
		return nil, fmt.Errorf("paypal client: %w", err)
	}
	return &PayPalProvider{client: c, brand: brand, logger: logger}, nil
}

func (p *PayPalProvider) Name() string { return "paypal" }

// CreateSession creates a CAPTURE-intent order for the one-time total and
// returns the approval URL the payer is redirected to. The order is only
// authorized at that point; Capture settles it after the payer approves.
//
// PayPal orders carry no metadata, so a redemption could not be attributed
// during fulfillment. Promo-bearing checkouts must go through Stripe.
func (p *PayPalProvider) CreateSession(ctx context.Context, req *SessionRequest) (*Session, error) {
	if req.Mode != ModePayment {
		return nil, ErrUnsupportedMode
	}
	if req.Metadata["promo_code_id"] != "" {
		return nil, ErrPromoUnsupported
	}

	var names []string
	for _, item := range req.LineItems {
		names = append(names, item.Name)
	}
	currency := strings.ToUpper(req.LineItems[0].Currency)

	units := []paypal.PurchaseUnitRequest{{
		Amount: &paypal.PurchaseUnitAmount{
			Currency: currency,
			Value:    centsToAmount(req.Total()),
		},
		Description: strings.Join(names, ", "),
		CustomID:    req.Metadata["product_type"] + ":" + req.Metadata["product_id"],
	}}

	appCtx := &paypal.ApplicationContext{
		BrandName:  p.brand,
		UserAction: paypal.UserActionPayNow,
		ReturnURL:  req.SuccessURL,
		CancelURL:  req.CancelURL,
	}

	order, err := p.client.CreateOrder(ctx, paypal.OrderIntentCapture, units, nil, appCtx)
	if err != nil {
		p.logger.Error("paypal order creation failed", "error", err)
		return nil, ErrProvider
	}

	approveURL := ""
	for _, link := range order.Links {
		if link.Rel == "approve" {
			approveURL = link.Href
			break
		}
	}
	if approveURL == "" {
		p.logger.Error("paypal order has no approval link", "order_id", order.ID)
		return nil, ErrProvider
	}

	return &Session{ID: order.ID, URL: approveURL, Provider: p.Name()}, nil
}

// Capture settles an approved order. The payer is sent back to the success
// URL after approving on paypal.com; the frontend then posts the order ID to
// the capture endpoint, which calls this. Capturing an order twice fails on
// PayPal's side, and the capture ID keys the processed-event store, so the
// money can only move once.
func (p *PayPalProvider) Capture(ctx context.Context, orderID string) (captureID, payerEmail string, err error) {
	capture, err := p.client.CaptureOrder(ctx, orderID, paypal.CaptureOrderRequest{})
	if err != nil {
		p.logger.Error("paypal order capture failed", "order_id", orderID, "error", err)
		return "", "", ErrProvider
	}
	if capture.Status != "COMPLETED" {
		p.logger.Error("paypal capture did not complete", "order_id", orderID, "status", capture.Status)
		return "", "", ErrProvider
	}

	captureID = capture.ID
	for _, unit := range capture.PurchaseUnits {
		if unit.Payments == nil {
			continue
		}
		for _, c := range unit.Payments.Captures {
			captureID = c.ID
			break
		}
	}
	if capture.Payer != nil {
		payerEmail = capture.Payer.EmailAddress
	}

	p.logger.Info("paypal order captured", "order_id", orderID, "capture_id", captureID)
	return captureID, payerEmail, nil
}

// centsToAmount formats integer cents as the decimal string PayPal expects.
func centsToAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
