package checkout

import (
	"context"
	"fmt"
	"log/slog"

	otelcodes "go.opentelemetry.io/otel/codes"

	"github.com/oasisai/commerce/internal/catalog"
	"github.com/oasisai/commerce/internal/pricing"
	"github.com/oasisai/commerce/internal/traces"
)

// Request is one checkout attempt as submitted by a client.
type Request struct {
	ProductID   string              `json:"productId"`
	ProductType pricing.ProductType `json:"productType"`
	Tier        catalog.Tier        `json:"tier,omitempty"`
	PromoCode   string              `json:"promoCode,omitempty"`
	Currency    string              `json:"currency,omitempty"`
	Provider    string              `json:"provider,omitempty"`
	Customer    Customer            `json:"customer"`

	// Optional redirect overrides. The handler rejects unsafe targets
	// before they reach the service.
	SuccessURL string `json:"successUrl,omitempty"`
	CancelURL  string `json:"cancelUrl,omitempty"`
}

// Service runs the full checkout pipeline: price the selection, build the
// session request, then create the provider session. There is exactly one
// provider call per checkout attempt, no retries and no partial state; on
// any failure the client simply retries the whole checkout.
type Service struct {
	calc            *pricing.Calculator
	builder         *SessionBuilder
	providers       map[string]Provider
	defaultProvider string

	// campaignPercent is the site-wide promotional discount from
	// configuration. Zero means no campaign is running.
	campaignPercent int64

	logger *slog.Logger
}

func NewService(calc *pricing.Calculator, builder *SessionBuilder, campaignPercent int64, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		calc:            calc,
		builder:         builder,
		providers:       make(map[string]Provider),
		campaignPercent: campaignPercent,
		logger:          logger,
	}
}

// RegisterProvider adds a payment provider. The first registered provider
// becomes the default.
func (s *Service) RegisterProvider(p Provider) {
	if len(s.providers) == 0 {
		s.defaultProvider = p.Name()
	}
	s.providers[p.Name()] = p
}

// Checkout prices the request and creates a provider session. Pricing and
// validation failures surface before any provider call is made.
func (s *Service) Checkout(ctx context.Context, req Request) (_ *Session, _ *pricing.Quote, retErr error) {
	ctx, span := traces.StartSpan(ctx, "checkout.Checkout",
		traces.ProductID(req.ProductID),
		traces.ProductType(string(req.ProductType)),
	)
	defer func() {
		if retErr != nil {
			span.RecordError(retErr)
			span.SetStatus(otelcodes.Error, retErr.Error())
		}
		span.End()
	}()

	quote, err := s.calc.Quote(ctx, pricing.QuoteRequest{
		ProductID:             req.ProductID,
		ProductType:           req.ProductType,
		Tier:                  req.Tier,
		PromoCode:             req.PromoCode,
		UserEmail:             req.Customer.Email,
		Currency:              req.Currency,
		ServerDiscountPercent: s.campaignPercent,
	})
	if err != nil {
		return nil, nil, err
	}

	sessionReq, err := s.builder.Build(quote, req.Customer)
	if err != nil {
		return nil, nil, err
	}
	if req.SuccessURL != "" {
		sessionReq.SuccessURL = req.SuccessURL
	}
	if req.CancelURL != "" {
		sessionReq.CancelURL = req.CancelURL
	}

	name := req.Provider
	if name == "" {
		name = s.defaultProvider
	}
	provider, ok := s.providers[name]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	span.SetAttributes(traces.Provider(name), traces.AmountCents(sessionReq.Total()))
	if quote.PromoCode != "" {
		span.SetAttributes(traces.PromoCode(quote.PromoCode))
	}

	session, err := provider.CreateSession(ctx, sessionReq)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("checkout session created",
		"provider", session.Provider,
		"session_id", session.ID,
		"product_id", quote.ProductID,
		"product_type", quote.ProductType,
		"mode", sessionReq.Mode,
		"total_cents", sessionReq.Total())
	return session, quote, nil
}
