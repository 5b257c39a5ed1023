package fulfillment

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	otelcodes "go.opentelemetry.io/otel/codes"

	"github.com/oasisai/commerce/internal/promo"
	"github.com/oasisai/commerce/internal/traces"
)

// Processing results, used for logging and metrics labels.
const (
	ResultProcessed = "processed"
	ResultDuplicate = "duplicate"
	ResultIgnored   = "ignored"
	ResultInvalid   = "invalid"
)

// CompletedCheckout is a provider-neutral view of a finished payment, built
// by the webhook handler from the provider event payload.
type CompletedCheckout struct {
	EventID       string
	EventType     string
	Provider      string
	OrderID       string
	CustomerEmail string
	Metadata      map[string]string
}

// PromoRecorder records a confirmed promo redemption. *promo.Resolver
// satisfies it.
type PromoRecorder interface {
	RecordUsage(ctx context.Context, promoID, userEmail string, discountCents int64, userID, orderID string) error
}

// Processor applies the effects of a confirmed payment exactly once.
type Processor struct {
	events EventStore
	promos PromoRecorder
	logger *slog.Logger
}

func NewProcessor(events EventStore, promos PromoRecorder, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{events: events, promos: promos, logger: logger}
}

// Process records the promo redemption carried by the checkout, then marks
// the event processed. A redelivered event is a no-op. The usage write runs
// first: it is idempotent, and marking the event only after it succeeds means
// a transient store failure is retried by the provider's redelivery rather
// than short-circuited by the duplicate check.
func (p *Processor) Process(ctx context.Context, cc *CompletedCheckout) (_ string, retErr error) {
	ctx, span := traces.StartSpan(ctx, "fulfillment.Process",
		traces.EventID(cc.EventID),
		traces.Provider(cc.Provider),
	)
	defer func() {
		if retErr != nil {
			span.RecordError(retErr)
			span.SetStatus(otelcodes.Error, retErr.Error())
		}
		span.End()
	}()

	if err := p.recordPromoUsage(ctx, cc); err != nil {
		return "", err
	}

	created, err := p.events.MarkProcessed(ctx, &Event{
		ID:          cc.EventID,
		Provider:    cc.Provider,
		Type:        cc.EventType,
		OrderID:     cc.OrderID,
		ProcessedAt: time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("mark event processed: %w", err)
	}
	if !created {
		p.logger.Info("webhook event already processed, skipping",
			"event_id", cc.EventID,
			"provider", cc.Provider,
		)
		return ResultDuplicate, nil
	}

	p.logger.Info("checkout fulfilled",
		"event_id", cc.EventID,
		"provider", cc.Provider,
		"order_id", cc.OrderID,
	)
	return ResultProcessed, nil
}

func (p *Processor) recordPromoUsage(ctx context.Context, cc *CompletedCheckout) error {
	promoID := cc.Metadata["promo_code_id"]
	if promoID == "" {
		return nil
	}

	email := cc.Metadata["customer_email"]
	if email == "" {
		email = cc.CustomerEmail
	}
	if email == "" {
		// Without a customer identity the redemption cannot be attributed.
		// The payment already succeeded, so log and move on.
		p.logger.Warn("promo checkout completed without customer email",
			"event_id", cc.EventID,
			"promo_id", promoID,
		)
		return nil
	}

	var discount int64
	if raw := cc.Metadata["discount_total_cents"]; raw != "" {
		discount, _ = strconv.ParseInt(raw, 10, 64)
	}

	if err := p.promos.RecordUsage(ctx, promoID, email, discount, "", cc.OrderID); err != nil {
		return fmt.Errorf("record promo usage: %w", err)
	}
	return nil
}

var _ PromoRecorder = (*promo.Resolver)(nil)
