// Package fulfillment processes payment-provider completion events after
// checkout: Stripe webhook deliveries and PayPal capture callbacks.
//
// Providers deliver events at least once, so every effect here must be safe
// to repeat. The promo usage write runs first and is idempotent on its own;
// the event is marked processed only after it succeeds, so a failed write is
// retried by the provider's redelivery instead of being swallowed by the
// duplicate check.
package fulfillment

import (
	"context"
	"errors"
	"time"
)

var ErrEventNotFound = errors.New("fulfillment: event not found")

// Event is a provider webhook event we have finished processing.
type Event struct {
	ID          string    `json:"id"` // provider-assigned event ID
	Provider    string    `json:"provider"`
	Type        string    `json:"type"`
	OrderID     string    `json:"orderId,omitempty"`
	ProcessedAt time.Time `json:"processedAt"`
}

// EventStore remembers which provider events have been processed.
type EventStore interface {
	// MarkProcessed records the event. Returns false when the event ID was
	// already recorded, in which case the delivery is a redelivery.
	MarkProcessed(ctx context.Context, event *Event) (bool, error)
	// Get returns a processed event by provider event ID.
	Get(ctx context.Context, id string) (*Event, error)
}
