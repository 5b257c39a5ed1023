// Package checkout assembles payment-provider sessions from price quotes.
//
// The session builder is deterministic and provider-agnostic; provider
// adapters translate the generic session request into Stripe or PayPal API
// calls. Provider errors are never exposed to clients, since they can leak
// account configuration details.
package checkout

import (
	"context"
	"errors"
)

var (
	ErrProvider         = errors.New("checkout: payment provider error")
	ErrUnknownProvider  = errors.New("checkout: unknown payment provider")
	ErrUnsupportedMode  = errors.New("checkout: provider does not support this payment mode")
	ErrPromoUnsupported = errors.New("checkout: provider cannot fulfill promo redemptions")
	ErrNothingToCharge  = errors.New("checkout: quote has no chargeable amount")
)

// Mode selects between a one-time payment and a recurring subscription.
type Mode string

const (
	ModePayment      Mode = "payment"
	ModeSubscription Mode = "subscription"
)

// LineItem is one customer-visible charge in a session.
type LineItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Amount      int64  `json:"amountCents"`
	Currency    string `json:"currency"`
	Recurring   bool   `json:"recurring"` // billed monthly when true
}

// Customer carries the identity fields the payer supplied at checkout.
type Customer struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// SessionRequest is the provider-agnostic session-creation request.
// Metadata must be sufficient to reconstruct the transaction during
// asynchronous fulfillment without re-querying internal state.
type SessionRequest struct {
	Mode          Mode
	LineItems     []LineItem
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

// Total sums all line items (first invoice total for subscriptions).
func (r *SessionRequest) Total() int64 {
	var total int64
	for _, item := range r.LineItems {
		total += item.Amount
	}
	return total
}

// Session is a created provider session the payer is redirected to.
type Session struct {
	ID       string `json:"sessionId"`
	URL      string `json:"url"`
	Provider string `json:"provider"`
}

// Provider creates checkout sessions with an external payment service.
type Provider interface {
	Name() string
	CreateSession(ctx context.Context, req *SessionRequest) (*Session, error)
}
