// Package promo implements promotional-code validation and redemption for
// OasisAI Commerce.
//
// Validation (at quote time) and usage recording (after payment confirmation)
// are deliberately separate steps: between quote and payment completion a
// code's usage cap may be exhausted by a concurrent purchaser, so the quote
// never consumes a use.
package promo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oasisai/commerce/internal/pagination"
)

var (
	ErrCodeNotFound  = errors.New("promo: code not found")
	ErrDuplicateCode = errors.New("promo: code already exists")
)

// DiscountType determines how DiscountValue is interpreted.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage" // DiscountValue is whole percent
	DiscountFixed      DiscountType = "fixed"      // DiscountValue is cents
)

// AppliesTo selects which fee components a code discounts.
type AppliesTo string

const (
	AppliesSetup   AppliesTo = "setup"
	AppliesMonthly AppliesTo = "monthly"
	AppliesBoth    AppliesTo = "both"
)

// Code is a redeemable promotional code. Codes are stored uppercase and
// matched case-insensitively. MaxUses of 0 means unlimited; zero ValidFrom /
// ValidUntil mean no activation window / no expiry.
type Code struct {
	ID            string       `json:"id"`
	Code          string       `json:"code"`
	DiscountType  DiscountType `json:"discountType"`
	DiscountValue int64        `json:"discountValue"`
	AppliesTo     AppliesTo    `json:"appliesTo"`
	MaxUses       int64        `json:"maxUses"`
	UsesCount     int64        `json:"usesCount"`
	ValidFrom     time.Time    `json:"validFrom,omitempty"`
	ValidUntil    time.Time    `json:"validUntil,omitempty"`
	IsActive      bool         `json:"isActive"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// Usage is one successful redemption. The existence of a row for
// (PromoCodeID, UserEmail) is what prevents reuse by the same customer, so
// the table is append-only and unique on that pair.
type Usage struct {
	ID             string    `json:"id"`
	PromoCodeID    string    `json:"promoCodeId"`
	UserEmail      string    `json:"userEmail"`
	UserID         string    `json:"userId,omitempty"`
	OrderID        string    `json:"orderId,omitempty"`
	DiscountAmount int64     `json:"discountAmountCents"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Store persists promo codes and their redemptions.
type Store interface {
	Create(ctx context.Context, code *Code) error
	GetByCode(ctx context.Context, code string) (*Code, error)
	SetActive(ctx context.Context, id string, active bool) error
	ListCodes(ctx context.Context, limit int) ([]*Code, error)

	// HasUsage reports whether the given customer has already redeemed the code.
	HasUsage(ctx context.Context, promoID, userEmail string) (bool, error)

	// RecordUsage inserts a usage row. It is idempotent on
	// (PromoCodeID, UserEmail): created is false when a row already existed.
	RecordUsage(ctx context.Context, usage *Usage) (created bool, err error)

	// IncrementUses bumps the code's redemption counter, respecting MaxUses.
	IncrementUses(ctx context.Context, promoID string) error

	// ListUsages returns redemptions newest first. A non-nil cursor resumes
	// after the given (CreatedAt, ID) position.
	ListUsages(ctx context.Context, promoID string, after *pagination.Cursor, limit int) ([]*Usage, error)
}

// NormalizeCode canonicalises user-entered codes: trimmed, uppercased.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeEmail canonicalises customer emails for usage bookkeeping.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
