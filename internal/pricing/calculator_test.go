package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oasisai/commerce/internal/catalog"
	"github.com/oasisai/commerce/internal/promo"
)

// fakeValidator returns a canned decision or error.
type fakeValidator struct {
	decision *promo.Decision
	err      error

	gotCode    string
	gotSetup   int64
	gotMonthly int64
}

func (f *fakeValidator) Validate(ctx context.Context, code, userEmail string, setupCents, monthlyCents int64, now time.Time) (*promo.Decision, error) {
	f.gotCode = code
	f.gotSetup = setupCents
	f.gotMonthly = monthlyCents
	if f.err != nil {
		return nil, f.err
	}
	return f.decision, nil
}

func TestQuote_BundleBasePricing(t *testing.T) {
	calc := NewCalculator(catalog.Default(), nil)

	q, err := calc.Quote(context.Background(), QuoteRequest{
		ProductID:   "launchpad",
		ProductType: ProductBundle,
	})
	require.NoError(t, err)
	assert.Equal(t, "Launchpad Bundle", q.ProductName)
	assert.Equal(t, int64(149700), q.SetupFee)
	assert.Equal(t, int64(34700), q.MonthlyFee)
	assert.Equal(t, "usd", q.Currency)
	assert.False(t, q.Discounted())
}

func TestQuote_AutomationTierPricing(t *testing.T) {
	calc := NewCalculator(catalog.Default(), nil)

	q, err := calc.Quote(context.Background(), QuoteRequest{
		ProductID:   "email",
		ProductType: ProductAutomation,
		Tier:        catalog.TierProfessional,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(99700), q.SetupFee)
	assert.Equal(t, int64(29700), q.MonthlyFee)
	assert.Equal(t, catalog.TierProfessional, q.Tier)
}

func TestQuote_InvalidProductAndTier(t *testing.T) {
	calc := NewCalculator(catalog.Default(), nil)
	ctx := context.Background()

	_, err := calc.Quote(ctx, QuoteRequest{ProductID: "nonexistent", ProductType: ProductAutomation, Tier: catalog.TierStarter})
	assert.ErrorIs(t, err, ErrInvalidProduct)

	_, err = calc.Quote(ctx, QuoteRequest{ProductID: "nonexistent", ProductType: ProductBundle})
	assert.ErrorIs(t, err, ErrInvalidProduct)

	_, err = calc.Quote(ctx, QuoteRequest{ProductID: "email", ProductType: "subscription"})
	assert.ErrorIs(t, err, ErrInvalidProduct)

	// Tier is required for automations...
	_, err = calc.Quote(ctx, QuoteRequest{ProductID: "email", ProductType: ProductAutomation})
	assert.ErrorIs(t, err, ErrInvalidTier)

	// ...and must be one of the recognised three.
	_, err = calc.Quote(ctx, QuoteRequest{ProductID: "email", ProductType: ProductAutomation, Tier: catalog.Tier("enterprise")})
	assert.ErrorIs(t, err, ErrInvalidTier)
}

func TestQuote_CurrencyNormalization(t *testing.T) {
	calc := NewCalculator(catalog.Default(), nil)
	ctx := context.Background()

	q, err := calc.Quote(ctx, QuoteRequest{ProductID: "launchpad", ProductType: ProductBundle, Currency: "EUR"})
	require.NoError(t, err)
	assert.Equal(t, "eur", q.Currency)

	_, err = calc.Quote(ctx, QuoteRequest{ProductID: "launchpad", ProductType: ProductBundle, Currency: "dollars"})
	assert.ErrorIs(t, err, ErrInvalidCurrency)

	_, err = calc.Quote(ctx, QuoteRequest{ProductID: "launchpad", ProductType: ProductBundle, Currency: "u$d"})
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestQuote_ServerDiscountClampedAndRounded(t *testing.T) {
	calc := NewCalculator(catalog.Default(), nil)
	ctx := context.Background()

	// 10% off launchpad: each fee rounds half-up independently.
	q, err := calc.Quote(ctx, QuoteRequest{
		ProductID: "launchpad", ProductType: ProductBundle,
		ServerDiscountPercent: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(134730), q.SetupFee)  // 149700 - 14970
	assert.Equal(t, int64(31230), q.MonthlyFee) // 34700 - 3470
	assert.Equal(t, int64(10), q.DiscountPercent)

	// A misconfigured 95% campaign is clamped to 50%.
	q, err = calc.Quote(ctx, QuoteRequest{
		ProductID: "launchpad", ProductType: ProductBundle,
		ServerDiscountPercent: 95,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(50), q.DiscountPercent)
	assert.Equal(t, int64(74850), q.SetupFee)

	// Negative percent is ignored.
	q, err = calc.Quote(ctx, QuoteRequest{
		ProductID: "launchpad", ProductType: ProductBundle,
		ServerDiscountPercent: -5,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), q.DiscountPercent)
	assert.Equal(t, int64(149700), q.SetupFee)
}

func TestRoundPercent_HalfUp(t *testing.T) {
	// 10% of 10005 is 1000.5 which rounds up to 1001.
	assert.Equal(t, int64(1001), roundPercent(10005, 10))
	// 15% of 149700 is exact.
	assert.Equal(t, int64(22455), roundPercent(149700, 15))
	assert.Equal(t, int64(0), roundPercent(0, 10))
	assert.Equal(t, int64(0), roundPercent(100, 0))
}

func TestQuote_PromoAppliedOnTopOfServerDiscount(t *testing.T) {
	fake := &fakeValidator{decision: &promo.Decision{
		Valid:           true,
		PromoID:         "promo_1",
		Code:            "OASISAI15",
		SetupDiscount:   20210, // 15% of the post-campaign setup fee
		DiscountPercent: 15,
	}}
	calc := NewCalculator(catalog.Default(), fake)

	q, err := calc.Quote(context.Background(), QuoteRequest{
		ProductID: "launchpad", ProductType: ProductBundle,
		PromoCode: "OASISAI15", UserEmail: "a@b.com",
		ServerDiscountPercent: 10,
	})
	require.NoError(t, err)

	// The resolver saw the post-campaign basis, not the list price.
	assert.Equal(t, int64(134730), fake.gotSetup)
	assert.Equal(t, int64(31230), fake.gotMonthly)

	// Per-field cents subtracted on top, not compounded.
	assert.Equal(t, int64(134730-20210), q.SetupFee)
	assert.Equal(t, int64(31230), q.MonthlyFee)
	assert.Equal(t, int64(15), q.DiscountPercent)
	assert.Equal(t, "promo_1", q.PromoCodeID)
	assert.True(t, q.Discounted())
}

func TestQuote_PromoDiscountClampsAtZero(t *testing.T) {
	fake := &fakeValidator{decision: &promo.Decision{
		Valid:         true,
		PromoID:       "promo_1",
		SetupDiscount: 1 << 40, // larger than any fee
	}}
	calc := NewCalculator(catalog.Default(), fake)

	q, err := calc.Quote(context.Background(), QuoteRequest{
		ProductID: "launchpad", ProductType: ProductBundle,
		PromoCode: "BIG", UserEmail: "a@b.com",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), q.SetupFee, "a discount can never cause a negative charge")
	assert.Equal(t, int64(34700), q.MonthlyFee)
}

func TestQuote_PromoRejectionIsAllOrNothing(t *testing.T) {
	fake := &fakeValidator{decision: &promo.Decision{Valid: false, Reason: promo.ReasonExpired}}
	calc := NewCalculator(catalog.Default(), fake)

	_, err := calc.Quote(context.Background(), QuoteRequest{
		ProductID: "launchpad", ProductType: ProductBundle,
		PromoCode: "OLD", UserEmail: "a@b.com",
	})

	var rejected *PromoRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, promo.ReasonExpired, rejected.Reason)
}

func TestQuote_PromoStoreOutageFailsQuote(t *testing.T) {
	fake := &fakeValidator{err: errors.New("connection refused")}
	calc := NewCalculator(catalog.Default(), fake)

	_, err := calc.Quote(context.Background(), QuoteRequest{
		ProductID: "launchpad", ProductType: ProductBundle,
		PromoCode: "OASISAI15", UserEmail: "a@b.com",
	})
	require.Error(t, err)

	var rejected *PromoRejectedError
	assert.False(t, errors.As(err, &rejected), "an outage is not a promo rejection")
}

func TestQuote_EndToEndWithRealResolver(t *testing.T) {
	store := promo.NewMemoryStore()
	require.NoError(t, store.Create(context.Background(), &promo.Code{
		ID:            "promo_1",
		Code:          "OASISAI15",
		DiscountType:  promo.DiscountPercentage,
		DiscountValue: 15,
		AppliesTo:     promo.AppliesSetup,
		IsActive:      true,
	}))
	calc := NewCalculator(catalog.Default(), promo.NewResolver(store, nil))

	q, err := calc.Quote(context.Background(), QuoteRequest{
		ProductID: "launchpad", ProductType: ProductBundle,
		PromoCode: "OASISAI15", UserEmail: "alice@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(149700-22455), q.SetupFee)
	assert.Equal(t, int64(34700), q.MonthlyFee)
	assert.Equal(t, int64(22455), q.SetupDiscount)
	assert.Equal(t, int64(15), q.DiscountPercent)
}
