package promo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T, codes ...*Code) (*Resolver, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	for _, c := range codes {
		require.NoError(t, store.Create(context.Background(), c))
	}
	return NewResolver(store, nil), store
}

func percentCode(id, code string, percent int64, appliesTo AppliesTo) *Code {
	return &Code{
		ID:            id,
		Code:          code,
		DiscountType:  DiscountPercentage,
		DiscountValue: percent,
		AppliesTo:     appliesTo,
		IsActive:      true,
	}
}

func TestValidate_PercentageSetupOnly(t *testing.T) {
	// 15% off setup on a $1,497.00 setup / $347.00 monthly quote.
	r, _ := newTestResolver(t, percentCode("promo_1", "OASISAI15", 15, AppliesSetup))

	d, err := r.Validate(context.Background(), "OASISAI15", "alice@example.com", 149700, 34700, time.Now())
	require.NoError(t, err)
	require.True(t, d.Valid)
	assert.Equal(t, int64(22455), d.SetupDiscount)
	assert.Equal(t, int64(0), d.MonthlyDiscount, "setup-only promo must never discount the recurring charge")
	assert.Equal(t, int64(15), d.DiscountPercent)
	assert.Equal(t, "promo_1", d.PromoID)
}

func TestValidate_CodeNormalization(t *testing.T) {
	r, _ := newTestResolver(t, percentCode("promo_1", "OASISAI15", 15, AppliesSetup))

	d, err := r.Validate(context.Background(), "  oasisai15 ", "alice@example.com", 149700, 34700, time.Now())
	require.NoError(t, err)
	assert.True(t, d.Valid)
}

func TestValidate_FixedDiscountClampedToCost(t *testing.T) {
	// A fixed $50 discount against a $30 setup fee clamps to $30.
	r, _ := newTestResolver(t, &Code{
		ID:            "promo_1",
		Code:          "FIFTYOFF",
		DiscountType:  DiscountFixed,
		DiscountValue: 5000,
		AppliesTo:     AppliesSetup,
		IsActive:      true,
	})

	d, err := r.Validate(context.Background(), "FIFTYOFF", "alice@example.com", 3000, 0, time.Now())
	require.NoError(t, err)
	require.True(t, d.Valid)
	assert.Equal(t, int64(3000), d.SetupDiscount)
	assert.Equal(t, int64(0), d.MonthlyDiscount)
}

func TestValidate_MonthlyOnlyIsolation(t *testing.T) {
	r, _ := newTestResolver(t, percentCode("promo_1", "MONTHLY10", 10, AppliesMonthly))

	d, err := r.Validate(context.Background(), "MONTHLY10", "alice@example.com", 149700, 34700, time.Now())
	require.NoError(t, err)
	require.True(t, d.Valid)
	assert.Equal(t, int64(0), d.SetupDiscount)
	assert.Equal(t, int64(3470), d.MonthlyDiscount)
}

func TestValidate_PercentClampedToMax(t *testing.T) {
	// A misconfigured 90% record is clamped to the 50% bound.
	r, _ := newTestResolver(t, percentCode("promo_1", "NINETY", 90, AppliesBoth))

	d, err := r.Validate(context.Background(), "NINETY", "alice@example.com", 10000, 2000, time.Now())
	require.NoError(t, err)
	require.True(t, d.Valid)
	assert.Equal(t, int64(50), d.DiscountPercent)
	assert.Equal(t, int64(5000), d.SetupDiscount)
	assert.Equal(t, int64(1000), d.MonthlyDiscount)
}

func TestValidate_DiscountNeverExceedsCostBasis(t *testing.T) {
	cases := []struct {
		name    string
		code    *Code
		setup   int64
		monthly int64
	}{
		{"huge percent", percentCode("p1", "A", 100, AppliesBoth), 999, 1},
		{"huge fixed", &Code{ID: "p2", Code: "B", DiscountType: DiscountFixed, DiscountValue: 1 << 40, AppliesTo: AppliesBoth, IsActive: true}, 12345, 678},
		{"negative value", &Code{ID: "p3", Code: "C", DiscountType: DiscountFixed, DiscountValue: -500, AppliesTo: AppliesBoth, IsActive: true}, 1000, 1000},
		{"zero basis", percentCode("p4", "D", 50, AppliesBoth), 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := newTestResolver(t, tc.code)
			d, err := r.Validate(context.Background(), tc.code.Code, "a@b.com", tc.setup, tc.monthly, time.Now())
			require.NoError(t, err)
			require.True(t, d.Valid)
			assert.GreaterOrEqual(t, d.SetupDiscount, int64(0))
			assert.LessOrEqual(t, d.SetupDiscount, tc.setup)
			assert.GreaterOrEqual(t, d.MonthlyDiscount, int64(0))
			assert.LessOrEqual(t, d.MonthlyDiscount, tc.monthly)
		})
	}
}

func TestValidate_RejectionReasons(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("empty code", func(t *testing.T) {
		r, _ := newTestResolver(t)
		d, err := r.Validate(context.Background(), "   ", "a@b.com", 1000, 0, now)
		require.NoError(t, err)
		assert.False(t, d.Valid)
		assert.Equal(t, ReasonEmptyCode, d.Reason)
	})

	t.Run("unknown code", func(t *testing.T) {
		r, _ := newTestResolver(t)
		d, err := r.Validate(context.Background(), "NOPE", "a@b.com", 1000, 0, now)
		require.NoError(t, err)
		assert.Equal(t, ReasonNotFound, d.Reason)
	})

	t.Run("inactive code reports not_found", func(t *testing.T) {
		code := percentCode("p1", "RETIRED", 10, AppliesSetup)
		code.IsActive = false
		r, _ := newTestResolver(t, code)
		d, err := r.Validate(context.Background(), "RETIRED", "a@b.com", 1000, 0, now)
		require.NoError(t, err)
		assert.Equal(t, ReasonNotFound, d.Reason)
	})

	t.Run("expired", func(t *testing.T) {
		code := percentCode("p1", "OLD", 10, AppliesSetup)
		code.ValidUntil = now.Add(-time.Hour)
		r, _ := newTestResolver(t, code)
		d, err := r.Validate(context.Background(), "OLD", "a@b.com", 1000, 0, now)
		require.NoError(t, err)
		assert.Equal(t, ReasonExpired, d.Reason)
	})

	t.Run("not yet active", func(t *testing.T) {
		code := percentCode("p1", "SOON", 10, AppliesSetup)
		code.ValidFrom = now.Add(time.Hour)
		r, _ := newTestResolver(t, code)
		d, err := r.Validate(context.Background(), "SOON", "a@b.com", 1000, 0, now)
		require.NoError(t, err)
		assert.Equal(t, ReasonNotYetActive, d.Reason)
	})

	t.Run("usage limit reached", func(t *testing.T) {
		code := percentCode("p1", "CAPPED", 10, AppliesSetup)
		code.MaxUses = 3
		code.UsesCount = 3
		r, _ := newTestResolver(t, code)
		d, err := r.Validate(context.Background(), "CAPPED", "a@b.com", 1000, 0, now)
		require.NoError(t, err)
		assert.Equal(t, ReasonUsageLimitReached, d.Reason)
	})

	t.Run("already used", func(t *testing.T) {
		r, store := newTestResolver(t, percentCode("p1", "ONCE", 10, AppliesSetup))
		_, err := store.RecordUsage(context.Background(), &Usage{
			ID: "use_1", PromoCodeID: "p1", UserEmail: "A@B.com",
		})
		require.NoError(t, err)

		// Email matching is case-insensitive.
		d, err := r.Validate(context.Background(), "ONCE", "a@b.com", 1000, 0, now)
		require.NoError(t, err)
		assert.Equal(t, ReasonAlreadyUsed, d.Reason)

		// A different customer can still use the code.
		d, err = r.Validate(context.Background(), "ONCE", "c@d.com", 1000, 0, now)
		require.NoError(t, err)
		assert.True(t, d.Valid)
	})
}

func TestValidate_OrderingIsDeterministic(t *testing.T) {
	// A code that is expired AND already used by the caller must always
	// report expired: the expiry check runs before the usage check.
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	code := percentCode("p1", "BOTH", 10, AppliesSetup)
	code.ValidUntil = now.Add(-time.Hour)
	r, store := newTestResolver(t, code)

	_, err := store.RecordUsage(context.Background(), &Usage{
		ID: "use_1", PromoCodeID: "p1", UserEmail: "a@b.com",
	})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		d, err := r.Validate(context.Background(), "BOTH", "a@b.com", 1000, 0, now)
		require.NoError(t, err)
		assert.Equal(t, ReasonExpired, d.Reason)
	}
}

func TestValidate_NoExpirySetMeansNoExpiry(t *testing.T) {
	r, _ := newTestResolver(t, percentCode("p1", "FOREVER", 10, AppliesSetup))

	farFuture := time.Date(2126, 1, 1, 0, 0, 0, 0, time.UTC)
	d, err := r.Validate(context.Background(), "FOREVER", "a@b.com", 1000, 0, farFuture)
	require.NoError(t, err)
	assert.True(t, d.Valid)
}

func TestRecordUsage_Idempotent(t *testing.T) {
	code := percentCode("p1", "ONCE", 10, AppliesSetup)
	r, store := newTestResolver(t, code)
	ctx := context.Background()

	require.NoError(t, r.RecordUsage(ctx, "p1", "Alice@Example.com", 2455, "user_1", "order_1"))
	// Webhook redelivery: same promo + customer again.
	require.NoError(t, r.RecordUsage(ctx, "p1", "alice@example.com", 2455, "user_1", "order_1"))

	usages, err := store.ListUsages(ctx, "p1", nil, 10)
	require.NoError(t, err)
	assert.Len(t, usages, 1, "redelivery must not create a duplicate ledger entry")
	assert.Equal(t, "alice@example.com", usages[0].UserEmail)

	got, err := store.GetByCode(ctx, "ONCE")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.UsesCount, "counter incremented at most once")
}

func TestRecordUsage_CounterRespectsCap(t *testing.T) {
	code := percentCode("p1", "CAP1", 10, AppliesSetup)
	code.MaxUses = 1
	r, store := newTestResolver(t, code)
	ctx := context.Background()

	require.NoError(t, r.RecordUsage(ctx, "p1", "a@b.com", 100, "", "order_1"))
	// A second customer slipped through validation before the cap was hit;
	// their usage row stands but the counter stays at the cap.
	require.NoError(t, r.RecordUsage(ctx, "p1", "c@d.com", 100, "", "order_2"))

	got, err := store.GetByCode(ctx, "CAP1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.UsesCount)

	usages, err := store.ListUsages(ctx, "p1", nil, 10)
	require.NoError(t, err)
	assert.Len(t, usages, 2)
}
