package promo

// FallbackValidator is a degraded validator over a small fixed table of
// codes. It exists so the pricing UI can keep estimating discounts when the
// authoritative store is unreachable. It tracks no usage and no expiry, so a
// decision it produces is always Provisional: the caller must re-validate
// through the authoritative path before recording usage or charging.
type FallbackValidator struct {
	codes map[string]fallbackCode
}

type fallbackCode struct {
	percent   int64
	appliesTo AppliesTo
}

// DefaultFallback returns the built-in fallback table. Keep this list short:
// only evergreen campaign codes belong here.
func DefaultFallback() *FallbackValidator {
	return &FallbackValidator{codes: map[string]fallbackCode{
		"OASISAI15": {percent: 15, appliesTo: AppliesSetup},
		"LAUNCH20":  {percent: 20, appliesTo: AppliesSetup},
		"WELCOME10": {percent: 10, appliesTo: AppliesBoth},
	}}
}

// Validate resolves a code against the fixed table. Unknown codes report
// not_found; there is no usage or window checking here.
func (f *FallbackValidator) Validate(code string, setupCents, monthlyCents int64) *Decision {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return &Decision{Valid: false, Reason: ReasonEmptyCode, Provisional: true}
	}

	entry, ok := f.codes[normalized]
	if !ok {
		return &Decision{Valid: false, Reason: ReasonNotFound, Provisional: true}
	}

	promo := &Code{
		Code:          normalized,
		DiscountType:  DiscountPercentage,
		DiscountValue: entry.percent,
		AppliesTo:     entry.appliesTo,
	}
	setupDisc, monthlyDisc, percent := computeDiscount(promo, setupCents, monthlyCents)
	return &Decision{
		Valid:           true,
		Code:            normalized,
		SetupDiscount:   setupDisc,
		MonthlyDiscount: monthlyDisc,
		DiscountPercent: percent,
		Provisional:     true,
	}
}
