package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	c := Default()

	a, err := c.Lookup("email")
	require.NoError(t, err)
	assert.Equal(t, "AI Email Automation", a.Name)
	assert.Equal(t, int64(99700), a.SetupFee)

	// Case-insensitive with surrounding whitespace
	a, err = c.Lookup("  EMAIL ")
	require.NoError(t, err)
	assert.Equal(t, "email", a.ID)

	_, err = c.Lookup("nonexistent")
	assert.ErrorIs(t, err, ErrAutomationNotFound)
}

func TestLookupBundle(t *testing.T) {
	c := Default()

	b, err := c.LookupBundle("launchpad")
	require.NoError(t, err)
	assert.Equal(t, int64(149700), b.SetupFee)
	assert.Equal(t, int64(34700), b.MonthlyFee)

	_, err = c.LookupBundle("nonexistent")
	assert.ErrorIs(t, err, ErrBundleNotFound)
}

func TestTierPrice(t *testing.T) {
	c := Default()
	a, err := c.Lookup("email")
	require.NoError(t, err)

	price, err := c.TierPrice(a, TierProfessional)
	require.NoError(t, err)
	assert.Equal(t, int64(29700), price)

	// Unrecognised tier is rejected, never silently zero
	_, err = c.TierPrice(a, Tier("enterprise"))
	assert.ErrorIs(t, err, ErrUnknownTier)
}

func TestValidTier(t *testing.T) {
	assert.True(t, ValidTier(TierStarter))
	assert.True(t, ValidTier(TierProfessional))
	assert.True(t, ValidTier(TierBusiness))
	assert.False(t, ValidTier(Tier("enterprise")))
	assert.False(t, ValidTier(Tier("")))
}

func TestListingOrder(t *testing.T) {
	c := Default()

	autos := c.Automations()
	require.NotEmpty(t, autos)
	assert.Equal(t, "email", autos[0].ID)

	bundles := c.Bundles()
	require.Len(t, bundles, 3)
	assert.Equal(t, "launchpad", bundles[0].ID)
}

func TestEveryAutomationHasAllTiers(t *testing.T) {
	c := Default()
	for _, a := range c.Automations() {
		for _, tier := range []Tier{TierStarter, TierProfessional, TierBusiness} {
			price, err := c.TierPrice(a, tier)
			require.NoError(t, err, "automation %s tier %s", a.ID, tier)
			assert.Positive(t, price)
		}
		assert.Positive(t, a.SetupFee)
	}
}
