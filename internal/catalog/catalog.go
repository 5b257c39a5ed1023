// Package catalog holds the sellable product catalog for OasisAI Commerce.
//
// The catalog is static: automations and bundles are loaded once at process
// start and never mutated at runtime. All prices are integer minor-currency
// units (cents).
package catalog

import (
	"errors"
	"strings"
)

var (
	ErrAutomationNotFound = errors.New("catalog: automation not found")
	ErrBundleNotFound     = errors.New("catalog: bundle not found")
	ErrUnknownTier        = errors.New("catalog: unknown tier")
)

// Tier identifies one of the three service levels an automation is sold at.
type Tier string

const (
	TierStarter      Tier = "starter"
	TierProfessional Tier = "professional"
	TierBusiness     Tier = "business"
)

// ValidTier reports whether t is a recognised tier.
func ValidTier(t Tier) bool {
	switch t {
	case TierStarter, TierProfessional, TierBusiness:
		return true
	}
	return false
}

// Automation is a single productized automation sold per-tier.
type Automation struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	SetupFee    int64          `json:"setupFeeCents"`
	TierPrices  map[Tier]int64 `json:"tiers"`
	Features    []string       `json:"features"`
}

// Bundle is a flat-fee multi-automation package.
type Bundle struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	SetupFee   int64    `json:"setupFeeCents"`
	MonthlyFee int64    `json:"monthlyFeeCents"`
	Features   []string `json:"features"`
	IdealFor   string   `json:"idealFor"`
	Tag        string   `json:"tag,omitempty"`
}

// Catalog is an immutable lookup table of automations and bundles.
type Catalog struct {
	automations map[string]*Automation
	bundles     map[string]*Bundle

	// insertion order preserved for listing endpoints
	automationIDs []string
	bundleIDs     []string
}

// New builds a catalog from the given entries. Later entries with duplicate
// IDs overwrite earlier ones.
func New(automations []*Automation, bundles []*Bundle) *Catalog {
	c := &Catalog{
		automations: make(map[string]*Automation, len(automations)),
		bundles:     make(map[string]*Bundle, len(bundles)),
	}
	for _, a := range automations {
		id := strings.ToLower(a.ID)
		if _, ok := c.automations[id]; !ok {
			c.automationIDs = append(c.automationIDs, id)
		}
		c.automations[id] = a
	}
	for _, b := range bundles {
		id := strings.ToLower(b.ID)
		if _, ok := c.bundles[id]; !ok {
			c.bundleIDs = append(c.bundleIDs, id)
		}
		c.bundles[id] = b
	}
	return c
}

// Default returns the production catalog.
func Default() *Catalog {
	return New(defaultAutomations, defaultBundles)
}

// Lookup returns the automation with the given ID (case-insensitive).
func (c *Catalog) Lookup(id string) (*Automation, error) {
	a, ok := c.automations[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return nil, ErrAutomationNotFound
	}
	return a, nil
}

// LookupBundle returns the bundle with the given ID (case-insensitive).
func (c *Catalog) LookupBundle(id string) (*Bundle, error) {
	b, ok := c.bundles[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return nil, ErrBundleNotFound
	}
	return b, nil
}

// TierPrice returns the monthly fee for an automation at the given tier.
func (c *Catalog) TierPrice(a *Automation, tier Tier) (int64, error) {
	if !ValidTier(tier) {
		return 0, ErrUnknownTier
	}
	price, ok := a.TierPrices[tier]
	if !ok {
		return 0, ErrUnknownTier
	}
	return price, nil
}

// Automations returns all automations in catalog order.
func (c *Catalog) Automations() []*Automation {
	out := make([]*Automation, 0, len(c.automationIDs))
	for _, id := range c.automationIDs {
		out = append(out, c.automations[id])
	}
	return out
}

// Bundles returns all bundles in catalog order.
func (c *Catalog) Bundles() []*Bundle {
	out := make([]*Bundle, 0, len(c.bundleIDs))
	for _, id := range c.bundleIDs {
		out = append(out, c.bundles[id])
	}
	return out
}
