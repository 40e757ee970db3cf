package billing

import (
	"errors"
	"strings"

	"github.com/tenantfox/tenantfox/internal/pkg/env"
)

var (
	ErrUnknownPlan        = errors.New("billing: unknown plan")
	ErrPriceNotConfigured = errors.New("billing: price id not configured for this environment")
)

// Plan describes one entry of the static pricing catalog. Each plan carries
// one Stripe price id per billing environment.
type Plan struct {
	ID          string
	Name        string
	TestPriceID string
	DevPriceID  string
	ProdPriceID string
}

// Catalog maps plan ids to plans.
type Catalog map[string]Plan

// CatalogFromEnv builds the pricing catalog with price ids taken from the
// environment. Plans without configured prices stay in the catalog but fail
// at checkout with ErrPriceNotConfigured.
func CatalogFromEnv() Catalog {
	return Catalog{
		"starter": {
			ID:          "starter",
			Name:        "Starter",
			TestPriceID: env.GetEnv("STRIPE_PRICE_STARTER_TEST", ""),
			DevPriceID:  env.GetEnv("STRIPE_PRICE_STARTER_DEV", ""),
			ProdPriceID: env.GetEnv("STRIPE_PRICE_STARTER_PROD", ""),
		},
		"pro": {
			ID:          "pro",
			Name:        "Pro",
			TestPriceID: env.GetEnv("STRIPE_PRICE_PRO_TEST", ""),
			DevPriceID:  env.GetEnv("STRIPE_PRICE_PRO_DEV", ""),
			ProdPriceID: env.GetEnv("STRIPE_PRICE_PRO_PROD", ""),
		},
	}
}

// Get looks up a plan by id, case-insensitively.
func (c Catalog) Get(planID string) (Plan, bool) {
	p, ok := c[strings.ToLower(strings.TrimSpace(planID))]
	return p, ok
}

// PriceIDFor returns the price id for the given billing environment
// (test, dev or prod).
func (p Plan) PriceIDFor(billingEnv string) string {
	switch billingEnv {
	case "prod":
		return p.ProdPriceID
	case "dev":
		return p.DevPriceID
	default:
		return p.TestPriceID
	}
}

// ResolvePriceID validates the plan and returns the environment-specific
// price id. A caller-supplied price id that matches is kept; a mismatched one
// is silently overridden by the server-selected price rather than rejected.
func (c Catalog) ResolvePriceID(planID, requestedPriceID, billingEnv string) (string, error) {
	plan, ok := c.Get(planID)
	if !ok {
		return "", ErrUnknownPlan
	}

	selected := plan.PriceIDFor(billingEnv)
	if selected == "" {
		return "", ErrPriceNotConfigured
	}
	// Always return the server-selected id; the caller's copy may carry
	// whitespace even when it names the right price.
	return selected, nil
}
