package middleware

import (
	"strings"

	"github.com/tenantfox/tenantfox/internal/pkg/constants"
)

// RouteConfig classifies request paths into the traits the gate middleware
// gates on. It is immutable after construction; classification is
// locale-agnostic (a leading supported-locale segment never changes the
// result).
type RouteConfig struct {
	locales LocaleConfig

	protected  []string
	paid       []string
	onboarding []string
	api        []string
}

// NewRouteConfig builds the static rule set for the onboarding flow.
func NewRouteConfig(locales LocaleConfig) RouteConfig {
	return RouteConfig{
		locales: locales,
		protected: []string{
			constants.DashboardRoute,
			constants.OrganizationSelectionRoute,
			constants.PaymentRoute,
			constants.CheckoutSuccessRoute,
			constants.CheckoutCancelRoute,
		},
		paid: []string{
			constants.DashboardRoute,
		},
		onboarding: []string{
			constants.OrganizationSelectionRoute,
			constants.PaymentRoute,
			"/checkout",
		},
		api: []string{
			constants.APIPrefix,
		},
	}
}

// IsProtected reports whether the path requires an authenticated session.
func (rc RouteConfig) IsProtected(path string) bool {
	return rc.matches(path, rc.protected)
}

// IsPaid reports whether the path additionally requires an active
// subscription.
func (rc RouteConfig) IsPaid(path string) bool {
	return rc.matches(path, rc.paid)
}

// IsOnboarding reports whether the path may be visited without an
// organization or without payment.
func (rc RouteConfig) IsOnboarding(path string) bool {
	return rc.matches(path, rc.onboarding)
}

// IsAPI reports whether the path belongs to the API surface.
func (rc RouteConfig) IsAPI(path string) bool {
	return rc.matches(path, rc.api)
}

// IsAuthEntry reports whether the path is a sign-in/sign-up entry point.
func (rc RouteConfig) IsAuthEntry(path string) bool {
	return strings.Contains(path, constants.SignInRoute) || strings.Contains(path, constants.SignUpRoute)
}

func (rc RouteConfig) matches(path string, prefixes []string) bool {
	p := rc.locales.StripLocale(path)
	for _, prefix := range prefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}
