package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testRoutes() RouteConfig {
	return NewRouteConfig(testLocales())
}

func TestRouteConfig_Protected(t *testing.T) {
	rc := testRoutes()

	for _, path := range []string{
		"/dashboard",
		"/dashboard/settings",
		"/onboarding/organization-selection",
		"/onboarding/payment",
		"/checkout/success",
		"/checkout/cancel",
	} {
		assert.True(t, rc.IsProtected(path), "expected %s to be protected", path)
		assert.True(t, rc.IsProtected("/fr"+path), "expected /fr%s to be protected", path)
	}

	assert.False(t, rc.IsProtected("/"))
	assert.False(t, rc.IsProtected("/about"))
	assert.False(t, rc.IsProtected("/api/webhooks/stripe"))
}

func TestRouteConfig_Paid(t *testing.T) {
	rc := testRoutes()

	assert.True(t, rc.IsPaid("/dashboard"))
	assert.True(t, rc.IsPaid("/de/dashboard/reports"))
	assert.False(t, rc.IsPaid("/onboarding/payment"))
	assert.False(t, rc.IsPaid("/checkout/success"))
}

func TestRouteConfig_Onboarding(t *testing.T) {
	rc := testRoutes()

	assert.True(t, rc.IsOnboarding("/onboarding/organization-selection"))
	assert.True(t, rc.IsOnboarding("/fr/onboarding/payment"))
	assert.True(t, rc.IsOnboarding("/checkout/success"))
	assert.False(t, rc.IsOnboarding("/dashboard"))
}

func TestRouteConfig_API(t *testing.T) {
	rc := testRoutes()

	assert.True(t, rc.IsAPI("/api/checkout"))
	assert.True(t, rc.IsAPI("/api/webhooks/stripe"))
	assert.True(t, rc.IsAPI("/fr/api/checkout"))
	assert.False(t, rc.IsAPI("/dashboard"))
}

func TestRouteConfig_AuthEntry(t *testing.T) {
	rc := testRoutes()

	assert.True(t, rc.IsAuthEntry("/sign-in"))
	assert.True(t, rc.IsAuthEntry("/fr/sign-up"))
	assert.False(t, rc.IsAuthEntry("/dashboard"))
}

// Stripping a locale prefix must never change classification.
func TestRouteConfig_LocaleAgnostic(t *testing.T) {
	rc := testRoutes()

	paths := []string{"/dashboard", "/onboarding/payment", "/api/checkout", "/about"}
	for _, path := range paths {
		for _, locale := range []string{"fr", "de"} {
			prefixed := "/" + locale + path
			assert.Equal(t, rc.IsProtected(path), rc.IsProtected(prefixed), path)
			assert.Equal(t, rc.IsPaid(path), rc.IsPaid(prefixed), path)
			assert.Equal(t, rc.IsOnboarding(path), rc.IsOnboarding(prefixed), path)
			assert.Equal(t, rc.IsAPI(path), rc.IsAPI(prefixed), path)
		}
	}
}
