package controllers

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/tenantfox/tenantfox/internal/pkg/billing"
	"github.com/tenantfox/tenantfox/internal/pkg/usercontext"
)

type fakeCheckoutProvider struct {
	lastParams billing.CheckoutParams
	session    *billing.CheckoutSession
	err        error
}

func (f *fakeCheckoutProvider) CreateCheckoutSession(_ context.Context, in billing.CheckoutParams) (*billing.CheckoutSession, error) {
	f.lastParams = in
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func (f *fakeCheckoutProvider) FetchSubscription(_ context.Context, _ string) (*billing.SubscriptionState, error) {
	return nil, errors.New("not implemented")
}

type fakeCheckoutFunnel struct {
	starts []string
}

func (f *fakeCheckoutFunnel) AddCheckoutStart(orgID string) {
	f.starts = append(f.starts, orgID)
}

func checkoutTestApp(t *testing.T, rc usercontext.RequestContext) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		usercontext.Set(c, rc)
		return c.Next()
	})
	app.Post("/api/checkout", HandleCreateCheckout)
	return app
}

func testCatalog() billing.Catalog {
	return billing.Catalog{
		"starter": {ID: "starter", Name: "Starter", TestPriceID: "price_test_starter", DevPriceID: "price_dev_starter", ProdPriceID: "price_prod_starter"},
	}
}

func TestHandleCreateCheckoutRequiresSession(t *testing.T) {
	provider := &fakeCheckoutProvider{}
	InitializeCheckoutController(testCatalog(), provider, nil)

	app := checkoutTestApp(t, usercontext.RequestContext{})
	req := httptest.NewRequest("POST", "/api/checkout", strings.NewReader(`{"planId":"starter","priceId":"price_test_starter"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestHandleCreateCheckoutRequiresOrganization(t *testing.T) {
	provider := &fakeCheckoutProvider{}
	InitializeCheckoutController(testCatalog(), provider, nil)

	app := checkoutTestApp(t, usercontext.RequestContext{UserID: "user_1", IsSignedIn: true})
	req := httptest.NewRequest("POST", "/api/checkout", strings.NewReader(`{"planId":"starter","priceId":"price_test_starter"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleCreateCheckoutRejectsUnknownPlan(t *testing.T) {
	provider := &fakeCheckoutProvider{}
	InitializeCheckoutController(testCatalog(), provider, nil)

	app := checkoutTestApp(t, usercontext.RequestContext{UserID: "user_1", OrgID: "org_1", IsSignedIn: true})
	req := httptest.NewRequest("POST", "/api/checkout", strings.NewReader(`{"planId":"enterprise","priceId":"price_x"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleCreateCheckoutRejectsMissingFields(t *testing.T) {
	provider := &fakeCheckoutProvider{}
	InitializeCheckoutController(testCatalog(), provider, nil)

	app := checkoutTestApp(t, usercontext.RequestContext{UserID: "user_1", OrgID: "org_1", IsSignedIn: true})
	req := httptest.NewRequest("POST", "/api/checkout", strings.NewReader(`{"planId":"starter"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleCreateCheckoutSuccess(t *testing.T) {
	t.Setenv("BILLING_PLAN_ENV", "test")

	provider := &fakeCheckoutProvider{session: &billing.CheckoutSession{ID: "cs_123", URL: "https://checkout.stripe.com/c/cs_123"}}
	funnel := &fakeCheckoutFunnel{}
	InitializeCheckoutController(testCatalog(), provider, funnel)

	app := checkoutTestApp(t, usercontext.RequestContext{UserID: "user_1", OrgID: "org_1", IsSignedIn: true})
	req := httptest.NewRequest("POST", "/api/checkout", strings.NewReader(`{"planId":"starter","priceId":"price_test_starter"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "cs_123")
	assert.Contains(t, string(body), "https://checkout.stripe.com/c/cs_123")

	assert.Equal(t, "org_1", provider.lastParams.OrgID)
	assert.Equal(t, "user_1", provider.lastParams.UserID)
	assert.Equal(t, "price_test_starter", provider.lastParams.PriceID)
	assert.Equal(t, []string{"org_1"}, funnel.starts)
}

func TestHandleCreateCheckoutOverridesForeignPrice(t *testing.T) {
	t.Setenv("BILLING_PLAN_ENV", "prod")

	provider := &fakeCheckoutProvider{session: &billing.CheckoutSession{ID: "cs_456", URL: "https://checkout.stripe.com/c/cs_456"}}
	InitializeCheckoutController(testCatalog(), provider, nil)

	app := checkoutTestApp(t, usercontext.RequestContext{UserID: "user_1", OrgID: "org_1", IsSignedIn: true})
	// Caller sends the test-mode price; the prod environment wins.
	req := httptest.NewRequest("POST", "/api/checkout", strings.NewReader(`{"planId":"starter","priceId":"price_test_starter"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "price_prod_starter", provider.lastParams.PriceID)
}

func TestHandleCreateCheckoutProviderFailure(t *testing.T) {
	t.Setenv("BILLING_PLAN_ENV", "test")

	provider := &fakeCheckoutProvider{err: errors.New("stripe is down")}
	funnel := &fakeCheckoutFunnel{}
	InitializeCheckoutController(testCatalog(), provider, funnel)

	app := checkoutTestApp(t, usercontext.RequestContext{UserID: "user_1", OrgID: "org_1", IsSignedIn: true})
	req := httptest.NewRequest("POST", "/api/checkout", strings.NewReader(`{"planId":"starter","priceId":"price_test_starter"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Empty(t, funnel.starts)
}
