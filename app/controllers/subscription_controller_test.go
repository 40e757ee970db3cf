package controllers

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/tenantfox/tenantfox/internal/pkg/authprovider"
	"github.com/tenantfox/tenantfox/internal/pkg/usercontext"
)

type fakeOrgReader struct {
	orgs map[string]*authprovider.Organization
	err  error
}

func (f *fakeOrgReader) GetOrganization(_ context.Context, orgID string) (*authprovider.Organization, error) {
	if f.err != nil {
		return nil, f.err
	}
	org, ok := f.orgs[orgID]
	if !ok {
		return nil, errors.New("organization not found")
	}
	return org, nil
}

func statusTestApp(t *testing.T, rc usercontext.RequestContext, orgs *fakeOrgReader) *fiber.App {
	t.Helper()
	InitializeSubscriptionController(orgs)
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		usercontext.Set(c, rc)
		return c.Next()
	})
	app.Get("/api/v1/subscription/status", HandleSubscriptionStatus)
	return app
}

func TestHandleSubscriptionStatusRequiresSession(t *testing.T) {
	app := statusTestApp(t, usercontext.RequestContext{}, &fakeOrgReader{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/subscription/status", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestHandleSubscriptionStatusRequiresOrganization(t *testing.T) {
	app := statusTestApp(t, usercontext.RequestContext{UserID: "user_1", IsSignedIn: true}, &fakeOrgReader{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/subscription/status", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleSubscriptionStatusActive(t *testing.T) {
	orgs := &fakeOrgReader{orgs: map[string]*authprovider.Organization{
		"org_1": {ID: "org_1", PublicMetadata: authprovider.OrganizationMetadata{SubscriptionActive: true, SubscriptionStatus: "active"}},
	}}
	app := statusTestApp(t, usercontext.RequestContext{UserID: "user_1", OrgID: "org_1", IsSignedIn: true}, orgs)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/subscription/status", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"active":true`)
	assert.Contains(t, string(body), `"status":"active"`)
}

func TestHandleSubscriptionStatusPendingWebhook(t *testing.T) {
	// Right after checkout the metadata mirror may not have been written yet.
	orgs := &fakeOrgReader{orgs: map[string]*authprovider.Organization{
		"org_1": {ID: "org_1"},
	}}
	app := statusTestApp(t, usercontext.RequestContext{UserID: "user_1", OrgID: "org_1", IsSignedIn: true}, orgs)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/subscription/status", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"active":false`)
}

func TestHandleSubscriptionStatusLookupFailureReportsInactive(t *testing.T) {
	orgs := &fakeOrgReader{err: errors.New("provider unreachable")}
	app := statusTestApp(t, usercontext.RequestContext{UserID: "user_1", OrgID: "org_1", IsSignedIn: true}, orgs)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/subscription/status", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"active":false`)
}
