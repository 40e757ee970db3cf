package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tenantfox/tenantfox/internal/pkg/constants"
	"github.com/tenantfox/tenantfox/internal/pkg/env"
	"github.com/tenantfox/tenantfox/internal/pkg/usercontext"
)

// HandleHome is the public landing page.
func HandleHome(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"page":      "home",
		"dashboard": constants.DashboardRoute,
		"signIn":    constants.SignInRoute,
	})
}

// HandleDashboard is the paid application surface. The gate only lets
// subscribed organizations this far.
func HandleDashboard(c *fiber.Ctx) error {
	rc := usercontext.Get(c)
	return c.JSON(fiber.Map{
		"page":   "dashboard",
		"userId": rc.UserID,
		"orgId":  rc.OrgID,
	})
}

// HandleOrganizationSelection is shown to signed-in users without an
// active organization.
func HandleOrganizationSelection(c *fiber.Ctx) error {
	rc := usercontext.Get(c)
	return c.JSON(fiber.Map{
		"page":   "organization-selection",
		"userId": rc.UserID,
	})
}

// HandlePayment presents the plan catalog for the checkout step.
func HandlePayment(c *fiber.Ctx) error {
	rc := usercontext.Get(c)
	planEnv := env.BillingPlanEnv()

	plans := make([]fiber.Map, 0, len(checkoutCatalog))
	for _, plan := range checkoutCatalog {
		priceID := plan.PriceIDFor(planEnv)
		if priceID == "" {
			continue
		}
		plans = append(plans, fiber.Map{
			"id":      plan.ID,
			"name":    plan.Name,
			"priceId": priceID,
		})
	}

	return c.JSON(fiber.Map{
		"page":     "payment",
		"orgId":    rc.OrgID,
		"plans":    plans,
		"checkout": "/api/checkout",
	})
}

// HandleCheckoutSuccess is the return page after a completed checkout. The
// subscription is not necessarily active yet; the client polls the status
// endpoint until the webhook has been reconciled.
func HandleCheckoutSuccess(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"page":      "checkout-success",
		"sessionId": c.Query("session_id"),
		"statusUrl": "/api/v1/subscription/status",
	})
}

// HandleCheckoutCancel is the return page for an abandoned checkout.
func HandleCheckoutCancel(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"page":    "checkout-cancel",
		"payment": constants.PaymentRoute,
	})
}

// HandleSignIn points at the hosted sign-in surface of the auth provider.
func HandleSignIn(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"page":   "sign-in",
		"hosted": env.GetEnv("AUTH_PROVIDER_SIGN_IN_URL", ""),
	})
}

// HandleSignUp points at the hosted sign-up surface of the auth provider.
func HandleSignUp(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"page":   "sign-up",
		"hosted": env.GetEnv("AUTH_PROVIDER_SIGN_UP_URL", ""),
	})
}
