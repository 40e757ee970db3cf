package controllers

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/tenantfox/tenantfox/internal/pkg/billing"
	"github.com/tenantfox/tenantfox/internal/pkg/env"
	"github.com/tenantfox/tenantfox/internal/pkg/usercontext"
)

// CheckoutRequest is the payload of POST /api/checkout.
type CheckoutRequest struct {
	PlanID  string `json:"planId" validate:"required"`
	PriceID string `json:"priceId" validate:"required"`
}

// CheckoutFunnel counts checkout starts. Nil disables counting.
type CheckoutFunnel interface {
	AddCheckoutStart(orgID string)
}

var validate = validator.New()

var (
	checkoutCatalog  billing.Catalog
	checkoutProvider billing.Provider
	checkoutFunnel   CheckoutFunnel
)

// InitializeCheckoutController wires the checkout endpoint's dependencies.
func InitializeCheckoutController(catalog billing.Catalog, provider billing.Provider, funnel CheckoutFunnel) {
	checkoutCatalog = catalog
	checkoutProvider = provider
	checkoutFunnel = funnel
}

// HandleCreateCheckout authenticates the caller, validates the requested
// plan, resolves the environment-specific price and opens a provider-hosted
// subscription checkout. Responds with the session id and redirect URL.
func HandleCreateCheckout(c *fiber.Ctx) error {
	rc := usercontext.Get(c)
	if !rc.IsSignedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	if rc.OrgID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Organization required. Please create or select an organization first.",
		})
	}

	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Price ID and Plan ID are required"})
	}

	priceID, err := checkoutCatalog.ResolvePriceID(req.PlanID, req.PriceID, env.BillingPlanEnv())
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrUnknownPlan):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid plan"})
		case errors.Is(err, billing.ErrPriceNotConfigured):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Price ID not configured for this environment"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create checkout session"})
		}
	}

	baseURL := strings.TrimSpace(env.GetEnv("APP_PUBLIC_URL", ""))
	if baseURL == "" {
		baseURL = c.BaseURL()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	session, err := checkoutProvider.CreateCheckoutSession(ctx, billing.CheckoutParams{
		UserID:  rc.UserID,
		OrgID:   rc.OrgID,
		PlanID:  req.PlanID,
		PriceID: priceID,
		BaseURL: baseURL,
	})
	if err != nil {
		log.Printf("checkout: session creation failed for org %s: %v", rc.OrgID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create checkout session"})
	}

	if checkoutFunnel != nil {
		checkoutFunnel.AddCheckoutStart(rc.OrgID)
	}

	return c.JSON(fiber.Map{
		"sessionId": session.ID,
		"url":       session.URL,
	})
}
