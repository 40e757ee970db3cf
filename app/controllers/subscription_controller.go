package controllers

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tenantfox/tenantfox/internal/pkg/billing"
	"github.com/tenantfox/tenantfox/internal/pkg/usercontext"
)

var subscriptionOrgs billing.OrganizationReader

// InitializeSubscriptionController wires the status endpoint's dependencies.
func InitializeSubscriptionController(orgs billing.OrganizationReader) {
	subscriptionOrgs = orgs
}

// HandleSubscriptionStatus reports whether the caller's organization has an
// active subscription. Clients poll this after checkout until the webhook
// has landed. Lookup failures report inactive rather than an error so the
// poller simply tries again.
func HandleSubscriptionStatus(c *fiber.Ctx) error {
	rc := usercontext.Get(c)
	if !rc.IsSignedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	if rc.OrgID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Organization required"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	org, err := subscriptionOrgs.GetOrganization(ctx, rc.OrgID)
	if err != nil {
		log.Printf("subscription status: lookup for org %s failed: %v", rc.OrgID, err)
		return c.JSON(fiber.Map{"active": false, "status": "unknown"})
	}

	return c.JSON(fiber.Map{
		"active": org.PublicMetadata.SubscriptionActive,
		"status": org.PublicMetadata.SubscriptionStatus,
	})
}
