package controllers

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tenantfox/tenantfox/app/models"
	"github.com/tenantfox/tenantfox/internal/pkg/billing"
)

// WebhookParser verifies a provider signature and decodes the event.
type WebhookParser interface {
	ParseEvent(payload []byte, signature string) (billing.Event, error)
}

var (
	webhookParser     WebhookParser
	webhookReconciler *billing.Reconciler
)

// InitializeWebhookController wires the Stripe webhook endpoint's dependencies.
func InitializeWebhookController(parser WebhookParser, reconciler *billing.Reconciler) {
	webhookParser = parser
	webhookReconciler = reconciler
}

// HandleStripeWebhook receives Stripe webhook deliveries. The signature is
// verified before anything touches the database; unverifiable payloads are
// rejected with 400 so Stripe does not retry forged requests forever.
// Verified events are persisted for dedup, reconciled, and acknowledged.
// Handler failures return 500 so Stripe redelivers.
func HandleStripeWebhook(c *fiber.Ctx) error {
	payload := append([]byte(nil), c.BodyRaw()...)

	signature := strings.TrimSpace(c.Get("Stripe-Signature"))
	if signature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No signature"})
	}

	event, err := webhookParser.ParseEvent(payload, signature)
	if err != nil {
		log.Printf("webhook: signature verification failed: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid signature"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	created, stored, err := webhookReconciler.RecordWebhookEvent(ctx, billing.WebhookEventInput{
		Provider:        models.BillingProviderStripe,
		ProviderEventID: event.ID,
		EventType:       event.Kind,
		PayloadJSON:     string(payload),
		SignatureValid:  true,
	})
	if err != nil {
		log.Printf("webhook: persisting event %s failed: %v", event.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record event"})
	}
	// Only redeliveries of an event that already processed cleanly are
	// acknowledged without re-dispatching. A stored event whose handling
	// failed (or never ran) falls through: Stripe redelivers precisely
	// because the previous attempt returned 500.
	if !created && stored.ProcessedAt != nil && stored.ProcessingError == "" {
		return c.JSON(fiber.Map{"received": true, "duplicate": true})
	}

	handleErr := webhookReconciler.HandleEvent(ctx, event)
	if markErr := webhookReconciler.MarkWebhookProcessed(ctx, stored.ID, handleErr); markErr != nil {
		log.Printf("webhook: marking event %s processed failed: %v", event.ID, markErr)
	}
	if handleErr != nil {
		log.Printf("webhook: handling event %s (%s) failed: %v", event.ID, event.Kind, handleErr)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Webhook handler failed"})
	}

	return c.JSON(fiber.Map{"received": true})
}
