package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tenantfox/tenantfox/app/models"
	"github.com/tenantfox/tenantfox/internal/pkg/authprovider"
)

// MetadataMirror is the slice of the auth provider client the reconciler
// writes through: mirroring subscription state into organization metadata.
type MetadataMirror interface {
	UpdateOrganizationMetadata(ctx context.Context, orgID string, meta authprovider.OrganizationMetadata) error
}

// Notifier sends billing notifications. Optional; a nil Notifier disables
// mail without changing reconciliation behavior.
type Notifier interface {
	SendSubscriptionEnded(to, orgID, status string) error
}

// Reconciler consumes verified billing webhook events and applies the
// resulting state transitions to the local organization record and the auth
// provider metadata mirror. Processing is idempotent: every write is a
// last-write-wins full field set, so at-least-once delivery is safe.
type Reconciler struct {
	repo     Repository
	provider Provider
	mirror   MetadataMirror
	notifier Notifier
}

func NewReconciler(repo Repository, provider Provider, mirror MetadataMirror, notifier Notifier) *Reconciler {
	return &Reconciler{repo: repo, provider: provider, mirror: mirror, notifier: notifier}
}

// NewReconcilerFromDB wires the reconciler with a GORM-backed repository.
func NewReconcilerFromDB(db *gorm.DB, provider Provider, mirror MetadataMirror, notifier Notifier) *Reconciler {
	return NewReconciler(NewRepository(db), provider, mirror, notifier)
}

// checkoutSessionPayload is the subset of a checkout.session.completed
// payload the reconciler reads. Subscription arrives as a bare id here.
type checkoutSessionPayload struct {
	ID           string            `json:"id"`
	Mode         string            `json:"mode"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

// subscriptionPayload is the subset of a customer.subscription.* payload the
// reconciler reads. Customer arrives as a bare id here.
type subscriptionPayload struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
	Items    struct {
		Data []struct {
			CurrentPeriodEnd int64 `json:"current_period_end"`
			Price            struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

// HandleEvent dispatches one verified event. It returns an error only for
// infrastructure faults (DB, provider or mirror writes) so the webhook
// endpoint answers 500 and the provider redelivers; business no-ops such as
// missing correlation metadata are logged and acknowledged.
func (r *Reconciler) HandleEvent(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case EventCheckoutSessionCompleted:
		return r.handleCheckoutCompleted(ctx, ev)
	case EventSubscriptionUpdated:
		return r.handleSubscriptionChange(ctx, ev, false)
	case EventSubscriptionDeleted:
		return r.handleSubscriptionChange(ctx, ev, true)
	default:
		// Forward compatibility: new event types are acknowledged, not failed.
		log.Printf("billing: ignoring webhook event type %q", ev.Kind)
		return nil
	}
}

func (r *Reconciler) handleCheckoutCompleted(ctx context.Context, ev Event) error {
	var session checkoutSessionPayload
	if err := json.Unmarshal(ev.Payload, &session); err != nil {
		log.Printf("billing: malformed checkout session payload (event %s): %v", ev.ID, err)
		return nil
	}
	if session.Mode != "subscription" || session.Subscription == "" {
		return nil
	}

	// The event is asynchronous; the org id comes from checkout correlation
	// metadata, never from a request session.
	orgID := strings.TrimSpace(session.Metadata["orgId"])
	if orgID == "" {
		log.Printf("billing: checkout session %s completed without orgId metadata", session.ID)
		return nil
	}

	// Checkout events are summary-only; fetch the authoritative subscription.
	state, err := r.provider.FetchSubscription(ctx, session.Subscription)
	if err != nil {
		return err
	}

	org := &models.Organization{
		ID:                                 orgID,
		StripeCustomerID:                   state.CustomerID,
		StripeSubscriptionID:               state.SubscriptionID,
		StripeSubscriptionPriceID:          state.PriceID,
		StripeSubscriptionStatus:           state.Status,
		StripeSubscriptionCurrentPeriodEnd: state.CurrentPeriodEnd,
	}
	if err := r.repo.UpsertOrganization(org); err != nil {
		return fmt.Errorf("billing: upsert organization %s: %w", orgID, err)
	}

	return r.mirrorStatus(ctx, orgID, state.Status)
}

func (r *Reconciler) handleSubscriptionChange(ctx context.Context, ev Event, deleted bool) error {
	var sub subscriptionPayload
	if err := json.Unmarshal(ev.Payload, &sub); err != nil {
		log.Printf("billing: malformed subscription payload (event %s): %v", ev.ID, err)
		return nil
	}
	if sub.Customer == "" {
		log.Printf("billing: subscription event %s without customer id", ev.ID)
		return nil
	}

	// Update/delete events carry no org id; locate the tenant by customer.
	org, err := r.repo.GetOrganizationByCustomerID(sub.Customer)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("billing: no organization for stripe customer %s", sub.Customer)
			return nil
		}
		return fmt.Errorf("billing: organization lookup for customer %s: %w", sub.Customer, err)
	}

	status := normalizeStatus(sub.Status)
	updates := map[string]interface{}{
		"stripe_subscription_status":             status,
		"stripe_subscription_current_period_end": periodEndFromPayload(sub),
	}
	if deleted {
		// Subscription and price are gone; customer linkage stays so the
		// tenant can resubscribe under the same Stripe customer.
		updates["stripe_subscription_id"] = ""
		updates["stripe_subscription_price_id"] = ""
	}
	if err := r.repo.UpdateOrganizationSubscription(org.ID, updates); err != nil {
		return fmt.Errorf("billing: update organization %s: %w", org.ID, err)
	}

	if err := r.mirrorStatus(ctx, org.ID, status); err != nil {
		return err
	}

	if deleted && r.notifier != nil && org.BillingEmail != "" {
		if err := r.notifier.SendSubscriptionEnded(org.BillingEmail, org.ID, status); err != nil {
			log.Printf("billing: subscription-ended mail for org %s failed: %v", org.ID, err)
		}
	}
	return nil
}

// mirrorStatus writes the derived active flag plus the raw status string into
// the auth provider's organization metadata, keeping the gate's oracle in
// sync. The mirrored boolean always equals (status == active).
func (r *Reconciler) mirrorStatus(ctx context.Context, orgID, status string) error {
	meta := authprovider.OrganizationMetadata{
		SubscriptionActive: IsActiveStatus(status),
		SubscriptionStatus: normalizeStatus(status),
	}
	if err := r.mirror.UpdateOrganizationMetadata(ctx, orgID, meta); err != nil {
		return fmt.Errorf("billing: mirror metadata for org %s: %w", orgID, err)
	}
	return nil
}

func periodEndFromPayload(sub subscriptionPayload) *time.Time {
	if len(sub.Items.Data) == 0 || sub.Items.Data[0].CurrentPeriodEnd <= 0 {
		return nil
	}
	t := time.Unix(sub.Items.Data[0].CurrentPeriodEnd, 0).UTC()
	return &t
}

// RecordWebhookEvent persists webhook payloads idempotently. Events without
// a provider event id are keyed by a payload hash.
func (r *Reconciler) RecordWebhookEvent(_ context.Context, in WebhookEventInput) (bool, *models.BillingWebhookEvent, error) {
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.BillingWebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	return r.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (r *Reconciler) MarkWebhookProcessed(_ context.Context, webhookEventID uint, processingErr error) error {
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return r.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}
