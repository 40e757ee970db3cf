package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/tenantfox/tenantfox/internal/pkg/constants"
	"github.com/tenantfox/tenantfox/internal/pkg/env"
)

// Webhook event kinds the reconciler dispatches on.
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventSubscriptionUpdated      = "customer.subscription.updated"
	EventSubscriptionDeleted      = "customer.subscription.deleted"
)

// Provider abstracts the Stripe API surface the checkout endpoint and the
// reconciler depend on, so tests can substitute fakes.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
	FetchSubscription(ctx context.Context, subscriptionID string) (*SubscriptionState, error)
}

// StripeProvider implements Provider against the Stripe API.
type StripeProvider struct {
	webhookSecret string
}

// NewStripeProviderFromEnv configures the global Stripe key and returns a
// provider bound to the webhook signing secret.
func NewStripeProviderFromEnv() *StripeProvider {
	stripe.Key = strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", ""))
	return &StripeProvider{
		webhookSecret: strings.TrimSpace(env.GetEnv("STRIPE_WEBHOOK_SECRET", "")),
	}
}

// CreateCheckoutSession opens a subscription-mode checkout with correlation
// metadata (user, organization, plan) embedded for the webhook reconciler.
func (p *StripeProvider) CreateCheckoutSession(_ context.Context, in CheckoutParams) (*CheckoutSession, error) {
	if in.OrgID == "" || in.PlanID == "" || in.PriceID == "" {
		return nil, errors.New("billing: org id, plan id and price id are required")
	}

	base := strings.TrimRight(in.BaseURL, "/")
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(in.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(base + constants.CheckoutSuccessRoute + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(base + constants.PaymentRoute),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				"orgId":  in.OrgID,
				"planId": in.PlanID,
			},
		},
	}
	params.AddMetadata("userId", in.UserID)
	params.AddMetadata("orgId", in.OrgID)
	params.AddMetadata("planId", in.PlanID)
	params.AddMetadata("checkoutRef", uuid.NewString())

	s, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("billing: create checkout session: %w", err)
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// FetchSubscription retrieves the full subscription object and normalizes it.
// Checkout-completed events carry only a summary, so the reconciler always
// fetches before persisting.
func (p *StripeProvider) FetchSubscription(_ context.Context, subscriptionID string) (*SubscriptionState, error) {
	if strings.TrimSpace(subscriptionID) == "" {
		return nil, errors.New("billing: subscription id is required")
	}

	sub, err := subscription.Get(subscriptionID, nil)
	if err != nil {
		return nil, fmt.Errorf("billing: fetch subscription %s: %w", subscriptionID, err)
	}

	state := &SubscriptionState{
		SubscriptionID: sub.ID,
		Status:         string(sub.Status),
		OrgID:          sub.Metadata["orgId"],
		PlanID:         sub.Metadata["planId"],
	}
	if sub.Customer != nil {
		state.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		if item.Price != nil {
			state.PriceID = item.Price.ID
		}
		if item.CurrentPeriodEnd > 0 {
			t := time.Unix(item.CurrentPeriodEnd, 0).UTC()
			state.CurrentPeriodEnd = &t
		}
	}
	return state, nil
}

// ParseEvent verifies the webhook signature against the shared secret and
// returns the typed event. Verification is delegated to the Stripe SDK.
func (p *StripeProvider) ParseEvent(payload []byte, signatureHeader string) (Event, error) {
	ev, err := webhook.ConstructEvent(payload, signatureHeader, p.webhookSecret)
	if err != nil {
		return Event{}, fmt.Errorf("billing: webhook signature verification failed: %w", err)
	}
	return Event{
		ID:      ev.ID,
		Kind:    string(ev.Type),
		Payload: ev.Data.Raw,
	}, nil
}
