package billing

import (
	"encoding/json"
	"time"
)

// SubscriptionState is the normalized shape of a Stripe subscription used by
// the reconciler when syncing provider state into local tables and the auth
// provider metadata mirror.
type SubscriptionState struct {
	SubscriptionID   string
	CustomerID       string
	PriceID          string
	Status           string
	CurrentPeriodEnd *time.Time

	// Correlation metadata attached at checkout-creation time.
	OrgID  string
	PlanID string
}

// CheckoutParams carries everything needed to open a provider-hosted
// subscription checkout for one user+organization+plan.
type CheckoutParams struct {
	UserID  string
	OrgID   string
	PlanID  string
	PriceID string
	BaseURL string
}

// CheckoutSession is the provider-hosted payment page reference returned to
// the client for redirection.
type CheckoutSession struct {
	ID  string
	URL string
}

// Event is a verified webhook event: kind plus the raw object payload.
// Unknown kinds are acknowledged and dropped by the reconciler.
type Event struct {
	ID      string
	Kind    string
	Payload json.RawMessage
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     string
	SignatureValid  bool
}
