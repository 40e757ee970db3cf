package models

import "time"

// Organization mirrors a tenant from the auth provider together with its
// Stripe subscription state. The row is created lazily by the webhook
// reconciler on the first checkout.session.completed event; the auth provider
// remains the canonical owner of the organization itself.
type Organization struct {
	ID                                 string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	StripeCustomerID                   string     `gorm:"type:varchar(191);default:'';index" json:"stripe_customer_id"`
	StripeSubscriptionID               string     `gorm:"type:varchar(191);default:''" json:"stripe_subscription_id"`
	StripeSubscriptionPriceID          string     `gorm:"type:varchar(191);default:''" json:"stripe_subscription_price_id"`
	StripeSubscriptionStatus           string     `gorm:"type:varchar(32);default:'';index" json:"stripe_subscription_status"`
	StripeSubscriptionCurrentPeriodEnd *time.Time `gorm:"type:timestamp;default:null" json:"stripe_subscription_current_period_end,omitempty"`
	BillingEmail                       string     `gorm:"type:varchar(200);default:''" json:"billing_email"`
	CheckoutStartCount                 uint64     `gorm:"default:0" json:"checkout_start_count"`
	PaymentRedirectCount               uint64     `gorm:"default:0" json:"payment_redirect_count"`
	CreatedAt                          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
