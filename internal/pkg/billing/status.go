package billing

import "strings"

// Stripe subscription status values we persist and mirror.
const (
	StatusActive            = "active"
	StatusTrialing          = "trialing"
	StatusPastDue           = "past_due"
	StatusCanceled          = "canceled"
	StatusUnpaid            = "unpaid"
	StatusIncomplete        = "incomplete"
	StatusIncompleteExpired = "incomplete_expired"
	StatusPaused            = "paused"
)

func normalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

// IsActiveStatus reports whether a subscription status grants paid access.
// Only "active" counts; trialing and past_due do not unlock the dashboard.
func IsActiveStatus(status string) bool {
	return normalizeStatus(status) == StatusActive
}
