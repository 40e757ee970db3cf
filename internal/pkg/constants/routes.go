package constants

// Onboarding flow route constants shared by the gate middleware, controllers
// and redirect targets.
const (
	DashboardRoute             = "/dashboard"
	OrganizationSelectionRoute = "/onboarding/organization-selection"
	PaymentRoute               = "/onboarding/payment"
	CheckoutSuccessRoute       = "/checkout/success"
	CheckoutCancelRoute        = "/checkout/cancel"
	SignInRoute                = "/sign-in"
	SignUpRoute                = "/sign-up"
	APIPrefix                  = "/api"
)
