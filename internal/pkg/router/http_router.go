package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tenantfox/tenantfox/app/controllers"
	"github.com/tenantfox/tenantfox/internal/pkg/authprovider"
	"github.com/tenantfox/tenantfox/internal/pkg/billing"
	"github.com/tenantfox/tenantfox/internal/pkg/constants"
	"github.com/tenantfox/tenantfox/internal/pkg/database"
	"github.com/tenantfox/tenantfox/internal/pkg/mail"
	"github.com/tenantfox/tenantfox/internal/pkg/metrics/counter"
	"github.com/tenantfox/tenantfox/internal/pkg/middleware"
)

type HttpRouter struct {
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	authClient := authprovider.NewClientFromEnv()
	oracle := billing.NewStatusOracle(authClient)
	provider := billing.NewStripeProviderFromEnv()
	reconciler := billing.NewReconcilerFromDB(database.GetDB(), provider, authClient, mail.NewMailer())

	locales := middleware.LocaleConfigFromEnv()
	routes := middleware.NewRouteConfig(locales)
	gate := middleware.NewGate(routes, locales, authClient, oracle, counter.Funnel{})

	// The gate runs before everything else: it authenticates page requests,
	// enforces organization and subscription state, and strips the locale
	// prefix so the unprefixed routes below match.
	app.Use(gate.Handler())

	controllers.InitializeCheckoutController(billing.CatalogFromEnv(), provider, counter.Funnel{})
	controllers.InitializeWebhookController(provider, reconciler)
	controllers.InitializeSubscriptionController(authClient)

	h.registerPageRoutes(app)
}

func (h HttpRouter) registerPageRoutes(app *fiber.App) {
	app.Get("/", controllers.HandleHome)
	app.Get(constants.SignInRoute, controllers.HandleSignIn)
	app.Get(constants.SignUpRoute, controllers.HandleSignUp)

	app.Get(constants.DashboardRoute, controllers.HandleDashboard)
	app.Get(constants.OrganizationSelectionRoute, controllers.HandleOrganizationSelection)
	app.Get(constants.PaymentRoute, controllers.HandlePayment)
	app.Get(constants.CheckoutSuccessRoute, controllers.HandleCheckoutSuccess)
	app.Get(constants.CheckoutCancelRoute, controllers.HandleCheckoutCancel)
}
