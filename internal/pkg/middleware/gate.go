package middleware

import (
	"context"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tenantfox/tenantfox/internal/pkg/authprovider"
	"github.com/tenantfox/tenantfox/internal/pkg/constants"
	"github.com/tenantfox/tenantfox/internal/pkg/usercontext"
)

// SessionResolver verifies a session token against the auth provider.
type SessionResolver interface {
	VerifySession(ctx context.Context, token string) (*authprovider.Session, error)
}

// SubscriptionOracle answers whether an organization has an active paid
// subscription. Implementations are fail-closed.
type SubscriptionOracle interface {
	IsActive(ctx context.Context, orgID string) bool
}

// FunnelRecorder counts gate decisions worth tracking. Nil disables counting.
type FunnelRecorder interface {
	AddPaymentRedirect(orgID string)
}

// Gate sequences users through auth, organization selection and payment
// before they reach the dashboard. The decision tree runs per request with
// no cross-request state; session resolution and the oracle read are strictly
// sequential so the ordering (org check before subscription check) holds.
type Gate struct {
	routes   RouteConfig
	locales  LocaleConfig
	sessions SessionResolver
	oracle   SubscriptionOracle
	funnel   FunnelRecorder
}

func NewGate(routes RouteConfig, locales LocaleConfig, sessions SessionResolver, oracle SubscriptionOracle, funnel FunnelRecorder) *Gate {
	return &Gate{
		routes:   routes,
		locales:  locales,
		sessions: sessions,
		oracle:   oracle,
		funnel:   funnel,
	}
}

// Handler returns the fiber middleware implementing the gate.
func (g *Gate) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()

		// Static assets and the monitoring endpoint bypass gating entirely.
		if isAssetPath(path) || strings.HasPrefix(path, "/monitoring") {
			return c.Next()
		}

		locale := g.locales.ExtractLocale(path)

		// Paths that are neither protected, API nor auth entry points need
		// locale handling only.
		if !g.routes.IsProtected(path) && !g.routes.IsAPI(path) && !g.routes.IsAuthEntry(path) {
			return g.forward(c, locale)
		}

		// API traffic is never redirected; endpoints enforce their own auth.
		// The gate only attaches the caller's context when a token is sent,
		// so webhook receivers stay reachable without one.
		if g.routes.IsAPI(path) {
			if sess := g.resolveSession(c); sess != nil {
				usercontext.Set(c, usercontext.RequestContext{
					UserID:     sess.UserID,
					OrgID:      sess.OrgID,
					IsSignedIn: true,
					Locale:     locale,
				})
			}
			return c.Next()
		}

		sess := g.resolveSession(c)

		if sess == nil {
			if g.routes.IsProtected(path) {
				return g.redirect(c, constants.SignInRoute, locale)
			}
			return g.forward(c, locale)
		}

		usercontext.Set(c, usercontext.RequestContext{
			UserID:     sess.UserID,
			OrgID:      sess.OrgID,
			IsSignedIn: true,
			Locale:     locale,
		})

		// No organization yet: onboarding paths stay reachable so the user
		// can create/select one; other protected paths funnel there. A user
		// without an organization is never asked to pay.
		if sess.OrgID == "" {
			if g.routes.IsOnboarding(path) {
				return g.forward(c, locale)
			}
			if g.routes.IsProtected(path) {
				return g.redirect(c, constants.OrganizationSelectionRoute, locale)
			}
			return g.forward(c, locale)
		}

		if g.routes.IsPaid(path) {
			active := g.oracle.IsActive(c.Context(), sess.OrgID)
			if !active && !strings.Contains(path, constants.PaymentRoute) {
				if g.funnel != nil {
					g.funnel.AddPaymentRedirect(sess.OrgID)
				}
				return g.redirect(c, constants.PaymentRoute, locale)
			}
		}

		return g.forward(c, locale)
	}
}

// resolveSession pulls the session token from the provider cookie or a
// bearer header and verifies it. Verification failures count as
// unauthenticated (fail-closed), never as server errors.
func (g *Gate) resolveSession(c *fiber.Ctx) *authprovider.Session {
	token := strings.TrimSpace(c.Cookies("__session"))
	if token == "" {
		auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		}
	}
	if token == "" {
		return nil
	}

	sess, err := g.sessions.VerifySession(c.Context(), token)
	if err != nil {
		log.Printf("gate: session verification failed: %v", err)
		return nil
	}
	return sess
}

// forward strips a locale prefix so handlers are registered once, keeps the
// locale in the request context, and lets the request through.
func (g *Gate) forward(c *fiber.Ctx, locale string) error {
	if rc := usercontext.Get(c); rc.Locale == "" {
		rc.Locale = locale
		usercontext.Set(c, rc)
	}
	if stripped := g.locales.StripLocale(c.Path()); stripped != c.Path() {
		c.Path(stripped)
	}
	return c.Next()
}

// redirect sends a 303 to the locale-qualified target so the user keeps
// their locale context through the whole flow.
func (g *Gate) redirect(c *fiber.Ctx, target, locale string) error {
	return c.Redirect(g.locales.LocalizedPath(target, locale), fiber.StatusSeeOther)
}

func isAssetPath(path string) bool {
	i := strings.LastIndexByte(path, '/')
	return strings.IndexByte(path[i+1:], '.') >= 0
}
