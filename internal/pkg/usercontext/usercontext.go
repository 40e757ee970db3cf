package usercontext

import "github.com/gofiber/fiber/v2"

// Locals key under which the gate middleware stores the resolved context.
const ContextKey = "REQUEST_CONTEXT"

// RequestContext is the per-request authentication state resolved by the
// gate middleware from the auth provider session.
type RequestContext struct {
	UserID     string `json:"user_id"`
	OrgID      string `json:"org_id"`
	IsSignedIn bool   `json:"is_signed_in"`
	Locale     string `json:"locale"`
}

// Set stores the request context in fiber locals.
func Set(c *fiber.Ctx, rc RequestContext) {
	c.Locals(ContextKey, rc)
}

// Get retrieves the request context, falling back to an anonymous one.
func Get(c *fiber.Ctx) RequestContext {
	if v := c.Locals(ContextKey); v != nil {
		if rc, ok := v.(RequestContext); ok {
			return rc
		}
	}
	return RequestContext{IsSignedIn: false}
}

// IsSignedIn checks if the current request carries a verified session.
func IsSignedIn(c *fiber.Ctx) bool {
	return Get(c).IsSignedIn
}

// GetUserID returns the current user's id, or empty if anonymous.
func GetUserID(c *fiber.Ctx) string {
	return Get(c).UserID
}

// GetOrgID returns the active organization id, or empty if none is selected.
func GetOrgID(c *fiber.Ctx) string {
	return Get(c).OrgID
}
