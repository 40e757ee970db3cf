package router

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	redisstorage "github.com/gofiber/storage/redis"

	"github.com/tenantfox/tenantfox/app/controllers"
	"github.com/tenantfox/tenantfox/internal/pkg/cache"
	"github.com/tenantfox/tenantfox/internal/pkg/env"
)

type ApiRouter struct {
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
		Storage:    newLimiterStorage(),
		// Stripe controls webhook delivery pacing; rate limiting retries
		// would turn transient bursts into redelivery storms.
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/webhooks/")
		},
	}))

	api.Post("/checkout", controllers.HandleCreateCheckout)
	api.Post("/webhooks/stripe", controllers.HandleStripeWebhook)

	v1 := api.Group("/v1")
	v1.Get("/subscription/status", controllers.HandleSubscriptionStatus)
}

// newLimiterStorage backs the rate limiter with Redis database 1 so limits
// survive restarts and are shared across instances. Connection details come
// from the cache client when available.
func newLimiterStorage() *redisstorage.Storage {
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")

	if client := cache.GetClient(); client != nil {
		addr := client.Options().Addr
		if h, p, err := net.SplitHostPort(addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := client.Options().Password; p != "" {
			password = p
		}
	}

	return redisstorage.New(redisstorage.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})
}
