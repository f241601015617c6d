package router

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	redisstorage "github.com/gofiber/storage/redis"

	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/constants"
	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/env"
	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/middleware"
)

// ApiRouter installs the JSON API surface: the widget-facing subscribe
// endpoint and the operational listing endpoints.
type ApiRouter struct {
	ctls Controllers
}

func NewApiRouter(ctls Controllers) *ApiRouter {
	return &ApiRouter{ctls: ctls}
}

func (h *ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group(constants.APIRoute, limiter.New(limiter.Config{
		Storage: newLimiterStorage(),
	}))

	v1 := api.Group(constants.APIV1Route)
	v1.Post(constants.SubscriptionsRoute, h.ctls.Subscription.HandleCreateSubscription)

	// Listing endpoints are merchant-facing and require a shop API key.
	protected := v1.Group("", middleware.ShopAPIKeyAuth(h.ctls.Shops))
	protected.Get(constants.SubscriptionsRoute, h.ctls.Subscription.HandleListSubscriptions)
	protected.Get(constants.NotificationsRoute, h.ctls.Notification.HandleListNotifications)

	app.Get(constants.HealthRoute, h.ctls.Health.HandleHealthz)
}

// newLimiterStorage backs the rate limiter with Redis so limits hold across
// instances.
func newLimiterStorage() fiber.Storage {
	port, err := strconv.Atoi(env.GetEnv("CACHE_PORT", "6379"))
	if err != nil {
		port = 6379
	}
	return redisstorage.New(redisstorage.Config{
		Host:     env.GetEnv("CACHE_HOST", "localhost"),
		Port:     port,
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		Database: 1,
	})
}
