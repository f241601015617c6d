package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/a47williams/back-in-stock-app-sub000/app/controllers"
	"github.com/a47williams/back-in-stock-app-sub000/app/repository"
)

// Router installs a route group on the app.
type Router interface {
	InstallRouter(app *fiber.App)
}

// Controllers bundles the constructed handlers for route installation.
type Controllers struct {
	Subscription *controllers.SubscriptionController
	Notification *controllers.NotificationController
	Webhook      *controllers.WebhookController
	Reply        *controllers.ReplyController
	Billing      *controllers.BillingWebhookController
	Health       *controllers.HealthController
	// Shops backs the API key middleware on the merchant read endpoints.
	Shops repository.ShopRepository
}

// InstallRouter registers all route groups.
func InstallRouter(app *fiber.App, ctls Controllers) {
	setup(app, NewApiRouter(ctls), NewWebhookRouter(ctls))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
