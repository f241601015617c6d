package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/constants"
)

// WebhookRouter installs the provider-facing webhook endpoints. No rate
// limiting here: providers retry aggressively and throttling them would
// only produce redelivery storms.
type WebhookRouter struct {
	ctls Controllers
}

func NewWebhookRouter(ctls Controllers) *WebhookRouter {
	return &WebhookRouter{ctls: ctls}
}

func (h *WebhookRouter) InstallRouter(app *fiber.App) {
	hooks := app.Group(constants.WebhooksRoute)
	hooks.Post(constants.StorefrontHookRoute, h.ctls.Webhook.HandleStorefrontWebhook)
	hooks.Post(constants.WhatsAppHookRoute, h.ctls.Reply.HandleInboundReply)
	hooks.Post(constants.BillingHookRoute, h.ctls.Billing.HandleBillingWebhook)
}
