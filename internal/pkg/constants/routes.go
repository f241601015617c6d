package constants

// Static route constants
const (
	APIRoute      = "/api"
	APIV1Route    = "/v1"
	WebhooksRoute = "/webhooks"

	SubscriptionsRoute = "/subscriptions"
	NotificationsRoute = "/notifications"

	StorefrontHookRoute = "/storefront"
	WhatsAppHookRoute   = "/whatsapp"
	BillingHookRoute    = "/billing"

	HealthRoute = "/healthz"
)
