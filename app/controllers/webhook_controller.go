package controllers

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/a47williams/back-in-stock-app-sub000/app/models"
	"github.com/a47williams/back-in-stock-app-sub000/app/repository"
	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/env"
	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/restock"
	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/security"
)

// Storefront webhook headers.
const (
	HeaderWebhookSignature = "X-Webhook-Hmac-Sha256"
	HeaderWebhookID        = "X-Webhook-Id"
	HeaderWebhookTopic     = "X-Webhook-Topic"
	HeaderShopDomain       = "X-Shop-Domain"
)

// Storefront webhook topics this service processes. Anything else is
// acknowledged and ignored; providers add topics over time and the endpoint
// must not start failing when they do.
const (
	TopicInventoryLevelsUpdate = "inventory_levels/update"
	TopicAppUninstalled        = "app/uninstalled"
)

// WebhookController ingests storefront webhooks: signature verification
// over the raw bytes first, then delivery-id deduplication, then topic
// dispatch. Once a payload is verified the response is 200 regardless of
// downstream processing outcome, because provider redelivery is coarse and
// fulfillment tracking is this system's own job.
type WebhookController struct {
	shops      repository.ShopRepository
	receipts   repository.ReceiptRepository
	dispatcher *restock.Dispatcher
}

// NewWebhookController creates a new webhook controller instance
func NewWebhookController(
	shops repository.ShopRepository,
	receipts repository.ReceiptRepository,
	dispatcher *restock.Dispatcher,
) *WebhookController {
	return &WebhookController{shops: shops, receipts: receipts, dispatcher: dispatcher}
}

// HandleStorefrontWebhook serves POST /webhooks/storefront.
func (ctl *WebhookController) HandleStorefrontWebhook(c *fiber.Ctx) error {
	raw := c.Body()
	domain := strings.TrimSpace(c.Get(HeaderShopDomain))

	// The shop lookup only reads headers, never the payload; payload bytes
	// stay untouched until the signature over them has been verified.
	var shop *models.Shop
	if domain != "" {
		s, err := ctl.shops.GetByDomain(domain)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("webhook: shop lookup failed for %s: %v", domain, err)
		} else {
			shop = s
		}
	}

	secret := env.GetEnv("WEBHOOK_SHARED_SECRET", "")
	if shop != nil && shop.WebhookSecret != "" {
		secret = shop.WebhookSecret
	}
	if !security.VerifyWebhookSignature(raw, c.Get(HeaderWebhookSignature), secret) {
		log.Printf("webhook: signature rejected for shop %q", domain)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "unauthorized", "message": "Invalid webhook signature"})
	}

	topic := strings.TrimSpace(c.Get(HeaderWebhookTopic))
	if deliveryID := strings.TrimSpace(c.Get(HeaderWebhookID)); deliveryID != "" {
		first, err := ctl.receipts.FirstSeen(c.UserContext(), deliveryID, topic)
		if err != nil {
			// Dedup store down: process anyway, conditional state
			// transitions keep redelivery harmless.
			log.Printf("webhook: receipt store unavailable: %v", err)
		} else if !first {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "duplicate"})
		}
	}

	if shop == nil {
		log.Printf("webhook: verified payload for unknown shop %q, topic %s", domain, topic)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ignored"})
	}

	switch topic {
	case TopicInventoryLevelsUpdate:
		if err := ctl.dispatcher.HandleInventoryLevelUpdate(c.UserContext(), shop, raw); err != nil {
			log.Printf("webhook: inventory processing failed for %s: %v", shop.Domain, err)
		}
	case TopicAppUninstalled:
		if err := ctl.shops.SetUninstalled(shop.Domain, time.Now()); err != nil {
			log.Printf("webhook: uninstall mark failed for %s: %v", shop.Domain, err)
		}
	default:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ignored"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}
