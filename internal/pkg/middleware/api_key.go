package middleware

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/a47williams/back-in-stock-app-sub000/app/models"
	"github.com/a47williams/back-in-stock-app-sub000/app/repository"
)

// ShopContextKey is the fiber.Ctx local under which the authenticated
// shop is stored for downstream handlers.
const ShopContextKey = "SHOP_CONTEXT"

// ShopAPIKeyAuth authenticates merchant read-API requests carrying a shop
// API key. The key is resolved to its shop by SHA-256 hash; the shop is
// stored in the request locals under ShopContextKey.
func ShopAPIKeyAuth(shops repository.ShopRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		apiKey := extractAPIKeyFromHeader(c)
		if apiKey == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing API key"})
		}

		shop, err := shops.GetByAPIKeyHash(models.HashAPIKey(apiKey))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid API key"})
			}
			log.Printf("api key lookup failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "API key verification failed"})
		}

		if shop.UninstalledAt != nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Shop uninstalled"})
		}

		c.Locals(ShopContextKey, shop)
		return c.Next()
	}
}

// ShopFromContext returns the shop stored by ShopAPIKeyAuth, or nil when
// the route is not behind the middleware.
func ShopFromContext(c *fiber.Ctx) *models.Shop {
	shop, _ := c.Locals(ShopContextKey).(*models.Shop)
	return shop
}

func extractAPIKeyFromHeader(c *fiber.Ctx) string {
	apiKey := strings.TrimSpace(c.Get("X-API-Key"))
	if apiKey != "" {
		return apiKey
	}
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
