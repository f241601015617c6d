package controllers

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/a47williams/back-in-stock-app-sub000/app/models"
	"github.com/a47williams/back-in-stock-app-sub000/app/repository"
	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/catalog"
	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/middleware"
)

// lookupTimeout bounds the catalog resolution during subscribe. A slow
// catalog degrades to a partially populated record, never a failed request.
const lookupTimeout = 5 * time.Second

var validate = validator.New()

// SubscriptionController serves the subscribe API and the operational
// listing endpoint.
type SubscriptionController struct {
	subs     repository.SubscriptionRepository
	shops    repository.ShopRepository
	resolver catalog.Resolver
}

// NewSubscriptionController creates a new subscription controller instance
func NewSubscriptionController(
	subs repository.SubscriptionRepository,
	shops repository.ShopRepository,
	resolver catalog.Resolver,
) *SubscriptionController {
	return &SubscriptionController{subs: subs, shops: shops, resolver: resolver}
}

type createSubscriptionRequest struct {
	Shop            string `json:"shop" validate:"required"`
	Phone           string `json:"phone" validate:"required,e164"`
	ProductID       string `json:"productId"`
	VariantID       string `json:"variantId"`
	InventoryItemID string `json:"inventoryItemId"`
}

// HandleCreateSubscription upserts a subscriber interest record. A repeat
// request with the same (shop, phone, variant-or-product) identity updates
// the existing row instead of creating a duplicate.
func (ctl *SubscriptionController) HandleCreateSubscription(c *fiber.Ctx) error {
	var req createSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "message": "Invalid request body"})
	}

	req.Shop = strings.TrimSpace(req.Shop)
	req.Phone = strings.TrimSpace(req.Phone)
	req.ProductID = strings.TrimSpace(req.ProductID)
	req.VariantID = strings.TrimSpace(req.VariantID)

	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "message": "shop and a valid phone number are required"})
	}
	if req.ProductID == "" && req.VariantID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "message": "productId or variantId is required"})
	}

	shop, err := ctl.shops.GetByDomain(req.Shop)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false, "message": "Unknown shop"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false, "message": "Storage unavailable"})
	}

	sub := &models.Subscription{
		ShopID:          shop.ID,
		Phone:           req.Phone,
		ProductID:       req.ProductID,
		VariantID:       req.VariantID,
		InventoryItemID: strings.TrimSpace(req.InventoryItemID),
	}
	ctl.resolveIdentifiers(c.UserContext(), shop, sub)

	if _, err := ctl.subs.Upsert(sub); err != nil {
		log.Printf("subscribe: upsert failed for %s: %v", shop.Domain, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false, "message": "Could not store subscription"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":           true,
		"message":           "You will be notified when this item is back in stock",
		"subscription_id":   sub.ID,
		"product_id":        sub.ProductID,
		"variant_id":        sub.VariantID,
		"inventory_item_id": sub.InventoryItemID,
	})
}

// resolveIdentifiers backfills product and inventory-item identifiers from
// the catalog. Lookup failures are deliberately non-fatal: the subscribe
// path stays available and stores a partial record.
func (ctl *SubscriptionController) resolveIdentifiers(ctx context.Context, shop *models.Shop, sub *models.Subscription) {
	if ctl.resolver == nil || sub.VariantID == "" {
		return
	}
	if sub.ProductID != "" && sub.InventoryItemID != "" {
		return
	}

	lookupCtx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	info, err := ctl.resolver.ResolveVariant(lookupCtx, shop.Domain, shop.AccessToken, sub.VariantID)
	if err != nil {
		log.Printf("subscribe: catalog lookup degraded for variant %s on %s: %v", sub.VariantID, shop.Domain, err)
		return
	}
	if sub.ProductID == "" {
		sub.ProductID = info.ProductID
	}
	if sub.InventoryItemID == "" {
		sub.InventoryItemID = info.InventoryItemID
	}
	sub.ProductTitle = info.ProductTitle
	sub.ProductURL = info.ProductURL
}

// HandleListSubscriptions is the merchant listing endpoint: most recent
// subscriptions for a shop. Behind the API key middleware the shop comes
// from the request context; the shop query parameter remains as a
// fallback for unauthenticated internal use.
func (ctl *SubscriptionController) HandleListSubscriptions(c *fiber.Ctx) error {
	shop := middleware.ShopFromContext(c)
	if shop == nil {
		domain := strings.TrimSpace(c.Query("shop"))
		if domain == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false, "message": "shop query parameter is required"})
		}

		var err error
		shop, err = ctl.shops.GetByDomain(domain)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"success": false, "message": "Unknown shop"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false, "message": "Storage unavailable"})
		}
	}

	subs, err := ctl.subs.ListRecentByShop(shop.ID, c.QueryInt("limit", 25))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false, "message": "Storage unavailable"})
	}

	return c.JSON(fiber.Map{"success": true, "subscriptions": subs})
}
