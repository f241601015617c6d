package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/a47williams/back-in-stock-app-sub000/app/repository"
	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/middleware"
)

// NotificationController lists the legacy single-alert records for
// operators working with shops that pre-date the two-step flow.
type NotificationController struct {
	notifications repository.NotificationRepository
	shops         repository.ShopRepository
}

// NewNotificationController creates a new notification controller instance
func NewNotificationController(
	notifications repository.NotificationRepository,
	shops repository.ShopRepository,
) *NotificationController {
	return &NotificationController{notifications: notifications, shops: shops}
}

// HandleListNotifications serves GET /api/v1/notifications.
func (ctl *NotificationController) HandleListNotifications(c *fiber.Ctx) error {
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

	ns, err := ctl.notifications.ListRecentByShop(shop.ID, c.QueryInt("limit", 25))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false, "message": "Storage unavailable"})
	}

	return c.JSON(fiber.Map{"success": true, "notifications": ns})
}
