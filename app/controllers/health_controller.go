package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/cache"
	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/database"
)

// HealthController exposes readiness probes for the storage handles.
type HealthController struct {
	db    *gorm.DB
	cache *redis.Client
}

// NewHealthController creates a new health controller instance
func NewHealthController(db *gorm.DB, cacheClient *redis.Client) *HealthController {
	return &HealthController{db: db, cache: cacheClient}
}

// HandleHealthz serves GET /healthz.
func (ctl *HealthController) HandleHealthz(c *fiber.Ctx) error {
	status := fiber.StatusOK
	dbOK, cacheOK := true, true

	if err := database.Ping(ctl.db); err != nil {
		dbOK = false
		status = fiber.StatusServiceUnavailable
	}
	if err := cache.Ping(c.UserContext(), ctl.cache); err != nil {
		cacheOK = false
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"database": dbOK,
		"cache":    cacheOK,
	})
}
