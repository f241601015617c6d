package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/a47williams/back-in-stock-app-sub000/app/repository"
	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/cache"
	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/catalog"
	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/database"
	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/env"
	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/mail"
	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/quota"
	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/restock"
	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/router"
	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/whatsapp"

	"github.com/a47williams/back-in-stock-app-sub000/app/controllers"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()

	db, err := database.Connect()
	if err != nil {
		log.Fatalf("database setup failed: %v", err)
	}
	cacheClient := cache.NewClient()

	repos := repository.NewFactory(db, cacheClient).GetRepositories()
	sender := whatsapp.NewClientFromEnv()
	mailer := mail.NewMailerFromEnv()
	resolver := catalog.NewClient()

	gate := quota.NewGate(repos.Shop, quota.NewNotifier(sender, mailer))
	dispatcher := restock.NewDispatcher(repos.Subscription, repos.Notification, gate, sender, resolver)
	flow := restock.NewConfirmFlow(repos.Subscription, repos.Shop, gate, sender)

	ctls := router.Controllers{
		Subscription: controllers.NewSubscriptionController(repos.Subscription, repos.Shop, resolver),
		Notification: controllers.NewNotificationController(repos.Notification, repos.Shop),
		Webhook:      controllers.NewWebhookController(repos.Shop, repos.Receipt, dispatcher),
		Reply:        controllers.NewReplyController(flow),
		Billing:      controllers.NewBillingWebhookController(repos.Shop),
		Health:       controllers.NewHealthController(db, cacheClient),
		Shops:        repos.Shop,
	}

	app := fiber.New(fiber.Config{
		AppName: "back-in-stock",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// ROUTER
	router.InstallRouter(app, ctls)

	return app
}
