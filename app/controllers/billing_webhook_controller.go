package controllers

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"gorm.io/gorm"

	"github.com/a47williams/back-in-stock-app-sub000/app/models"
	"github.com/a47williams/back-in-stock-app-sub000/app/repository"
	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/env"
	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/plans"
)

// BillingWebhookController applies plan changes pushed by the payment
// provider: sets the tier, zeroes the monthly usage counter, clears the
// sticky limit flag and the trial window.
type BillingWebhookController struct {
	shops repository.ShopRepository
}

// NewBillingWebhookController creates a new billing webhook controller instance
func NewBillingWebhookController(shops repository.ShopRepository) *BillingWebhookController {
	return &BillingWebhookController{shops: shops}
}

// HandleBillingWebhook serves POST /webhooks/billing with Stripe-signed
// events. Unknown event types are acknowledged and ignored.
func (ctl *BillingWebhookController) HandleBillingWebhook(c *fiber.Ctx) error {
	secret := env.GetEnv("STRIPE_WEBHOOK_SECRET", "")
	event, err := webhook.ConstructEvent(c.Body(), c.Get("Stripe-Signature"), secret)
	if err != nil {
		log.Printf("billing: signature rejected: %v", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "unauthorized", "message": "Invalid webhook signature"})
	}

	switch string(event.Type) {
	case "customer.subscription.created", "customer.subscription.updated":
		if err := ctl.applySubscriptionEvent(event); err != nil {
			log.Printf("billing: plan change failed: %v", err)
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}

func (ctl *BillingWebhookController) applySubscriptionEvent(event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return err
	}
	if sub.Status != stripe.SubscriptionStatusActive && sub.Status != stripe.SubscriptionStatusTrialing {
		return nil
	}

	priceRef := ""
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		priceRef = sub.Items.Data[0].Price.LookupKey
		if priceRef == "" {
			priceRef = sub.Items.Data[0].Price.ID
		}
	}
	plan, ok := plans.FromBillingPriceRef(priceRef)
	if !ok {
		log.Printf("billing: no plan mapping for price ref %q, ignoring", priceRef)
		return nil
	}

	shop, err := ctl.resolveShop(&sub)
	if err != nil {
		return err
	}
	if shop == nil {
		log.Printf("billing: no shop for customer %q, ignoring", customerID(&sub))
		return nil
	}

	return ctl.shops.ApplyPlanChange(shop.ID, plan, customerID(&sub))
}

// resolveShop tries the stored billing reference first, then the shop
// domain metadata stamped on the checkout session.
func (ctl *BillingWebhookController) resolveShop(sub *stripe.Subscription) (*models.Shop, error) {
	if ref := customerID(sub); ref != "" {
		shop, err := ctl.shops.GetByBillingCustomerRef(ref)
		if err == nil {
			return shop, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if domain := sub.Metadata["shop_domain"]; domain != "" {
		shop, err := ctl.shops.GetByDomain(domain)
		if err == nil {
			return shop, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

func customerID(sub *stripe.Subscription) string {
	if sub.Customer == nil {
		return ""
	}
	return sub.Customer.ID
}
