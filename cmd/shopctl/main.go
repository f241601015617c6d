package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/a47williams/back-in-stock-app-sub000/app/models"
	"github.com/a47williams/back-in-stock-app-sub000/app/repository"
	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/database"
	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/env"
)

// shopctl is the operator tool for provisioning shops and rotating their
// merchant API keys. Raw keys are printed once and only their hash is
// stored.
func main() {
	env.SetupEnvFile()

	if len(os.Args) < 3 {
		printUsage()
		os.Exit(1)
	}
	command, domain := os.Args[1], os.Args[2]

	db, err := database.Connect()
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	shops := repository.NewShopRepository(db)

	switch command {
	case "create":
		secret, err := randomSecret()
		if err != nil {
			log.Fatalf("webhook secret generation failed: %v", err)
		}
		trialEnd := time.Now().AddDate(0, 0, 14)
		shop := &models.Shop{
			Domain:              domain,
			WebhookSecret:       secret,
			Plan:                models.PlanTrial,
			TrialStartedAt:      time.Now(),
			TrialEndsAt:         &trialEnd,
			UseConfirmationFlow: true,
		}
		rawKey, err := shop.IssueAPIKey()
		if err != nil {
			log.Fatalf("api key generation failed: %v", err)
		}
		if err := shops.Create(shop); err != nil {
			log.Fatalf("shop create failed: %v", err)
		}
		fmt.Printf("shop %s created (id %d)\n", shop.Domain, shop.ID)
		fmt.Printf("webhook secret: %s\n", secret)
		fmt.Printf("api key: %s\n", rawKey)
	case "issue-key":
		shop, err := shops.GetByDomain(domain)
		if err != nil {
			log.Fatalf("shop lookup failed: %v", err)
		}
		rawKey, err := shop.IssueAPIKey()
		if err != nil {
			log.Fatalf("api key generation failed: %v", err)
		}
		if err := db.Model(&models.Shop{}).
			Where("id = ?", shop.ID).
			Update("api_key_hash", shop.APIKeyHash).Error; err != nil {
			log.Fatalf("api key update failed: %v", err)
		}
		fmt.Printf("api key for %s: %s\n", shop.Domain, rawKey)
	default:
		printUsage()
		os.Exit(1)
	}
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func printUsage() {
	fmt.Println("usage: shopctl <create|issue-key> <shop-domain>")
}
