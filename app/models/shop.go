package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const apiKeyPrefix = "bis_"

var apiKeyEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Plan tier constants. Ceilings live in internal/pkg/plans.
const (
	PlanTrial     = "trial"
	PlanBasic     = "basic"
	PlanGrowth    = "growth"
	PlanUnlimited = "unlimited"
)

// Shop is the per-storefront account record: plan tier, trial window,
// monthly usage counter and the sticky limit flag that suppresses sends.
type Shop struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	Domain             string     `gorm:"type:varchar(191);not null;uniqueIndex" json:"domain"`
	AccessToken        string     `gorm:"type:varchar(191)" json:"-"`
	WebhookSecret      string     `gorm:"type:varchar(191)" json:"-"`
	APIKeyHash         string     `gorm:"type:varchar(64);index" json:"-"`
	Plan               string     `gorm:"type:varchar(32);not null;default:'trial';index" json:"plan"`
	TrialStartedAt     time.Time  `gorm:"type:timestamp" json:"trial_started_at"`
	TrialEndsAt        *time.Time `gorm:"type:timestamp;default:null" json:"trial_ends_at,omitempty"`
	MonthlyUsage       int        `gorm:"not null;default:0" json:"monthly_usage"`
	LimitReached       bool       `gorm:"not null;default:false" json:"limit_reached"`
	BillingCustomerRef string     `gorm:"type:varchar(191);index" json:"-"`
	NotifyPhone        string     `gorm:"type:varchar(32)" json:"notify_phone"`
	NotifyEmail        string     `gorm:"type:varchar(200)" json:"notify_email"`
	UseConfirmationFlow bool      `gorm:"not null;default:true" json:"use_confirmation_flow"`
	UninstalledAt      *time.Time `gorm:"type:timestamp;default:null" json:"uninstalled_at,omitempty"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TrialExpired reports whether the shop's trial window has lapsed. Shops on
// a paid plan never count as trial-expired regardless of the timestamp.
func (s *Shop) TrialExpired(now time.Time) bool {
	if s.Plan != PlanTrial {
		return false
	}
	return s.TrialEndsAt != nil && now.After(*s.TrialEndsAt)
}

// IssueAPIKey generates a fresh merchant API key, stores its hash on the
// shop and returns the raw key. The raw key is only available at issue
// time; persisting the shop afterwards is the caller's job.
func (s *Shop) IssueAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("api key generation failed: %w", err)
	}
	rawKey := apiKeyPrefix + strings.ToLower(apiKeyEncoding.EncodeToString(b))
	s.APIKeyHash = HashAPIKey(rawKey)
	return rawKey, nil
}

// HashAPIKey returns the SHA-256 hash for the provided API key.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(raw)))
	return hex.EncodeToString(sum[:])
}
