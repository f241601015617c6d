package models

import (
	"fmt"
	"time"
)

// Subscription records a shopper's interest in a product or variant. The
// MatchKey column carries the composite identity (shop, phone, variant-or-
// product) as a single unique index so that concurrent identical subscribe
// requests collapse into one row via ON DUPLICATE KEY.
type Subscription struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	ShopID          uint       `gorm:"not null;index:idx_subscriptions_shop_item,priority:1" json:"shop_id"`
	Phone           string     `gorm:"type:varchar(32);not null;index" json:"phone"`
	ProductID       string     `gorm:"type:varchar(64)" json:"product_id"`
	VariantID       string     `gorm:"type:varchar(64)" json:"variant_id"`
	InventoryItemID string     `gorm:"type:varchar(64);index:idx_subscriptions_shop_item,priority:2" json:"inventory_item_id"`
	ProductTitle    string     `gorm:"type:varchar(255)" json:"product_title"`
	ProductURL      string     `gorm:"type:varchar(512)" json:"product_url"`
	MatchKey        string     `gorm:"type:varchar(191);not null;uniqueIndex" json:"-"`
	AwaitingReply   bool       `gorm:"not null;default:false;index" json:"awaiting_reply"`
	TemplateSentAt  *time.Time `gorm:"type:timestamp;default:null" json:"template_sent_at,omitempty"`
	LastInboundAt   *time.Time `gorm:"type:timestamp;default:null" json:"last_inbound_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// SubscriptionMatchKey derives the identity key for the upsert. Variant
// scope wins over product scope when both are present.
func SubscriptionMatchKey(shopID uint, phone, productID, variantID string) string {
	if variantID != "" {
		return fmt.Sprintf("%d|%s|v:%s", shopID, phone, variantID)
	}
	return fmt.Sprintf("%d|%s|p:%s", shopID, phone, productID)
}
