package models

import "time"

// Notification is the legacy single-alert record kept for shops that have
// not moved to the two-step subscription flow. Sent flips false to true
// exactly once, guarded by a conditional update after a successful send.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ShopID    uint      `gorm:"not null;index" json:"shop_id"`
	ProductID string    `gorm:"type:varchar(64);index" json:"product_id"`
	VariantID string    `gorm:"type:varchar(64);index" json:"variant_id"`
	Contact   string    `gorm:"type:varchar(200);not null" json:"contact"`
	Sent      bool      `gorm:"not null;default:false;index" json:"sent"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
