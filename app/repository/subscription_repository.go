package repository

import (
	"errors"
	"time"

	"github.com/a47williams/back-in-stock-app-sub000/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// subscriptionRepository implements SubscriptionRepository on GORM/MySQL.
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Upsert(sub *models.Subscription) (bool, error) {
	sub.MatchKey = models.SubscriptionMatchKey(sub.ShopID, sub.Phone, sub.ProductID, sub.VariantID)

	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "match_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"product_id",
			"variant_id",
			"inventory_item_id",
			"product_title",
			"product_url",
			"updated_at",
		}),
	}).Create(sub)
	if tx.Error != nil {
		return false, tx.Error
	}
	// MySQL reports 1 affected row for an insert, 2 for an update.
	created := tx.RowsAffected == 1

	// Ensure ID and timestamps reflect the stored row after upsert.
	if err := r.db.Where("match_key = ?", sub.MatchKey).First(sub).Error; err != nil {
		return false, err
	}
	return created, nil
}

func (r *subscriptionRepository) GetByID(id uint) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.First(&sub, id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) FindPendingByInventoryItem(shopID uint, inventoryItemID string) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.
		Where("shop_id = ? AND inventory_item_id = ?", shopID, inventoryItemID).
		Order("created_at ASC").
		Find(&subs).Error
	return subs, err
}

func (r *subscriptionRepository) FindUnresolvedByShop(shopID uint, limit int) ([]models.Subscription, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	var subs []models.Subscription
	err := r.db.
		Where("shop_id = ? AND inventory_item_id = '' AND variant_id <> ''", shopID).
		Order("created_at ASC").
		Limit(limit).
		Find(&subs).Error
	return subs, err
}

func (r *subscriptionRepository) StoreResolvedIdentifiers(id uint, productID, inventoryItemID, productTitle, productURL string) error {
	updates := map[string]interface{}{
		"inventory_item_id": inventoryItemID,
	}
	if productID != "" {
		updates["product_id"] = productID
	}
	if productTitle != "" {
		updates["product_title"] = productTitle
	}
	if productURL != "" {
		updates["product_url"] = productURL
	}
	return r.db.Model(&models.Subscription{}).Where("id = ?", id).Updates(updates).Error
}

func (r *subscriptionRepository) ClaimPing(id uint, prev *time.Time, now time.Time) (bool, error) {
	q := r.db.Model(&models.Subscription{}).Where("id = ?", id)
	if prev == nil {
		q = q.Where("template_sent_at IS NULL")
	} else {
		q = q.Where("template_sent_at = ?", *prev)
	}
	tx := q.Updates(map[string]interface{}{
		"awaiting_reply":   true,
		"template_sent_at": now,
	})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *subscriptionRepository) ReleasePing(id uint, prev *time.Time) error {
	return r.db.Model(&models.Subscription{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"awaiting_reply":   prev != nil,
			"template_sent_at": prev,
		}).Error
}

func (r *subscriptionRepository) RecordInboundReply(phone string, at time.Time) (int64, error) {
	tx := r.db.Model(&models.Subscription{}).
		Where("phone = ?", phone).
		Update("last_inbound_at", at)
	return tx.RowsAffected, tx.Error
}

func (r *subscriptionRepository) LatestAwaitingReply(phone string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.
		Where("phone = ? AND awaiting_reply = ?", phone, true).
		Order("template_sent_at DESC").
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) DeleteFulfilled(id uint) (bool, error) {
	tx := r.db.
		Where("id = ? AND awaiting_reply = ?", id, true).
		Delete(&models.Subscription{})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *subscriptionRepository) ListRecentByShop(shopID uint, limit int) ([]models.Subscription, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	var subs []models.Subscription
	err := r.db.
		Where("shop_id = ?", shopID).
		Order("created_at DESC").
		Limit(limit).
		Find(&subs).Error
	return subs, err
}
