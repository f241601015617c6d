package repository

import (
	"errors"

	"github.com/a47williams/back-in-stock-app-sub000/app/models"
	"gorm.io/gorm"
)

// notificationRepository implements NotificationRepository on GORM/MySQL.
type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository instance
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(n *models.Notification) error {
	return r.db.Create(n).Error
}

func (r *notificationRepository) OldestUnsent(shopID uint, contact, productID, variantID string) (*models.Notification, error) {
	var n models.Notification
	q := r.db.Where("shop_id = ? AND contact = ? AND sent = ?", shopID, contact, false)
	if variantID != "" {
		q = q.Where("variant_id = ?", variantID)
	} else {
		q = q.Where("product_id = ?", productID)
	}
	err := q.Order("created_at ASC").First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// MarkSent is conditional on sent still being false so that two racing
// dispatches produce at most one effective transition.
func (r *notificationRepository) MarkSent(id uint) (bool, error) {
	tx := r.db.Model(&models.Notification{}).
		Where("id = ? AND sent = ?", id, false).
		Update("sent", true)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *notificationRepository) ListRecentByShop(shopID uint, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	var ns []models.Notification
	err := r.db.
		Where("shop_id = ?", shopID).
		Order("created_at DESC").
		Limit(limit).
		Find(&ns).Error
	return ns, err
}
