package repository

import (
	"time"

	"github.com/a47williams/back-in-stock-app-sub000/app/models"
	"gorm.io/gorm"
)

// shopRepository implements ShopRepository on GORM/MySQL.
type shopRepository struct {
	db *gorm.DB
}

// NewShopRepository creates a new shop repository instance
func NewShopRepository(db *gorm.DB) ShopRepository {
	return &shopRepository{db: db}
}

func (r *shopRepository) Create(shop *models.Shop) error {
	return r.db.Create(shop).Error
}

func (r *shopRepository) GetByID(id uint) (*models.Shop, error) {
	var shop models.Shop
	if err := r.db.First(&shop, id).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *shopRepository) GetByDomain(domain string) (*models.Shop, error) {
	var shop models.Shop
	if err := r.db.Where("domain = ?", domain).First(&shop).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *shopRepository) GetByAPIKeyHash(hash string) (*models.Shop, error) {
	var shop models.Shop
	if err := r.db.Where("api_key_hash = ? AND api_key_hash <> ''", hash).First(&shop).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *shopRepository) GetByBillingCustomerRef(ref string) (*models.Shop, error) {
	var shop models.Shop
	if err := r.db.Where("billing_customer_ref = ?", ref).First(&shop).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

// MarkLimitReached only updates rows where the flag is still false, so the
// rows-affected count tells the caller whether it owns the transition and
// should fire the one-time notice.
func (r *shopRepository) MarkLimitReached(id uint) (bool, error) {
	tx := r.db.Model(&models.Shop{}).
		Where("id = ? AND limit_reached = ?", id, false).
		Update("limit_reached", true)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *shopRepository) IncrementUsage(id uint) error {
	return r.db.Model(&models.Shop{}).
		Where("id = ?", id).
		Update("monthly_usage", gorm.Expr("monthly_usage + 1")).Error
}

func (r *shopRepository) ApplyPlanChange(id uint, plan, billingCustomerRef string) error {
	updates := map[string]interface{}{
		"plan":          plan,
		"monthly_usage": 0,
		"limit_reached": false,
		"trial_ends_at": nil,
	}
	if billingCustomerRef != "" {
		updates["billing_customer_ref"] = billingCustomerRef
	}
	return r.db.Model(&models.Shop{}).Where("id = ?", id).Updates(updates).Error
}

func (r *shopRepository) SetUninstalled(domain string, at time.Time) error {
	return r.db.Model(&models.Shop{}).
		Where("domain = ?", domain).
		Update("uninstalled_at", at).Error
}
