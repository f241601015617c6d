package repository

import (
	"context"
	"time"

	"github.com/a47williams/back-in-stock-app-sub000/app/models"
)

// SubscriptionRepository defines the subscription store operations. All
// state transitions on a subscription go through these methods so the
// invariants stay centrally enforced.
type SubscriptionRepository interface {
	// Upsert inserts or overwrites on the (shop, phone, variant-or-product)
	// identity in a single atomic statement. Returns whether a new row was
	// created and the stored record with its ID populated.
	Upsert(sub *models.Subscription) (bool, error)
	GetByID(id uint) (*models.Subscription, error)
	// FindPendingByInventoryItem returns pending subscriptions for an
	// inventory item, oldest requester first.
	FindPendingByInventoryItem(shopID uint, inventoryItemID string) ([]models.Subscription, error)
	// FindUnresolvedByShop returns variant-scoped subscriptions whose
	// catalog lookup has not yet produced an inventory item id, oldest
	// first, so dispatch can retry the resolution.
	FindUnresolvedByShop(shopID uint, limit int) ([]models.Subscription, error)
	// StoreResolvedIdentifiers backfills the identifiers a late catalog
	// lookup produced.
	StoreResolvedIdentifiers(id uint, productID, inventoryItemID, productTitle, productURL string) error
	// ClaimPing is the compare-and-swap that lets exactly one of two racing
	// dispatch attempts proceed: it marks the subscription awaiting-reply
	// only if template_sent_at still equals prev.
	ClaimPing(id uint, prev *time.Time, now time.Time) (bool, error)
	// ReleasePing reverts a claim after a failed send so the next inventory
	// event retries naturally.
	ReleasePing(id uint, prev *time.Time) error
	// RecordInboundReply bumps last_inbound_at for every subscription held
	// by the contact; any inbound text is a session liveness signal.
	RecordInboundReply(phone string, at time.Time) (int64, error)
	// LatestAwaitingReply picks the most recently pinged awaiting
	// subscription for a contact.
	LatestAwaitingReply(phone string) (*models.Subscription, error)
	// DeleteFulfilled removes a subscription once its deep link is
	// delivered; conditional on the awaiting state so a duplicate reply
	// cannot double-fulfill.
	DeleteFulfilled(id uint) (bool, error)
	ListRecentByShop(shopID uint, limit int) ([]models.Subscription, error)
}

// ShopRepository defines account/plan record operations.
type ShopRepository interface {
	Create(shop *models.Shop) error
	GetByID(id uint) (*models.Shop, error)
	GetByDomain(domain string) (*models.Shop, error)
	// GetByAPIKeyHash resolves the shop owning a merchant API key; used by
	// the read-API auth middleware.
	GetByAPIKeyHash(hash string) (*models.Shop, error)
	GetByBillingCustomerRef(ref string) (*models.Shop, error)
	// MarkLimitReached sets the sticky flag; returns true only for the
	// caller that owns the false→true transition.
	MarkLimitReached(id uint) (bool, error)
	// IncrementUsage bumps the monthly counter after a confirmed send.
	IncrementUsage(id uint) error
	// ApplyPlanChange sets the tier and resets usage, limit flag and trial
	// end. The only path that resets the counter.
	ApplyPlanChange(id uint, plan, billingCustomerRef string) error
	SetUninstalled(domain string, at time.Time) error
}

// NotificationRepository defines the legacy single-alert store.
type NotificationRepository interface {
	Create(n *models.Notification) error
	// OldestUnsent returns the oldest unsent alert a contact holds for a
	// product/variant, or nil when there is none. Scoped to the contact:
	// a delivery to one phone must never consume another contact's alert.
	OldestUnsent(shopID uint, contact, productID, variantID string) (*models.Notification, error)
	// MarkSent flips sent false→true; returns false if another dispatch
	// already did.
	MarkSent(id uint) (bool, error)
	ListRecentByShop(shopID uint, limit int) ([]models.Notification, error)
}

// ReceiptRepository deduplicates webhook deliveries by provider delivery
// id. Entries expire after the retention window; expiry is the storage
// layer's concern.
type ReceiptRepository interface {
	// FirstSeen records the delivery id and reports whether this is its
	// first appearance inside the retention window.
	FirstSeen(ctx context.Context, deliveryID, topic string) (bool, error)
}
