package repository

import (
	"sync"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Repositories bundles the store implementations.
type Repositories struct {
	Subscription SubscriptionRepository
	Shop         ShopRepository
	Notification NotificationRepository
	Receipt      ReceiptRepository
}

// NewRepositories wires all repositories to their storage handles.
func NewRepositories(db *gorm.DB, cache *redis.Client) *Repositories {
	return &Repositories{
		Subscription: NewSubscriptionRepository(db),
		Shop:         NewShopRepository(db),
		Notification: NewNotificationRepository(db),
		Receipt:      NewReceiptRepository(cache),
	}
}

// Factory manages repository instances and ensures they are singletons.
// Storage handles are injected at construction; there is no package-level
// connection state.
type Factory struct {
	db    *gorm.DB
	cache *redis.Client
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB, cache *redis.Client) *Factory {
	return &Factory{db: db, cache: cache}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db, f.cache)
	})
	return f.repos
}
