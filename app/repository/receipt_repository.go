package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReceiptRetention is how long a delivery id stays deduplicated. Providers
// redeliver within hours, not days, so 24h comfortably covers retries.
const ReceiptRetention = 24 * time.Hour

const receiptKeyPrefix = "webhook:receipt:"

// receiptRepository implements ReceiptRepository on Redis. SETNX with a TTL
// is both the dedup primitive and the expiry policy in one operation.
type receiptRepository struct {
	client *redis.Client
}

// NewReceiptRepository creates a new webhook receipt repository instance
func NewReceiptRepository(client *redis.Client) ReceiptRepository {
	return &receiptRepository{client: client}
}

func (r *receiptRepository) FirstSeen(ctx context.Context, deliveryID, topic string) (bool, error) {
	return r.client.SetNX(ctx, receiptKeyPrefix+deliveryID, topic, ReceiptRetention).Result()
}
