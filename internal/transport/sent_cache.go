package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// SentCache remembers which message a provider id belongs to, so delivery
// receipts can be traced back without touching the database.
type SentCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSentCache(client *redis.Client, ttl time.Duration) *SentCache {
	return &SentCache{client: client, ttl: ttl}
}

// Record stores message:<provider id> -> <message id>:<sent at>.
func (c *SentCache) Record(ctx context.Context, providerID string, messageID uuid.UUID, sentAt time.Time) error {
	key := fmt.Sprintf("message:%s", providerID)
	value := fmt.Sprintf("%s:%s", messageID, sentAt.UTC().Format(time.RFC3339))

	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache sent message %s: %w", providerID, err)
	}
	return nil
}

// Lookup returns the cached value for providerID, or redis.Nil.
func (c *SentCache) Lookup(ctx context.Context, providerID string) (string, error) {
	return c.client.Get(ctx, fmt.Sprintf("message:%s", providerID)).Result()
}
