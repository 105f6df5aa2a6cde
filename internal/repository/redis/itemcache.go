// Package redis holds Redis-backed read models.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mustafakutlankale/my-ecommerce-app/internal/domain"
	apperrors "github.com/mustafakutlankale/my-ecommerce-app/pkg/errors"
)

const itemKeyPrefix = "storefront:item:"

// ItemCache keeps serialized item details keyed by item id. Entries expire
// after the configured TTL and are dropped on every write to the item.
type ItemCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewItemCache creates a cache on client.
func NewItemCache(client redis.Cmdable, ttl time.Duration) *ItemCache {
	return &ItemCache{client: client, ttl: ttl}
}

func itemKey(id string) string { return itemKeyPrefix + id }

// Get returns the cached item or a NotFound error on a miss.
func (c *ItemCache) Get(ctx context.Context, id string) (*domain.Item, error) {
	data, err := c.client.Get(ctx, itemKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("item", id)
		}
		return nil, fmt.Errorf("redis get item: %w", err)
	}

	var item domain.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return &item, nil
}

// Set stores item with the configured TTL.
func (c *ItemCache) Set(ctx context.Context, item *domain.Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}
	if err := c.client.Set(ctx, itemKey(item.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set item: %w", err)
	}
	return nil
}

// Invalidate drops the entries for ids. Missing keys are ignored.
func (c *ItemCache) Invalidate(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = itemKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del items: %w", err)
	}
	return nil
}
