package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gana36/Prime-Day-Sim/internal/core/domain"
)

const listingKeyPrefix = "products:"

// RedisAdapter caches product listings. It is non-authoritative: entries
// simply expire after the TTL and the write path never touches them, so a
// listing may lag true stock by up to the TTL.
type RedisAdapter struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAdapter(client *redis.Client, ttl time.Duration) *RedisAdapter {
	return &RedisAdapter{client: client, ttl: ttl}
}

func listingKey(offset, limit int) string {
	return fmt.Sprintf("%s%d:%d", listingKeyPrefix, offset, limit)
}

func (r *RedisAdapter) GetProductListing(ctx context.Context, offset, limit int) ([]domain.Product, bool, error) {
	data, err := r.client.Get(ctx, listingKey(offset, limit)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get listing: %w", err)
	}

	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, false, fmt.Errorf("decode listing: %w", err)
	}
	return products, true, nil
}

func (r *RedisAdapter) SetProductListing(ctx context.Context, offset, limit int, products []domain.Product) error {
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("encode listing: %w", err)
	}
	if err := r.client.Set(ctx, listingKey(offset, limit), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("set listing: %w", err)
	}
	return nil
}
