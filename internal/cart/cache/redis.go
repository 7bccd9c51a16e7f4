package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yingmeanshard/yingshop/internal/cart/domain"
)

const (
	defaultBaseTTL = 15 * time.Minute
	maxTTLJitter   = 5 * time.Minute
)

// NewRedisCache builds a cart cache on the given client. A non-positive
// baseTTL selects the default.
func NewRedisCache(client *redis.Client, baseTTL time.Duration) *RedisCache {
	if baseTTL <= 0 {
		baseTTL = defaultBaseTTL
	}
	return &RedisCache{
		client:  client,
		baseTTL: baseTTL,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r RedisCache) Get(ctx context.Context, token string) (*domain.Cart, error) {
	key := cacheKey(token)

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart domain.Cart
	if err2 := json.Unmarshal(data, &cart); err2 != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err2)
	}

	return &cart, nil
}

func (r RedisCache) Set(ctx context.Context, token string, cart *domain.Cart) error {
	key := cacheKey(token)
	jsonCart, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	// Jitter spreads expirations so a burst of carts cached together does not
	// expire together.
	jitter := time.Duration(rand.Int63n(int64(maxTTLJitter)))
	ttl := r.baseTTL + jitter
	if err := r.client.Set(ctx, key, string(jsonCart), ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r RedisCache) Delete(ctx context.Context, token string) error {
	key := cacheKey(token)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}

	return nil
}

func cacheKey(token string) string {
	return fmt.Sprintf("cart:%s", token)
}
