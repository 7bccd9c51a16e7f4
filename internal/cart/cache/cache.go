package cache

import (
	"context"
	"errors"

	"github.com/yingmeanshard/yingshop/internal/cart/domain"
)

type CartCache interface {
	Get(ctx context.Context, token string) (*domain.Cart, error)
	Set(ctx context.Context, token string, cart *domain.Cart) error
	Delete(ctx context.Context, token string) error
}

var ErrCacheMiss = errors.New("cache miss")
