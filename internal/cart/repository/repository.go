package repository

import (
	"context"
	"errors"

	"github.com/yingmeanshard/yingshop/internal/cart/domain"
)

var ErrCartNotFound = errors.New("cart not found")

// CartRepository persists carts keyed by their token. Mutations go through
// UpsertCart: the service applies domain transformations and writes the whole
// document back.
type CartRepository interface {
	GetCart(ctx context.Context, token string) (*domain.Cart, error)
	UpsertCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, token string) error
}
