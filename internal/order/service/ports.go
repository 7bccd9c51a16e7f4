package service

import (
	"context"

	addrdomain "github.com/yingmeanshard/yingshop/internal/address/domain"
	cartdomain "github.com/yingmeanshard/yingshop/internal/cart/domain"
	catalogdomain "github.com/yingmeanshard/yingshop/internal/catalog/domain"
	userdomain "github.com/yingmeanshard/yingshop/internal/user/domain"
)

// Collaborator ports, defined here by the consumer.

type Carts interface {
	GetCart(ctx context.Context, token string) (*cartdomain.Cart, error)
	// RemoveLines drains the given product lines and recomputes the total.
	RemoveLines(ctx context.Context, token string, productIDs []int64) error
}

type Products interface {
	GetProduct(ctx context.Context, id int64) (*catalogdomain.Product, error)
}

type Users interface {
	GetUserByID(ctx context.Context, id int64) (*userdomain.User, error)
}

type Addresses interface {
	GetByID(ctx context.Context, id int64) (*addrdomain.Address, error)
}
