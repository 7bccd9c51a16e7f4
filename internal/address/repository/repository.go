package repository

import (
	"context"
	"errors"

	"github.com/yingmeanshard/yingshop/internal/address/domain"
)

var ErrAddressNotFound = errors.New("address not found")

type AddressRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]*domain.Address, error)
	GetByID(ctx context.Context, id int64) (*domain.Address, error)
	Create(ctx context.Context, address *domain.Address) error
	Update(ctx context.Context, address *domain.Address) error
	Delete(ctx context.Context, id int64) error
	// MarkDefault flags one address and clears the flag on the user's others,
	// atomically.
	MarkDefault(ctx context.Context, userID, addressID int64) error
}
