package service

import (
	"errors"
	"fmt"

	"github.com/yingmeanshard/yingshop/internal/order/domain"
)

// All of these are caller-correctable: nothing has been mutated when one is
// returned, and none is ever retried here.
var (
	ErrEmptyCart        = errors.New("cart is empty, nothing to check out")
	ErrNoSelectedLines  = errors.New("cart has no selected lines with quantity above zero")
	ErrInvalidPayment   = errors.New("invalid payment method")
	ErrInvalidStatus    = errors.New("invalid order status")
	ErrUserNotFound     = errors.New("user not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrAddressNotFound  = errors.New("address not found")
	ErrAddressNotOwned  = errors.New("address does not belong to the user")
	ErrPickupAddress    = errors.New("cash on delivery orders cannot ship to a pickup address")

	ErrProductUnavailable = errors.New("product is not available for purchase")
)

// ProductNotFoundError names the cart line whose product no longer exists.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found for id %d", e.ProductID)
}

// InsufficientStockError carries everything the storefront needs to render a
// useful message.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

// StateConflictError rejects an illegal status transition; the order is left
// unchanged.
type StateConflictError struct {
	From domain.Status
	To   domain.Status
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}
