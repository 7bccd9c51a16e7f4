package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yingmeanshard/yingshop/internal/order/domain"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
	ErrStaleStatus     = errors.New("order status changed concurrently")
)

// InsufficientStockError is returned from the create transaction when the
// locked stock row no longer covers the requested quantity.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// OutboxEvent is one row of the transactional outbox, published by the poller.
type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

type OrderRepository interface {
	// CreateOrder persists the order with its lines, decrements each ordered
	// product's stock (floored at zero) and appends an order_created outbox
	// event, all in one transaction. Stock rows are locked and re-checked
	// before the decrement.
	CreateOrder(ctx context.Context, order *domain.Order) error

	GetOrderByID(ctx context.Context, id int64) (*domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]*domain.Order, error)
	ListAllOrders(ctx context.Context) ([]*domain.Order, error)

	// UpdateStatus persists a status change guarded by the expected current
	// status and appends an order_status_changed outbox event in the same
	// transaction.
	UpdateStatus(ctx context.Context, orderID int64, from, to domain.Status) error

	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error

	RunMigrations(*Credentials) error
	Close() error
}
