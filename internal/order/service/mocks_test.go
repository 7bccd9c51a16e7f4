package service

import (
	"context"
	"errors"
	"sync"

	addrdomain "github.com/yingmeanshard/yingshop/internal/address/domain"
	cartdomain "github.com/yingmeanshard/yingshop/internal/cart/domain"
	catalogdomain "github.com/yingmeanshard/yingshop/internal/catalog/domain"
	"github.com/yingmeanshard/yingshop/internal/order/domain"
	r "github.com/yingmeanshard/yingshop/internal/order/repository"
	userdomain "github.com/yingmeanshard/yingshop/internal/user/domain"
)

// mockRepository implements r.OrderRepository with the same transactional
// semantics the postgres implementation has: stock is re-checked and deducted
// atomically with the order insert, floored at zero.
type mockRepository struct {
	mu        sync.Mutex
	nextID    int64
	Orders    map[int64]*domain.Order
	Stocks    map[int64]int
	CreateErr error
	UpdateErr error
	Events    []string
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		nextID: 1,
		Orders: make(map[int64]*domain.Order),
		Stocks: make(map[int64]int),
	}
}

func (m *mockRepository) CreateOrder(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	for _, line := range order.Lines {
		stock, ok := m.Stocks[line.ProductID]
		if !ok {
			return r.ErrProductNotFound
		}
		if stock < line.Quantity {
			return &r.InsufficientStockError{
				ProductID: line.ProductID,
				Requested: line.Quantity,
				Available: stock,
			}
		}
	}
	for _, line := range order.Lines {
		remaining := m.Stocks[line.ProductID] - line.Quantity
		if remaining < 0 {
			remaining = 0
		}
		m.Stocks[line.ProductID] = remaining
	}
	order.ID = m.nextID
	m.nextID++
	copied := *order
	m.Orders[order.ID] = &copied
	m.Events = append(m.Events, "order_created")
	return nil
}

func (m *mockRepository) GetOrderByID(_ context.Context, id int64) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.Orders[id]
	if !ok {
		return nil, r.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *mockRepository) ListOrdersByUser(_ context.Context, userID int64) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var orders []*domain.Order
	for _, order := range m.Orders {
		if order.UserID == userID {
			copied := *order
			orders = append(orders, &copied)
		}
	}
	return orders, nil
}

func (m *mockRepository) ListAllOrders(context.Context) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var orders []*domain.Order
	for _, order := range m.Orders {
		copied := *order
		orders = append(orders, &copied)
	}
	return orders, nil
}

func (m *mockRepository) UpdateStatus(_ context.Context, orderID int64, from, to domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	order, ok := m.Orders[orderID]
	if !ok {
		return r.ErrOrderNotFound
	}
	if order.Status != from {
		return r.ErrStaleStatus
	}
	order.Status = to
	m.Events = append(m.Events, "order_status_changed")
	return nil
}

func (m *mockRepository) GetUnprocessedEvents(context.Context, int) ([]*r.OutboxEvent, error) {
	return nil, nil
}

func (m *mockRepository) MarkEventAsProcessed(context.Context, int64) error {
	return nil
}

func (m *mockRepository) RunMigrations(*r.Credentials) error { return nil }
func (m *mockRepository) Close() error                       { return nil }

type mockCarts struct {
	Carts     map[string]*cartdomain.Cart
	GetErr    error
	RemoveErr error
}

func (m *mockCarts) GetCart(_ context.Context, token string) (*cartdomain.Cart, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	cart, ok := m.Carts[token]
	if !ok {
		return cartdomain.New(token), nil
	}
	return cart, nil
}

func (m *mockCarts) RemoveLines(_ context.Context, token string, productIDs []int64) error {
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	cart, ok := m.Carts[token]
	if !ok {
		return errors.New("cart not found")
	}
	cart.RemoveLines(productIDs)
	return nil
}

type mockProducts struct {
	Products map[int64]*catalogdomain.Product
}

func (m *mockProducts) GetProduct(_ context.Context, id int64) (*catalogdomain.Product, error) {
	product, ok := m.Products[id]
	if !ok {
		return nil, errors.New("product not found")
	}
	copied := *product
	return &copied, nil
}

type mockUsers struct {
	Users map[int64]*userdomain.User
}

func (m *mockUsers) GetUserByID(_ context.Context, id int64) (*userdomain.User, error) {
	user, ok := m.Users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	return user, nil
}

type mockAddresses struct {
	Addresses map[int64]*addrdomain.Address
}

func (m *mockAddresses) GetByID(_ context.Context, id int64) (*addrdomain.Address, error) {
	addr, ok := m.Addresses[id]
	if !ok {
		return nil, errors.New("address not found")
	}
	return addr, nil
}
