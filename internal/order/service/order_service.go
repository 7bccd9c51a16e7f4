package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	cartdomain "github.com/yingmeanshard/yingshop/internal/cart/domain"
	"github.com/yingmeanshard/yingshop/internal/order/domain"
	r "github.com/yingmeanshard/yingshop/internal/order/repository"
)

type CreateOrderRequest struct {
	CartToken             string
	UserID                int64
	PaymentMethod         string
	DeliveryPaymentMethod string
	AddressID             int64
	RecipientName         string
	RecipientPhone        string
	RecipientEmail        string
	RecipientAddress      string
}

type OrderService interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*domain.Order, error)
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]*domain.Order, error)
	ListAllOrders(ctx context.Context) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, to domain.Status) (*domain.Order, error)
}

type OrderServiceImpl struct {
	repo      r.OrderRepository
	carts     Carts
	products  Products
	users     Users
	addresses Addresses
}

func NewOrderService(repo r.OrderRepository, carts Carts, products Products, users Users, addresses Addresses) *OrderServiceImpl {
	return &OrderServiceImpl{
		repo:      repo,
		carts:     carts,
		products:  products,
		users:     users,
		addresses: addresses,
	}
}

// CreateOrder materializes the cart's selected lines into a persisted order.
// Quantity and unit price are snapshotted from the cart, not re-read from the
// product. Nothing is mutated until every precondition has passed; the order
// insert and the stock deduction commit together.
func (s *OrderServiceImpl) CreateOrder(ctx context.Context, req CreateOrderRequest) (*domain.Order, error) {
	payment, deliveryPayment, err := resolvePayment(req)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, req.UserID)
	if err != nil || user == nil {
		return nil, ErrUserNotFound
	}

	cart, err := s.carts.GetCart(ctx, req.CartToken)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if !cart.HasSelectedLines() {
		return nil, ErrNoSelectedLines
	}

	recipient, err := s.resolveRecipient(ctx, req, cart, user.Name, user.PhoneNumber, user.Email)
	if err != nil {
		return nil, err
	}
	if deliveryPayment == domain.DeliveryPaymentCashOnDelivery && isPickupAddress(recipient.address) {
		return nil, ErrPickupAddress
	}

	candidates := selectedLines(cart)
	if len(candidates) == 0 {
		return nil, ErrNoSelectedLines
	}

	productNames, err := s.validateStock(ctx, candidates)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		UserID:                user.ID,
		Status:                domain.StatusPendingPayment,
		PaymentMethod:         payment,
		DeliveryPaymentMethod: deliveryPayment,
		RecipientName:         recipient.name,
		RecipientPhone:        recipient.phone,
		RecipientEmail:        recipient.email,
		RecipientAddress:      recipient.address,
		CreatedAt:             time.Now(),
	}
	var total int64
	for _, line := range candidates {
		order.Lines = append(order.Lines, domain.Line{
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Subtotal:  line.Subtotal,
		})
		total += line.Subtotal
	}
	order.TotalPrice = total

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		var stockErr *r.InsufficientStockError
		if errors.As(err, &stockErr) {
			// The in-transaction re-check caught a concurrent deduction.
			return nil, &InsufficientStockError{
				ProductID:   stockErr.ProductID,
				ProductName: productNames[stockErr.ProductID],
				Requested:   stockErr.Requested,
				Available:   stockErr.Available,
			}
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// The order is committed; a failed cart drain must not undo it.
	orderedIDs := make([]int64, 0, len(order.Lines))
	for _, line := range order.Lines {
		orderedIDs = append(orderedIDs, line.ProductID)
	}
	if err := s.carts.RemoveLines(ctx, req.CartToken, orderedIDs); err != nil {
		log.Printf("failed to drain ordered lines from cart %s: %v", req.CartToken, err)
	}

	return order, nil
}

// validateStock fails fast on the first missing, unlisted or under-stocked
// product, before any write happens. Returns product names keyed by id for
// error reporting further down.
func (s *OrderServiceImpl) validateStock(ctx context.Context, lines []cartdomain.Line) (map[int64]string, error) {
	names := make(map[int64]string, len(lines))
	for _, line := range lines {
		product, err := s.products.GetProduct(ctx, line.ProductID)
		if err != nil || product == nil {
			return nil, &ProductNotFoundError{ProductID: line.ProductID}
		}
		if !product.Listed {
			return nil, fmt.Errorf("%w: %q", ErrProductUnavailable, product.Name)
		}
		if product.Stock < line.Quantity {
			return nil, &InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   line.Quantity,
				Available:   product.Stock,
			}
		}
		names[product.ID] = product.Name
	}
	return names, nil
}

func selectedLines(cart *cartdomain.Cart) []cartdomain.Line {
	var lines []cartdomain.Line
	for _, line := range cart.SelectedLines() {
		if line.Quantity > 0 {
			lines = append(lines, line)
		}
	}
	return lines
}

func resolvePayment(req CreateOrderRequest) (domain.PaymentMethod, domain.DeliveryPaymentMethod, error) {
	if req.DeliveryPaymentMethod != "" {
		dp, ok := domain.ParseDeliveryPaymentMethod(req.DeliveryPaymentMethod)
		if !ok {
			return "", "", fmt.Errorf("%w: %q", ErrInvalidPayment, req.DeliveryPaymentMethod)
		}
		payment := domain.PaymentCashOnDelivery
		if dp == domain.DeliveryPaymentPickupCash {
			payment = domain.PaymentPickup
		}
		return payment, dp, nil
	}
	payment, ok := domain.ParsePaymentMethod(req.PaymentMethod)
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPayment, req.PaymentMethod)
	}
	return payment, "", nil
}

type recipient struct {
	name    string
	phone   string
	email   string
	address string
}

// resolveRecipient prefers explicit fields, then the requested address, then
// the address selected on the cart, and finally falls back to user profile
// data for name/phone/email.
func (s *OrderServiceImpl) resolveRecipient(ctx context.Context, req CreateOrderRequest, cart *cartdomain.Cart, userName, userPhone, userEmail string) (recipient, error) {
	rec := recipient{
		name:    req.RecipientName,
		phone:   req.RecipientPhone,
		email:   req.RecipientEmail,
		address: req.RecipientAddress,
	}

	addressID := req.AddressID
	if addressID == 0 {
		addressID = cart.SelectedAddressID
	}
	if addressID != 0 && (rec.name == "" || rec.phone == "" || rec.address == "") {
		addr, err := s.addresses.GetByID(ctx, addressID)
		if err != nil || addr == nil {
			return recipient{}, ErrAddressNotFound
		}
		if addr.UserID != req.UserID {
			return recipient{}, ErrAddressNotOwned
		}
		if rec.name == "" {
			rec.name = addr.RecipientName
		}
		if rec.phone == "" {
			rec.phone = addr.RecipientPhone
		}
		if rec.address == "" {
			rec.address = addr.AddressText
		}
	}

	if rec.name == "" {
		rec.name = userName
	}
	if rec.phone == "" {
		rec.phone = userPhone
	}
	if rec.email == "" {
		rec.email = userEmail
	}
	return rec, nil
}

func isPickupAddress(address string) bool {
	trimmed := strings.TrimSpace(address)
	return strings.EqualFold(trimmed, "pickup") || trimmed == "自取"
}

func (s *OrderServiceImpl) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := s.repo.GetOrderByID(ctx, id)
	if errors.Is(err, r.ErrOrderNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

func (s *OrderServiceImpl) ListOrdersByUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	orders, err := s.repo.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderServiceImpl) ListAllOrders(ctx context.Context) ([]*domain.Order, error) {
	orders, err := s.repo.ListAllOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus applies a single externally triggered transition, validated
// against the status machine. The order is unchanged on rejection.
func (s *OrderServiceImpl) UpdateStatus(ctx context.Context, orderID int64, to domain.Status) (*domain.Order, error) {
	if _, ok := domain.ParseStatus(string(to)); !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}

	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	from := order.Status
	if !from.CanTransitionTo(to) {
		return nil, &StateConflictError{From: from, To: to}
	}
	if from == to {
		return order, nil
	}

	if err := s.repo.UpdateStatus(ctx, orderID, from, to); err != nil {
		if errors.Is(err, r.ErrStaleStatus) {
			return nil, &StateConflictError{From: from, To: to}
		}
		if errors.Is(err, r.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	order.Status = to
	return order, nil
}
