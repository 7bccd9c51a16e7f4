package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	orderdomain "github.com/yingmeanshard/yingshop/internal/order/domain"
	ordersvc "github.com/yingmeanshard/yingshop/internal/order/service"
)

// OrderOps is what the handlers need from the order service.
type OrderOps interface {
	CreateOrder(ctx context.Context, req ordersvc.CreateOrderRequest) (*orderdomain.Order, error)
	GetOrder(ctx context.Context, id int64) (*orderdomain.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]*orderdomain.Order, error)
	ListAllOrders(ctx context.Context) ([]*orderdomain.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, to orderdomain.Status) (*orderdomain.Order, error)
}

type OrderHandler struct {
	orders  OrderOps
	timeout time.Duration
}

func NewOrderHandler(orders OrderOps, timeout time.Duration) *OrderHandler {
	return &OrderHandler{orders: orders, timeout: timeout}
}

type CreateOrderRequestDTO struct {
	PaymentMethod         string `json:"payment_method"`
	DeliveryPaymentMethod string `json:"delivery_payment_method"`
	AddressID             int64  `json:"address_id"`
	RecipientName         string `json:"recipient_name"`
	RecipientPhone        string `json:"recipient_phone"`
	RecipientEmail        string `json:"recipient_email"`
	RecipientAddress      string `json:"recipient_address"`
}

type UpdateStatusRequestDTO struct {
	Status string `json:"status"`
}

// CreateOrder checks out the cart's selected lines into an order.
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	token, ok := cartToken(w, r)
	if !ok {
		return
	}

	var req CreateOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.orders.CreateOrder(ctx, ordersvc.CreateOrderRequest{
		CartToken:             token,
		UserID:                userIDFromContext(r.Context()),
		PaymentMethod:         req.PaymentMethod,
		DeliveryPaymentMethod: req.DeliveryPaymentMethod,
		AddressID:             req.AddressID,
		RecipientName:         req.RecipientName,
		RecipientPhone:        req.RecipientPhone,
		RecipientEmail:        req.RecipientEmail,
		RecipientAddress:      req.RecipientAddress,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

// GetOrder returns a single order; customers only see their own.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if order.UserID != userIDFromContext(r.Context()) {
		respondError(w, http.StatusNotFound, "not_found", "order not found")
		return
	}

	respondJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.ListOrdersByUser(ctx, userIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.ListAllOrders(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, orders)
}

// GetAnyOrder is the staff view: no ownership check.
func (h *OrderHandler) GetAnyOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	status, ok := orderdomain.ParseStatus(req.Status)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_status", "unknown order status")
		return
	}

	order, err := h.orders.UpdateStatus(ctx, orderID, status)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

func orderIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	orderIDStr := chi.URLParam(r, "order_id")
	orderID, err := strconv.ParseInt(orderIDStr, 10, 64)
	if err != nil || orderID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a positive integer")
		return 0, false
	}
	return orderID, true
}
