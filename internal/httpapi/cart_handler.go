package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	cartdomain "github.com/yingmeanshard/yingshop/internal/cart/domain"
)

// CartOps is what the handler needs from the cart service.
type CartOps interface {
	NewToken() string
	GetCart(ctx context.Context, token string) (*cartdomain.Cart, error)
	AddItem(ctx context.Context, token string, productID int64, name string, unitPrice int64, quantity int) (*cartdomain.Cart, error)
	UpdateQuantity(ctx context.Context, token string, productID int64, quantity int) (*cartdomain.Cart, error)
	RemoveItem(ctx context.Context, token string, productID int64) (*cartdomain.Cart, error)
	SetSelected(ctx context.Context, token string, productIDs []int64) (*cartdomain.Cart, error)
	SelectAddress(ctx context.Context, token string, addressID int64) (*cartdomain.Cart, error)
	ClearCart(ctx context.Context, token string) error
}

type CartHandler struct {
	carts   CartOps
	catalog CatalogOps
	timeout time.Duration
}

func NewCartHandler(carts CartOps, catalog CatalogOps, timeout time.Duration) *CartHandler {
	return &CartHandler{carts: carts, catalog: catalog, timeout: timeout}
}

const cartTokenHeader = "X-Cart-Token"

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type SetSelectedRequestDTO struct {
	ProductIDs []int64 `json:"product_ids"`
}

type SelectAddressRequestDTO struct {
	AddressID int64 `json:"address_id"`
}

type NewTokenResponseDTO struct {
	Token string `json:"token"`
}

func cartToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := r.Header.Get(cartTokenHeader)
	if token == "" {
		respondError(w, http.StatusBadRequest, "missing_cart_token", "X-Cart-Token header is required")
		return "", false
	}
	return token, true
}

// NewToken hands out a fresh cart token for an anonymous session.
func (h *CartHandler) NewToken(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusCreated, NewTokenResponseDTO{Token: h.carts.NewToken()})
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	token, ok := cartToken(w, r)
	if !ok {
		return
	}

	cart, err := h.carts.GetCart(ctx, token)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	token, ok := cartToken(w, r)
	if !ok {
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}
	if req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be at most 99")
		return
	}

	// The cart line snapshots the listed name and price at add time.
	product, err := h.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	cart, err := h.carts.AddItem(ctx, token, product.ID, product.Name, product.Price, req.Quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, cart)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	token, ok := cartToken(w, r)
	if !ok {
		return
	}

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be at most 99")
		return
	}

	cart, err := h.carts.UpdateQuantity(ctx, token, productID, req.Quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	token, ok := cartToken(w, r)
	if !ok {
		return
	}

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	cart, err := h.carts.RemoveItem(ctx, token, productID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) SetSelected(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	token, ok := cartToken(w, r)
	if !ok {
		return
	}

	var req SetSelectedRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	cart, err := h.carts.SetSelected(ctx, token, req.ProductIDs)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) SelectAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	token, ok := cartToken(w, r)
	if !ok {
		return
	}

	var req SelectAddressRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.AddressID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_address_id", "address_id must be positive")
		return
	}

	cart, err := h.carts.SelectAddress(ctx, token, req.AddressID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	token, ok := cartToken(w, r)
	if !ok {
		return
	}

	if err := h.carts.ClearCart(ctx, token); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productIDStr := chi.URLParam(r, "product_id")
	productID, err := strconv.ParseInt(productIDStr, 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return 0, false
	}
	return productID, true
}
