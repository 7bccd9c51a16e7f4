package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	catalogdomain "github.com/yingmeanshard/yingshop/internal/catalog/domain"
)

// CatalogOps is what the handlers need from the catalog service.
type CatalogOps interface {
	ListProducts(ctx context.Context) ([]*catalogdomain.Product, error)
	ListAllProducts(ctx context.Context) ([]*catalogdomain.Product, error)
	ListByCategory(ctx context.Context, category string) ([]*catalogdomain.Product, error)
	GetProduct(ctx context.Context, id int64) (*catalogdomain.Product, error)
	CreateProduct(ctx context.Context, product *catalogdomain.Product) (*catalogdomain.Product, error)
	UpdateProduct(ctx context.Context, product *catalogdomain.Product) (*catalogdomain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	SetListed(ctx context.Context, id int64, listed bool) error
	SetStock(ctx context.Context, id int64, stock int) error
	SetStocks(ctx context.Context, stocks map[int64]int) error
}

type CatalogHandler struct {
	catalog CatalogOps
	timeout time.Duration
}

func NewCatalogHandler(catalog CatalogOps, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, timeout: timeout}
}

type ProductRequestDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	ImageURL    string `json:"image_url"`
	Category    string `json:"category"`
	Stock       int    `json:"stock"`
	Listed      bool   `json:"listed"`
}

type SetListedRequestDTO struct {
	Listed bool `json:"listed"`
}

type SetStockRequestDTO struct {
	Stock int `json:"stock"`
}

type StockUpdateDTO struct {
	ProductID int64 `json:"product_id"`
	Stock     int   `json:"stock"`
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	category := r.URL.Query().Get("category")

	var (
		products []*catalogdomain.Product
		err      error
	)
	if category != "" {
		products, err = h.catalog.ListByCategory(ctx, category)
	} else {
		products, err = h.catalog.ListProducts(ctx)
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, products)
}

// ListAllProducts is the admin view: delisted products included.
func (h *CatalogHandler) ListAllProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.ListAllProducts(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(ctx, productID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ProductRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	created, err := h.catalog.CreateProduct(ctx, &catalogdomain.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Category:    req.Category,
		Stock:       req.Stock,
		Listed:      req.Listed,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req ProductRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	updated, err := h.catalog.UpdateProduct(ctx, &catalogdomain.Product{
		ID:          productID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Category:    req.Category,
		Stock:       req.Stock,
		Listed:      req.Listed,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	if err := h.catalog.DeleteProduct(ctx, productID); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *CatalogHandler) SetListed(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req SetListedRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.catalog.SetListed(ctx, productID, req.Listed); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"listed": req.Listed})
}

func (h *CatalogHandler) SetStock(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req SetStockRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.catalog.SetStock(ctx, productID, req.Stock); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{"stock": req.Stock})
}

// SetStocks applies a restock batch; an unknown product fails the whole batch.
func (h *CatalogHandler) SetStocks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req []StockUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	stocks := make(map[int64]int, len(req))
	for _, u := range req {
		if u.ProductID <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
			return
		}
		stocks[u.ProductID] = u.Stock
	}

	if err := h.catalog.SetStocks(ctx, stocks); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{"updated": len(stocks)})
}
