package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yingmeanshard/yingshop/internal/catalog/domain"
	r "github.com/yingmeanshard/yingshop/internal/catalog/repository"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidProduct  = errors.New("invalid product")
)

type CatalogService interface {
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	ListAllProducts(ctx context.Context) ([]*domain.Product, error)
	ListByCategory(ctx context.Context, category string) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	SetListed(ctx context.Context, id int64, listed bool) error
	SetStock(ctx context.Context, id int64, stock int) error
	SetStocks(ctx context.Context, stocks map[int64]int) error
}

type CatalogServiceImpl struct {
	repo r.ProductRepository
}

func NewCatalogService(repo r.ProductRepository) *CatalogServiceImpl {
	return &CatalogServiceImpl{repo: repo}
}

// ListProducts returns what the storefront shows: listed products only.
func (s *CatalogServiceImpl) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.repo.GetListedProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// ListAllProducts includes delisted products, for the admin view.
func (s *CatalogServiceImpl) ListAllProducts(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.repo.GetAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *CatalogServiceImpl) ListByCategory(ctx context.Context, category string) ([]*domain.Product, error) {
	products, err := s.repo.GetProductsByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list products by category: %w", err)
	}
	return products, nil
}

func (s *CatalogServiceImpl) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.repo.GetProduct(ctx, id)
	if errors.Is(err, r.ErrProductNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

func (s *CatalogServiceImpl) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now()
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

func (s *CatalogServiceImpl) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	err := s.repo.UpdateProduct(ctx, product)
	if errors.Is(err, r.ErrProductNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

func (s *CatalogServiceImpl) DeleteProduct(ctx context.Context, id int64) error {
	err := s.repo.DeleteProduct(ctx, id)
	if errors.Is(err, r.ErrProductNotFound) {
		return ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

func (s *CatalogServiceImpl) SetListed(ctx context.Context, id int64, listed bool) error {
	err := s.repo.SetListed(ctx, id, listed)
	if errors.Is(err, r.ErrProductNotFound) {
		return ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update listing: %w", err)
	}
	return nil
}

func (s *CatalogServiceImpl) SetStock(ctx context.Context, id int64, stock int) error {
	if stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidProduct)
	}

	err := s.repo.SetStock(ctx, id, stock)
	if errors.Is(err, r.ErrProductNotFound) {
		return ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	return nil
}

// SetStocks is the restock path: all-or-nothing across the batch.
func (s *CatalogServiceImpl) SetStocks(ctx context.Context, stocks map[int64]int) error {
	if len(stocks) == 0 {
		return fmt.Errorf("%w: no stock updates given", ErrInvalidProduct)
	}
	for id, stock := range stocks {
		if stock < 0 {
			return fmt.Errorf("%w: stock for product %d must not be negative", ErrInvalidProduct, id)
		}
	}

	err := s.repo.SetStocks(ctx, stocks)
	if errors.Is(err, r.ErrProductNotFound) {
		return ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update stocks: %w", err)
	}
	return nil
}

func validateProduct(product *domain.Product) error {
	if product.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if product.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}
	if product.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidProduct)
	}
	return nil
}
