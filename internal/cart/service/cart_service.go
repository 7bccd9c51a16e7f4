package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/yingmeanshard/yingshop/internal/cart/cache"
	"github.com/yingmeanshard/yingshop/internal/cart/domain"
	"github.com/yingmeanshard/yingshop/internal/cart/repository"
)

// CartService applies domain transformations against the persisted cart and
// writes the whole document back. Reads are cache-aside; every mutation
// invalidates the cached copy.
type CartService struct {
	repo  repository.CartRepository
	cache cache.CartCache
	sfg   singleflight.Group // Prevents cache stampede
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache) *CartService {
	return &CartService{
		repo:  repo,
		cache: cache,
	}
}

// NewToken issues a fresh cart token. Nothing is persisted until the first
// mutation.
func (s *CartService) NewToken() string {
	return uuid.NewString()
}

func (s *CartService) GetCart(ctx context.Context, token string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(token, func() (interface{}, error) {

		cart, err := s.cache.Get(ctx, token)
		if err == nil {
			return cart, nil // cart is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		cart, errGet := s.repo.GetCart(ctx, token)
		if errors.Is(errGet, repository.ErrCartNotFound) {
			// An unknown token behaves as an empty cart.
			return domain.New(token), nil
		}
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			errSet := s.cache.Set(context.Background(), token, cart)
			if errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return cart, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

func (s *CartService) AddItem(ctx context.Context, token string, productID int64, name string, unitPrice int64, quantity int) (*domain.Cart, error) {
	return s.mutate(ctx, token, func(cart *domain.Cart) {
		cart.AddLine(productID, name, unitPrice, quantity)
	})
}

func (s *CartService) UpdateQuantity(ctx context.Context, token string, productID int64, quantity int) (*domain.Cart, error) {
	return s.mutate(ctx, token, func(cart *domain.Cart) {
		cart.UpdateQuantity(productID, quantity)
	})
}

func (s *CartService) RemoveItem(ctx context.Context, token string, productID int64) (*domain.Cart, error) {
	return s.mutate(ctx, token, func(cart *domain.Cart) {
		cart.RemoveLine(productID)
	})
}

// SetSelected marks exactly the given product lines as selected for checkout.
func (s *CartService) SetSelected(ctx context.Context, token string, productIDs []int64) (*domain.Cart, error) {
	return s.mutate(ctx, token, func(cart *domain.Cart) {
		cart.SetSelected(productIDs)
	})
}

func (s *CartService) SelectAddress(ctx context.Context, token string, addressID int64) (*domain.Cart, error) {
	return s.mutate(ctx, token, func(cart *domain.Cart) {
		cart.SelectAddress(addressID)
	})
}

// RemoveLines drains ordered product lines after checkout.
func (s *CartService) RemoveLines(ctx context.Context, token string, productIDs []int64) error {
	_, err := s.mutate(ctx, token, func(cart *domain.Cart) {
		cart.RemoveLines(productIDs)
	})
	return err
}

func (s *CartService) ClearCart(ctx context.Context, token string) error {
	errDelete := s.repo.DeleteCart(ctx, token)
	if errDelete != nil && !errors.Is(errDelete, repository.ErrCartNotFound) {
		log.Printf("repo delete cart error: %v", errDelete)
		return errDelete
	}

	s.invalidateCache(token)
	return nil
}

// mutate loads the authoritative copy from the repository, applies the
// transformation and writes it back. The cache is never the source for a
// mutation.
func (s *CartService) mutate(ctx context.Context, token string, apply func(*domain.Cart)) (*domain.Cart, error) {
	cart, err := s.repo.GetCart(ctx, token)
	if errors.Is(err, repository.ErrCartNotFound) {
		cart = domain.New(token)
	} else if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	apply(cart)

	if err := s.repo.UpsertCart(ctx, cart); err != nil {
		log.Printf("repo upsert cart error: %v", err)
		return nil, err
	}

	s.invalidateCache(token)
	return cart, nil
}

func (s *CartService) invalidateCache(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, token); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}
