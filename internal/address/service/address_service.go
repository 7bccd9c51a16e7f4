package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yingmeanshard/yingshop/internal/address/domain"
	r "github.com/yingmeanshard/yingshop/internal/address/repository"
)

var (
	ErrAddressNotFound = errors.New("address not found")
	ErrNotOwner        = errors.New("address does not belong to the user")
	ErrInvalidAddress  = errors.New("invalid address")
)

type AddressService interface {
	ListByUser(ctx context.Context, userID int64) ([]*domain.Address, error)
	GetByID(ctx context.Context, id int64) (*domain.Address, error)
	Save(ctx context.Context, userID int64, address *domain.Address) (*domain.Address, error)
	Delete(ctx context.Context, userID, addressID int64) error
	MarkDefault(ctx context.Context, userID, addressID int64) error
}

type AddressServiceImpl struct {
	repo r.AddressRepository
}

func NewAddressService(repo r.AddressRepository) *AddressServiceImpl {
	return &AddressServiceImpl{repo: repo}
}

func (s *AddressServiceImpl) ListByUser(ctx context.Context, userID int64) ([]*domain.Address, error) {
	addresses, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	return addresses, nil
}

func (s *AddressServiceImpl) GetByID(ctx context.Context, id int64) (*domain.Address, error) {
	address, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, r.ErrAddressNotFound) {
		return nil, ErrAddressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get address: %w", err)
	}
	return address, nil
}

// Save creates the address when it has no id yet, otherwise updates it after
// an ownership check.
func (s *AddressServiceImpl) Save(ctx context.Context, userID int64, address *domain.Address) (*domain.Address, error) {
	if address.RecipientName == "" || address.AddressText == "" {
		return nil, fmt.Errorf("%w: recipient name and address are required", ErrInvalidAddress)
	}

	if address.ID == 0 {
		address.UserID = userID
		address.CreatedAt = time.Now()
		if err := s.repo.Create(ctx, address); err != nil {
			return nil, fmt.Errorf("failed to create address: %w", err)
		}
		return address, nil
	}

	if err := s.requireOwner(ctx, userID, address.ID); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, address); err != nil {
		if errors.Is(err, r.ErrAddressNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, fmt.Errorf("failed to update address: %w", err)
	}
	address.UserID = userID
	return address, nil
}

func (s *AddressServiceImpl) Delete(ctx context.Context, userID, addressID int64) error {
	if err := s.requireOwner(ctx, userID, addressID); err != nil {
		return err
	}

	err := s.repo.Delete(ctx, addressID)
	if errors.Is(err, r.ErrAddressNotFound) {
		return ErrAddressNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}
	return nil
}

func (s *AddressServiceImpl) MarkDefault(ctx context.Context, userID, addressID int64) error {
	if err := s.requireOwner(ctx, userID, addressID); err != nil {
		return err
	}

	err := s.repo.MarkDefault(ctx, userID, addressID)
	if errors.Is(err, r.ErrAddressNotFound) {
		return ErrAddressNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to mark default address: %w", err)
	}
	return nil
}

func (s *AddressServiceImpl) requireOwner(ctx context.Context, userID, addressID int64) error {
	existing, err := s.GetByID(ctx, addressID)
	if err != nil {
		return err
	}
	if existing.UserID != userID {
		return ErrNotOwner
	}
	return nil
}
