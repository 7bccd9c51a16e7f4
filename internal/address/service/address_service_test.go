package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yingmeanshard/yingshop/internal/address/domain"
	r "github.com/yingmeanshard/yingshop/internal/address/repository"
)

type mockRepository struct {
	mu        sync.Mutex
	nextID    int64
	addresses map[int64]*domain.Address
}

func newMockRepository() *mockRepository {
	return &mockRepository{nextID: 1, addresses: make(map[int64]*domain.Address)}
}

func (m *mockRepository) ListByUser(_ context.Context, userID int64) ([]*domain.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Address
	for _, a := range m.addresses {
		if a.UserID == userID {
			copied := *a
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockRepository) GetByID(_ context.Context, id int64) (*domain.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.addresses[id]
	if !ok {
		return nil, r.ErrAddressNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *mockRepository) Create(_ context.Context, address *domain.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	address.ID = m.nextID
	m.nextID++
	copied := *address
	m.addresses[address.ID] = &copied
	return nil
}

func (m *mockRepository) Update(_ context.Context, address *domain.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.addresses[address.ID]
	if !ok {
		return r.ErrAddressNotFound
	}
	existing.RecipientName = address.RecipientName
	existing.RecipientPhone = address.RecipientPhone
	existing.AddressText = address.AddressText
	return nil
}

func (m *mockRepository) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.addresses[id]; !ok {
		return r.ErrAddressNotFound
	}
	delete(m.addresses, id)
	return nil
}

func (m *mockRepository) MarkDefault(_ context.Context, userID, addressID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	target, ok := m.addresses[addressID]
	if !ok || target.UserID != userID {
		return r.ErrAddressNotFound
	}
	for _, a := range m.addresses {
		if a.UserID == userID {
			a.IsDefault = false
		}
	}
	target.IsDefault = true
	return nil
}

func seedAddress(m *mockRepository, userID int64, text string) *domain.Address {
	a := &domain.Address{
		UserID:         userID,
		RecipientName:  "Ying",
		RecipientPhone: "0912345678",
		AddressText:    text,
		CreatedAt:      time.Now(),
	}
	_ = m.Create(context.Background(), a)
	return a
}

func TestSave_CreatesNewAddress(t *testing.T) {
	mockRepo := newMockRepository()
	sut := NewAddressService(mockRepo)

	saved, err := sut.Save(context.Background(), 7, &domain.Address{
		RecipientName: "Ying", AddressText: "1 Main St",
	})
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
	assert.Equal(t, int64(7), saved.UserID)
	assert.False(t, saved.CreatedAt.IsZero())
}

func TestSave_Validation(t *testing.T) {
	sut := NewAddressService(newMockRepository())

	_, err := sut.Save(context.Background(), 7, &domain.Address{AddressText: "1 Main St"})
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = sut.Save(context.Background(), 7, &domain.Address{RecipientName: "Ying"})
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestSave_UpdateRequiresOwnership(t *testing.T) {
	mockRepo := newMockRepository()
	existing := seedAddress(mockRepo, 7, "1 Main St")
	sut := NewAddressService(mockRepo)

	_, err := sut.Save(context.Background(), 8, &domain.Address{
		ID: existing.ID, RecipientName: "Mei", AddressText: "2 Harbor Rd",
	})
	assert.ErrorIs(t, err, ErrNotOwner)

	updated, err := sut.Save(context.Background(), 7, &domain.Address{
		ID: existing.ID, RecipientName: "Mei", AddressText: "2 Harbor Rd",
	})
	require.NoError(t, err)
	assert.Equal(t, "Mei", updated.RecipientName)
	assert.Equal(t, "2 Harbor Rd", mockRepo.addresses[existing.ID].AddressText)
}

func TestGetByID_NotFound(t *testing.T) {
	sut := NewAddressService(newMockRepository())

	_, err := sut.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrAddressNotFound)
}

func TestDelete_RequiresOwnership(t *testing.T) {
	mockRepo := newMockRepository()
	existing := seedAddress(mockRepo, 7, "1 Main St")
	sut := NewAddressService(mockRepo)

	assert.ErrorIs(t, sut.Delete(context.Background(), 8, existing.ID), ErrNotOwner)
	require.NoError(t, sut.Delete(context.Background(), 7, existing.ID))
	assert.ErrorIs(t, sut.Delete(context.Background(), 7, existing.ID), ErrAddressNotFound)
}

func TestMarkDefault_SingleDefaultPerUser(t *testing.T) {
	mockRepo := newMockRepository()
	first := seedAddress(mockRepo, 7, "1 Main St")
	second := seedAddress(mockRepo, 7, "2 Harbor Rd")
	other := seedAddress(mockRepo, 8, "3 Hill Ln")
	sut := NewAddressService(mockRepo)

	require.NoError(t, sut.MarkDefault(context.Background(), 7, first.ID))
	require.NoError(t, sut.MarkDefault(context.Background(), 7, second.ID))

	assert.False(t, mockRepo.addresses[first.ID].IsDefault)
	assert.True(t, mockRepo.addresses[second.ID].IsDefault)
	assert.False(t, mockRepo.addresses[other.ID].IsDefault)
}

func TestMarkDefault_RequiresOwnership(t *testing.T) {
	mockRepo := newMockRepository()
	existing := seedAddress(mockRepo, 7, "1 Main St")
	sut := NewAddressService(mockRepo)

	assert.ErrorIs(t, sut.MarkDefault(context.Background(), 8, existing.ID), ErrNotOwner)
}

func TestListByUser(t *testing.T) {
	mockRepo := newMockRepository()
	seedAddress(mockRepo, 7, "1 Main St")
	seedAddress(mockRepo, 7, "2 Harbor Rd")
	seedAddress(mockRepo, 8, "3 Hill Ln")
	sut := NewAddressService(mockRepo)

	addresses, err := sut.ListByUser(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, addresses, 2)
}
