package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	addrdomain "github.com/yingmeanshard/yingshop/internal/address/domain"
)

// AddressOps is what the handlers need from the address service.
type AddressOps interface {
	ListByUser(ctx context.Context, userID int64) ([]*addrdomain.Address, error)
	GetByID(ctx context.Context, id int64) (*addrdomain.Address, error)
	Save(ctx context.Context, userID int64, address *addrdomain.Address) (*addrdomain.Address, error)
	Delete(ctx context.Context, userID, addressID int64) error
	MarkDefault(ctx context.Context, userID, addressID int64) error
}

type AddressHandler struct {
	addresses AddressOps
	timeout   time.Duration
}

func NewAddressHandler(addresses AddressOps, timeout time.Duration) *AddressHandler {
	return &AddressHandler{addresses: addresses, timeout: timeout}
}

type AddressRequestDTO struct {
	ID             int64  `json:"id"`
	RecipientName  string `json:"recipient_name"`
	RecipientPhone string `json:"recipient_phone"`
	AddressText    string `json:"address_text"`
}

func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	addresses, err := h.addresses.ListByUser(ctx, userIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, addresses)
}

func (h *AddressHandler) Save(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddressRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	saved, err := h.addresses.Save(ctx, userIDFromContext(r.Context()), &addrdomain.Address{
		ID:             req.ID,
		RecipientName:  req.RecipientName,
		RecipientPhone: req.RecipientPhone,
		AddressText:    req.AddressText,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	status := http.StatusOK
	if req.ID == 0 {
		status = http.StatusCreated
	}
	respondJSON(w, status, saved)
}

func (h *AddressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	addressID, ok := addressIDParam(w, r)
	if !ok {
		return
	}

	if err := h.addresses.Delete(ctx, userIDFromContext(r.Context()), addressID); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *AddressHandler) MarkDefault(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	addressID, ok := addressIDParam(w, r)
	if !ok {
		return
	}

	if err := h.addresses.MarkDefault(ctx, userIDFromContext(r.Context()), addressID); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "default set"})
}

func addressIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	addressIDStr := chi.URLParam(r, "address_id")
	addressID, err := strconv.ParseInt(addressIDStr, 10, 64)
	if err != nil || addressID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_address_id", "address_id must be a positive integer")
		return 0, false
	}
	return addressID, true
}
