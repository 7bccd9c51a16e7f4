package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	addresssvc "github.com/yingmeanshard/yingshop/internal/address/service"
	catalogsvc "github.com/yingmeanshard/yingshop/internal/catalog/service"
	ordersvc "github.com/yingmeanshard/yingshop/internal/order/service"
	usersvc "github.com/yingmeanshard/yingshop/internal/user/service"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError maps service errors to HTTP status codes. Anything not
// recognized is a 500 with a generic message.
func handleServiceError(w http.ResponseWriter, err error) {
	var (
		stockErr    *ordersvc.InsufficientStockError
		notFoundErr *ordersvc.ProductNotFoundError
		conflictErr *ordersvc.StateConflictError
	)

	switch {
	case errors.As(err, &stockErr):
		respondError(w, http.StatusConflict, "insufficient_stock", stockErr.Error())
	case errors.As(err, &conflictErr):
		respondError(w, http.StatusConflict, "invalid_transition", conflictErr.Error())
	case errors.As(err, &notFoundErr):
		respondError(w, http.StatusNotFound, "not_found", notFoundErr.Error())

	case errors.Is(err, ordersvc.ErrEmptyCart),
		errors.Is(err, ordersvc.ErrNoSelectedLines),
		errors.Is(err, ordersvc.ErrInvalidPayment),
		errors.Is(err, ordersvc.ErrInvalidStatus),
		errors.Is(err, ordersvc.ErrPickupAddress),
		errors.Is(err, ordersvc.ErrProductUnavailable),
		errors.Is(err, catalogsvc.ErrInvalidProduct),
		errors.Is(err, addresssvc.ErrInvalidAddress),
		errors.Is(err, usersvc.ErrWeakPassword),
		errors.Is(err, usersvc.ErrInvalidEmail):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())

	case errors.Is(err, ordersvc.ErrOrderNotFound),
		errors.Is(err, ordersvc.ErrUserNotFound),
		errors.Is(err, ordersvc.ErrAddressNotFound),
		errors.Is(err, catalogsvc.ErrProductNotFound),
		errors.Is(err, addresssvc.ErrAddressNotFound),
		errors.Is(err, usersvc.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())

	case errors.Is(err, ordersvc.ErrAddressNotOwned),
		errors.Is(err, addresssvc.ErrNotOwner):
		respondError(w, http.StatusForbidden, "forbidden", err.Error())

	case errors.Is(err, usersvc.ErrEmailTaken):
		respondError(w, http.StatusConflict, "email_taken", err.Error())

	case errors.Is(err, usersvc.ErrInvalidCredentials),
		errors.Is(err, usersvc.ErrResetTokenInvalid),
		errors.Is(err, usersvc.ErrResetTokenExpired):
		respondError(w, http.StatusUnauthorized, "unauthorized", err.Error())

	default:
		log.Printf("internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
