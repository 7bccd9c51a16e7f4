package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/yingmeanshard/yingshop/internal/auth"
	userdomain "github.com/yingmeanshard/yingshop/internal/user/domain"
	usersvc "github.com/yingmeanshard/yingshop/internal/user/service"
)

// UserOps is what the handlers need from the user service.
type UserOps interface {
	Register(ctx context.Context, req usersvc.RegisterRequest) (*userdomain.User, error)
	Authenticate(ctx context.Context, email, password string) (*userdomain.User, error)
	GetUserByID(ctx context.Context, id int64) (*userdomain.User, error)
	UpdateProfile(ctx context.Context, user *userdomain.User) (*userdomain.User, error)
	ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	SetDefaultAddress(ctx context.Context, userID, addressID int64) error
	DeleteUser(ctx context.Context, id int64) error
}

type UserHandler struct {
	users   UserOps
	issuer  *auth.TokenIssuer
	timeout time.Duration
}

func NewUserHandler(users UserOps, issuer *auth.TokenIssuer, timeout time.Duration) *UserHandler {
	return &UserHandler{users: users, issuer: issuer, timeout: timeout}
}

type RegisterRequestDTO struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponseDTO struct {
	Token string           `json:"token"`
	User  *userdomain.User `json:"user"`
}

type UpdateProfileRequestDTO struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}

type ChangePasswordRequestDTO struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type ForgotPasswordRequestDTO struct {
	Email string `json:"email"`
}

type ResetPasswordRequestDTO struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type DefaultAddressRequestDTO struct {
	AddressID int64 `json:"address_id"`
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RegisterRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	user, err := h.users.Register(ctx, usersvc.RegisterRequest{
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	user, err := h.users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	token, err := h.issuer.Issue(user)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, LoginResponseDTO{Token: token, User: user})
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, err := h.users.GetUserByID(ctx, userIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateProfileRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	user, err := h.users.UpdateProfile(ctx, &userdomain.User{
		ID:          userIDFromContext(r.Context()),
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ChangePasswordRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.users.ChangePassword(ctx, userIDFromContext(r.Context()), req.OldPassword, req.NewPassword); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "password changed"})
}

func (h *UserHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ForgotPasswordRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.users.RequestPasswordReset(ctx, req.Email); err != nil {
		handleServiceError(w, err)
		return
	}

	// Same answer whether or not the email exists.
	respondJSON(w, http.StatusOK, map[string]string{"status": "reset mail sent if the address is registered"})
}

func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ResetPasswordRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.users.ResetPassword(ctx, req.Token, req.NewPassword); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "password reset"})
}

func (h *UserHandler) SetDefaultAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req DefaultAddressRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.users.SetDefaultAddress(ctx, userIDFromContext(r.Context()), req.AddressID); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "default address set"})
}

func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.users.DeleteUser(ctx, userIDFromContext(r.Context())); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "account deleted"})
}
