package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yingmeanshard/yingshop/internal/user/domain"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrTokenNotFound  = errors.New("reset token not found")
)

// ResetToken is a single-use password reset token.
type ResetToken struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	UpdatePasswordHash(ctx context.Context, userID int64, hash string) error
	SetDefaultAddress(ctx context.Context, userID, addressID int64) error
	DeleteUser(ctx context.Context, id int64) error

	CreateResetToken(ctx context.Context, token *ResetToken) error
	GetResetToken(ctx context.Context, token string) (*ResetToken, error)
	MarkResetTokenUsed(ctx context.Context, token string) error
}
