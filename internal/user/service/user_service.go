package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yingmeanshard/yingshop/internal/user/domain"
	r "github.com/yingmeanshard/yingshop/internal/user/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrResetTokenInvalid  = errors.New("reset token is invalid")
	ErrResetTokenExpired  = errors.New("reset token has expired")
)

const resetTokenTTL = time.Hour

// Mailer delivers password reset links. Production wires SMTP; development
// logs the link instead.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

type RegisterRequest struct {
	Name        string
	Email       string
	PhoneNumber string
	Password    string
}

type UserService interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	UpdateProfile(ctx context.Context, user *domain.User) (*domain.User, error)
	ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	SetDefaultAddress(ctx context.Context, userID, addressID int64) error
	DeleteUser(ctx context.Context, id int64) error
}

type UserServiceImpl struct {
	repo   r.UserRepository
	mailer Mailer
}

func NewUserService(repo r.UserRepository, mailer Mailer) *UserServiceImpl {
	return &UserServiceImpl{repo: repo, mailer: mailer}
}

func (s *UserServiceImpl) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if len(req.Password) < 8 {
		return nil, ErrWeakPassword
	}

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Name:         req.Name,
		Email:        email,
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: string(hash),
		Role:         domain.RoleCustomer,
		CreatedAt:    time.Now(),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, r.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate returns the same error for an unknown email and a wrong
// password, so the response does not leak which emails are registered.
func (s *UserServiceImpl) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, r.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (s *UserServiceImpl) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if errors.Is(err, r.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateProfile changes name, email and phone. Role and password have their
// own paths.
func (s *UserServiceImpl) UpdateProfile(ctx context.Context, user *domain.User) (*domain.User, error) {
	current, err := s.GetUserByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	current.Name = user.Name
	current.PhoneNumber = user.PhoneNumber
	if user.Email != "" {
		current.Email = strings.ToLower(strings.TrimSpace(user.Email))
	}

	err = s.repo.UpdateUser(ctx, current)
	if errors.Is(err, r.ErrDuplicateEmail) {
		return nil, ErrEmailTaken
	}
	if errors.Is(err, r.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return current, nil
}

func (s *UserServiceImpl) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
		return ErrInvalidCredentials
	}

	return s.setPassword(ctx, userID, newPassword)
}

// RequestPasswordReset always reports success to the caller: an unknown email
// gets no token and no mail, but the response must not reveal that.
func (s *UserServiceImpl) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, r.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	token := &r.ResetToken{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(resetTokenTTL),
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateResetToken(ctx, token); err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, token.Token); err != nil {
		return fmt.Errorf("failed to send reset mail: %w", err)
	}
	return nil
}

func (s *UserServiceImpl) ResetPassword(ctx context.Context, token, newPassword string) error {
	t, err := s.repo.GetResetToken(ctx, token)
	if errors.Is(err, r.ErrTokenNotFound) {
		return ErrResetTokenInvalid
	}
	if err != nil {
		return fmt.Errorf("failed to get reset token: %w", err)
	}

	if t.Used {
		return ErrResetTokenInvalid
	}
	if time.Now().After(t.ExpiresAt) {
		return ErrResetTokenExpired
	}

	if err := s.setPassword(ctx, t.UserID, newPassword); err != nil {
		return err
	}

	if err := s.repo.MarkResetTokenUsed(ctx, token); err != nil {
		return fmt.Errorf("failed to mark reset token used: %w", err)
	}
	return nil
}

func (s *UserServiceImpl) setPassword(ctx context.Context, userID int64, password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.UpdatePasswordHash(ctx, userID, string(hash)); err != nil {
		if errors.Is(err, r.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func (s *UserServiceImpl) SetDefaultAddress(ctx context.Context, userID, addressID int64) error {
	err := s.repo.SetDefaultAddress(ctx, userID, addressID)
	if errors.Is(err, r.ErrUserNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to set default address: %w", err)
	}
	return nil
}

func (s *UserServiceImpl) DeleteUser(ctx context.Context, id int64) error {
	err := s.repo.DeleteUser(ctx, id)
	if errors.Is(err, r.ErrUserNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// EnsureAdmin creates the bootstrap admin account on startup when it does not
// exist yet.
func (s *UserServiceImpl) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check admin email: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &domain.User{
		Name:         "Administrator",
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		CreatedAt:    time.Now(),
	}
	if err := s.repo.CreateUser(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	log.Printf("bootstrap admin account created: %s", admin.Email)
	return nil
}

// ConsoleMailer logs the reset link instead of sending mail.
type ConsoleMailer struct{}

func (ConsoleMailer) SendPasswordReset(_ context.Context, email, token string) error {
	log.Printf("password reset requested for %s, token: %s", email, token)
	return nil
}
