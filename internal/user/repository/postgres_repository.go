package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/yingmeanshard/yingshop/internal/user/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const userColumns = "id, name, email, phone_number, password_hash, role, COALESCE(default_address_id, 0), created_at"

func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (name, email, phone_number, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		user.Name,
		user.Email,
		user.PhoneNumber,
		user.PasswordHash,
		user.Role,
		user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

func (r *Repository) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *Repository) scanUser(row *sql.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PhoneNumber,
		&user.PasswordHash,
		&user.Role,
		&user.DefaultAddressID,
		&user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &user, nil
}

func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

func (r *Repository) UpdateUser(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET name = $1, email = $2, phone_number = $3, role = $4
		WHERE id = $5
	`

	result, err := r.db.ExecContext(ctx, query,
		user.Name,
		user.Email,
		user.PhoneNumber,
		user.Role,
		user.ID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	return requireRowAffected(result)
}

func (r *Repository) UpdatePasswordHash(ctx context.Context, userID int64, hash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $1 WHERE id = $2`, hash, userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return requireRowAffected(result)
}

func (r *Repository) SetDefaultAddress(ctx context.Context, userID, addressID int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET default_address_id = $1 WHERE id = $2`, addressID, userID)
	if err != nil {
		return fmt.Errorf("failed to set default address: %w", err)
	}

	return requireRowAffected(result)
}

func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return requireRowAffected(result)
}

func (r *Repository) CreateResetToken(ctx context.Context, token *ResetToken) error {
	query := `
		INSERT INTO password_reset_tokens (token, user_id, expires_at, used, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		token.Token,
		token.UserID,
		token.ExpiresAt,
		token.Used,
		token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reset token: %w", err)
	}

	return nil
}

func (r *Repository) GetResetToken(ctx context.Context, token string) (*ResetToken, error) {
	query := `
		SELECT token, user_id, expires_at, used, created_at
		FROM password_reset_tokens
		WHERE token = $1
	`

	var t ResetToken
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&t.Token,
		&t.UserID,
		&t.ExpiresAt,
		&t.Used,
		&t.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan reset token: %w", err)
	}
	return &t, nil
}

func (r *Repository) MarkResetTokenUsed(ctx context.Context, token string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE password_reset_tokens SET used = true WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("failed to mark reset token used: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrTokenNotFound
	}
	return nil
}

func requireRowAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}
