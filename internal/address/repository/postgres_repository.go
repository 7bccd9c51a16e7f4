package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/yingmeanshard/yingshop/internal/address/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const addressColumns = "id, user_id, recipient_name, recipient_phone, address_text, is_default, created_at"

func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]*domain.Address, error) {
	query := fmt.Sprintf(`SELECT %s FROM addresses WHERE user_id = $1 ORDER BY is_default DESC, id`, addressColumns)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query addresses: %w", err)
	}
	defer rows.Close()

	var addresses []*domain.Address
	for rows.Next() {
		a := &domain.Address{}
		err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.RecipientName,
			&a.RecipientPhone,
			&a.AddressText,
			&a.IsDefault,
			&a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return addresses, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Address, error) {
	query := fmt.Sprintf(`SELECT %s FROM addresses WHERE id = $1`, addressColumns)

	a := &domain.Address{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID,
		&a.UserID,
		&a.RecipientName,
		&a.RecipientPhone,
		&a.AddressText,
		&a.IsDefault,
		&a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAddressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan address: %w", err)
	}
	return a, nil
}

func (r *Repository) Create(ctx context.Context, address *domain.Address) error {
	query := `
		INSERT INTO addresses (user_id, recipient_name, recipient_phone, address_text, is_default, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		address.UserID,
		address.RecipientName,
		address.RecipientPhone,
		address.AddressText,
		address.IsDefault,
		address.CreatedAt,
	).Scan(&address.ID)
	if err != nil {
		return fmt.Errorf("failed to insert address: %w", err)
	}

	return nil
}

func (r *Repository) Update(ctx context.Context, address *domain.Address) error {
	query := `
		UPDATE addresses
		SET recipient_name = $1, recipient_phone = $2, address_text = $3
		WHERE id = $4
	`

	result, err := r.db.ExecContext(ctx, query,
		address.RecipientName,
		address.RecipientPhone,
		address.AddressText,
		address.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update address: %w", err)
	}

	return requireRowAffected(result)
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM addresses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}

	return requireRowAffected(result)
}

func (r *Repository) MarkDefault(ctx context.Context, userID, addressID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE addresses SET is_default = false WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear default flags: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE addresses SET is_default = true WHERE id = $1 AND user_id = $2`, addressID, userID)
	if err != nil {
		return fmt.Errorf("failed to set default flag: %w", err)
	}
	if err := requireRowAffected(result); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func requireRowAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrAddressNotFound
	}
	return nil
}
