package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/yingmeanshard/yingshop/internal/catalog/domain"
)

var ErrProductNotFound = errors.New("product not found")

type ProductRepository interface {
	GetAllProducts(ctx context.Context) ([]*domain.Product, error)
	GetListedProducts(ctx context.Context) ([]*domain.Product, error)
	GetProductsByCategory(ctx context.Context, category string) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, product *domain.Product) error
	UpdateProduct(ctx context.Context, product *domain.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	SetListed(ctx context.Context, id int64, listed bool) error
	SetStock(ctx context.Context, id int64, stock int) error
	SetStocks(ctx context.Context, stocks map[int64]int) error
	Close() error
}

// Repository runs against postgres in production and against an in-memory
// sqlite database in tests; the SQL is written to work on both.
type Repository struct {
	db     *sql.DB
	driver string
}

func NewRepository(db *sql.DB, driver string) *Repository {
	return &Repository{db: db, driver: driver}
}

// NewSQLiteRepository opens a standalone sqlite database, ":memory:" in tests.
func NewSQLiteRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{db: db, driver: "sqlite"}, nil
}

func (r *Repository) RunMigrations(migrationsPath string) error {
	var (
		driver database.Driver
		err    error
	)
	switch r.driver {
	case "postgres":
		driver, err = migratepostgres.WithInstance(r.db, &migratepostgres.Config{})
	default:
		driver, err = migratesqlite.WithInstance(r.db, &migratesqlite.Config{})
	}
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		r.driver,
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

const productColumns = "id, name, description, price, image_url, category, stock, listed, created_at"

func (r *Repository) GetAllProducts(ctx context.Context) ([]*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products ORDER BY id`, productColumns)
	return r.queryProducts(ctx, query)
}

func (r *Repository) GetListedProducts(ctx context.Context) ([]*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE listed = true ORDER BY id`, productColumns)
	return r.queryProducts(ctx, query)
}

func (r *Repository) GetProductsByCategory(ctx context.Context, category string) ([]*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE category = $1 AND listed = true ORDER BY id`, productColumns)
	return r.queryProducts(ctx, query, category)
}

func (r *Repository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

func scanProduct(rows *sql.Rows) (*domain.Product, error) {
	p := &domain.Product{}
	err := rows.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.ImageURL,
		&p.Category,
		&p.Stock,
		&p.Listed,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}
	return p, nil
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)

	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var product *domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		product = p
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func (r *Repository) CreateProduct(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (name, description, price, image_url, category, stock, listed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		product.Name,
		product.Description,
		product.Price,
		product.ImageURL,
		product.Category,
		product.Stock,
		product.Listed,
		product.CreatedAt,
	).Scan(&product.ID)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}

	return nil
}

func (r *Repository) UpdateProduct(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $1, description = $2, price = $3, image_url = $4, category = $5, stock = $6, listed = $7
		WHERE id = $8
	`

	result, err := r.db.ExecContext(ctx, query,
		product.Name,
		product.Description,
		product.Price,
		product.ImageURL,
		product.Category,
		product.Stock,
		product.Listed,
		product.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	return requireRowAffected(result)
}

func (r *Repository) DeleteProduct(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return requireRowAffected(result)
}

func (r *Repository) SetListed(ctx context.Context, id int64, listed bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE products SET listed = $1 WHERE id = $2`, listed, id)
	if err != nil {
		return fmt.Errorf("failed to update listing: %w", err)
	}

	return requireRowAffected(result)
}

func (r *Repository) SetStock(ctx context.Context, id int64, stock int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE products SET stock = $1 WHERE id = $2`, stock, id)
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}

	return requireRowAffected(result)
}

// SetStocks applies a restock batch in one transaction; an unknown product id
// fails the whole batch.
func (r *Repository) SetStocks(ctx context.Context, stocks map[int64]int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin stock batch tx: %w", err)
	}
	defer tx.Rollback()

	for id, stock := range stocks {
		result, err := tx.ExecContext(ctx, `UPDATE products SET stock = $1 WHERE id = $2`, stock, id)
		if err != nil {
			return fmt.Errorf("failed to update stock for product %d: %w", id, err)
		}
		if err := requireRowAffected(result); err != nil {
			return fmt.Errorf("product %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit stock batch tx: %w", err)
	}
	return nil
}

func requireRowAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
