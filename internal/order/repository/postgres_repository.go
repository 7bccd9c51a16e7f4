package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/yingmeanshard/yingshop/internal/order/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Repository{db: db}, nil
}

// NewWithDB wraps an existing connection; the caller owns migrations and Close.
func NewWithDB(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

type orderCreatedEvent struct {
	OrderID    int64         `json:"order_id"`
	UserID     int64         `json:"user_id"`
	Status     domain.Status `json:"status"`
	TotalPrice int64         `json:"total_price"`
	Lines      []domain.Line `json:"lines"`
	CreatedAt  time.Time     `json:"created_at"`
}

type statusChangedEvent struct {
	OrderID   int64         `json:"order_id"`
	From      domain.Status `json:"from"`
	To        domain.Status `json:"to"`
	ChangedAt time.Time     `json:"changed_at"`
}

func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create order tx: %w", err)
	}
	defer tx.Rollback()

	// Lock and re-check stock for every line before any write. The lock makes
	// concurrent checkouts of the same product serialize here instead of
	// racing between check and deduction.
	for _, line := range order.Lines {
		var stock int
		err := tx.QueryRowContext(ctx,
			`SELECT stock FROM products WHERE id = $1 FOR UPDATE`,
			line.ProductID,
		).Scan(&stock)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: id %d", ErrProductNotFound, line.ProductID)
		}
		if err != nil {
			return fmt.Errorf("lock stock for product %d: %w", line.ProductID, err)
		}
		if stock < line.Quantity {
			return &InsufficientStockError{
				ProductID: line.ProductID,
				Requested: line.Quantity,
				Available: stock,
			}
		}
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO orders (user_id, status, payment_method, delivery_payment_method,
		                     recipient_name, recipient_phone, recipient_email, recipient_address,
		                     total_price, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		order.UserID,
		order.Status,
		order.PaymentMethod,
		order.DeliveryPaymentMethod,
		order.RecipientName,
		order.RecipientPhone,
		order.RecipientEmail,
		order.RecipientAddress,
		order.TotalPrice,
		order.CreatedAt,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Lines {
		line := &order.Lines[i]
		line.OrderID = order.ID
		err = tx.QueryRowContext(ctx,
			`INSERT INTO order_lines (order_id, product_id, name, quantity, unit_price, subtotal)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id`,
			line.OrderID, line.ProductID, line.Name, line.Quantity, line.UnitPrice, line.Subtotal,
		).Scan(&line.ID)
		if err != nil {
			return fmt.Errorf("insert order line for product %d: %w", line.ProductID, err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE products SET stock = GREATEST(stock - $1, 0) WHERE id = $2`,
			line.Quantity, line.ProductID,
		)
		if err != nil {
			return fmt.Errorf("deduct stock for product %d: %w", line.ProductID, err)
		}
	}

	payload, err := json.Marshal(orderCreatedEvent{
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     order.Status,
		TotalPrice: order.TotalPrice,
		Lines:      order.Lines,
		CreatedAt:  order.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal order created event: %w", err)
	}
	if err := insertOutboxEvent(ctx, tx, order.ID, "order_created", payload); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create order tx: %w", err)
	}
	return nil
}

func (r *Repository) GetOrderByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := `SELECT id, user_id, status, payment_method, delivery_payment_method,
	                 recipient_name, recipient_phone, recipient_email, recipient_address,
	                 total_price, created_at
	          FROM orders WHERE id = $1`

	var order domain.Order
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.UserID,
		&order.Status,
		&order.PaymentMethod,
		&order.DeliveryPaymentMethod,
		&order.RecipientName,
		&order.RecipientPhone,
		&order.RecipientEmail,
		&order.RecipientAddress,
		&order.TotalPrice,
		&order.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}

	lines, err := r.linesForOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Lines = lines
	return &order, nil
}

func (r *Repository) linesForOrder(ctx context.Context, orderID int64) ([]domain.Line, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, product_id, name, quantity, unit_price, subtotal
		 FROM order_lines WHERE order_id = $1 ORDER BY id`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.Line
	for rows.Next() {
		var l domain.Line
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Name, &l.Quantity, &l.UnitPrice, &l.Subtotal); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return lines, nil
}

func (r *Repository) ListOrdersByUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	return r.listOrders(ctx,
		`SELECT id, user_id, status, payment_method, delivery_payment_method,
		        recipient_name, recipient_phone, recipient_email, recipient_address,
		        total_price, created_at
		 FROM orders WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
}

func (r *Repository) ListAllOrders(ctx context.Context) ([]*domain.Order, error) {
	return r.listOrders(ctx,
		`SELECT id, user_id, status, payment_method, delivery_payment_method,
		        recipient_name, recipient_phone, recipient_email, recipient_address,
		        total_price, created_at
		 FROM orders ORDER BY created_at DESC`)
}

func (r *Repository) listOrders(ctx context.Context, query string, args ...interface{}) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.Status,
			&order.PaymentMethod,
			&order.DeliveryPaymentMethod,
			&order.RecipientName,
			&order.RecipientPhone,
			&order.RecipientEmail,
			&order.RecipientAddress,
			&order.TotalPrice,
			&order.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, &order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	for _, order := range orders {
		lines, err := r.linesForOrder(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Lines = lines
	}
	return orders, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, orderID int64, from, to domain.Status) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin status update tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $1 WHERE id = $2 AND status = $3`,
		to, orderID, from,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		// Either the order vanished or its status moved under us.
		var current domain.Status
		err := tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1`, orderID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("query current status: %w", err)
		}
		return fmt.Errorf("%w: expected %s, found %s", ErrStaleStatus, from, current)
	}

	payload, err := json.Marshal(statusChangedEvent{
		OrderID:   orderID,
		From:      from,
		To:        to,
		ChangedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("marshal status changed event: %w", err)
	}
	if err := insertOutboxEvent(ctx, tx, orderID, "order_status_changed", payload); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit status update tx: %w", err)
	}
	return nil
}

func insertOutboxEvent(ctx context.Context, tx *sql.Tx, orderID int64, eventType string, payload []byte) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO outbox_events (aggregate_id, event_type, payload, created_at)
		 VALUES ($1, $2, $3, $4)`,
		fmt.Sprint(orderID), eventType, payload, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

func (r *Repository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, aggregate_id, event_type, payload, created_at
		 FROM outbox_events WHERE processed_at IS NULL
		 ORDER BY id LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query outbox events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var ev OutboxEvent
		if err := rows.Scan(&ev.ID, &ev.AggregateID, &ev.EventType, &ev.Payload, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return events, nil
}

func (r *Repository) MarkEventAsProcessed(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE outbox_events SET processed_at = $1 WHERE id = $2`,
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("mark outbox event %d processed: %w", id, err)
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
