package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound = errors.New("order not found")

	// ErrInsufficientStock is returned when the conditional stock decrement
	// inside the checkout transaction affects no row, meaning a concurrent
	// operation consumed the stock after the pre-check.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// OrderRepository defines the interface for order data access. Orders are
// immutable after CreateFromCart; reads are always scoped to the owning user.
type OrderRepository interface {
	CreateFromCart(ctx context.Context, order *domain.Order, items []*domain.OrderItem) error
	FindByID(ctx context.Context, orderID, userID uuid.UUID) (*domain.Order, error)
	FindLast(ctx context.Context, userID uuid.UUID) (*domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

// CreateFromCart commits a checkout in a single transaction: the order row,
// its item snapshots, a conditional stock decrement per line, and the removal
// of the user's cart. The decrement is guarded by stock >= quantity so that
// a concurrent checkout can never drive stock negative; when the guard fails
// the whole transaction rolls back with ErrInsufficientStock.
func (r *orderRepository) CreateFromCart(ctx context.Context, order *domain.Order, items []*domain.OrderItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	orderQuery := `
		INSERT INTO orders (id, user_id, order_date, total_amount, items_count, status, completed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = tx.ExecContext(
		ctx,
		orderQuery,
		order.ID,
		order.UserID,
		order.OrderDate,
		order.TotalAmount,
		order.ItemsCount,
		order.Status,
		order.CompletedAt,
		order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, product_name, product_description,
		                         product_price, product_image_url, product_group_name,
		                         quantity, total_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	decrementQuery := `
		UPDATE products
		SET stock = stock - $2
		WHERE id = $1 AND deleted_at IS NULL AND stock >= $2
	`

	for _, item := range items {
		_, err = tx.ExecContext(
			ctx,
			itemQuery,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.ProductName,
			item.ProductDescription,
			item.ProductPrice,
			item.ProductImageURL,
			item.ProductGroupName,
			item.Quantity,
			item.TotalPrice,
			item.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}

		result, err := tx.ExecContext(ctx, decrementQuery, item.ProductID, item.Quantity)
		if err != nil {
			return fmt.Errorf("failed to decrement stock: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		if rowsAffected == 0 {
			return fmt.Errorf("product %q: %w", item.ProductName, ErrInsufficientStock)
		}
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, order.UserID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit checkout: %w", err)
	}

	return nil
}

const orderColumns = `id, user_id, order_date, total_amount, items_count, status, completed_at, created_at`

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	order := &domain.Order{}
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.OrderDate,
		&order.TotalAmount,
		&order.ItemsCount,
		&order.Status,
		&order.CompletedAt,
		&order.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// FindByID retrieves an order owned by userID with its item snapshots.
// An order belonging to a different user is reported as not found.
func (r *orderRepository) FindByID(ctx context.Context, orderID, userID uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND user_id = $2`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, orderID, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}

	if order.Items, err = r.loadItems(ctx, order.ID); err != nil {
		return nil, err
	}

	return order, nil
}

// FindLast retrieves the user's most recent order with its items
func (r *orderRepository) FindLast(ctx context.Context, userID uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY order_date DESC LIMIT 1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find last order: %w", err)
	}

	if order.Items, err = r.loadItems(ctx, order.ID); err != nil {
		return nil, err
	}

	return order, nil
}

// ListByUser retrieves the user's orders newest first, items included
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY order_date DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	for _, order := range orders {
		if order.Items, err = r.loadItems(ctx, order.ID); err != nil {
			return nil, err
		}
	}

	return orders, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, product_name, product_description, product_price,
		       product_image_url, product_group_name, quantity, total_price, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	items := []*domain.OrderItem{}
	for rows.Next() {
		item := &domain.OrderItem{}
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.ProductDescription,
			&item.ProductPrice,
			&item.ProductImageURL,
			&item.ProductGroupName,
			&item.Quantity,
			&item.TotalPrice,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}
