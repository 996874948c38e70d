package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrCartItemNotFound = errors.New("cart item not found")
)

// CartRepository defines the interface for cart line data access. Lines are
// unique per (user, product); Upsert overwrites the quantity of an existing
// line. Quantity arithmetic lives in the service layer.
type CartRepository interface {
	Find(ctx context.Context, userID, productID uuid.UUID) (*domain.CartItem, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error)
	Upsert(ctx context.Context, item *domain.CartItem) error
	Delete(ctx context.Context, userID, productID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
	Count(ctx context.Context, userID uuid.UUID) (int, error)
	Total(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
}

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(db *sql.DB) CartRepository {
	return &cartRepository{db: db}
}

// Find retrieves a single cart line for (user, product)
func (r *cartRepository) Find(ctx context.Context, userID, productID uuid.UUID) (*domain.CartItem, error) {
	query := `
		SELECT id, user_id, product_id, quantity, added_at, updated_at
		FROM cart_items
		WHERE user_id = $1 AND product_id = $2
	`

	item := &domain.CartItem{}
	err := r.db.QueryRowContext(ctx, query, userID, productID).Scan(
		&item.ID,
		&item.UserID,
		&item.ProductID,
		&item.Quantity,
		&item.AddedAt,
		&item.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCartItemNotFound
		}
		return nil, fmt.Errorf("failed to find cart item: %w", err)
	}

	return item, nil
}

// ListByUser retrieves the user's cart lines joined with their product rows.
// The product row is included even when soft-deleted so checkout can detect
// lines that reference a product that has since disappeared.
func (r *cartRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error) {
	query := `
		SELECT c.id, c.user_id, c.product_id, c.quantity, c.added_at, c.updated_at,
		       p.id, p.group_id, p.name, p.description, p.slug, p.price, p.stock,
		       p.image_url, p.created_at, p.updated_at, p.deleted_at
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.added_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	items := []*domain.CartItem{}
	for rows.Next() {
		item := &domain.CartItem{Product: &domain.Product{}}
		err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.ProductID,
			&item.Quantity,
			&item.AddedAt,
			&item.UpdatedAt,
			&item.Product.ID,
			&item.Product.GroupID,
			&item.Product.Name,
			&item.Product.Description,
			&item.Product.Slug,
			&item.Product.Price,
			&item.Product.Stock,
			&item.Product.ImageURL,
			&item.Product.CreatedAt,
			&item.Product.UpdatedAt,
			&item.Product.DeletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return items, nil
}

// Upsert inserts the line or overwrites the quantity of an existing one,
// touching updated_at on conflict.
func (r *cartRepository) Upsert(ctx context.Context, item *domain.CartItem) error {
	query := `
		INSERT INTO cart_items (id, user_id, product_id, quantity, added_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ON CONSTRAINT cart_items_user_product_key
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		item.ID,
		item.UserID,
		item.ProductID,
		item.Quantity,
		item.AddedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert cart item: %w", err)
	}

	return nil
}

// Delete removes a cart line. Deleting an absent line is a no-op.
func (r *cartRepository) Delete(ctx context.Context, userID, productID uuid.UUID) error {
	query := `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`

	if _, err := r.db.ExecContext(ctx, query, userID, productID); err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}

	return nil
}

// Clear removes all cart lines for the user
func (r *cartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM cart_items WHERE user_id = $1`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return nil
}

// Count returns the number of distinct cart lines, not the summed quantity.
func (r *cartRepository) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM cart_items WHERE user_id = $1`

	var count int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cart items: %w", err)
	}

	return count, nil
}

// Total sums quantity times the live product price over the user's cart.
func (r *cartRepository) Total(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(c.quantity * p.price), 0)
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
	`

	var total decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum cart total: %w", err)
	}

	return total, nil
}
