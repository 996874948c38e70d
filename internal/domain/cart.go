package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is one line of a user's cart, unique per (user, product).
// Quantity is always positive: a line that would reach zero is deleted
// instead of being stored.
type CartItem struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	ProductID uuid.UUID  `json:"product_id" db:"product_id"`
	Quantity  int        `json:"quantity" db:"quantity"`
	AddedAt   time.Time  `json:"added_at" db:"added_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`

	// Product is populated by cart reads that join the live product row.
	Product *Product `json:"product,omitempty" db:"-"`
}

// LineTotal is quantity times the live product price. Zero when the
// product has not been loaded.
func (c *CartItem) LineTotal() decimal.Decimal {
	if c.Product == nil {
		return decimal.Zero
	}
	return c.Product.Price.Mul(decimal.NewFromInt(int64(c.Quantity)))
}
