package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatusCompleted is the only status currently written. Orders are
// completed at creation time; richer lifecycle states are not modelled.
const OrderStatusCompleted = "Completed"

// Order is an immutable record of a checkout. TotalAmount and ItemsCount
// are fixed at creation from the cart contents.
type Order struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	UserID      uuid.UUID       `json:"user_id" db:"user_id"`
	OrderDate   time.Time       `json:"order_date" db:"order_date"`
	TotalAmount decimal.Decimal `json:"total_amount" db:"total_amount"`
	ItemsCount  int             `json:"items_count" db:"items_count"`
	Status      string          `json:"status" db:"status"`
	CompletedAt *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`

	Items []*OrderItem `json:"items,omitempty" db:"-"`
}

// OrderItem freezes the product data as it was at order time. Later edits
// or deletion of the product do not alter these fields.
type OrderItem struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	OrderID            uuid.UUID       `json:"order_id" db:"order_id"`
	ProductID          uuid.UUID       `json:"product_id" db:"product_id"`
	ProductName        string          `json:"product_name" db:"product_name"`
	ProductDescription string          `json:"product_description" db:"product_description"`
	ProductPrice       decimal.Decimal `json:"product_price" db:"product_price"`
	ProductImageURL    string          `json:"product_image_url" db:"product_image_url"`
	ProductGroupName   string          `json:"product_group_name" db:"product_group_name"`
	Quantity           int             `json:"quantity" db:"quantity"`
	TotalPrice         decimal.Decimal `json:"total_price" db:"total_price"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
}
