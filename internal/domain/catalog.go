package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductGroup represents a node in the catalog group tree. Groups are
// soft-deleted: a non-nil DeletedAt hides the group from all normal queries.
type ProductGroup struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty" db:"parent_id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	Slug        string     `json:"slug" db:"slug"`
	ImageURL    string     `json:"image_url" db:"image_url"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" db:"updated_at"`
	DeletedAt   *time.Time `json:"-" db:"deleted_at"`
}

// Product represents a catalog product. Slug is unique among non-deleted
// products, Name is unique within its group among non-deleted products.
type Product struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	GroupID     *uuid.UUID      `json:"group_id,omitempty" db:"group_id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Slug        string          `json:"slug" db:"slug"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Stock       int             `json:"stock" db:"stock"`
	ImageURL    string          `json:"image_url" db:"image_url"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty" db:"updated_at"`
	DeletedAt   *time.Time      `json:"-" db:"deleted_at"`
}

// Deleted reports whether the product has been soft-deleted.
func (p *Product) Deleted() bool {
	return p.DeletedAt != nil
}
