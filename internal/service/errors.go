package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity    = errors.New("quantity must be a positive number")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrOrderNotFound      = errors.New("order not found or not owned by you")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrProductUnavailable = errors.New("product is no longer available")
)

// InsufficientStockError carries the product and quantities behind an
// ErrInsufficientStock failure so callers can build precise messages.
type InsufficientStockError struct {
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %q: available %d, requested %d",
		e.ProductName, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// ProductUnavailableError names the missing or soft-deleted product behind
// an ErrProductUnavailable failure.
type ProductUnavailableError struct {
	ProductName string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %q is no longer available", e.ProductName)
}

func (e *ProductUnavailableError) Is(target error) bool {
	return target == ErrProductUnavailable
}
