package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartService defines the business logic for a user's cart. Every quantity
// change is validated against the product's current stock; no reservation is
// held between a check and a later checkout, so two concurrent operations on
// the same line can race (serialized only by the store's row-level locking;
// the checkout transaction is the final authority, see OrderService).
type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error)
	AddToCart(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	AdjustQuantity(ctx context.Context, userID, productID uuid.UUID, delta int) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
	Count(ctx context.Context, userID uuid.UUID) (int, error)
	Total(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService creates a new instance of CartService
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// GetCart returns the user's cart lines with their product rows attached
func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error) {
	items, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return items, nil
}

// AddToCart adds quantity to the user's line for the product, creating the
// line when absent. The combined quantity must not exceed the live stock.
func (s *cartService) AddToCart(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	product, err := s.productRepo.FindLiveByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return &ProductUnavailableError{ProductName: productID.String()}
		}
		return fmt.Errorf("failed to load product: %w", err)
	}

	newQuantity := quantity
	existing, err := s.cartRepo.Find(ctx, userID, productID)
	if err != nil && !errors.Is(err, repository.ErrCartItemNotFound) {
		return fmt.Errorf("failed to load cart item: %w", err)
	}
	if existing != nil {
		newQuantity = existing.Quantity + quantity
	}

	if newQuantity > product.Stock {
		return &InsufficientStockError{
			ProductName: product.Name,
			Available:   product.Stock,
			Requested:   newQuantity,
		}
	}

	return s.upsertLine(ctx, userID, productID, newQuantity, existing)
}

// SetQuantity overwrites the line's quantity. Zero removes the line; the
// operation is a no-op when the line does not exist and quantity is zero.
func (s *cartService) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}

	existing, err := s.cartRepo.Find(ctx, userID, productID)
	if err != nil {
		if errors.Is(err, repository.ErrCartItemNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load cart item: %w", err)
	}

	if quantity == 0 {
		return s.Remove(ctx, userID, productID)
	}

	product, err := s.productRepo.FindLiveByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return &ProductUnavailableError{ProductName: productID.String()}
		}
		return fmt.Errorf("failed to load product: %w", err)
	}

	if quantity > product.Stock {
		return &InsufficientStockError{
			ProductName: product.Name,
			Available:   product.Stock,
			Requested:   quantity,
		}
	}

	return s.upsertLine(ctx, userID, productID, quantity, existing)
}

// AdjustQuantity applies a signed delta to the line's quantity. Driving the
// quantity to zero removes the line; below zero is invalid. Absent lines are
// left untouched.
func (s *cartService) AdjustQuantity(ctx context.Context, userID, productID uuid.UUID, delta int) error {
	existing, err := s.cartRepo.Find(ctx, userID, productID)
	if err != nil {
		if errors.Is(err, repository.ErrCartItemNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load cart item: %w", err)
	}

	newQuantity := existing.Quantity + delta
	if newQuantity < 0 {
		return ErrInvalidQuantity
	}
	if newQuantity == 0 {
		return s.Remove(ctx, userID, productID)
	}

	product, err := s.productRepo.FindLiveByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return &ProductUnavailableError{ProductName: productID.String()}
		}
		return fmt.Errorf("failed to load product: %w", err)
	}

	if newQuantity > product.Stock {
		return &InsufficientStockError{
			ProductName: product.Name,
			Available:   product.Stock,
			Requested:   newQuantity,
		}
	}

	return s.upsertLine(ctx, userID, productID, newQuantity, existing)
}

// Remove deletes the line. Removing an absent line is a no-op.
func (s *cartService) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	if err := s.cartRepo.Delete(ctx, userID, productID); err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

// Clear deletes all lines for the user
func (s *cartService) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.cartRepo.Clear(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// Count returns the number of distinct cart lines. This is deliberately not
// the summed quantity.
func (s *cartService) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := s.cartRepo.Count(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count cart items: %w", err)
	}
	return count, nil
}

// Total sums quantity times the live product price over the cart
func (s *cartService) Total(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	total, err := s.cartRepo.Total(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to compute cart total: %w", err)
	}
	return total, nil
}

func (s *cartService) upsertLine(ctx context.Context, userID, productID uuid.UUID, quantity int, existing *domain.CartItem) error {
	item := &domain.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		AddedAt:   time.Now(),
	}
	if existing != nil {
		item.ID = existing.ID
		item.AddedAt = existing.AddedAt
	}

	if err := s.cartRepo.Upsert(ctx, item); err != nil {
		return fmt.Errorf("failed to save cart item: %w", err)
	}

	return nil
}
