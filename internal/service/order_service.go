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

// UnavailableProduct describes one repeat-order line that could not be fully
// restored to the cart.
type UnavailableProduct struct {
	ProductName       string `json:"productName"`
	RequestedQuantity int    `json:"requestedQuantity"`
	AvailableQuantity int    `json:"availableQuantity"`
	Message           string `json:"message"`
}

// RepeatOrderResult is the structured outcome of a repeat-order call.
// UnavailableProducts is nil when every item was restored in full.
type RepeatOrderResult struct {
	Success             bool                 `json:"success"`
	Message             string               `json:"message"`
	UnavailableProducts []UnavailableProduct `json:"unavailableProducts,omitempty"`
}

// OrderService converts carts into immutable orders and repeats past orders
// back into the cart.
type OrderService interface {
	Checkout(ctx context.Context, userID uuid.UUID) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID, userID uuid.UUID) (*domain.Order, error)
	GetLastOrder(ctx context.Context, userID uuid.UUID) (*domain.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	RepeatOrder(ctx context.Context, userID, orderID uuid.UUID, overrides map[uuid.UUID]int) (*RepeatOrderResult, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	groupRepo   repository.GroupRepository
	cartService CartService
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	groupRepo repository.GroupRepository,
	cartService CartService,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		groupRepo:   groupRepo,
		cartService: cartService,
	}
}

// Checkout turns the user's cart into an order. The operation is
// all-or-nothing: any line whose product is gone or short on stock aborts
// the whole checkout, and the order, its item snapshots, the stock
// decrements and the cart cleanup commit in a single transaction.
func (s *orderService) Checkout(ctx context.Context, userID uuid.UUID) (*domain.Order, error) {
	cartItems, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(cartItems) == 0 {
		return nil, ErrEmptyCart
	}

	productIDs := make([]uuid.UUID, 0, len(cartItems))
	for _, item := range cartItems {
		productIDs = append(productIDs, item.ProductID)
	}

	products, err := s.productRepo.FindLiveByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	// Validate every line before touching anything.
	for _, item := range cartItems {
		product, ok := products[item.ProductID]
		if !ok {
			name := item.ProductID.String()
			if item.Product != nil {
				name = item.Product.Name
			}
			return nil, &ProductUnavailableError{ProductName: name}
		}
		if product.Stock < item.Quantity {
			return nil, &InsufficientStockError{
				ProductName: product.Name,
				Available:   product.Stock,
				Requested:   item.Quantity,
			}
		}
	}

	now := time.Now()
	order := &domain.Order{
		ID:          uuid.New(),
		UserID:      userID,
		OrderDate:   now,
		TotalAmount: decimal.Zero,
		Status:      domain.OrderStatusCompleted,
		CompletedAt: &now,
		CreatedAt:   now,
	}

	items := make([]*domain.OrderItem, 0, len(cartItems))
	for _, cartItem := range cartItems {
		product := products[cartItem.ProductID]

		groupName := ""
		if product.GroupID != nil {
			groupName = s.groupName(ctx, *product.GroupID)
		}

		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(cartItem.Quantity)))
		items = append(items, &domain.OrderItem{
			ID:                 uuid.New(),
			OrderID:            order.ID,
			ProductID:          product.ID,
			ProductName:        product.Name,
			ProductDescription: product.Description,
			ProductPrice:       product.Price,
			ProductImageURL:    product.ImageURL,
			ProductGroupName:   groupName,
			Quantity:           cartItem.Quantity,
			TotalPrice:         lineTotal,
			CreatedAt:          now,
		})

		order.TotalAmount = order.TotalAmount.Add(lineTotal)
		order.ItemsCount += cartItem.Quantity
	}

	if err := s.orderRepo.CreateFromCart(ctx, order, items); err != nil {
		// A concurrent checkout may have consumed the stock after the
		// pre-check; surface it the same way.
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, fmt.Errorf("checkout aborted: %w", err)
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	order.Items = items
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID, userID uuid.UUID) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return order, nil
}

func (s *orderService) GetLastOrder(ctx context.Context, userID uuid.UUID) (*domain.Order, error) {
	order, err := s.orderRepo.FindLast(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load last order: %w", err)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// RepeatOrder replaces the user's cart with the items of a past order,
// degrading each line against live stock. The operation is best-effort, not
// atomic: lines added for available products persist even when other lines
// turn out to be unavailable. Overrides replace the historical quantity for
// the matching product.
func (s *orderService) RepeatOrder(ctx context.Context, userID, orderID uuid.UUID, overrides map[uuid.UUID]int) (*RepeatOrderResult, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	for _, quantity := range overrides {
		if quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
	}

	// Repeat always replaces the active cart, never merges into it.
	if err := s.cartService.Clear(ctx, userID); err != nil {
		return nil, err
	}

	productIDs := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		productIDs = append(productIDs, item.ProductID)
	}

	products, err := s.productRepo.FindLiveByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	var unavailable []UnavailableProduct
	added := 0

	for _, item := range order.Items {
		requested := item.Quantity
		if override, ok := overrides[item.ProductID]; ok {
			requested = override
		}

		product, ok := products[item.ProductID]
		if !ok {
			unavailable = append(unavailable, UnavailableProduct{
				ProductName:       item.ProductName,
				RequestedQuantity: requested,
				AvailableQuantity: 0,
				Message:           fmt.Sprintf("Product %q is no longer available and was excluded from the order.", item.ProductName),
			})
			continue
		}

		switch {
		case product.Stock >= requested:
			if err := s.cartService.AddToCart(ctx, userID, item.ProductID, requested); err != nil {
				return nil, err
			}
			added++
		case product.Stock > 0:
			if err := s.cartService.AddToCart(ctx, userID, item.ProductID, product.Stock); err != nil {
				return nil, err
			}
			added++
			unavailable = append(unavailable, UnavailableProduct{
				ProductName:       product.Name,
				RequestedQuantity: requested,
				AvailableQuantity: product.Stock,
				Message:           fmt.Sprintf("Product %q is running out. Added %d instead of %d.", product.Name, product.Stock, requested),
			})
		default:
			unavailable = append(unavailable, UnavailableProduct{
				ProductName:       product.Name,
				RequestedQuantity: requested,
				AvailableQuantity: 0,
				Message:           fmt.Sprintf("Product %q is out of stock and was excluded from the order.", product.Name),
			})
		}
	}

	result := &RepeatOrderResult{Success: true}
	if len(unavailable) == 0 {
		result.Message = "Order repeated. All items were added to the cart."
	} else {
		result.Message = fmt.Sprintf("Order repeated. Added %d items, %d unavailable.", added, len(unavailable))
		result.UnavailableProducts = unavailable
	}

	return result, nil
}

// groupName resolves a group id to its name for the order item snapshot.
// A missing group degrades to an empty name rather than failing checkout.
func (s *orderService) groupName(ctx context.Context, groupID uuid.UUID) string {
	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		return ""
	}
	return group.Name
}
